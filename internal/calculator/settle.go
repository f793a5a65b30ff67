package calculator

import (
	"sort"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/shopspring/decimal"
)

// Settlement is a single transfer instruction: From pays To Amount in Currency.
type Settlement struct {
	From     string
	To       string
	Amount   decimal.Decimal
	Currency models.Currency
}

// party is a debtor or creditor with the amount still to be matched (always positive).
type party struct {
	memberID  string
	remaining decimal.Decimal
}

// Plan turns net balances into transfers that bring every balance to zero.
//
// Each currency is settled on its own, in ascending currency code order.
// Within a currency, debtors and creditors are sorted by amount descending (stable,
// so equal amounts keep their input order) and the largest of each are matched
// repeatedly. This yields at most debtors+creditors-1 settlements per currency.
func Plan(balances []MemberBalance) []Settlement {
	type book struct {
		debtors   []party
		creditors []party
	}

	books := make(map[models.Currency]*book)
	var currencies []models.Currency
	for _, bal := range balances {
		b, ok := books[bal.Currency]
		if !ok {
			b = &book{}
			books[bal.Currency] = b
			currencies = append(currencies, bal.Currency)
		}
		switch bal.Net.Sign() {
		case 1:
			b.debtors = append(b.debtors, party{memberID: bal.MemberID, remaining: bal.Net})
		case -1:
			b.creditors = append(b.creditors, party{memberID: bal.MemberID, remaining: bal.Net.Abs()})
		}
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

	var settlements []Settlement
	for _, currency := range currencies {
		b := books[currency]
		settlements = append(settlements, settleCurrency(currency, b.debtors, b.creditors)...)
	}
	return settlements
}

// settleCurrency runs the greedy two-pointer match for one currency.
func settleCurrency(currency models.Currency, debtors, creditors []party) []Settlement {
	if len(debtors) == 0 || len(creditors) == 0 {
		return nil
	}

	byAmountDesc := func(parties []party) func(i, j int) bool {
		return func(i, j int) bool {
			return parties[i].remaining.GreaterThan(parties[j].remaining)
		}
	}
	sort.SliceStable(debtors, byAmountDesc(debtors))
	sort.SliceStable(creditors, byAmountDesc(creditors))

	settlements := make([]Settlement, 0, len(debtors)+len(creditors)-1)
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := decimal.Min(debtor.remaining, creditor.remaining)
		settlements = append(settlements, Settlement{
			From:     debtor.memberID,
			To:       creditor.memberID,
			Amount:   amount,
			Currency: currency,
		})

		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		if debtor.remaining.IsZero() {
			i++
		}
		if creditor.remaining.IsZero() {
			j++
		}
	}
	return settlements
}
