package calculator

import (
	"sort"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/shopspring/decimal"
)

// MemberBalance is one member's net position in one currency.
type MemberBalance struct {
	MemberID string
	Currency models.Currency
	Spent    decimal.Decimal // Total paid out for the group
	Owed     decimal.Decimal // Total share of expenses
	Net      decimal.Decimal // Owed - Spent. Positive = owes, negative = is owed
}

// AggregateOption tunes Aggregate.
type AggregateOption func(*aggregateConfig)

type aggregateConfig struct {
	includePayments bool
}

// WithPayments folds PAYMENT records into the balances: the payer is credited as if
// they had spent the amount and the payee is charged it. Without this option payments
// are recorded but have no effect on balances.
func WithPayments() AggregateOption {
	return func(c *aggregateConfig) {
		c.includePayments = true
	}
}

// accumulator holds one member's running totals for one currency.
type accumulator struct {
	spend decimal.Decimal
	owe   decimal.Decimal
}

// ledger is the per-member, per-currency fold state.
type ledger map[string]map[models.Currency]*accumulator

func (l ledger) entry(memberID string, currency models.Currency) *accumulator {
	byCurrency := l[memberID]
	acc, ok := byCurrency[currency]
	if !ok {
		acc = &accumulator{spend: decimal.Zero, owe: decimal.Zero}
		byCurrency[currency] = acc
	}
	return acc
}

func (l ledger) has(memberID string) bool {
	_, ok := l[memberID]
	return ok
}

// Aggregate folds transactions into per-member, per-currency net balances.
//
// members is the group roster; every split naming someone outside it is ignored.
// transactions must already be restricted to one group's active records: no
// filtering happens here. An expense whose payer is not on the roster fails the
// whole call with an *UnknownMemberError.
//
// One MemberBalance is emitted per (member, currency) pair with any spend or owe,
// ordered by roster position and then by currency code. Amounts are never rounded.
func Aggregate(members []string, transactions []models.Transaction, opts ...AggregateOption) ([]MemberBalance, error) {
	var cfg aggregateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	roster := make([]string, 0, len(members))
	acc := make(ledger, len(members))
	for _, id := range members {
		if acc.has(id) {
			continue
		}
		roster = append(roster, id)
		acc[id] = make(map[models.Currency]*accumulator)
	}

	for i := range transactions {
		tx := &transactions[i]
		switch tx.Kind {
		case models.KindExpense:
			if !acc.has(tx.PayerID) {
				return nil, &UnknownMemberError{TransactionID: tx.ID, MemberID: tx.PayerID, Role: "payer"}
			}
			payer := acc.entry(tx.PayerID, tx.Currency)
			payer.spend = payer.spend.Add(tx.Amount)

			for _, split := range tx.Splits {
				if !acc.has(split.MemberID) {
					continue
				}
				member := acc.entry(split.MemberID, tx.Currency)
				member.owe = member.owe.Add(split.Amount)
			}

		case models.KindPayment:
			if !cfg.includePayments {
				continue
			}
			if !acc.has(tx.PayerID) {
				return nil, &UnknownMemberError{TransactionID: tx.ID, MemberID: tx.PayerID, Role: "payer"}
			}
			if !acc.has(tx.PayeeID) {
				return nil, &UnknownMemberError{TransactionID: tx.ID, MemberID: tx.PayeeID, Role: "payee"}
			}
			payer := acc.entry(tx.PayerID, tx.Currency)
			payer.spend = payer.spend.Add(tx.Amount)
			payee := acc.entry(tx.PayeeID, tx.Currency)
			payee.owe = payee.owe.Add(tx.Amount)
		}
	}

	var balances []MemberBalance
	for _, id := range roster {
		byCurrency := acc[id]
		currencies := make([]models.Currency, 0, len(byCurrency))
		for c := range byCurrency {
			currencies = append(currencies, c)
		}
		sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

		for _, c := range currencies {
			a := byCurrency[c]
			if a.spend.IsZero() && a.owe.IsZero() {
				continue
			}
			balances = append(balances, MemberBalance{
				MemberID: id,
				Currency: c,
				Spent:    a.spend,
				Owed:     a.owe,
				Net:      a.owe.Sub(a.spend),
			})
		}
	}

	return balances, nil
}
