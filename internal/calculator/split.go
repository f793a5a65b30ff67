package calculator

import (
	"fmt"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/shopspring/decimal"
)

// SplitEqually divides amount among memberIDs in the currency's minor units.
// Leftover units go one each to the first members, so the splits always sum
// to amount exactly. amount is first rounded to the currency's minor units.
func SplitEqually(amount decimal.Decimal, currency models.Currency, memberIDs []string) ([]models.Split, error) {
	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}

	places := currency.MinorUnits()
	unit := decimal.New(1, -places)
	total := amount.Round(places)

	n := decimal.NewFromInt(int64(len(memberIDs)))
	share := total.Div(n).RoundDown(places)
	leftover := total.Sub(share.Mul(n)).Div(unit).IntPart()

	splits := make([]models.Split, len(memberIDs))
	for i, id := range memberIDs {
		amt := share
		if int64(i) < leftover {
			amt = amt.Add(unit)
		}
		splits[i] = models.Split{MemberID: id, Amount: amt}
	}
	return splits, nil
}

// SplitTotal sums split amounts.
func SplitTotal(splits []models.Split) decimal.Decimal {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.Amount)
	}
	return total
}
