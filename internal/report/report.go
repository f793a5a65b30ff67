// Package report renders balances and settlements as human-readable lines.
package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/models"
)

// AlreadySettled is the single line rendered for an empty plan.
const AlreadySettled = "It is already settled among members"

// Names resolves member IDs to display names. Unknown IDs render as the ID.
type Names map[string]string

// Name returns the display name for id.
func (n Names) Name(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return id
}

// FormatAmount fixes amount to the currency's minor units, e.g. "30.00 USD".
func FormatAmount(amount decimal.Decimal, currency models.Currency) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(currency.MinorUnits()), currency)
}

// BalanceLine renders one balance: "Bob: 30.00 USD (owes)",
// "Alice: -60.00 USD (is owed)" or "Carol: 0.00 USD". The label follows the
// amount as printed, so a net that rounds to zero gets none.
func BalanceLine(names Names, b calculator.MemberBalance) string {
	net := b.Net.Round(b.Currency.MinorUnits())
	line := fmt.Sprintf("%s: %s", names.Name(b.MemberID), FormatAmount(net, b.Currency))
	switch {
	case net.IsPositive():
		return line + " (owes)"
	case net.IsNegative():
		return line + " (is owed)"
	default:
		return line
	}
}

// SettlementLine renders one transfer: "Bob should pay 30.00 USD to Alice".
func SettlementLine(names Names, s calculator.Settlement) string {
	return fmt.Sprintf("%s should pay %s to %s",
		names.Name(s.From), FormatAmount(s.Amount, s.Currency), names.Name(s.To))
}

// Lines renders every balance followed by every settlement, or AlreadySettled
// in place of the settlements when there are none.
func Lines(names Names, balances []calculator.MemberBalance, settlements []calculator.Settlement) []string {
	lines := make([]string, 0, len(balances)+len(settlements)+1)
	for _, b := range balances {
		lines = append(lines, BalanceLine(names, b))
	}
	if len(settlements) == 0 {
		return append(lines, AlreadySettled)
	}
	for _, s := range settlements {
		lines = append(lines, SettlementLine(names, s))
	}
	return lines
}
