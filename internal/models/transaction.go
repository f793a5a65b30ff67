package models

import "github.com/shopspring/decimal"

// TransactionKind distinguishes expenses from direct payments.
type TransactionKind string

const (
	KindExpense TransactionKind = "EXPENSE"
	KindPayment TransactionKind = "PAYMENT"
)

// SplitMethod records how an expense's splits were produced.
type SplitMethod string

const (
	// SplitEqual divides the amount evenly among the participants.
	SplitEqual SplitMethod = "EQUAL"
	// SplitExact takes caller-provided split amounts as they are.
	SplitExact SplitMethod = "EXACT"
)

// Split is one member's share of an expense.
type Split struct {
	MemberID string          `json:"member_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

// Transaction is a recorded expense or payment within one group.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string `json:"id"`

	// GroupID is the group the transaction belongs to.
	GroupID string `json:"group_id" validate:"required"`

	// Kind is EXPENSE or PAYMENT.
	Kind TransactionKind `json:"kind" validate:"required,oneof=EXPENSE PAYMENT"`

	// Description is a short human label (e.g., "Groceries").
	Description string `json:"description" validate:"max=200"`

	// PayerID is the member who paid.
	PayerID string `json:"payer_id" validate:"required"`

	// PayeeID is the member who received a payment. Empty for expenses.
	PayeeID string `json:"payee_id,omitempty"`

	// Amount is the total paid, in Currency.
	Amount decimal.Decimal `json:"amount"`

	// Currency scopes Amount and every split amount.
	Currency Currency `json:"currency" validate:"required,currency"`

	// SplitMethod is how Splits were built. Empty for payments.
	SplitMethod SplitMethod `json:"split_method,omitempty"`

	// Splits divide an expense among members. Their sum equals Amount.
	Splits []Split `json:"splits,omitempty" validate:"dive"`

	// Active is false once the transaction has been deleted.
	Active bool `json:"active"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// IsExpense reports whether t is an expense.
func (t *Transaction) IsExpense() bool {
	return t.Kind == KindExpense
}
