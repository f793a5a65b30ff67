package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMember means a transaction references a member outside the roster.
	ErrUnknownMember = errors.New("unknown member")

	// ErrInvalidSplitTotal means an expense's splits do not sum to its amount.
	ErrInvalidSplitTotal = errors.New("split total does not match amount")

	// ErrNegativeAmount means an amount below zero reached validation.
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// UnknownMemberError reports which transaction named which missing member.
type UnknownMemberError struct {
	TransactionID string
	MemberID      string
	Role          string // "payer" or "payee"
}

func (e *UnknownMemberError) Error() string {
	return fmt.Sprintf("transaction %s: %s %q is not a group member", e.TransactionID, e.Role, e.MemberID)
}

// Unwrap lets errors.Is match ErrUnknownMember.
func (e *UnknownMemberError) Unwrap() error {
	return ErrUnknownMember
}
