// Package validation checks transactions before they are stored, so that the
// calculator can rely on its preconditions: non-negative amounts, splits that
// sum to the expense amount and members that belong to the group.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/models"
)

// ErrInvalid is matched by every validation failure that has no more specific sentinel.
var ErrInvalid = errors.New("invalid transaction")

// Error describes one rejected field.
type Error struct {
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalid(field, reason string, sentinel error) *Error {
	return &Error{Field: field, Reason: reason, Err: sentinel}
}

// Validator validates transactions against a group roster.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the currency tag registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return models.Currency(fl.Field().String()).Valid()
	})
	return &Validator{v: v}
}

// Struct runs the validate tags of s, which must be a struct or a pointer to
// one. The first failing field is reported, named by its JSON tag.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return invalid(fieldPath(fe), fmt.Sprintf("failed %q check", fe.Tag()), ErrInvalid)
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

// fieldPath strips the top-level struct name from the namespace, so nested
// fields read "splits[1].member_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Transaction checks tx against the group's roster.
//
// Failures unwrap to calculator.ErrNegativeAmount, calculator.ErrInvalidSplitTotal,
// calculator.ErrUnknownMember or ErrInvalid.
func (val *Validator) Transaction(tx *models.Transaction, group *models.Group) error {
	if err := val.Struct(tx); err != nil {
		return err
	}

	if tx.GroupID != group.ID {
		return invalid("group_id", "transaction belongs to another group", ErrInvalid)
	}
	if err := Amount("amount", tx.Amount, tx.Currency); err != nil {
		return err
	}
	if !group.HasMember(tx.PayerID) {
		return invalid("payer_id", fmt.Sprintf("%q is not a group member", tx.PayerID), calculator.ErrUnknownMember)
	}

	switch tx.Kind {
	case models.KindExpense:
		return validateExpense(tx, group)
	case models.KindPayment:
		return validatePayment(tx, group)
	}
	return invalid("kind", fmt.Sprintf("unknown kind %q", tx.Kind), ErrInvalid)
}

// Amount checks that amount is not negative and has no more decimal places
// than currency's minor units. field names the amount in the error.
func Amount(field string, amount decimal.Decimal, currency models.Currency) error {
	if amount.IsNegative() {
		return invalid(field, "must not be negative", calculator.ErrNegativeAmount)
	}
	places := currency.MinorUnits()
	if !amount.Equal(amount.Truncate(places)) {
		return invalid(field, fmt.Sprintf("%s allows at most %d decimal places", currency, places), ErrInvalid)
	}
	return nil
}

func validateExpense(tx *models.Transaction, group *models.Group) error {
	if tx.PayeeID != "" {
		return invalid("payee_id", "expenses have no payee", ErrInvalid)
	}
	if len(tx.Splits) == 0 {
		return invalid("splits", "at least one split is required", ErrInvalid)
	}

	seen := make(map[string]bool, len(tx.Splits))
	for i, s := range tx.Splits {
		field := fmt.Sprintf("splits[%d]", i)
		if err := Amount(field+".amount", s.Amount, tx.Currency); err != nil {
			return err
		}
		if !group.HasMember(s.MemberID) {
			return invalid(field+".member_id", fmt.Sprintf("%q is not a group member", s.MemberID), calculator.ErrUnknownMember)
		}
		if seen[s.MemberID] {
			return invalid(field+".member_id", fmt.Sprintf("%q appears twice", s.MemberID), ErrInvalid)
		}
		seen[s.MemberID] = true
	}

	if total := calculator.SplitTotal(tx.Splits); !total.Equal(tx.Amount) {
		return invalid("splits", fmt.Sprintf("sum to %s, expected %s", total, tx.Amount), calculator.ErrInvalidSplitTotal)
	}
	return nil
}

func validatePayment(tx *models.Transaction, group *models.Group) error {
	if tx.PayeeID == "" {
		return invalid("payee_id", "required for payments", ErrInvalid)
	}
	if !group.HasMember(tx.PayeeID) {
		return invalid("payee_id", fmt.Sprintf("%q is not a group member", tx.PayeeID), calculator.ErrUnknownMember)
	}
	if tx.PayeeID == tx.PayerID {
		return invalid("payee_id", "payer and payee must differ", ErrInvalid)
	}
	if !tx.Amount.IsPositive() {
		return invalid("amount", "payments must be positive", ErrInvalid)
	}
	if len(tx.Splits) > 0 {
		return invalid("splits", "payments have no splits", ErrInvalid)
	}
	return nil
}
