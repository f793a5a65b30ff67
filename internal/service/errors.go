package service

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/storage"
	"github.com/mmynk/tabsettle/internal/validation"
)

// toConnectError maps domain errors to Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var verr *validation.Error
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.As(err, &verr), errors.Is(err, validation.ErrInvalid):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, calculator.ErrNegativeAmount),
		errors.Is(err, calculator.ErrInvalidSplitTotal),
		errors.Is(err, calculator.ErrUnknownMember):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(field, reason string) error {
	return connect.NewError(connect.CodeInvalidArgument,
		&validation.Error{Field: field, Reason: reason, Err: validation.ErrInvalid})
}

func failedPrecondition(format string, args ...any) error {
	return connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf(format, args...))
}
