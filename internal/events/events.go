// Package events publishes ledger changes to downstream consumers.
//
// Publishing is best effort: callers log failures and carry on, so a broker
// outage never blocks recording transactions.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
)

// Type names what happened to a transaction.
type Type string

const (
	TransactionRecorded Type = "transaction.recorded"
	TransactionUpdated  Type = "transaction.updated"
	TransactionDeleted  Type = "transaction.deleted"
)

// TransactionEvent is the message body sent for every transaction write.
type TransactionEvent struct {
	Type          Type                   `json:"type"`
	GroupID       string                 `json:"group_id"`
	TransactionID string                 `json:"transaction_id"`
	Kind          models.TransactionKind `json:"kind"`
	Currency      models.Currency        `json:"currency"`
	Amount        decimal.Decimal        `json:"amount"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

// NewTransactionEvent describes tx at time now.
func NewTransactionEvent(typ Type, tx *models.Transaction, now time.Time) TransactionEvent {
	return TransactionEvent{
		Type:          typ,
		GroupID:       tx.GroupID,
		TransactionID: tx.ID,
		Kind:          tx.Kind,
		Currency:      tx.Currency,
		Amount:        tx.Amount,
		OccurredAt:    now.UTC(),
	}
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event TransactionEvent) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

var _ Publisher = Noop{}

func (Noop) Publish(context.Context, TransactionEvent) error { return nil }

func (Noop) Close() error { return nil }
