package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsettle/internal/events"
	"github.com/mmynk/tabsettle/internal/models"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	tx := &models.Transaction{ID: "tx-1", GroupID: "g-1", Kind: models.KindExpense, Currency: models.USD, Amount: decimal.RequireFromString("12.50")}
	event := events.NewTransactionEvent(events.TransactionRecorded, tx, time.Unix(100, 0))
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "g-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "transaction.recorded", string(msg.Headers[0].Value))

	var got events.TransactionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "tx-1", got.TransactionID)
	assert.Equal(t, models.USD, got.Currency)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.5")))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Publisher{writer: &fakeWriter{err: boom}}

	err := p.Publish(context.Background(), events.TransactionEvent{GroupID: "g"})
	assert.ErrorIs(t, err, boom)
}
