// Package service implements the tabsettle Connect services.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/tabsettle/internal/cache"
	"github.com/mmynk/tabsettle/internal/events"
	"github.com/mmynk/tabsettle/internal/metrics"
)

const publishTimeout = 5 * time.Second

// Option configures a service.
type Option func(*options)

type options struct {
	cache           cache.SummaryCache
	publisher       events.Publisher
	metrics         *metrics.Metrics
	includePayments bool
	now             func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		cache:     cache.Noop{},
		publisher: events.Noop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCache stores computed summaries in c.
func WithCache(c cache.SummaryCache) Option {
	return func(o *options) { o.cache = c }
}

// WithPublisher sends transaction events to p.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithMetrics records plan sizes and engine failures in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithPayments makes recorded payments count towards balances.
func WithPayments(include bool) Option {
	return func(o *options) { o.includePayments = include }
}

// invalidate drops cached summaries. Failures are logged; the entry still
// expires on its TTL.
func (o *options) invalidate(ctx context.Context, groupIDs ...string) {
	for _, id := range groupIDs {
		if err := o.cache.Invalidate(ctx, id); err != nil {
			slog.WarnContext(ctx, "Failed to invalidate summary cache", "group_id", id, "error", err)
		}
	}
}

// publish sends an event without failing the caller.
func (o *options) publish(ctx context.Context, event events.TransactionEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := o.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish transaction event",
			"type", event.Type,
			"transaction_id", event.TransactionID,
			"error", err,
		)
	}
}
