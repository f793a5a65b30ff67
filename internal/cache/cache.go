// Package cache stores rendered group summaries between writes.
package cache

import "context"

// SummaryCache holds one encoded summary per group.
//
// Each group has a generation that Invalidate advances. A reader takes the
// generation before loading the data it summarizes and passes it to Set, which
// stores nothing if the group was invalidated in between. Writers must
// Invalidate a group after changing its roster or transactions.
type SummaryCache interface {
	// Get returns the cached summary, or ok=false on a miss.
	Get(ctx context.Context, groupID string) (data []byte, ok bool, err error)
	// Generation returns the group's current generation.
	Generation(ctx context.Context, groupID string) (int64, error)
	// Set stores data if the group is still at generation. It reports
	// whether the entry was stored.
	Set(ctx context.Context, groupID string, generation int64, data []byte) (bool, error)
	Invalidate(ctx context.Context, groupID string) error
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

var _ SummaryCache = Noop{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Generation(context.Context, string) (int64, error) { return 0, nil }

func (Noop) Set(context.Context, string, int64, []byte) (bool, error) { return false, nil }

func (Noop) Invalidate(context.Context, string) error { return nil }
