package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsettle/internal/api"
	"github.com/mmynk/tabsettle/internal/api/apiconnect"
	"github.com/mmynk/tabsettle/internal/events"
	"github.com/mmynk/tabsettle/internal/metrics"
	"github.com/mmynk/tabsettle/internal/middleware"
	"github.com/mmynk/tabsettle/internal/storage"
	"github.com/mmynk/tabsettle/internal/storage/memory"
)

// recordingPublisher keeps every event it is given.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TransactionEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	groups    apiconnect.GroupServiceClient
	ledger    apiconnect.LedgerServiceClient
	store     storage.Store
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

// setupTestServer serves both services over httptest backed by a memory store.
func setupTestServer(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	return setupTestServerWithStore(t, memory.New(), opts...)
}

func setupTestServerWithStore(t *testing.T, store storage.Store, opts ...Option) *testEnv {
	t.Helper()

	env := &testEnv{
		store:     store,
		publisher: &recordingPublisher{},
		metrics:   metrics.New(),
	}
	opts = append([]Option{WithPublisher(env.publisher), WithMetrics(env.metrics)}, opts...)

	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(),
		middleware.MetricsInterceptor(env.metrics),
	)
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(env.store, opts...), interceptors)
	ledgerPath, ledgerHandler := apiconnect.NewLedgerServiceHandler(NewLedgerService(env.store, opts...), interceptors)

	mux := http.NewServeMux()
	mux.Handle(groupPath, groupHandler)
	mux.Handle(ledgerPath, ledgerHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		env.store.Close()
	})

	env.groups = apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL)
	env.ledger = apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL)
	return env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (env *testEnv) member(t *testing.T, name string) string {
	t.Helper()
	resp, err := env.groups.CreateMember(context.Background(), connect.NewRequest(&api.CreateMemberRequest{Name: name}))
	require.NoError(t, err)
	return resp.Msg.Member.ID
}

func (env *testEnv) group(t *testing.T, name string, memberIDs ...string) string {
	t.Helper()
	resp, err := env.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{
		Name:      name,
		MemberIDs: memberIDs,
	}))
	require.NoError(t, err)
	return resp.Msg.Group.ID
}

func requireCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, connect.CodeOf(err), "error: %v", err)
}
