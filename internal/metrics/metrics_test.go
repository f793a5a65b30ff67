package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveRPC("/tabsettle.v1.LedgerService/GetGroupSummary", "ok", 20*time.Millisecond)
	m.ObserveRPC("/tabsettle.v1.LedgerService/GetGroupSummary", "ok", 10*time.Millisecond)
	m.ObserveRPC("/tabsettle.v1.LedgerService/GetGroupSummary", "not_found", time.Millisecond)
	m.ObservePlan(2)
	m.EngineFailure("unknown_member")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/tabsettle.v1.LedgerService/GetGroupSummary", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/tabsettle.v1.LedgerService/GetGroupSummary", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.engineFailures.WithLabelValues("unknown_member")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.planSettlements))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRPC("p", "ok", time.Second)
		m.ObservePlan(1)
		m.EngineFailure("x")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObservePlan(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "tabsettle_settlements_per_plan_count 1"))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
