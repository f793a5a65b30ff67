package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsettle/internal/metrics"
)

type empty struct{}

func unary(err error) connect.UnaryFunc {
	return func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		if err != nil {
			return nil, err
		}
		return connect.NewResponse(&empty{}), nil
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggingInterceptor(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantCode  string
	}{
		{name: "success", wantLevel: `"level":"INFO"`},
		{name: "client fault", err: connect.NewError(connect.CodeNotFound, errors.New("group not found")), wantLevel: `"level":"WARN"`, wantCode: `"code":"not_found"`},
		{name: "server fault", err: connect.NewError(connect.CodeInternal, errors.New("disk full")), wantLevel: `"level":"ERROR"`, wantCode: `"code":"internal"`},
		{name: "plain error", err: errors.New("boom"), wantLevel: `"level":"ERROR"`, wantCode: `"code":"unknown"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			call := LoggingInterceptor()(unary(tt.err))

			_, err := call(context.Background(), connect.NewRequest(&empty{}))
			assert.Equal(t, tt.err, err)

			out := logs.String()
			assert.Contains(t, out, tt.wantLevel)
			if tt.wantCode != "" {
				assert.Contains(t, out, tt.wantCode)
			}
		})
	}
}

func TestMetricsInterceptor(t *testing.T) {
	m := metrics.New()

	_, err := MetricsInterceptor(m)(unary(nil))(context.Background(), connect.NewRequest(&empty{}))
	require.NoError(t, err)
	_, err = MetricsInterceptor(m)(unary(connect.NewError(connect.CodeInvalidArgument, errors.New("bad"))))(context.Background(), connect.NewRequest(&empty{}))
	require.Error(t, err)

	expected := `
# HELP tabsettle_rpc_requests_total RPCs handled, by procedure and Connect code.
# TYPE tabsettle_rpc_requests_total counter
tabsettle_rpc_requests_total{code="invalid_argument",procedure=""} 1
tabsettle_rpc_requests_total{code="ok",procedure=""} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "tabsettle_rpc_requests_total"))
}

func TestMetricsInterceptorNilMetrics(t *testing.T) {
	call := MetricsInterceptor(nil)(unary(nil))
	assert.NotPanics(t, func() {
		_, _ = call(context.Background(), connect.NewRequest(&empty{}))
	})
}
