package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	m, err := New(Config{Enabled: false})
	require.NoError(t, err)
	require.Nil(t, m)

	// Nil Metrics methods must be safe no-ops.
	m.RecordQuery(context.Background(), time.Second, 3, "ok")
	m.RecordLLMCall(context.Background(), "openai", "driver", time.Millisecond, 1, 1)
	m.RecordSandboxExecute(context.Background(), time.Millisecond, "ok")
}

func TestNew_EnabledExposesPrometheusFormat(t *testing.T) {
	m, err := New(Config{Enabled: true})
	require.NoError(t, err)
	require.NotNil(t, m)

	m.RecordQuery(context.Background(), 2*time.Second, 5, "ok")
	m.RecordLLMCall(context.Background(), "anthropic", "driver", 500*time.Millisecond, 10, 20)
	m.RecordSandboxExecute(context.Background(), 100*time.Millisecond, "ok")
	m.RecordSubcall(context.Background())

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "shesha_queries_total")
	require.Contains(t, string(body), "shesha_llm_calls_total")
}

func TestHandler_DisabledReturns503(t *testing.T) {
	var m *Metrics
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 503, resp.StatusCode)
}
