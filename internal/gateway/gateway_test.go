package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/quantfold/backtestctl/internal/config"
	"github.com/quantfold/backtestctl/internal/core"
	"github.com/quantfold/backtestctl/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServiceConfig(baseURL string) config.ServiceConfig {
	return config.ServiceConfig{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		RetryMax:     0,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 10 * time.Millisecond,
	}
}

func TestClient_ListStrategies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/strategies", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-ID"), "every call carries a request id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"strategies":[{"id":"s-1","name":"SMA Cross"},{"id":"s-2","name":"RSI"}],"total":2}`))
	}))
	defer srv.Close()

	c := gateway.New(testServiceConfig(srv.URL), nil)

	strategies, err := c.ListStrategies(context.Background())
	require.NoError(t, err)
	require.Len(t, strategies, 2)
	assert.Equal(t, "s-1", strategies[0].ID)
	assert.Equal(t, "SMA Cross", strategies[0].Name)
}

func TestClient_ListStrategies_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := gateway.New(testServiceConfig(srv.URL), nil)

	_, err := c.ListStrategies(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrServiceUnavailable))
}

func TestClient_ListBacktests_OrderPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"backtests":[
			{"id":"b-3","symbol":"AAPL","total_return":4.2},
			{"id":"b-2","symbol":"MSFT","total_return":-1.1},
			{"id":"b-1","symbol":"TSLA","total_return":9.9}
		],"total":3}`))
	}))
	defer srv.Close()

	c := gateway.New(testServiceConfig(srv.URL), nil)

	backtests, err := c.ListBacktests(context.Background())
	require.NoError(t, err)
	require.Len(t, backtests, 3)

	// Server-given order is ground truth.
	assert.Equal(t, "b-3", backtests[0].ID)
	assert.Equal(t, "b-2", backtests[1].ID)
	assert.Equal(t, "b-1", backtests[2].ID)
}

func TestClient_SubmitBacktest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"backtest_id":"b-42","metrics":{"total_return":12.5,"total_trades":8}}`))
	}))
	defer srv.Close()

	c := gateway.New(testServiceConfig(srv.URL), nil)

	result, err := c.SubmitBacktest(context.Background(), core.DefaultRunConfig())
	require.NoError(t, err)
	assert.Equal(t, "b-42", result.BacktestID)
	assert.Equal(t, 12.5, result.Metrics.TotalReturn)
	assert.Equal(t, 8, result.Metrics.TotalTrades)
}

func TestClient_SubmitBacktest_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"invalid date range"}`))
	}))
	defer srv.Close()

	c := gateway.New(testServiceConfig(srv.URL), nil)

	_, err := c.SubmitBacktest(context.Background(), core.DefaultRunConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrServerRejected))

	var coreErr *core.Error
	require.True(t, errors.As(err, &coreErr))
	assert.Equal(t, "invalid date range", coreErr.Message, "detail must be carried verbatim")
}

func TestClient_SubmitBacktest_NoRetryOnServerError(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testServiceConfig(srv.URL)
	cfg.RetryMax = 3
	c := gateway.New(cfg, nil)

	_, err := c.SubmitBacktest(context.Background(), core.DefaultRunConfig())
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "a POST must not be replayed once a response arrived")
}

func TestClient_FetchChartData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/analytics/chart", r.URL.Path)
		require.Equal(t, "b-7", r.URL.Query().Get("backtest_id"))
		w.Write([]byte(`{
			"equity_curve":[
				{"timestamp":"2023-01-02T00:00:00Z","value":100},
				{"timestamp":"2023-01-03T00:00:00Z","value":110},
				{"timestamp":"2023-01-04T00:00:00Z","value":95}
			],
			"trades":[],"market_data":[]
		}`))
	}))
	defer srv.Close()

	c := gateway.New(testServiceConfig(srv.URL), nil)

	payload, err := c.FetchChartData(context.Background(), "b-7")
	require.NoError(t, err)
	require.Len(t, payload.EquityCurve, 3)
	assert.Equal(t, 100.0, payload.EquityCurve[0].Value)
	assert.Equal(t, 110.0, payload.EquityCurve[1].Value)
	assert.Equal(t, 95.0, payload.EquityCurve[2].Value)
}

func TestClient_FetchReportArtifact(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake report body")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/backtests/b-9/report", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	}))
	defer srv.Close()

	c := gateway.New(testServiceConfig(srv.URL), nil)

	data, err := c.FetchReportArtifact(context.Background(), "b-9")
	require.NoError(t, err)
	assert.Equal(t, pdf, data)
}

func TestClient_GetBacktest_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := gateway.New(testServiceConfig(srv.URL), nil)

	_, err := c.GetBacktest(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestClient_DeleteBacktest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/v1/backtests/b-5", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := gateway.New(testServiceConfig(srv.URL), nil)
	require.NoError(t, c.DeleteBacktest(context.Background(), "b-5"))
}

func TestClient_RetryOnIdempotentGet(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"strategies":[],"total":0}`))
	}))
	defer srv.Close()

	cfg := testServiceConfig(srv.URL)
	cfg.RetryMax = 2
	c := gateway.New(cfg, nil)

	strategies, err := c.ListStrategies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, strategies)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingObserver) ObserveRequest(op, outcome string, seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op+"/"+outcome)
}

func TestClient_Observer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"backtests":[],"total":0}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := gateway.New(testServiceConfig(srv.URL), nil, gateway.WithObserver(obs))

	_, err := c.ListBacktests(context.Background())
	require.NoError(t, err)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.calls, 1)
	assert.Equal(t, "list_backtests/http_200", obs.calls[0])
}
