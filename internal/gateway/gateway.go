package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/quantfold/backtestctl/internal/config"
	"github.com/quantfold/backtestctl/internal/core"
	"go.uber.org/zap"
)

// Observer records the outcome of gateway calls. Implemented by
// metrics.Registry; a nil observer is a no-op.
type Observer interface {
	ObserveRequest(operation, outcome string, seconds float64)
}

// Client is the typed HTTP client for the remote backtest service. It holds
// no state beyond the transport: every operation is independently retryable
// by the caller.
type Client struct {
	baseURL  string
	http     *retryablehttp.Client
	log      *zap.Logger
	observer Observer
}

// Option configures optional Client behavior.
type Option func(*Client)

// WithObserver attaches a request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a gateway client against the configured service base URL.
func New(cfg config.ServiceConfig, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.CheckRetry = checkRetry
	rc.Logger = nil

	c := &Client{
		baseURL: cfg.BaseURL,
		http:    rc,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListStrategies fetches the strategies known to the service.
func (c *Client) ListStrategies(ctx context.Context) ([]core.StrategyRef, error) {
	var out strategiesResponse
	if err := c.getJSON(ctx, "list_strategies", "/api/v1/strategies", &out); err != nil {
		return nil, err
	}
	return out.Strategies, nil
}

// ListBacktests fetches the full list of known backtest summaries, in
// server-given order.
func (c *Client) ListBacktests(ctx context.Context) ([]core.BacktestSummary, error) {
	var out backtestsResponse
	if err := c.getJSON(ctx, "list_backtests", "/api/v1/backtests", &out); err != nil {
		return nil, err
	}
	return out.Backtests, nil
}

// GetBacktest fetches a single backtest summary by id.
func (c *Client) GetBacktest(ctx context.Context, backtestID string) (*core.BacktestSummary, error) {
	var out core.BacktestSummary
	path := "/api/v1/backtests/" + url.PathEscape(backtestID)
	if err := c.getJSON(ctx, "get_backtest", path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitBacktest submits a run configuration. A rejection from the service
// (HTTP error with a detail body) is returned as SERVER_REJECTED with the
// detail verbatim; transport failure as SERVICE_UNAVAILABLE.
func (c *Client) SubmitBacktest(ctx context.Context, runCfg core.RunConfig) (*core.RunResult, error) {
	var out core.RunResult
	if err := c.postJSON(ctx, "submit_backtest", "/api/v1/backtests", runCfg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBacktest removes a backtest record from the service.
func (c *Client) DeleteBacktest(ctx context.Context, backtestID string) error {
	path := "/api/v1/backtests/" + url.PathEscape(backtestID)
	op := "delete_backtest"

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return core.WrapError(core.ErrServiceUnavailable, err)
	}

	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.checkStatus(resp)
}

// CreateStrategy registers a new strategy with the service.
func (c *Client) CreateStrategy(ctx context.Context, draft core.StrategyDraft) (*core.StrategyRef, error) {
	var out core.StrategyRef
	if err := c.postJSON(ctx, "create_strategy", "/api/v1/strategies", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchChartData fetches the visualization bundle for one backtest.
func (c *Client) FetchChartData(ctx context.Context, backtestID string) (*core.ChartPayload, error) {
	var out core.ChartPayload
	path := "/api/v1/analytics/chart?backtest_id=" + url.QueryEscape(backtestID)
	if err := c.getJSON(ctx, "fetch_chart", path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchReportArtifact fetches the binary report for one backtest.
func (c *Client) FetchReportArtifact(ctx context.Context, backtestID string) ([]byte, error) {
	path := "/api/v1/backtests/" + url.PathEscape(backtestID) + "/report"
	op := "fetch_report"

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrServiceUnavailable, err)
	}

	resp, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.WrapError(core.ErrServiceUnavailable,
			fmt.Errorf("reading report body: %w", err))
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return core.WrapError(core.ErrServiceUnavailable, err)
	}
	return c.doJSON(op, req, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return core.WrapError(core.ErrServiceUnavailable,
			fmt.Errorf("encoding request: %w", err))
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return core.WrapError(core.ErrServiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(op, req, out)
}

func (c *Client) doJSON(op string, req *retryablehttp.Request, out any) error {
	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.WrapError(core.ErrServiceUnavailable,
			fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// do executes the request, recording the outcome with the observer. Transport
// errors are mapped to SERVICE_UNAVAILABLE here; HTTP status handling is left
// to checkStatus so callers see the body.
func (c *Client) do(op string, req *retryablehttp.Request) (*http.Response, error) {
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		c.observe(op, "transport_error", elapsed)
		c.log.Warn("gateway request failed",
			zap.String("operation", op),
			zap.Error(err))
		return nil, core.WrapError(core.ErrServiceUnavailable, err)
	}

	c.observe(op, fmt.Sprintf("http_%d", resp.StatusCode), elapsed)
	return resp, nil
}

// checkStatus converts non-2xx responses into structured errors. An error
// body carrying a detail field becomes SERVER_REJECTED with the detail
// verbatim; anything else is SERVICE_UNAVAILABLE (or NOT_FOUND for 404).
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode == http.StatusNotFound {
		return core.WrapError(core.ErrNotFound,
			fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var detail errorDetail
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return core.Rejected(detail.Detail)
	}

	return core.WrapError(core.ErrServiceUnavailable,
		fmt.Errorf("unexpected status: %d", resp.StatusCode))
}

func (c *Client) observe(op, outcome string, seconds float64) {
	if c.observer != nil {
		c.observer.ObserveRequest(op, outcome, seconds)
	}
}

// checkRetry retries transport errors always, and 429/5xx only for
// idempotent methods. A submission POST is never replayed once any response
// arrived, so a rejected run cannot be duplicated.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.Request != nil && resp.Request.Method != http.MethodGet {
		return false, nil
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// Service response envelopes
type strategiesResponse struct {
	Strategies []core.StrategyRef `json:"strategies"`
	Total      int                `json:"total"`
}

type backtestsResponse struct {
	Backtests []core.BacktestSummary `json:"backtests"`
	Total     int                    `json:"total"`
}

type errorDetail struct {
	Detail string `json:"detail"`
}
