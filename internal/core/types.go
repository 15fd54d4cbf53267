package core

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar-date format used on the wire.
const DateLayout = "2006-01-02"

// StrategyRef identifies a strategy known to the backtest service.
// Strategies are fetched, never mutated locally.
type StrategyRef struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// StrategyDraft is the payload for registering a new strategy with the
// service. Code is opaque to the client; the service compiles and runs it.
type StrategyDraft struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Code        string         `json:"code"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	IsActive    bool           `json:"is_active"`
}

// RunConfig is the draft configuration for a backtest run. Dates travel as
// YYYY-MM-DD strings; the service parses them.
type RunConfig struct {
	StrategyID     string  `json:"strategy_id" validate:"required"`
	Symbol         string  `json:"symbol"`
	StartDate      string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	InitialCapital float64 `json:"initial_capital" validate:"gt=0"`
}

// DefaultRunConfig returns the initial form values.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Symbol:         "AAPL",
		StartDate:      "2023-01-01",
		EndDate:        "2024-01-01",
		InitialCapital: 10000,
	}
}

// DateRange parses the configured start and end dates.
func (c RunConfig) DateRange() (start, end time.Time, err error) {
	start, err = time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return
	}
	end, err = time.Parse(DateLayout, c.EndDate)
	return
}

// RunMetrics holds the metrics the service computes for a completed run.
type RunMetrics struct {
	TotalReturn  float64 `json:"total_return"`
	TotalTrades  int     `json:"total_trades"`
	FinalCapital float64 `json:"final_capital,omitempty"`
	MaxDrawdown  float64 `json:"max_drawdown,omitempty"`
	SharpeRatio  float64 `json:"sharpe_ratio,omitempty"`
	WinRate      float64 `json:"win_rate,omitempty"`
}

// RunResult is the response to a successful submission.
type RunResult struct {
	BacktestID string     `json:"backtest_id"`
	Metrics    RunMetrics `json:"metrics"`
}

// BacktestSummary is a server-computed result record. Immutable once
// received; the client only lists and displays it.
type BacktestSummary struct {
	ID             string    `json:"id"`
	StrategyID     string    `json:"strategy_id"`
	Symbol         string    `json:"symbol"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	FinalCapital   float64   `json:"final_capital"`
	TotalReturn    float64   `json:"total_return"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	TotalTrades    int       `json:"total_trades"`
	WinRate        float64   `json:"win_rate"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// EquityPoint is one sample of the portfolio-value series.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ChartPayload is the per-backtest visualization bundle. Only the equity
// curve is interpreted; trades and market data pass through untouched.
type ChartPayload struct {
	EquityCurve []EquityPoint     `json:"equity_curve"`
	Trades      []json.RawMessage `json:"trades"`
	MarketData  []json.RawMessage `json:"market_data"`
}
