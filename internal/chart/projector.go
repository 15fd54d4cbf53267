// Package chart projects a backtest's equity curve into display-ready form.
package chart

import (
	"context"
	"sync"
	"time"

	"github.com/quantfold/backtestctl/internal/core"
	"go.uber.org/zap"
)

// axisLayout is the month/day granularity used for horizontal axis labels.
const axisLayout = "01/02"

// Fetcher is the chart-data slice of the service client.
type Fetcher interface {
	FetchChartData(ctx context.Context, backtestID string) (*core.ChartPayload, error)
}

// Projector tracks the active backtest selection and its chart payload.
// Selection is last-selected-wins: a newer Select cancels the in-flight fetch
// of the previous one, and a stale response is discarded on arrival even if
// cancellation did not take.
type Projector struct {
	gw  Fetcher
	log *zap.Logger

	mu       sync.Mutex
	selected string
	gen      uint64
	cancel   context.CancelFunc
	payload  *core.ChartPayload
}

// New creates a projector with no active selection.
func New(gw Fetcher, log *zap.Logger) *Projector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Projector{gw: gw, log: log}
}

// Select makes backtestID the active selection and fetches its payload. On
// failure the previously displayed payload stays untouched. The returned
// error is nil when the response was discarded as stale.
func (p *Projector) Select(ctx context.Context, backtestID string) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	if p.cancel != nil {
		p.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.selected = backtestID
	p.mu.Unlock()

	payload, err := p.gw.FetchChartData(fetchCtx, backtestID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen {
		// A newer selection superseded this fetch; its response no longer
		// matters either way.
		return nil
	}
	cancel()
	p.cancel = nil

	if err != nil {
		p.log.Warn("chart fetch failed, keeping previous payload",
			zap.String("backtest_id", backtestID),
			zap.Error(err))
		return err
	}

	p.payload = payload
	return nil
}

// Selected returns the id of the active selection, or "" if none.
func (p *Projector) Selected() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// Payload returns the payload of the most recent successful fetch. Payloads
// are immutable once received.
func (p *Projector) Payload() *core.ChartPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payload
}

// Points returns the equity-curve series exactly as the server sent it: no
// resampling, interpolation or gap-filling.
func (p *Projector) Points() []core.EquityPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.payload == nil {
		return nil
	}
	return p.payload.EquityCurve
}

// AxisLabel formats a point timestamp for the horizontal axis.
func AxisLabel(t time.Time) string {
	return t.Format(axisLayout)
}
