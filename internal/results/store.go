// Package results holds the most recently fetched backtest summaries.
package results

import (
	"context"
	"sync"

	"github.com/quantfold/backtestctl/internal/core"
	"go.uber.org/zap"
)

// Lister is the listing slice of the service client.
type Lister interface {
	ListBacktests(ctx context.Context) ([]core.BacktestSummary, error)
}

// Store keeps the last successful ListBacktests response. It never merges or
// deduplicates: the server's full list is ground truth on every refresh.
type Store struct {
	gw  Lister
	log *zap.Logger

	mu    sync.RWMutex
	items []core.BacktestSummary
}

// New creates an empty store backed by the given gateway.
func New(gw Lister, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{gw: gw, log: log}
}

// Refresh replaces the held list with the gateway's current response. On
// failure the previous list is kept: stale-but-present beats empty.
func (s *Store) Refresh(ctx context.Context) error {
	items, err := s.gw.ListBacktests(ctx)
	if err != nil {
		s.log.Warn("backtest list refresh failed, keeping previous list", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// All returns a copy of the held list in server-given order.
func (s *Store) All() []core.BacktestSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.BacktestSummary, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of held summaries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
