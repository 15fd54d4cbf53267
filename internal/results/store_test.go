package results

import (
	"context"
	"errors"
	"testing"

	"github.com/quantfold/backtestctl/internal/core"
)

type fakeLister struct {
	items []core.BacktestSummary
	err   error
}

func (f *fakeLister) ListBacktests(ctx context.Context) ([]core.BacktestSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func TestStore_Refresh(t *testing.T) {
	gw := &fakeLister{items: []core.BacktestSummary{
		{ID: "b-3"}, {ID: "b-2"}, {ID: "b-1"},
	}}
	s := New(gw, nil)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	all := s.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(all))
	}

	// Server order preserved, nothing added or removed.
	for i, want := range []string{"b-3", "b-2", "b-1"} {
		if all[i].ID != want {
			t.Errorf("item %d = %s, want %s", i, all[i].ID, want)
		}
	}
}

func TestStore_Refresh_ReplacesWholesale(t *testing.T) {
	gw := &fakeLister{items: []core.BacktestSummary{{ID: "old-1"}, {ID: "old-2"}}}
	s := New(gw, nil)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	gw.items = []core.BacktestSummary{{ID: "new-1"}}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	all := s.All()
	if len(all) != 1 || all[0].ID != "new-1" {
		t.Errorf("expected wholesale replacement, got %v", all)
	}
}

func TestStore_Refresh_FailureKeepsPrevious(t *testing.T) {
	gw := &fakeLister{items: []core.BacktestSummary{{ID: "b-1"}}}
	s := New(gw, nil)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	gw.err = core.WrapError(core.ErrServiceUnavailable, errors.New("down"))
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	if s.Len() != 1 || s.All()[0].ID != "b-1" {
		t.Error("previous list must survive a failed refresh")
	}
}

func TestStore_All_ReturnsCopy(t *testing.T) {
	gw := &fakeLister{items: []core.BacktestSummary{{ID: "b-1", Symbol: "AAPL"}}}
	s := New(gw, nil)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := s.All()
	got[0].Symbol = "mutated"

	if s.All()[0].Symbol != "AAPL" {
		t.Error("All must return a copy, not the backing slice")
	}
}

func TestStore_Empty(t *testing.T) {
	s := New(&fakeLister{}, nil)
	if got := s.All(); len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}
