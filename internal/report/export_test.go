package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quantfold/backtestctl/internal/core"
)

type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) FetchReportArtifact(ctx context.Context, id string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func TestFilename(t *testing.T) {
	got := Filename("b-42")
	if got != "backtest_report_b-42.pdf" {
		t.Errorf("unexpected filename: %s", got)
	}
}

func TestExporter_Export(t *testing.T) {
	pdf := []byte("%PDF-1.4 content")
	dir := t.TempDir()

	e := New(&fakeFetcher{data: pdf}, dir, nil)

	path, err := e.Export(context.Background(), "b-42")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if filepath.Base(path) != "backtest_report_b-42.pdf" {
		t.Errorf("unexpected path: %s", path)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != string(pdf) {
		t.Error("written bytes differ from artifact")
	}
}

func TestExporter_Export_FetchFailure(t *testing.T) {
	e := New(&fakeFetcher{err: core.WrapError(core.ErrServiceUnavailable, errors.New("down"))}, t.TempDir(), nil)

	_, err := e.Export(context.Background(), "b-1")
	if !errors.Is(err, core.ErrExportFailed) {
		t.Errorf("expected EXPORT_FAILED, got %v", err)
	}
}

func TestExporter_Export_WriteFailure(t *testing.T) {
	e := New(&fakeFetcher{data: []byte("x")}, filepath.Join(t.TempDir(), "missing"), nil)

	_, err := e.Export(context.Background(), "b-1")
	if !errors.Is(err, core.ErrExportFailed) {
		t.Errorf("expected EXPORT_FAILED for unwritable dir, got %v", err)
	}
}
