// Package report downloads server-rendered PDF reports to local files.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantfold/backtestctl/internal/core"
	"go.uber.org/zap"
)

// Fetcher is the artifact slice of the service client.
type Fetcher interface {
	FetchReportArtifact(ctx context.Context, backtestID string) ([]byte, error)
}

// Exporter saves report artifacts. Fire-and-forget per invocation: it touches
// no other component.
type Exporter struct {
	gw  Fetcher
	dir string
	log *zap.Logger
}

// New creates an exporter writing into dir.
func New(gw Fetcher, dir string, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	if dir == "" {
		dir = "."
	}
	return &Exporter{gw: gw, dir: dir, log: log}
}

// Filename returns the local name for a backtest's report.
func Filename(backtestID string) string {
	return fmt.Sprintf("backtest_report_%s.pdf", backtestID)
}

// Export fetches the report for backtestID and writes it to the output
// directory, returning the written path.
func (e *Exporter) Export(ctx context.Context, backtestID string) (string, error) {
	data, err := e.gw.FetchReportArtifact(ctx, backtestID)
	if err != nil {
		e.log.Warn("report fetch failed",
			zap.String("backtest_id", backtestID),
			zap.Error(err))
		return "", core.WrapError(core.ErrExportFailed, err)
	}

	path := filepath.Join(e.dir, Filename(backtestID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", core.WrapError(core.ErrExportFailed, err)
	}

	e.log.Info("report exported",
		zap.String("backtest_id", backtestID),
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return path, nil
}
