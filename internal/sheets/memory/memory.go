// Package memory keeps exported reports in process. It backs the report
// worker when no spreadsheet is configured, and tests.
package memory

import (
	"context"
	"sync"

	"ebudget/internal/report"
	ports "ebudget/internal/sheets"
)

type Writer struct {
	mu     sync.Mutex
	series map[string]report.Series
	writes int
}

var _ ports.ReportWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{series: make(map[string]report.Series)}
}

// WriteSeries replaces the series stored for userID.
func (w *Writer) WriteSeries(_ context.Context, userID string, s report.Series) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.series[userID] = s
	w.writes++
	return nil
}

// Series returns the last series written for userID.
func (w *Writer) Series(userID string) (report.Series, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.series[userID]
	return s, ok
}

// Writes counts WriteSeries calls.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
