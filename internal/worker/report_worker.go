// Package worker turns ledger change events into exported reports.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ebudget/internal/amqp"
	"ebudget/internal/log"
	"ebudget/internal/projection"
	"ebudget/internal/report"
	"ebudget/internal/sheets"
)

// SnapshotSource loads a user's projected ledger. Invalidate forces the
// next load to hit the store.
type SnapshotSource interface {
	Snapshot(ctx context.Context, userID string) (*projection.Snapshot, error)
	Invalidate(userID string)
}

// ReportWorker re-exports a user's series every time their ledger changes.
type ReportWorker struct {
	ledger      SnapshotSource
	writers     []sheets.ReportWriter
	granularity report.Granularity
	logger      *log.Logger

	mu       sync.Mutex
	exported map[string]string // user id -> snapshot version
}

func NewReportWorker(ledger SnapshotSource, g report.Granularity, logger *log.Logger, writers ...sheets.ReportWriter) *ReportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReportWorker{
		ledger:      ledger,
		writers:     writers,
		granularity: report.ParseGranularity(string(g)),
		logger:      logger.WithComponent(log.ComponentWorker),
		exported:    make(map[string]string),
	}
}

// HandleLedgerChange processes a single change message from AMQP.
func (w *ReportWorker) HandleLedgerChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldUserID, msg.UserID,
		log.FieldEntity, msg.Entity,
		log.FieldOperation, msg.Op,
		log.FieldEntityID, msg.ID)

	// The write happened in another process, so whatever is cached here is
	// stale.
	w.ledger.Invalidate(msg.UserID)
	return w.Export(ctx, msg.UserID)
}

// Export writes the current series of userID to every writer. Nothing is
// written when the ledger did not change since the last export.
func (w *ReportWorker) Export(ctx context.Context, userID string) error {
	snap, err := w.ledger.Snapshot(ctx, userID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	if w.alreadyExported(userID, snap.Version) {
		w.logger.DebugContext(ctx, "Report up to date, skipping export",
			log.FieldUserID, userID,
			log.FieldVersion, snap.Version)
		return nil
	}

	series := report.Aggregate(snap.Transactions, w.granularity)

	var errs []error
	for _, wr := range w.writers {
		if err := wr.WriteSeries(ctx, userID, series); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("export report: %w", errors.Join(errs...))
	}

	w.mu.Lock()
	w.exported[userID] = snap.Version
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Successfully exported report",
		log.FieldUserID, userID,
		log.FieldGranularity, string(w.granularity),
		log.FieldBuckets, series.Len(),
		log.FieldVersion, snap.Version)
	return nil
}

func (w *ReportWorker) alreadyExported(userID, version string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exported[userID] == version
}

// StartupExport exports the reports of the given users once, to recover
// from events missed while the worker was down. Failures are counted, not
// returned.
func (w *ReportWorker) StartupExport(ctx context.Context, userIDs []string) {
	if len(userIDs) == 0 {
		w.logger.InfoContext(ctx, "No users configured for startup export")
		return
	}

	var ok, failed int
	for _, id := range userIDs {
		if err := w.Export(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Startup export failed", log.FieldUserID, id, log.FieldError, err)
			failed++
			continue
		}
		ok++
	}

	w.logger.InfoContext(ctx, "Startup export completed",
		"total", len(userIDs),
		"exported", ok,
		"errors", failed)
}
