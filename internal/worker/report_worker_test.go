package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"ebudget/internal/amqp"
	"ebudget/internal/core"
	"ebudget/internal/datastore/memory"
	"ebudget/internal/log"
	"ebudget/internal/mutation"
	"ebudget/internal/report"
	sheetsmem "ebudget/internal/sheets/memory"
	"ebudget/internal/services"
)

type failingWriter struct{ err error }

func (f failingWriter) WriteSeries(context.Context, string, report.Series) error { return f.err }

func newLedger(t *testing.T) *services.LedgerService {
	t.Helper()
	store := memory.New([]string{"Income", "Expense"}, []string{"Cleared"})
	return services.NewLedgerService(store, services.WithLogger(log.Discard()))
}

func TestHandleLedgerChange(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger(t)
	out := sheetsmem.New()
	w := NewReportWorker(ledger, report.Monthly, log.Discard(), out)

	for _, in := range []mutation.TransactionIntent{
		{Title: "Salary", Amount: "1000", Date: "2024-01-31", Type: core.ParseRef("income")},
		{Title: "Rent", Amount: "400", Date: "2024-02-01", Type: core.ParseRef("expense")},
	} {
		if _, err := ledger.SaveTransaction(ctx, "u1", in); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	msg := amqp.NewLedgerChangedMessage("u1", services.EntityTransaction, "create", "x")
	if err := w.HandleLedgerChange(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	s, ok := out.Series("u1")
	if !ok || s.Len() != 2 || s.Granularity != report.Monthly {
		t.Fatalf("unexpected series %+v", s)
	}
	if !s.Buckets[1].Net.Equal(decimal.NewFromInt(-400)) {
		t.Fatalf("net = %s, want -400", s.Buckets[1].Net)
	}

	// Same content: no second write.
	if err := w.HandleLedgerChange(ctx, msg); err != nil {
		t.Fatalf("handle again: %v", err)
	}
	if out.Writes() != 1 {
		t.Fatalf("writes = %d, want 1", out.Writes())
	}
}

func TestExportWriterFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("sheets down")
	out := sheetsmem.New()
	w := NewReportWorker(newLedger(t), "bogus", log.Discard(), out, failingWriter{boom})

	if err := w.Export(ctx, "u1"); !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}
	if s, _ := out.Series("u1"); s.Granularity != report.Monthly {
		t.Fatalf("unknown granularity should fall back to monthly, got %q", s.Granularity)
	}

	// A failed export is retried on the next call even without changes.
	w.writers = w.writers[:1]
	if err := w.Export(ctx, "u1"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if out.Writes() != 2 {
		t.Fatalf("writes = %d, want 2", out.Writes())
	}
}

func TestExportRequiresUser(t *testing.T) {
	w := NewReportWorker(newLedger(t), report.Yearly, log.Discard(), sheetsmem.New())
	if err := w.Export(context.Background(), ""); !errors.Is(err, services.ErrNoUser) {
		t.Fatalf("expected ErrNoUser, got %v", err)
	}
}
