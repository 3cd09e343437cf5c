package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"ebudget/internal/core"
	"ebudget/internal/log"
	"ebudget/internal/report"
	ports "ebudget/internal/sheets"
)

type object struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (o *object) Close() error {
	o.closed = true
	return o.closeErr
}

func newTestWriter(objects map[string]*object, closeErr error) *Writer {
	return &Writer{
		prefix: "reports",
		logger: log.Discard(),
		open: func(_ context.Context, name string) io.WriteCloser {
			o := &object{closeErr: closeErr}
			objects[name] = o
			return o
		},
		list: func(_ context.Context, prefix string) ([]string, error) {
			var names []string
			for name := range objects {
				if strings.HasPrefix(name, prefix) {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			return names, nil
		},
		remove: func(_ context.Context, name string) error {
			delete(objects, name)
			return nil
		},
	}
}

func TestWriteSeries(t *testing.T) {
	objects := map[string]*object{}
	w := newTestWriter(objects, nil)

	txs := []core.Transaction{
		{ID: "1", Amount: decimal.NewFromInt(100), Date: "2023-12-15", Type: core.NatureIncome},
		{ID: "2", Amount: decimal.RequireFromString("12.5"), Date: "2024-01-02", Type: core.NatureExpense},
	}
	if err := w.WriteSeries(context.Background(), "u1", report.Aggregate(txs, report.Monthly)); err != nil {
		t.Fatalf("WriteSeries: %v", err)
	}

	if len(objects) != 2 {
		t.Fatalf("expected one object per year, got %d", len(objects))
	}
	o, ok := objects["reports/u1/monthly/2024.csv"]
	if !ok || !o.closed {
		t.Fatalf("2024 object missing or not finalized: %v", objects)
	}
	want := "Period,Key,Income,Expense,Net\nJan 2024,2024-01,0.00,12.50,-12.50\n"
	if o.String() != want {
		t.Errorf("csv = %q, want %q", o.String(), want)
	}
}

func TestWriteSeriesFinalizeError(t *testing.T) {
	boom := errors.New("quota exceeded")
	w := newTestWriter(map[string]*object{}, boom)

	txs := []core.Transaction{{ID: "1", Amount: decimal.NewFromInt(1), Date: "2024-01-02", Type: core.NatureIncome}}
	err := w.WriteSeries(context.Background(), "u1", report.Aggregate(txs, report.Yearly))
	if !errors.Is(err, boom) {
		t.Fatalf("expected finalize error, got %v", err)
	}
}

func TestWriteSeriesRequiresUser(t *testing.T) {
	w := newTestWriter(map[string]*object{}, nil)
	if err := w.WriteSeries(context.Background(), "", report.Series{}); err == nil {
		t.Fatal("expected error without user id")
	}
}

func TestWriteSeriesRemovesStaleYears(t *testing.T) {
	objects := map[string]*object{
		"reports/u1/monthly/2022.csv":  {},
		"reports/u1/yearly/2022.csv":   {},
		"reports/u10/monthly/2022.csv": {},
		"reports/u2/monthly/2022.csv":  {},
	}
	w := newTestWriter(objects, nil)

	txs := []core.Transaction{{ID: "1", Amount: decimal.NewFromInt(5), Date: "2024-03-01", Type: core.NatureExpense}}
	if err := w.WriteSeries(context.Background(), "u1", report.Aggregate(txs, report.Monthly)); err != nil {
		t.Fatalf("WriteSeries: %v", err)
	}

	var names []string
	for name := range objects {
		names = append(names, name)
	}
	sort.Strings(names)
	want := []string{
		"reports/u1/monthly/2024.csv",
		"reports/u1/yearly/2022.csv",
		"reports/u10/monthly/2022.csv",
		"reports/u2/monthly/2022.csv",
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("objects = %v, want %v", names, want)
	}

	if err := w.WriteSeries(context.Background(), "u1", report.Series{Granularity: report.Monthly}); err != nil {
		t.Fatalf("WriteSeries empty: %v", err)
	}
	if _, ok := objects["reports/u1/monthly/2024.csv"]; ok {
		t.Fatal("objects of an emptied ledger should be removed")
	}
}

func TestWriteSeriesRejectsUnsafeUser(t *testing.T) {
	objects := map[string]*object{}
	w := newTestWriter(objects, nil)
	txs := []core.Transaction{{ID: "1", Amount: decimal.NewFromInt(1), Date: "2024-01-02", Type: core.NatureIncome}}

	for _, id := range []string{"../x", "a/b", "..", `a\b`} {
		t.Run(id, func(t *testing.T) {
			if err := w.WriteSeries(context.Background(), id, report.Aggregate(txs, report.Yearly)); !errors.Is(err, ports.ErrInvalidUserID) {
				t.Fatalf("expected ErrInvalidUserID, got %v", err)
			}
		})
	}
	if len(objects) != 0 {
		t.Fatalf("nothing should be written, got %v", objects)
	}
}
