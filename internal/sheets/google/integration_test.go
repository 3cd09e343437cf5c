//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ebudget/internal/core"
	"ebudget/internal/report"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_WriteSeries(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, Options{SpreadsheetID: spreadsheetID, SheetBase: "Integration"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	txs := []core.Transaction{
		{ID: "1", Title: "Salary", Amount: decimal.NewFromInt(2000), Date: "2024-01-31", Type: core.NatureIncome},
		{ID: "2", Title: "Rent", Amount: decimal.NewFromInt(800), Date: "2024-02-01", Type: core.NatureExpense},
	}
	if err := client.WriteSeries(ctx, "integration", report.Aggregate(txs, report.Monthly)); err != nil {
		t.Fatalf("WriteSeries: %v", err)
	}
	// Writing twice replaces the tab content instead of failing on the
	// existing sheet.
	if err := client.WriteSeries(ctx, "integration", report.Aggregate(txs, report.Monthly)); err != nil {
		t.Fatalf("second WriteSeries: %v", err)
	}
}
