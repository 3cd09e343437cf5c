// Package sheets declares the report export port. Adapters live in the
// google, gcs and memory subpackages.
package sheets

import (
	"context"
	"errors"
	"strings"

	"ebudget/internal/report"
)

// Ports for outbound adapters.
type (
	// ReportWriter stores the aggregated series of one user, replacing
	// whatever was exported for the same user and years before.
	ReportWriter interface {
		WriteSeries(ctx context.Context, userID string, s report.Series) error
	}
)

// ErrInvalidUserID is returned for user ids that cannot name an export
// location: empty, a path separator, or a dot segment.
var ErrInvalidUserID = errors.New("invalid user id for export")

// UserSegment returns userID trimmed, refusing values that would escape the
// user's own directory or tab.
func UserSegment(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, "/\\") {
		return "", ErrInvalidUserID
	}
	return userID, nil
}

// Header is the first row of every exported table.
var Header = []string{"Period", "Key", "Income", "Expense", "Net"}

// Row renders one bucket in Header order. Amounts keep two decimals.
func Row(b report.Bucket) []string {
	return []string{
		b.Label,
		b.Key,
		b.Income.StringFixed(2),
		b.Expense.StringFixed(2),
		b.Net.StringFixed(2),
	}
}
