// This file parses query strings and JSON bodies into the types of the
// query, report and mutation packages.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ebudget/internal/core"
	"ebudget/internal/query"
	"ebudget/internal/report"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 1 << 20

// DefaultTopN is how many transactions the insights report ranks.
const DefaultTopN = 6

// ParseCriteria reads the table filters q, type, category, start and end.
func ParseCriteria(values url.Values) query.Criteria {
	return query.Criteria{
		Query:     sanitizeInput(values.Get("q")),
		Type:      sanitizeInput(values.Get("type")),
		Category:  sanitizeInput(values.Get("category")),
		StartDate: sanitizeInput(values.Get("start")),
		EndDate:   sanitizeInput(values.Get("end")),
	}
}

// ParseSort reads sort and dir. Without sort the newest transactions come
// first.
func ParseSort(values url.Values) query.SortState {
	key := strings.ToLower(sanitizeInput(values.Get("sort")))
	if key == "" {
		return query.DefaultSort
	}
	return query.SortState{Key: key, Direction: query.ParseDirection(values.Get("dir"))}
}

// ParsePage reads page. Garbage means the first page; clamping to the last
// page happens when paginating.
func ParsePage(values url.Values) int {
	return positiveInt(values.Get("page"), 1)
}

// ParseGrouping reads grouping, defaulting to monthly.
func ParseGrouping(values url.Values) report.Granularity {
	return report.ParseGranularity(strings.ToLower(sanitizeInput(values.Get("grouping"))))
}

// ParseMonth reads a YYYY-MM parameter, falling back when it is absent or
// invalid.
func ParseMonth(values url.Values, key string, fallback report.MonthKey) report.MonthKey {
	v := sanitizeInput(values.Get(key))
	if v == "" {
		return fallback
	}
	k, err := report.ParseMonthKey(v)
	if err != nil {
		return fallback
	}
	return k
}

// MonthParams are the months an overview compares.
type MonthParams struct {
	Primary    report.MonthKey
	Comparison report.MonthKey
}

// ParseMonthParams reads month and compare. The month defaults to the
// current one and the comparison to the month before it.
func ParseMonthParams(values url.Values, now time.Time) MonthParams {
	primary := ParseMonth(values, "month", report.MonthOf(now))
	return MonthParams{
		Primary:    primary,
		Comparison: ParseMonth(values, "compare", primary.Prev()),
	}
}

// DecodeJSON decodes the request body into dst. The body is limited to
// MaxBodyBytes and must hold exactly one JSON value.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON value")
	}
	return nil
}

// AmountBody is the body of goal and budget adjustments.
type AmountBody struct {
	Amount core.LooseNumber `json:"amount"`
}

// Decimal returns the signed amount.
func (b AmountBody) Decimal() decimal.Decimal {
	return b.Amount.Decimal()
}

func positiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
