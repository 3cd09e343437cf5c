package format

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"ebudget/internal/report"
)

func TestDelta(t *testing.T) {
	f := New(Options{Locale: "en", Currency: "EUR"})
	cases := []struct {
		in   report.Change
		want string
	}{
		{report.NoData, "-"},
		{report.Change{Percent: 12.54, OK: true}, "+12.5%"},
		{report.Change{Percent: 0, OK: true}, "+0.0%"},
		{report.Change{Percent: -3.25, OK: true}, "-3.2%"},
	}
	for _, tc := range cases {
		if got := f.Delta(tc.in); got != tc.want {
			t.Fatalf("Delta(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPercent(t *testing.T) {
	f := New(Options{Locale: "en"})
	if got := f.Percent(79.6); got != "80%" {
		t.Fatalf("Percent = %q", got)
	}
}

func TestMoneyFallbacks(t *testing.T) {
	f := New(Options{Locale: "??", Currency: "nope"})
	if f.Currency() != DefaultCurrency {
		t.Fatalf("currency fallback = %s", f.Currency())
	}
	got := f.Money(decimal.RequireFromString("1234.5"))
	if !strings.Contains(got, "234.50") || !strings.Contains(got, "€") {
		t.Fatalf("Money = %q", got)
	}
	if got := Money(decimal.NewFromInt(10), Options{Locale: "en", Currency: "USD"}); !strings.Contains(got, "$") {
		t.Fatalf("USD Money = %q", got)
	}
}
