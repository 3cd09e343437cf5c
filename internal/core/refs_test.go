package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseRef(t *testing.T) {
	cases := []struct {
		in   string
		want Ref
	}{
		{"", Ref{}},
		{"  ", Ref{}},
		{"12", Ref{Kind: RefID, ID: 12}},
		{" 3 ", Ref{Kind: RefID, ID: 3}},
		{"Income", Ref{Kind: RefSlug, Slug: "income"}},
		{"Fixed Expense", Ref{Kind: RefSlug, Slug: "fixed_expense"}},
	}
	for _, tc := range cases {
		if got := ParseRef(tc.in); got != tc.want {
			t.Fatalf("ParseRef(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestRefResolve(t *testing.T) {
	bySlug := map[string]int64{"income": 1, "expense": 2}
	cases := []struct {
		name string
		ref  Ref
		id   int64
		ok   bool
	}{
		{"id", RefByID(9), 9, true},
		{"zero id", RefByID(0), 0, false},
		{"slug", RefBySlug("Expense"), 2, true},
		{"unknown slug", RefBySlug("gifts"), 0, false},
		{"none", Ref{}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := tc.ref.Resolve(bySlug)
			if id != tc.id || ok != tc.ok {
				t.Fatalf("Resolve = (%d,%v), want (%d,%v)", id, ok, tc.id, tc.ok)
			}
		})
	}
}

func TestRefJSON(t *testing.T) {
	var v struct {
		A Ref `json:"a"`
		B Ref `json:"b"`
		C Ref `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":4,"b":"expense","c":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != RefByID(4) || v.B != RefBySlug("expense") || !v.C.IsZero() {
		t.Fatalf("unexpected refs: %+v", v)
	}
}

func TestParseDate(t *testing.T) {
	valid := []string{"2024-01-05", "2024-01-05T10:00:00Z", "2024-01-05T10:00:00", "2024-01-05 10:00:00"}
	for _, s := range valid {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("ParseDate(%q) failed", s)
		}
		if FormatDate(CalendarDay(got)) != "2024-01-05" {
			t.Fatalf("ParseDate(%q) day = %s", s, got)
		}
	}
	for _, s := range []string{"", "garbage", "2024-13-01", "2024-02-30"} {
		if _, ok := ParseDate(s); ok {
			t.Fatalf("ParseDate(%q) should fail", s)
		}
	}
	if CalendarDay(time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)).Hour() != 0 {
		t.Fatalf("CalendarDay kept time of day")
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(ErrTypeRequired) {
		t.Fatalf("expected validation error")
	}
	if IsValidation(nil) {
		t.Fatalf("nil is not a validation error")
	}
}
