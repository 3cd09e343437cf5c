package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentTag(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Component: ComponentLedger})
	l.Info("hello", FieldUserID, "u1")
	l.WithComponent(ComponentAMQP).Warn("careful")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "user_id=u1") {
		t.Fatalf("missing fields in %q", out)
	}
	if !strings.Contains(out, "component=amqp") {
		t.Fatalf("component not switched in %q", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard()
	if FromContext(NewContext(context.Background(), l)) != l {
		t.Fatalf("logger not stored in context")
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	r := httptest.NewRequest("GET", "/api/goals?x=1", nil)
	sl.LogHTTPEnd(context.Background(), r, 502, 12, "10.0.0.1")
	sl.LogError(context.Background(), "boom", errors.New("bad"), ComponentStorage, OpRead, nil)

	out := buf.String()
	for _, want := range []string{"level=ERROR", "status_code=502", "path=/api/goals", "error=bad", "component=storage"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}
