package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, level slog.Level) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(Config{Level: level, Component: ComponentLedger, Output: &buf}), &buf
}

func TestLogger_ComponentAttribute(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelInfo)
	l.Info("hello", FieldUserID, 7)

	out := buf.String()
	if strings.Count(out, "component=ledger") != 1 {
		t.Fatalf("expected exactly one component attr, got %q", out)
	}
	if !strings.Contains(out, "user_id=7") {
		t.Fatalf("missing user_id in %q", out)
	}
}

func TestLogger_WithComponent(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelInfo)
	child := l.WithComponent(ComponentBudget)
	child.Info("x")

	if child.Component() != ComponentBudget {
		t.Fatalf("Component() = %q", child.Component())
	}
	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=budget") {
		t.Fatalf("expected only component=budget, got %q", out)
	}
}

func TestLogger_WithKeepsAttrsAcrossComponents(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelInfo)
	l.With(FieldUserID, 7).WithComponent(ComponentReport).Info("x")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=report") {
		t.Fatalf("expected only component=report, got %q", out)
	}
	if !strings.Contains(out, "user_id=7") {
		t.Fatalf("missing user_id in %q", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelWarn)
	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestLogger_OpError(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelInfo)
	l.OpError(context.Background(), OpCreate, ErrorTypeDatabase, errors.New("disk full"))

	out := buf.String()
	for _, want := range []string{"operation=create", "error_type=database_error", `error="disk full"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
