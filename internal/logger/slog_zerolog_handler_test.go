package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("unmarshal log line %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestBridge_LevelsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	sl := NewSlog(&zl)

	sl.Warn("tree removal failed",
		"attempt", int64(2),
		"elapsed", 150*time.Millisecond,
		"retrying", true,
	)

	m := lastLine(t, &buf)
	if m["level"] != "warn" {
		t.Fatalf("level=%v want warn", m["level"])
	}
	if m["message"] != "tree removal failed" && m["msg"] != "tree removal failed" {
		t.Fatalf("message missing: %v", m)
	}
	if m["attempt"] != float64(2) {
		t.Fatalf("attempt=%v want 2", m["attempt"])
	}
	if m["retrying"] != true {
		t.Fatalf("retrying=%v want true", m["retrying"])
	}
	if _, ok := m["elapsed"]; !ok {
		t.Fatalf("duration attr dropped: %v", m)
	}
}

func TestBridge_ContextFieldsFlowThrough(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	sl := NewSlog(&zl)

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = WithComponent(ctx, "api")
	sl.InfoContext(ctx, "request handled")

	m := lastLine(t, &buf)
	if m["request_id"] != "req-42" {
		t.Fatalf("request_id=%v want req-42", m["request_id"])
	}
	if m["component"] != "api" {
		t.Fatalf("component=%v want api", m["component"])
	}
}

func TestBridge_WithAttrsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	sl := NewSlog(&zl)
	child := sl.With("collection", "col-1")

	child.Info("child")
	if m := lastLine(t, &buf); m["collection"] != "col-1" {
		t.Fatalf("collection=%v want col-1", m["collection"])
	}

	buf.Reset()
	sl.Info("parent")
	if m := lastLine(t, &buf); m["collection"] != nil {
		t.Fatalf("parent logger inherited child attr: %v", m)
	}
}
