package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := Use(zap.New(core))
	defer restore()

	Info("comparison.completed", map[string]any{"user_id": "u1", "contradictions": 2})
	Error("credits.debit_failed", map[string]any{"error": errors.New("boom")})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["user_id"] != "u1" {
		t.Fatalf("unexpected user_id: %v", ctx["user_id"])
	}
	if entries[1].Level != zap.ErrorLevel {
		t.Fatalf("expected error level, got %v", entries[1].Level)
	}
	if got := entries[1].ContextMap()["error"]; got != "boom" {
		t.Fatalf("unexpected error field: %v", got)
	}
}
