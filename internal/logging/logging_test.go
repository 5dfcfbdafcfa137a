package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext_FallsBackToGlobal(t *testing.T) {
	if WithContext(context.Background()) != L() {
		t.Error("expected the global logger")
	}
}

func TestWithCommand(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = WithCommand(ctx, "ls")

	WithContext(ctx).Info("listing")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["command"]; got != "ls" {
		t.Errorf("expected command=ls, got %v", got)
	}
}

func TestSetLevel(t *testing.T) {
	if err := Init(Config{Level: "info", Format: "json"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	SetLevel("debug")
	if !L().Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug to be enabled")
	}
	SetLevel("bogus")
	if !L().Core().Enabled(zapcore.DebugLevel) {
		t.Error("invalid level should be ignored")
	}
	SetLevel("info")
}
