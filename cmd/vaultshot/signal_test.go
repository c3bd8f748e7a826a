package main

// Notes:
// - notifyContext is tested through its context only; delivering real
//   signals to the test binary would stop unrelated parallel tests

import (
	"context"
	"os"
	"slices"
	"testing"
)

// ---------------------------------------------------------------------------
// TestNotifyContext - Context Lifecycle
// ---------------------------------------------------------------------------

func TestNotifyContext(t *testing.T) {
	t.Parallel()

	t.Run("open until stopped", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		if ctx.Err() != nil {
			t.Fatalf("fresh context already done: %v", ctx.Err())
		}
		stop()
		if ctx.Err() == nil {
			t.Error("context still open after stop()")
		}
	})

	t.Run("follows parent", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := notifyContext(parent)
		defer stop()

		cancel()
		<-ctx.Done()
	})

	t.Run("interrupt is handled", func(t *testing.T) {
		t.Parallel()

		if !slices.Contains(shutdownSignals, os.Interrupt) {
			t.Errorf("shutdownSignals = %v, missing os.Interrupt", shutdownSignals)
		}
	})
}
