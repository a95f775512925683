package main

// Notes:
// - notifyContext: we test cancellation via stop() and through the parent.
//   Delivering real signals would interrupt the test binary, so that path
//   is left to manual testing.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestNotifyContext - Cancellation
// ---------------------------------------------------------------------------

func TestNotifyContext(t *testing.T) {
	t.Parallel()

	t.Run("live until stopped", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		defer stop()

		if err := ctx.Err(); err != nil {
			t.Fatalf("ctx.Err() = %v, want nil before any signal", err)
		}
	})

	t.Run("stop cancels", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		stop()

		<-ctx.Done()
		if !errors.Is(ctx.Err(), context.Canceled) {
			t.Errorf("ctx.Err() = %v, want context.Canceled", ctx.Err())
		}
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := notifyContext(parent)
		defer stop()

		cancel()
		<-ctx.Done()
	})
}
