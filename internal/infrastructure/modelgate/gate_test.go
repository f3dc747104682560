package modelgate

import (
	"context"
	"testing"
	"time"
)

func TestGateBoundsConcurrency(t *testing.T) {
	gate := New(1)

	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := gate.Acquire(ctx); err == nil {
		t.Fatalf("expected second acquire to block until context deadline")
	}

	gate.Release()
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	gate.Release()
}

func TestGateZeroSlotsFallsBackToOne(t *testing.T) {
	gate := New(0)
	if err := gate.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	gate.Release()
}
