// Package modelgate bounds concurrent model invocations. Each loaded model
// instance handles one extraction at a time; excess requests queue on the
// semaphore until a slot frees or their context ends.
package modelgate

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

type Gate struct {
	sem *semaphore.Weighted
}

func New(slots int) *Gate {
	if slots <= 0 {
		slots = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(slots))}
}

func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire model slot: %w", err)
	}
	return nil
}

func (g *Gate) Release() {
	g.sem.Release(1)
}
