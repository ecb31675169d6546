package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := NewPool(4)
	ctx := context.Background()
	pool.Start(ctx)

	var ran int64
	for i := 0; i < 20; i++ {
		pool.Submit(ctx, func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
	}

	errs := pool.Wait()
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if ran != 20 {
		t.Errorf("ran = %d, want 20", ran)
	}
}

func TestPoolCollectsErrors(t *testing.T) {
	pool := NewPool(2)
	ctx := context.Background()
	pool.Start(ctx)

	for i := 0; i < 3; i++ {
		pool.Submit(ctx, func(ctx context.Context) error {
			return errors.New("task failed")
		})
	}
	pool.Submit(ctx, func(ctx context.Context) error { return nil })

	errs := pool.Wait()
	if len(errs) != 3 {
		t.Errorf("len(errs) = %d, want 3", len(errs))
	}
}

func TestPoolZeroSize(t *testing.T) {
	pool := NewPool(0)
	ctx := context.Background()
	pool.Start(ctx)

	done := false
	pool.Submit(ctx, func(ctx context.Context) error {
		done = true
		return nil
	})
	pool.Wait()
	if !done {
		t.Error("task did not run with clamped pool size")
	}
}

func TestPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(1)
	pool.Start(ctx)

	// Submitting and waiting on a dead context must not deadlock.
	for i := 0; i < 10; i++ {
		pool.Submit(ctx, func(ctx context.Context) error { return nil })
	}
	pool.Wait()
}
