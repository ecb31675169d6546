package worker

import (
	"context"
	"testing"
	"time"
)

func TestHostLimiterAllowsWithinBurst(t *testing.T) {
	l := NewHostLimiter(100, 5)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx, "https://example.com/page"); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("burst waits took %s", elapsed)
	}
}

func TestHostLimiterPerHost(t *testing.T) {
	l := NewHostLimiter(1, 1)
	ctx := context.Background()

	// Different hosts have independent buckets: both first requests pass
	// without waiting out the 1 rps refill.
	start := time.Now()
	if err := l.Wait(ctx, "https://a.example.com/"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := l.Wait(ctx, "https://b.example.com/"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("independent hosts blocked each other: %s", elapsed)
	}
}

func TestHostLimiterInvalidURL(t *testing.T) {
	l := NewHostLimiter(1, 1)
	if err := l.Wait(context.Background(), "://not a url"); err == nil {
		t.Error("expected parse error")
	}
}
