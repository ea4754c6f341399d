package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Minute})
	fail := func(ctx context.Context) error { return errors.New("boom") }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := b.Call(ctx, fail); err == nil {
			t.Fatal("expected failure")
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
	if err := b.Call(ctx, fail); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	base := time.Now()
	b.now = func() time.Time { return base }

	ctx := context.Background()
	_ = b.Call(ctx, func(ctx context.Context) error { return errors.New("boom") })
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	// After the timeout a probe is allowed; success closes the breaker.
	base = base.Add(11 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", b.State())
	}
	if err := b.Call(ctx, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Second})
	base := time.Now()
	b.now = func() time.Time { return base }

	ctx := context.Background()
	_ = b.Call(ctx, func(ctx context.Context) error { return errors.New("boom") })
	base = base.Add(2 * time.Second)
	_ = b.Call(ctx, func(ctx context.Context) error { return errors.New("still down") })
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open after failed probe", b.State())
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	_ = b.Call(ctx, func(ctx context.Context) error { return errors.New("boom") })
	_ = b.Call(ctx, func(ctx context.Context) error { return nil })
	_ = b.Call(ctx, func(ctx context.Context) error { return errors.New("boom") })
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed after interleaved success", b.State())
	}
}

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0.001, Burst: 2})
	if !l.Allow() || !l.Allow() {
		t.Fatal("burst tokens should be available")
	}
	if l.Allow() {
		t.Fatal("bucket should be empty")
	}
}

func TestLimiterCall(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0.001, Burst: 1})
	ctx := context.Background()

	called := 0
	f := func(ctx context.Context) error { called++; return nil }

	if err := l.Call(ctx, f); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := l.Call(ctx, f); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if called != 1 {
		t.Fatalf("called = %d, want 1", called)
	}
}

func TestLimiterWaitCancelled(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0.001, Burst: 1})
	l.Allow() // drain

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected context error while waiting for a token")
	}
}
