package fetchpool

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ygrebnov/fetchpool/metrics"
	"github.com/ygrebnov/fetchpool/retry"
)

func noopFetch(_ context.Context, x int) (int, error) { return x, nil }

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Concurrency != 5 {
		t.Fatalf("unexpected default concurrency: %d", cfg.Concurrency)
	}
	if cfg.Policy != retry.DefaultPolicy() {
		t.Fatalf("unexpected default policy: %+v", cfg.Policy)
	}
	if cfg.Limiter != nil || cfg.Retryable != nil {
		t.Fatal("expected no limiter and no retryable predicate by default")
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{name: "zero concurrency", opt: WithConcurrency(0)},
		{name: "nil retryable", opt: WithRetryable(nil)},
		{name: "nil logger", opt: WithLogger(nil)},
		{name: "nil metrics", opt: WithMetrics(nil)},
		{name: "zero rate", opt: WithRateLimit(0, 1)},
		{name: "zero burst", opt: WithRateLimit(1, 0)},
		{name: "invalid policy", opt: WithRetryPolicy(retry.Policy{Multiplier: 0.5, Interval: time.Millisecond, MaxInterval: time.Second})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(noopFetch, tc.opt)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestNew_NilFetchFunc(t *testing.T) {
	_, err := New[int, int](nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNew_NilOptionSkipped(t *testing.T) {
	f, err := New(noopFetch, nil, WithConcurrency(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.config.Concurrency != 2 {
		t.Fatalf("unexpected concurrency: %d", f.config.Concurrency)
	}
}

func TestNew_AppliesOptions(t *testing.T) {
	p := retry.Policy{MaxRetries: 3, Multiplier: 2, Interval: time.Millisecond, MaxInterval: 8 * time.Millisecond}
	f, err := New(
		noopFetch,
		WithConcurrency(7),
		WithRetryPolicy(p),
		WithRetryable(func(error) bool { return false }),
		WithRateLimit(100, 5),
		WithMetrics(metrics.NewBasicProvider()),
		WithLogger(slog.Default()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.config.Concurrency != 7 {
		t.Fatalf("unexpected concurrency: %d", f.config.Concurrency)
	}
	if f.config.Policy != p {
		t.Fatalf("unexpected policy: %+v", f.config.Policy)
	}
	if f.limiter == nil || f.config.Retryable == nil {
		t.Fatal("expected limiter and retryable predicate to be set")
	}
}
