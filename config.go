package fetchpool

import (
	"log/slog"

	"github.com/ygrebnov/errorc"
	"golang.org/x/time/rate"

	"github.com/ygrebnov/fetchpool/metrics"
	"github.com/ygrebnov/fetchpool/retry"
)

// config holds Fetcher configuration.
type config struct {
	// Concurrency bounds the number of simultaneously in-flight fetches.
	// Default: 5.
	Concurrency uint

	// Policy is the retry schedule applied to every item.
	// Default: retry.DefaultPolicy().
	Policy retry.Policy

	// Retryable reports whether an error is worth retrying. Nil means every
	// error is retried up to the budget. Errors marked with retry.Permanent
	// are never retried, regardless of this predicate.
	Retryable func(error) bool

	// Limiter optionally gates every fetch attempt. Nil disables rate limiting.
	Limiter *rate.Limiter

	// Metrics provides the instruments the fetcher records into.
	// Default: metrics.NoopProvider.
	Metrics metrics.Provider

	// Logger receives per-batch and per-attempt records.
	// Default: slog.Default().
	Logger *slog.Logger
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Concurrency: 5,
		Policy:      retry.DefaultPolicy(),
		Retryable:   nil,
		Limiter:     nil,
		Metrics:     metrics.NewNoopProvider(),
		Logger:      nil, // resolved to slog.Default() at construction
	}
}

// validateConfig performs invariants checks after all options are applied.
func validateConfig(cfg *config) error {
	if cfg.Concurrency == 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("", "concurrency must be > 0"))
	}
	if err := cfg.Policy.Validate(); err != nil {
		return errorc.With(ErrInvalidConfig, errorc.String("", err.Error()))
	}
	return nil
}

// Option configures a Fetcher. Invalid inputs surface as ErrInvalidConfig
// from New rather than panicking.
type Option func(*config) error

// WithConcurrency bounds the number of simultaneously in-flight fetches (must be > 0).
func WithConcurrency(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithConcurrency requires n > 0"))
		}
		cfg.Concurrency = n
		return nil
	}
}

// WithRetryPolicy replaces the default retry schedule.
func WithRetryPolicy(p retry.Policy) Option {
	return func(cfg *config) error {
		if err := p.Validate(); err != nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", err.Error()))
		}
		cfg.Policy = p
		return nil
	}
}

// WithRetryable installs a predicate deciding which errors are retried.
// Errors the predicate rejects terminate the item (and the batch) on the
// first attempt; see todos.Retryable for the HTTP taxonomy.
func WithRetryable(fn func(error) bool) Option {
	return func(cfg *config) error {
		if fn == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithRetryable requires a non-nil predicate"))
		}
		cfg.Retryable = fn
		return nil
	}
}

// WithRateLimit gates fetch attempts at rps requests per second with the
// given burst. The limit spans retries and all workers of the Fetcher.
func WithRateLimit(rps float64, burst int) Option {
	return func(cfg *config) error {
		if rps <= 0 || burst <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithRateLimit requires rps > 0 and burst > 0"))
		}
		cfg.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithMetrics installs the metrics provider recording fetcher instruments.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

// WithLogger installs the structured logger used for batch and attempt records.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}
