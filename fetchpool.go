package fetchpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/ygrebnov/errorc"
	"golang.org/x/time/rate"

	"github.com/ygrebnov/fetchpool/metrics"
)

// FetchFunc fetches a single item. It must honor ctx cancellation: once the
// batch is cancelled, in-flight calls are expected to return promptly.
type FetchFunc[T, R any] func(context.Context, T) (R, error)

// Fetcher executes a FetchFunc over ordered batches of items with bounded
// concurrency, per-item retries, and first-error cancellation.
// A Fetcher is safe for concurrent use; each FetchAll call runs an
// independent batch. Construct via New.
type Fetcher[T, R any] struct {
	// noCopy prevents accidental copying of the configured instance.
	//go:nocopy
	nc noCopy

	config *config
	fn     FetchFunc[T, R]
	logger *slog.Logger

	// shared across batches
	limiter *rate.Limiter

	// instruments
	attempts       metrics.Counter
	retries        metrics.Counter
	items          metrics.Counter
	inflight       metrics.UpDownCounter
	attemptSeconds metrics.Histogram
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates a Fetcher for fn using functional options.
func New[T, R any](fn FetchFunc[T, R], opts ...Option) (*Fetcher[T, R], error) {
	if fn == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("", "New requires a non-nil fetch function"))
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f := &Fetcher[T, R]{
		config:  &cfg,
		fn:      fn,
		logger:  logger,
		limiter: cfg.Limiter,

		attempts: cfg.Metrics.Counter("fetchpool.attempts",
			metrics.WithDescription("fetch attempts, including retries"), metrics.WithUnit("1")),
		retries: cfg.Metrics.Counter("fetchpool.retries",
			metrics.WithDescription("failed attempts that entered a backoff wait"), metrics.WithUnit("1")),
		items: cfg.Metrics.Counter("fetchpool.items",
			metrics.WithDescription("items fetched successfully"), metrics.WithUnit("1")),
		inflight: cfg.Metrics.UpDownCounter("fetchpool.inflight",
			metrics.WithDescription("fetches currently in flight"), metrics.WithUnit("1")),
		attemptSeconds: cfg.Metrics.Histogram("fetchpool.attempt_duration",
			metrics.WithDescription("duration of individual fetch attempts"), metrics.WithUnit("seconds")),
	}
	return f, nil
}

// FetchAll fetches every item and returns the results in input order,
// regardless of completion order.
//
// Semantics:
//   - At most the configured concurrency fetches are in flight at any time;
//     fewer workers are launched when the batch is smaller.
//   - Each item is retried per the configured policy. The first item to fail
//     permanently (budget exhausted, non-retryable error, or panic) fails the
//     whole batch: FetchAll returns that item's last error, tagged with its
//     input index (see ExtractItemIndex), without awaiting siblings, which
//     observe the cancelled batch context and stop on their own.
//   - Cancelling ctx fails the batch with an error matching ErrCancelled.
//   - No partial results: on any failure the returned slice is nil.
//   - An empty batch returns an empty slice immediately.
func (f *Fetcher[T, R]) FetchAll(ctx context.Context, items []T) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	logger := f.logger.With("batch_id", uuid.NewString())

	ctxBatch, cancel := context.WithCancel(ctx)
	defer cancel()

	// Seed the whole batch up front; workers pull in input order.
	queue := make(chan workItem[T], len(items))
	for i, item := range items {
		queue <- workItem[T]{index: i, item: item}
	}
	close(queue)

	slots := make([]R, len(items))

	// First unrecoverable error wins; latching also cancels the batch.
	failCh := make(chan error, 1)
	var failOnce sync.Once
	fail := func(err error) {
		failOnce.Do(func() {
			failCh <- err
			cancel()
		})
	}

	n := f.config.Concurrency
	if uint(len(items)) < n {
		n = uint(len(items))
	}

	var pending sync.WaitGroup
	for i := uint(0); i < n; i++ {
		w := &worker[T, R]{fetcher: f, queue: queue, slots: slots, fail: fail, logger: logger}
		pending.Add(1)
		go func() {
			defer pending.Done()
			w.run(ctxBatch)
		}()
	}

	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(done)
	}()

	logger.Debug("batch started", "items", len(items), "workers", n)

	select {
	case err := <-failCh:
		logger.Error("batch failed", "error", err)
		return nil, err

	case <-ctx.Done():
		// Caller cancelled; in-flight fetches are asked to abort via the
		// batch context but are not awaited.
		logger.Warn("batch cancelled", "error", ctx.Err())
		return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())

	case <-done:
		// A failure latched in the same instant all workers exited wins.
		select {
		case err := <-failCh:
			logger.Error("batch failed", "error", err)
			return nil, err
		default:
		}
		if err := ctx.Err(); err != nil {
			logger.Warn("batch cancelled", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		logger.Debug("batch completed", "items", len(items))
		return slots, nil
	}
}

// FetchAll is a one-shot convenience: it builds a Fetcher for fn with opts
// and runs a single batch. See Fetcher.FetchAll for semantics.
func FetchAll[T, R any](ctx context.Context, items []T, fn FetchFunc[T, R], opts ...Option) ([]R, error) {
	f, err := New[T, R](fn, opts...)
	if err != nil {
		return nil, err
	}
	return f.FetchAll(ctx, items)
}
