package fetchpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ygrebnov/fetchpool/retry"
)

// workItem pairs an item with its position in the output sequence.
// Created once when the batch is seeded and consumed by exactly one worker.
type workItem[T any] struct {
	index int
	item  T
}

// worker drains the batch queue and writes each result into the slot
// matching the item's input index. Slots are never contended: one worker
// owns one index at a time. The first unrecoverable failure is reported via
// fail, which latches the error and cancels the batch context.
type worker[T, R any] struct {
	fetcher *Fetcher[T, R]
	queue   <-chan workItem[T]
	slots   []R
	fail    func(error)
	logger  *slog.Logger
}

// run pulls items until the queue is drained, the batch context is
// cancelled, or an item fails permanently.
func (w *worker[T, R]) run(ctx context.Context) {
	for wi := range w.queue {
		if ctx.Err() != nil {
			// Batch cancelled; queued items are never fetched.
			return
		}
		err := w.process(ctx, wi)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			// The failure is a byproduct of cancellation: either a sibling
			// already latched the terminating error, or the caller cancelled
			// and FetchAll reports ErrCancelled.
			return
		}
		w.fail(err)
		return
	}
}

// process runs the retry loop for a single item. On success the result is
// stored at the item's input index; on failure the returned error is the
// last attempt's error, tagged with the item and its index.
func (w *worker[T, R]) process(ctx context.Context, wi workItem[T]) error {
	f := w.fetcher
	attempt := 0

	op := func() error {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return retry.Permanent(err)
			}
		}

		attempt++
		f.attempts.Add(1)
		f.inflight.Add(1)
		start := time.Now()
		res, err := w.call(ctx, wi.item)
		f.inflight.Add(-1)
		f.attemptSeconds.Record(time.Since(start).Seconds())

		if err != nil {
			if errors.Is(err, ErrFetchPanicked) {
				return retry.Permanent(err)
			}
			if f.config.Retryable != nil && !f.config.Retryable(err) {
				return retry.Permanent(err)
			}
			f.retries.Add(1)
			w.logger.Debug("fetch attempt failed",
				"index", wi.index, "attempt", attempt, "error", err)
			return err
		}

		w.slots[wi.index] = res
		f.items.Add(1)
		return nil
	}

	if err := retry.Do(ctx, f.config.Policy, op); err != nil {
		return newItemTaggedError(err, wi.item, wi.index)
	}
	return nil
}

// call invokes the fetch function, converting a panic into ErrFetchPanicked.
func (w *worker[T, R]) call(ctx context.Context, item T) (res R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrFetchPanicked, p)
		}
	}()
	return w.fetcher.fn(ctx, item)
}
