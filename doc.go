// Package fetchpool fetches an ordered batch of items concurrently while
// keeping the number of in-flight operations bounded. Failed fetches are
// retried with capped exponential backoff; the first unrecoverable failure
// cancels the whole batch.
//
// Constructors
//   - New(fn, opts...): builds a reusable Fetcher for a fetch function.
//   - FetchAll(ctx, items, fn, opts...): one-shot convenience over New.
//
// Defaults
// Unless overridden, the following defaults apply:
//   - Concurrency: 5 workers
//   - Retry: 10 retries (11 total attempts), waits 10ms, 20ms, 40ms, ...
//     capped at 2s (see package retry)
//   - Every error is considered retryable; use WithRetryable to exclude
//     error classes (for example todos.Retryable, which excludes decode
//     failures and 4xx responses)
//   - Metrics: discarded (metrics.NoopProvider)
//   - Logging: slog.Default()
//
// Ordering
// Results are returned in input order regardless of completion order: each
// worker writes into the result slot matching the item's input index.
// Items are attempted in input order, but that is not observable through
// the returned slice.
//
// Cancellation
// Cancellation is cooperative. Cancelling the caller's context, or any item
// exhausting its retry budget, cancels the batch context shared by all
// workers; in-flight fetches observe it through their context and queued
// items are never started.
package fetchpool
