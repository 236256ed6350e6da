// Command fetchtodos fetches todos 1..count from a REST endpoint with
// bounded concurrency and prints them in order.
//
// Configuration is read from FETCHTODOS_-prefixed environment variables:
//
//	FETCHTODOS_BASE_URL     endpoint base URL (default https://jsonplaceholder.typicode.com)
//	FETCHTODOS_COUNT        number of todos to fetch (default 10)
//	FETCHTODOS_CONCURRENCY  max fetches in flight (default 5)
//	FETCHTODOS_MAX_RETRIES  retries per todo after the first attempt (default 10)
//	FETCHTODOS_RATE_LIMIT   requests per second, 0 disables (default 0)
//	FETCHTODOS_LOG_LEVEL    debug|info|warn|error (default info)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/ygrebnov/fetchpool"
	"github.com/ygrebnov/fetchpool/retry"
	"github.com/ygrebnov/fetchpool/todos"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fetchtodos failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	v := viper.New()
	v.SetEnvPrefix("FETCHTODOS")
	v.AutomaticEnv()
	v.SetDefault("base_url", "https://jsonplaceholder.typicode.com")
	v.SetDefault("count", 10)
	v.SetDefault("concurrency", 5)
	v.SetDefault("max_retries", 10)
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("log_level", "info")

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(v.GetString("log_level")),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := todos.New(v.GetString("base_url"))

	policy := retry.DefaultPolicy()
	policy.MaxRetries = v.GetUint64("max_retries")

	opts := []fetchpool.Option{
		fetchpool.WithConcurrency(v.GetUint("concurrency")),
		fetchpool.WithRetryPolicy(policy),
		fetchpool.WithRetryable(todos.Retryable),
		fetchpool.WithLogger(logger),
	}
	if rps := v.GetFloat64("rate_limit"); rps > 0 {
		opts = append(opts, fetchpool.WithRateLimit(rps, 1))
	}

	count := v.GetInt("count")
	ids := make([]int, count)
	for i := range ids {
		ids[i] = i + 1
	}

	results, err := fetchpool.FetchAll(ctx, ids, client.Get, opts...)
	if err != nil {
		if idx, ok := fetchpool.ExtractItemIndex(err); ok {
			logger.Error("batch aborted", "failed_id", ids[idx])
		}
		return err
	}

	for _, t := range results {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Printf("%4d [%s] %s\n", t.ID, mark, t.Title)
	}
	return nil
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
