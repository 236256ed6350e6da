// Package todos is a client for REST endpoints serving todo items at
// GET {base}/todos/{id}. It classifies failures into transport, status, and
// decode kinds so callers can decide which are worth retrying.
package todos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Todo is the JSON shape served by the upstream endpoint.
type Todo struct {
	UserID    int    `json:"userId"`
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Kind classifies a fetch failure.
type Kind int

const (
	// KindTransport covers connection, timeout, and aborted-request failures.
	KindTransport Kind = iota + 1
	// KindStatus covers non-200 HTTP responses.
	KindStatus
	// KindDecode covers response bodies that fail to parse as a Todo.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by Client.Get. It wraps the underlying
// cause (Unwrap) and records the classification used by Retryable.
type Error struct {
	Kind       Kind
	ID         int
	StatusCode int // set for KindStatus only
	Err        error

	retryable bool
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("todos: get id %d: unexpected status %d", e.ID, e.StatusCode)
	case KindDecode:
		return fmt.Sprintf("todos: decode id %d: %v", e.ID, e.Err)
	default:
		return fmt.Sprintf("todos: get id %d: %v", e.ID, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether err is worth retrying: transport failures and
// 5xx responses are, decode failures and 4xx responses are not (a body
// already received parses the same way every time, and a definitive
// rejection does not improve with repetition). Decode failures become
// retryable when the client was built with WithRetryableDecodeErrors.
// Errors not produced by this package are considered retryable.
func Retryable(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.retryable
	}
	return true
}

// Client issues todo lookups against a base URL. The underlying
// http.Client is reused across calls; Client is safe for concurrent use.
type Client struct {
	baseURL     string
	http        *http.Client
	retryDecode bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout on the underlying http.Client (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetryableDecodeErrors marks decode failures as retryable, restoring
// the uniform retry-everything policy.
func WithRetryableDecodeErrors() Option {
	return func(c *Client) { c.retryDecode = true }
}

// New creates a Client for the given base URL, e.g.
// "https://jsonplaceholder.typicode.com".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get fetches a single todo. The request is built on ctx, so cancelling the
// context aborts an in-flight request promptly. Failures are returned as
// *Error with the kind taxonomy described on Retryable.
func (c *Client) Get(ctx context.Context, id int) (Todo, error) {
	url := fmt.Sprintf("%s/todos/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Todo{}, &Error{Kind: KindTransport, ID: id, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Todo{}, &Error{Kind: KindTransport, ID: id, Err: err, retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Todo{}, &Error{
			Kind:       KindStatus,
			ID:         id,
			StatusCode: resp.StatusCode,
			retryable:  resp.StatusCode >= http.StatusInternalServerError,
		}
	}

	var t Todo
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return Todo{}, &Error{Kind: KindDecode, ID: id, Err: err, retryable: c.retryDecode}
	}
	return t, nil
}
