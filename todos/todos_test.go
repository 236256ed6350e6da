package todos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/todos/7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":1,"id":7,"title":"buy milk","completed":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	todo, err := c.Get(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, Todo{UserID: 1, ID: 7, Title: "buy milk", Completed: true}, todo)
}

func TestClient_Get_TrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/todos/1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	_, err := c.Get(context.Background(), 1)
	require.NoError(t, err)
}

func TestClient_Get_ServerError_Retryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Get(context.Background(), 3)
	require.Error(t, err)

	var te *Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, KindStatus, te.Kind)
	require.Equal(t, http.StatusInternalServerError, te.StatusCode)
	require.Equal(t, 3, te.ID)
	require.True(t, Retryable(err))
}

func TestClient_Get_ClientError_NotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such todo", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Get(context.Background(), 999)
	require.Error(t, err)

	var te *Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, KindStatus, te.Kind)
	require.False(t, Retryable(err))
}

func TestClient_Get_DecodeError_PolicyChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "not a number"`))
	}))
	defer srv.Close()

	// Default: a malformed body is not worth re-requesting.
	_, err := New(srv.URL).Get(context.Background(), 5)
	var te *Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, KindDecode, te.Kind)
	require.False(t, Retryable(err))

	// Opt-in: uniform retry-everything policy.
	_, err = New(srv.URL, WithRetryableDecodeErrors()).Get(context.Background(), 5)
	require.ErrorAs(t, err, &te)
	require.Equal(t, KindDecode, te.Kind)
	require.True(t, Retryable(err))
}

func TestClient_Get_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := New(srv.URL).Get(ctx, 1)
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second, "request should abort promptly on cancellation")

	var te *Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, KindTransport, te.Kind)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryable_UnknownError(t *testing.T) {
	require.True(t, Retryable(errors.New("some other failure")))
}

func TestError_Messages(t *testing.T) {
	require.Equal(t,
		"todos: get id 2: unexpected status 503",
		(&Error{Kind: KindStatus, ID: 2, StatusCode: 503}).Error(),
	)
	require.Equal(t,
		"todos: decode id 4: unexpected EOF",
		(&Error{Kind: KindDecode, ID: 4, Err: errors.New("unexpected EOF")}).Error(),
	)
	require.Equal(t,
		"todos: get id 6: connection refused",
		(&Error{Kind: KindTransport, ID: 6, Err: errors.New("connection refused")}).Error(),
	)
}
