package doi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestClient points every base URL at the test server and removes the
// retry delay.
func newTestClient(srv *httptest.Server) *Client {
	return NewClient(
		WithDOI2BibBase(srv.URL+"/bib"),
		WithCrossRefBase(srv.URL+"/works"),
		WithArxivBase(srv.URL+"/abs"),
		WithBackoffBase(time.Millisecond),
		WithLogWriter(io.Discard),
	)
}

func TestGetRetriesOn429(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, "@article{k1}")
	}))
	defer srv.Close()

	c := newTestClient(srv)
	body, err := c.get(context.Background(), srv.URL, "")
	if err != nil {
		t.Fatalf("get() error: %v", err)
	}
	if body != "@article{k1}" {
		t.Errorf("get() = %q, want %q", body, "@article{k1}")
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
}

func TestGetExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.get(context.Background(), srv.URL, "")
	if !IsRateLimited(err) {
		t.Errorf("get() error = %v, want rate-limited", err)
	}
	if calls != MaxRetries {
		t.Errorf("server saw %d calls, want %d", calls, MaxRetries)
	}
}

func TestGetNoRetryOnOtherStatus(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.get(context.Background(), srv.URL, "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Errorf("get() error = %v, want APIError with status 500", err)
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry)", calls)
	}
}

func TestGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.get(context.Background(), srv.URL, "")
	if !IsNotFound(err) {
		t.Errorf("get() error = %v, want not-found", err)
	}
}

func TestGetTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // connection refused from here on

	c := NewClient(WithBackoffBase(time.Millisecond), WithLogWriter(io.Discard))
	_, err := c.get(context.Background(), url, "")
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("get() error = %v, want network error", err)
	}
}

func TestGetSetsHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
	}))
	defer srv.Close()

	c := NewClient(
		WithUserAgent("bibup/test (mailto:dev@example.com)"),
		WithLogWriter(io.Discard),
	)
	if _, err := c.get(context.Background(), srv.URL, "application/json"); err != nil {
		t.Fatalf("get() error: %v", err)
	}

	if gotUA != "bibup/test (mailto:dev@example.com)" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}
