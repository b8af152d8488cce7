package generation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string, retries int) *Client {
	return NewClient(Options{
		BaseURL: url,
		Model:   "test/model",
		Timeout: 2 * time.Second,
		Retries: retries,
		Backoff: time.Millisecond,
	})
}

func TestGenerateNormalizesObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/test/model" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"generated_text":"hello"}`))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL, 0).Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "hello" {
		t.Fatalf("text = %q", text)
	}
}

func TestGenerateNormalizesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"generated_text":"from list"}]`))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL, 0).Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "from list" {
		t.Fatalf("text = %q", text)
	}
}

func TestGenerateNormalizesRawString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"raw text"`))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL, 0).Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "raw text" {
		t.Fatalf("text = %q", text)
	}
}

func TestGenerateMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": true}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Generate(context.Background(), "p")
	ge, ok := AsError(err)
	if !ok || ge.Kind != KindMalformed {
		t.Fatalf("want malformed error, got %v", err)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Generate(context.Background(), "p")
	ge, ok := AsError(err)
	if !ok || ge.Kind != KindServer {
		t.Fatalf("want server error, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3 (1 + 2 retries)", got)
	}
}

func TestGenerateRecoversAfterRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"generated_text":"second time lucky"}`))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL, 2).Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "second time lucky" {
		t.Fatalf("text = %q", text)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestGenerateNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Generate(context.Background(), "p")
	ge, ok := AsError(err)
	if !ok || ge.Kind != KindClient {
		t.Fatalf("want client error, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1 (no retry)", got)
	}
}

func TestGenerateRateLimitRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 1).Generate(context.Background(), "p")
	ge, ok := AsError(err)
	if !ok || ge.Kind != KindRateLimited {
		t.Fatalf("want rate-limited error, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"generated_text":"late"}`))
	}))
	defer srv.Close()

	client := NewClient(Options{
		BaseURL: srv.URL,
		Model:   "test/model",
		Timeout: 20 * time.Millisecond,
		Retries: 1,
		Backoff: time.Millisecond,
	})
	_, err := client.Generate(context.Background(), "p")
	ge, ok := AsError(err)
	if !ok || ge.Kind != KindTimeout {
		t.Fatalf("want timeout error, got %v", err)
	}
}

func TestErrorRetryable(t *testing.T) {
	cases := map[Kind]bool{
		KindTimeout:     true,
		KindServer:      true,
		KindRateLimited: true,
		KindClient:      false,
		KindMalformed:   false,
	}
	for kind, want := range cases {
		if got := (&Error{Kind: kind}).Retryable(); got != want {
			t.Fatalf("Retryable(%s) = %v, want %v", kind, got, want)
		}
	}
}
