package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestFetch_ReportsProgressWithKnownTotal(t *testing.T) {
	payload := strings.Repeat("x", 200*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Referer"); got != "https://www.youtube.com/" {
			t.Errorf("Referer = %q, want spoofed youtube referer", got)
		}
		if got := r.Header.Get("Origin"); got != "https://www.youtube.com" {
			t.Errorf("Origin = %q, want spoofed youtube origin", got)
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		fmt.Fprint(w, payload)
	}))
	defer srv.Close()

	var reports []float64
	got, err := NewFetcher(srv.Client(), "").Fetch(context.Background(), srv.URL, func(p float64) {
		reports = append(reports, p)
	}, nil)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(got) != len(payload) {
		t.Fatalf("got %d bytes, want %d", len(got), len(payload))
	}
	if len(reports) == 0 {
		t.Fatal("no progress reported despite known total")
	}
	if last := reports[len(reports)-1]; last != 100 {
		t.Errorf("final progress = %v, want 100", last)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress regressed: %v", reports)
		}
	}
}

func TestFetch_NoIntermediateProgressWithoutTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flush forces chunked transfer encoding: no Content-Length.
		fl := w.(http.Flusher)
		for i := 0; i < 10; i++ {
			fmt.Fprint(w, strings.Repeat("y", 32*1024))
			fl.Flush()
		}
	}))
	defer srv.Close()

	var reports []float64
	_, err := NewFetcher(srv.Client(), "").Fetch(context.Background(), srv.URL, func(p float64) {
		reports = append(reports, p)
	}, nil)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	for _, p := range reports {
		if p > 0 && p < 100 {
			t.Fatalf("intermediate progress %v reported with unknown total: %v", p, reports)
		}
	}
}

func TestFetch_PrimaryFailureWithoutFallbackIsIndeterminate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), "").Fetch(context.Background(), srv.URL, nil, nil)
	if !errors.Is(err, ErrIndeterminate) {
		t.Fatalf("Fetch() error = %v, want ErrIndeterminate", err)
	}
}

func TestFetch_FallbackGoesThroughRelayOnce(t *testing.T) {
	var primaryCalls, relayCalls atomic.Int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryCalls.Add(1)
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer primary.Close()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayCalls.Add(1)
		if r.URL.Path != "/download" {
			t.Errorf("relay path = %q, want /download", r.URL.Path)
		}
		if r.URL.Query().Get("videoId") != "dQw4w9WgXcQ" || r.URL.Query().Get("itag") != "137" {
			t.Errorf("relay query = %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, "relayed-bytes")
	}))
	defer relay.Close()

	fb := &FallbackKey{VideoID: "dQw4w9WgXcQ", Itag: 137}
	got, err := NewFetcher(nil, relay.URL).Fetch(context.Background(), primary.URL, nil, fb)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(got) != "relayed-bytes" {
		t.Fatalf("Fetch() = %q, want relayed payload", got)
	}
	if primaryCalls.Load() != 1 || relayCalls.Load() != 1 {
		t.Fatalf("primary=%d relay=%d calls, want 1 and 1", primaryCalls.Load(), relayCalls.Load())
	}
}

func TestFetch_RelayFailurePropagates(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer primary.Close()
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay down", http.StatusInternalServerError)
	}))
	defer relay.Close()

	fb := &FallbackKey{VideoID: "dQw4w9WgXcQ", Itag: 137}
	_, err := NewFetcher(nil, relay.URL).Fetch(context.Background(), primary.URL, nil, fb)
	if err == nil {
		t.Fatal("Fetch() succeeded, want relay failure")
	}
	if errors.Is(err, ErrIndeterminate) {
		t.Fatalf("relay failure reported as indeterminate primary failure: %v", err)
	}
	if !strings.Contains(err.Error(), "relay fallback failed") {
		t.Fatalf("Fetch() error = %v, want relay failure", err)
	}
}

func TestFetch_CancellationPreventsQueuedFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var relayCalls atomic.Int32

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Cancel mid-flight, then fail the primary.
		cancel()
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer primary.Close()
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayCalls.Add(1)
		fmt.Fprint(w, "relayed")
	}))
	defer relay.Close()

	fb := &FallbackKey{VideoID: "dQw4w9WgXcQ", Itag: 137}
	_, err := NewFetcher(nil, relay.URL).Fetch(ctx, primary.URL, nil, fb)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Fetch() error = %v, want ErrCancelled", err)
	}
	if relayCalls.Load() != 0 {
		t.Fatal("queued fallback started despite cancellation")
	}
}

func TestFetch_CancelledMidTransfer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		fmt.Fprint(w, strings.Repeat("z", 64*1024))
		fl.Flush()
		cancel()
		fmt.Fprint(w, strings.Repeat("z", 64*1024))
		fl.Flush()
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), "").Fetch(ctx, srv.URL, nil, nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Fetch() error = %v, want ErrCancelled", err)
	}
}
