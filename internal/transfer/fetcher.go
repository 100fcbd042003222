// Package transfer performs the byte transfers of a download: a progress
// reporting primary fetch with the player's required identity headers, and a
// one-shot fallback through the proxy relay when the primary fails.
package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

var (
	// ErrIndeterminate is the unified transport failure category: the
	// primary fetch cannot distinguish cross-origin rejection from true
	// network loss, so both surface as one error.
	ErrIndeterminate = errors.New("cors or network error")

	// ErrCancelled indicates the user cancelled the transfer. It is
	// distinguished from failure and resets the flow to idle.
	ErrCancelled = errors.New("transfer cancelled")
)

// Identity headers the upstream service requires; requests lacking them are
// rejected.
const (
	spoofedReferer = "https://www.youtube.com/"
	spoofedOrigin  = "https://www.youtube.com"
)

// FallbackKey identifies a stream for re-resolution through the relay.
type FallbackKey struct {
	VideoID string
	Itag    int
}

// ProgressFunc receives transfer progress, 0-100. When the total length is
// unknown no intermediate value is reported; callers see a single 0 to 100
// jump.
type ProgressFunc func(percent float64)

type attemptKind int

const (
	attemptPrimary attemptKind = iota
	attemptRelay
	attemptTerminal
)

// Fetcher issues stream transfers with the primary/fallback strategy.
type Fetcher struct {
	httpClient   *http.Client
	relayBaseURL string
}

// NewFetcher returns a Fetcher. relayBaseURL may be empty, in which case
// primary failures are terminal.
func NewFetcher(httpClient *http.Client, relayBaseURL string) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{httpClient: httpClient, relayBaseURL: relayBaseURL}
}

// Fetch downloads rawURL, reporting progress as bytes arrive. On a primary
// failure with a fallback key available, exactly one retry goes through the
// relay; the relay's own failure then propagates. Cancellation aborts the
// in-flight attempt and prevents a queued fallback from starting.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, onProgress ProgressFunc, fb *FallbackKey) ([]byte, error) {
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	attempt := attemptPrimary
	var primaryErr error
	for attempt != attemptTerminal {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		switch attempt {
		case attemptPrimary:
			payload, err := f.fetchOnce(ctx, rawURL, spoofHeaders(), onProgress)
			if err == nil {
				return payload, nil
			}
			if errors.Is(err, ErrCancelled) {
				return nil, err
			}
			primaryErr = err
			if fb == nil || f.relayBaseURL == "" {
				attempt = attemptTerminal
				continue
			}
			attempt = attemptRelay

		case attemptRelay:
			payload, err := f.fetchOnce(ctx, f.relayURL(*fb), nil, onProgress)
			if err == nil {
				return payload, nil
			}
			if errors.Is(err, ErrCancelled) {
				return nil, err
			}
			return nil, fmt.Errorf("relay fallback failed: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrIndeterminate, primaryErr)
}

func (f *Fetcher) relayURL(fb FallbackKey) string {
	q := url.Values{}
	q.Set("videoId", fb.VideoID)
	q.Set("itag", strconv.Itoa(fb.Itag))
	return f.relayBaseURL + "/download?" + q.Encode()
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string, headers http.Header, onProgress ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, vals := range headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("transfer failed: status=%d", resp.StatusCode)
	}

	total := resp.ContentLength
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	chunk := make([]byte, 64*1024)
	var received int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			received += int64(n)
			if total > 0 {
				onProgress(float64(received) / float64(total) * 100)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			}
			return nil, readErr
		}
	}
	onProgress(100)
	return buf.Bytes(), nil
}

func spoofHeaders() http.Header {
	h := make(http.Header)
	h.Set("Referer", spoofedReferer)
	h.Set("Origin", spoofedOrigin)
	return h
}
