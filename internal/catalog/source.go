package catalog

import (
	"context"
	"io"
	"time"
)

// Source is the external video-resolution service. Implementations handle
// any signature/cipher work internally; failures are reported through the
// error taxonomy in errors.go.
type Source interface {
	// Lookup fetches provider-shaped metadata and candidate streams for a
	// video ID. One network call per invocation; no caching, no retry.
	Lookup(ctx context.Context, videoID string) (*SourceVideo, error)

	// Open re-resolves the video and opens the stream matching itag. The
	// returned size is the declared content length, or 0 if unknown.
	Open(ctx context.Context, videoID string, itag int) (io.ReadCloser, int64, error)
}

// SourceVideo is the provider-shaped resolution result, before
// normalization.
type SourceVideo struct {
	ID         string
	Title      string
	Author     string
	Duration   time.Duration
	Thumbnails []string
	Formats    []SourceFormat
}

// SourceFormat is one provider-shaped candidate stream.
type SourceFormat struct {
	Itag           int
	URL            string
	MimeType       string
	Quality        string
	QualityLabel   string
	Bitrate        int
	AverageBitrate int
	Width          int
	Height         int
	FPS            int
	AudioChannels  int
	ContentLength  int64
}
