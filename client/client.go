// Package client is the high-level vidgrab API: resolve a URL or ID, browse
// the stream catalog and quality options, and download a chosen option,
// merging split video/audio streams when needed.
package client

import (
	"context"

	"github.com/vidgrab/vidgrab/internal/catalog"
	"github.com/vidgrab/vidgrab/internal/mux"
	"github.com/vidgrab/vidgrab/internal/quality"
	"github.com/vidgrab/vidgrab/internal/resolve"
	"github.com/vidgrab/vidgrab/internal/transfer"
)

// Re-exported model types; the session owns them and nothing is persisted.
type (
	VideoInfo        = catalog.VideoInfo
	StreamDescriptor = catalog.StreamDescriptor
	QualityOption    = quality.Option
)

// Client ties the resolver, catalog builder, transfer orchestrator and mux
// pipeline together.
type Client struct {
	config  Config
	builder *catalog.Builder
	fetcher *transfer.Fetcher
	muxer   *mux.Pipeline
	logger  Logger
}

// New creates a Client. Zero-value Config gives a working client with the
// default resolution service and an ffmpeg-backed engine.
func New(config Config) *Client {
	config = config.withDefaults()
	logger := config.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Client{
		config:  config,
		builder: catalog.NewBuilder(config.Source, logger),
		fetcher: transfer.NewFetcher(config.HTTPClient, config.RelayBaseURL),
		muxer:   mux.New(config.Engine),
		logger:  logger,
	}
}

// GetVideo resolves input to a video ID and builds its stream catalog. Every
// call re-resolves from the external service; nothing is cached.
func (c *Client) GetVideo(ctx context.Context, input string) (*VideoInfo, error) {
	videoID, err := resolve.VideoID(input)
	if err != nil {
		return nil, err
	}
	return c.builder.Build(ctx, videoID)
}

// Qualities builds the catalog and derives the ordered quality choices.
func (c *Client) Qualities(ctx context.Context, input string) (*VideoInfo, []QualityOption, error) {
	info, err := c.GetVideo(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	return info, quality.BuildOptions(info), nil
}
