package client

import (
	"net/http"

	"github.com/vidgrab/vidgrab/internal/catalog"
	"github.com/vidgrab/vidgrab/internal/engine"
	"github.com/vidgrab/vidgrab/internal/ytsource"
)

// Config holds configuration for the vidgrab client.
type Config struct {
	// HTTPClient is used for stream transfers. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client

	// Source is the external video-resolution service. If nil, the default
	// YouTube source is used.
	Source catalog.Source

	// Engine is the codec engine backing the merge pipeline. If nil, an
	// ffmpeg engine found in PATH is used.
	Engine engine.Engine

	// RelayBaseURL is the base URL of a vidgrab server used as the one-shot
	// transfer fallback. Empty disables the fallback.
	RelayBaseURL string

	// OutputDir is where downloads are written. Empty means the current
	// directory.
	OutputDir string

	// FFmpegPath overrides the ffmpeg binary location for the default
	// engine. Ignored when Engine is set.
	FFmpegPath string

	// Logger receives non-fatal diagnostics. If nil, warnings are dropped.
	Logger Logger
}

func (c Config) withDefaults() Config {
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Source == nil {
		c.Source = ytsource.New(c.HTTPClient)
	}
	if c.Engine == nil {
		c.Engine = engine.NewFFmpeg(c.FFmpegPath)
	}
	return c
}
