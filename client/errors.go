package client

import (
	"errors"

	"github.com/vidgrab/vidgrab/internal/catalog"
	"github.com/vidgrab/vidgrab/internal/resolve"
	"github.com/vidgrab/vidgrab/internal/transfer"
)

// Input errors. Never retried, surfaced verbatim.
var (
	ErrInvalidURL     = resolve.ErrInvalidURL
	ErrInvalidVideoID = resolve.ErrInvalidVideoID
)

// Resolution errors. Never retried automatically.
var (
	ErrSignature     = catalog.ErrSignature
	ErrUnavailable   = catalog.ErrUnavailable
	ErrAgeRestricted = catalog.ErrAgeRestricted
	ErrNotFound      = catalog.ErrNotFound
	ErrRateLimited   = catalog.ErrRateLimited
)

// Transfer and merge errors.
var (
	// ErrIndeterminateTransfer is the unified CORS-or-network failure of a
	// terminal primary transfer.
	ErrIndeterminateTransfer = transfer.ErrIndeterminate
	// ErrCancelled indicates the user cancelled; it resets the flow to idle
	// and is not treated as a failure to log.
	ErrCancelled = transfer.ErrCancelled
	// ErrNoAudioForMerge indicates a video-only choice had no audio-only
	// descriptor left in the catalog to merge with.
	ErrNoAudioForMerge = errors.New("no audio stream available to merge")
)
