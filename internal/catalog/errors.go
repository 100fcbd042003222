package catalog

import "errors"

// Resolution error taxonomy. Source implementations map provider failures
// onto these; callers never retry them automatically.
var (
	// ErrSignature indicates an upstream signature/decipher failure.
	ErrSignature = errors.New("signature decryption failed")
	// ErrUnavailable indicates the video is unavailable (deleted, private, geo-blocked).
	ErrUnavailable = errors.New("video unavailable")
	// ErrAgeRestricted indicates the video requires age verification.
	ErrAgeRestricted = errors.New("video age restricted")
	// ErrNotFound indicates no video exists for the ID.
	ErrNotFound = errors.New("video not found")
	// ErrRateLimited indicates the upstream service refused with a rate limit.
	ErrRateLimited = errors.New("rate limited by upstream")
)
