// Package engine abstracts the external codec engine: a virtual filesystem
// addressed by name plus an argv-style invocation. The production
// implementation shells out to ffmpeg with a workspace directory backing the
// virtual filesystem.
package engine

import "context"

// Engine is the codec engine collaborator. Init is lazy and at-most-once;
// the instance is reused across an unbounded number of sequential
// operations, so callers must remove every virtual file they create.
type Engine interface {
	// Init prepares the engine for first use. Subsequent calls are cheap
	// no-ops returning the first outcome.
	Init(ctx context.Context) error

	// WriteFile stages data in the virtual filesystem under name.
	WriteFile(name string, data []byte) error

	// ReadFile reads a virtual file back as a binary payload.
	ReadFile(name string) ([]byte, error)

	// RemoveFile deletes a virtual file. Removing a missing file is not an
	// error.
	RemoveFile(name string) error

	// Run executes one argv-style invocation against the virtual
	// filesystem. Failures surface the engine's own message verbatim.
	Run(ctx context.Context, args ...string) error
}
