// Package mux combines separately fetched video-only and audio-only payloads
// into a single container by driving the codec engine through a fixed
// write/combine/read sequence. Video is stream-copied, never re-encoded.
package mux

import (
	"context"
	"fmt"

	"github.com/vidgrab/vidgrab/internal/engine"
)

// Virtual filesystem names used for every mux operation. The engine instance
// is reused across operations; cleanup of all three entries is guaranteed.
const (
	videoFile = "input-video.mp4"
	audioFile = "input-audio.m4a"
)

// Progress milestones reported per step.
const (
	progressInitialized = 10
	progressVideoStaged = 30
	progressAudioStaged = 50
	progressCombined    = 90
	progressDone        = 100
)

// ProgressFunc receives incremental progress, 0-100.
type ProgressFunc func(percent int)

// Pipeline drives a lazily initialized engine instance. The engine is never
// torn down on failure, so a retry does not pay re-initialization cost.
type Pipeline struct {
	engine engine.Engine
}

// New returns a Pipeline over the given engine.
func New(eng engine.Engine) *Pipeline {
	return &Pipeline{engine: eng}
}

// Mux stages both payloads, issues a stream-copy combine truncated to the
// shorter input, and reads the output back. Failure at any step is fatal for
// this attempt; no partial result is recovered.
func (p *Pipeline) Mux(ctx context.Context, video, audio []byte, outputName string, onProgress ProgressFunc) ([]byte, error) {
	if onProgress == nil {
		onProgress = func(int) {}
	}
	if err := p.engine.Init(ctx); err != nil {
		return nil, fmt.Errorf("engine init: %w", err)
	}
	onProgress(progressInitialized)

	// The engine instance survives this operation; never leave virtual
	// files behind, combine outcome notwithstanding.
	defer func() {
		_ = p.engine.RemoveFile(videoFile)
		_ = p.engine.RemoveFile(audioFile)
		_ = p.engine.RemoveFile(outputName)
	}()

	if err := p.engine.WriteFile(videoFile, video); err != nil {
		return nil, fmt.Errorf("stage video: %w", err)
	}
	onProgress(progressVideoStaged)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.engine.WriteFile(audioFile, audio); err != nil {
		return nil, fmt.Errorf("stage audio: %w", err)
	}
	onProgress(progressAudioStaged)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.engine.Run(ctx, combineArgs(outputName)...); err != nil {
		return nil, err
	}
	onProgress(progressCombined)

	out, err := p.engine.ReadFile(outputName)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	onProgress(progressDone)
	return out, nil
}

// combineArgs copies the video elementary stream unchanged, encodes audio to
// AAC for container compatibility, and truncates to the shorter input.
func combineArgs(outputName string) []string {
	return []string{
		"-i", videoFile,
		"-i", audioFile,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-y", outputName,
	}
}
