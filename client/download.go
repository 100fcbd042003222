package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vidgrab/vidgrab/internal/quality"
	"github.com/vidgrab/vidgrab/internal/transfer"
)

// ProgressFunc receives download flow state changes.
type ProgressFunc func(p transfer.Progress)

// DownloadResult describes a completed download.
type DownloadResult struct {
	VideoID    string
	Itag       int
	OutputPath string
	Bytes      int64
	Merged     bool
}

// Download fetches the chosen quality option from the given catalog. A muxed
// or audio-only choice is a single transfer; a video-only choice fetches the
// best remaining audio stream and merges. One context spans every underlying
// transfer and the merge: cancelling it aborts the whole flow, reports the
// idle stage, and returns ErrCancelled.
func (c *Client) Download(ctx context.Context, info *VideoInfo, choice QualityOption, onProgress ProgressFunc) (*DownloadResult, error) {
	if onProgress == nil {
		onProgress = func(transfer.Progress) {}
	}

	res, err := c.download(ctx, info, choice, onProgress)
	if err != nil {
		if errors.Is(err, transfer.ErrCancelled) || errors.Is(err, context.Canceled) {
			onProgress(transfer.Progress{Stage: transfer.StageIdle, Message: "Download cancelled"})
			return nil, fmt.Errorf("%w", transfer.ErrCancelled)
		}
		onProgress(transfer.Progress{Stage: transfer.StageIdle, Message: err.Error()})
		return nil, err
	}
	onProgress(transfer.Progress{Stage: transfer.StageComplete, Percent: 100, Message: "Download complete"})
	return res, nil
}

func (c *Client) download(ctx context.Context, info *VideoInfo, choice QualityOption, onProgress ProgressFunc) (*DownloadResult, error) {
	f := choice.Format
	fb := &transfer.FallbackKey{VideoID: info.ID, Itag: f.Itag}

	if !choice.RequiresMerge {
		onProgress(transfer.Progress{Stage: transfer.StageDownloading, Message: "Downloading " + choice.Label})
		payload, err := c.fetcher.Fetch(ctx, f.URL, func(pct float64) {
			onProgress(transfer.Progress{Stage: transfer.StageDownloading, Percent: pct})
		}, fb)
		if err != nil {
			return nil, err
		}
		return c.save(info, f.Itag, f.Ext, payload, false)
	}

	audio, ok := quality.BestAudio(info.Formats)
	if !ok {
		return nil, ErrNoAudioForMerge
	}

	// Video occupies 0-50, audio 50-100 of the downloading stage.
	onProgress(transfer.Progress{Stage: transfer.StageDownloading, Message: "Downloading video stream"})
	videoPayload, err := c.fetcher.Fetch(ctx, f.URL, func(pct float64) {
		onProgress(transfer.Progress{Stage: transfer.StageDownloading, Percent: pct / 2})
	}, fb)
	if err != nil {
		return nil, err
	}

	onProgress(transfer.Progress{Stage: transfer.StageDownloading, Percent: 50, Message: "Downloading audio stream"})
	audioPayload, err := c.fetcher.Fetch(ctx, audio.URL, func(pct float64) {
		onProgress(transfer.Progress{Stage: transfer.StageDownloading, Percent: 50 + pct/2})
	}, &transfer.FallbackKey{VideoID: info.ID, Itag: audio.Itag})
	if err != nil {
		return nil, err
	}

	onProgress(transfer.Progress{Stage: transfer.StageMerging, Message: "Merging video and audio"})
	outputName := sanitizeFilename(info.Title) + ".mp4"
	merged, err := c.muxer.Mux(ctx, videoPayload, audioPayload, outputName, func(pct int) {
		onProgress(transfer.Progress{Stage: transfer.StageMerging, Percent: float64(pct)})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: merge aborted", transfer.ErrCancelled)
		}
		return nil, err
	}
	return c.save(info, f.Itag, "mp4", merged, true)
}

func (c *Client) save(info *VideoInfo, itag int, ext string, payload []byte, merged bool) (*DownloadResult, error) {
	name := sanitizeFilename(info.Title) + "." + ext
	path := name
	if c.config.OutputDir != "" {
		if err := os.MkdirAll(c.config.OutputDir, 0o755); err != nil {
			return nil, err
		}
		path = filepath.Join(c.config.OutputDir, name)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return nil, err
	}
	return &DownloadResult{
		VideoID:    info.ID,
		Itag:       itag,
		OutputPath: path,
		Bytes:      int64(len(payload)),
		Merged:     merged,
	}, nil
}

var unsafeFilenameRuns = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeFilename lower-cases the title and collapses non-alphanumeric runs
// to single underscores.
func sanitizeFilename(title string) string {
	s := unsafeFilenameRuns.ReplaceAllString(strings.ToLower(title), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "download"
	}
	return s
}
