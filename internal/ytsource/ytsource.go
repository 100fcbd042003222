// Package ytsource adapts github.com/kkdai/youtube/v2 to the catalog.Source
// collaborator contract. Signature/cipher decryption happens inside the
// library; this package only maps shapes and errors.
package ytsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/vidgrab/vidgrab/internal/catalog"
)

// Client implements catalog.Source.
type Client struct {
	yt youtube.Client
}

// New returns a Client. A nil httpClient uses the library default.
func New(httpClient *http.Client) *Client {
	c := &Client{}
	if httpClient != nil {
		c.yt.HTTPClient = httpClient
	}
	return c
}

func (c *Client) Lookup(ctx context.Context, videoID string) (*catalog.SourceVideo, error) {
	v, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, mapError(err)
	}
	return toSourceVideo(v), nil
}

// Open re-resolves the video and opens the stream for itag. Resolution is
// always fresh; nothing is cached between calls.
func (c *Client) Open(ctx context.Context, videoID string, itag int) (io.ReadCloser, int64, error) {
	v, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, 0, mapError(err)
	}
	for i := range v.Formats {
		if v.Formats[i].ItagNo == itag {
			return c.yt.GetStreamContext(ctx, v, &v.Formats[i])
		}
	}
	return nil, 0, fmt.Errorf("itag %d not found for video %s", itag, videoID)
}

func toSourceVideo(v *youtube.Video) *catalog.SourceVideo {
	sv := &catalog.SourceVideo{
		ID:       v.ID,
		Title:    v.Title,
		Author:   v.Author,
		Duration: v.Duration,
	}
	for _, t := range v.Thumbnails {
		sv.Thumbnails = append(sv.Thumbnails, t.URL)
	}
	for _, f := range v.Formats {
		sv.Formats = append(sv.Formats, catalog.SourceFormat{
			Itag:           f.ItagNo,
			URL:            f.URL,
			MimeType:       f.MimeType,
			Quality:        f.Quality,
			QualityLabel:   f.QualityLabel,
			Bitrate:        f.Bitrate,
			AverageBitrate: f.AverageBitrate,
			Width:          f.Width,
			Height:         f.Height,
			FPS:            f.FPS,
			AudioChannels:  f.AudioChannels,
			ContentLength:  f.ContentLength,
		})
	}
	return sv
}

// mapError folds library failures onto the catalog error taxonomy while
// keeping the upstream message.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var playability *youtube.ErrPlayabiltyStatus
	if errors.As(err, &playability) {
		s := strings.ToUpper(playability.Status + " " + playability.Reason)
		switch {
		case strings.Contains(s, "AGE"):
			return fmt.Errorf("%w: %s", catalog.ErrAgeRestricted, playability.Reason)
		case playability.Status == "ERROR":
			return fmt.Errorf("%w: %s", catalog.ErrNotFound, playability.Reason)
		default:
			return fmt.Errorf("%w: %s", catalog.ErrUnavailable, playability.Reason)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "cipher", "signature", "decipher", "nsig"):
		return fmt.Errorf("%w: %v", catalog.ErrSignature, err)
	case containsAny(msg, "429", "too many requests", "rate limit"):
		return fmt.Errorf("%w: %v", catalog.ErrRateLimited, err)
	case containsAny(msg, "not found", "does not exist", "invalid characters", "id is too short"):
		return fmt.Errorf("%w: %v", catalog.ErrNotFound, err)
	case containsAny(msg, "unavailable", "private", "login required", "embed"):
		return fmt.Errorf("%w: %v", catalog.ErrUnavailable, err)
	}
	return err
}

// Is403 reports whether a streaming failure is an upstream access denial.
func Is403(err error) bool {
	var status youtube.ErrUnexpectedStatusCode
	if errors.As(err, &status) {
		return int(status) == http.StatusForbidden
	}
	return strings.Contains(err.Error(), "403")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
