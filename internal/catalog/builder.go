// Package catalog builds the normalized stream catalog for a resolved video
// ID by calling the external video-resolution service and filtering out
// unusable candidates.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Logger is an optional package logger used for non-fatal warnings.
type Logger interface {
	// Warnf logs a formatted warning message.
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any) {}

// Builder turns a resolved video ID into a VideoInfo catalog.
type Builder struct {
	source Source
	logger Logger
}

// NewBuilder creates a Builder over the given resolution service. A nil
// logger disables diagnostics.
func NewBuilder(source Source, logger Logger) *Builder {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Builder{source: source, logger: logger}
}

// Build calls the resolution service once, normalizes every candidate
// stream, and drops unusable entries. An empty catalog is still a success;
// the selector reports "no formats available" to the user.
func (b *Builder) Build(ctx context.Context, videoID string) (*VideoInfo, error) {
	sv, err := b.source.Lookup(ctx, videoID)
	if err != nil {
		return nil, err
	}
	info := Normalize(sv)
	total := len(sv.Formats)
	info.Formats = FilterUsable(info.Formats)
	kept := len(info.Formats)

	if kept == 0 {
		b.logger.Warnf("catalog: no usable formats for video=%s (%d candidates dropped)", videoID, total)
	} else if dropped := total - kept; dropped*2 > total {
		b.logger.Warnf("catalog: dropped %d of %d formats for video=%s", dropped, total, videoID)
	}
	return info, nil
}

// Normalize maps the provider-shaped resolution result to the uniform
// catalog model without applying any usability filters. Descriptors carrying
// neither video nor audio are rejected here.
func Normalize(sv *SourceVideo) *VideoInfo {
	seconds := int(sv.Duration.Seconds())
	info := &VideoInfo{
		ID:           sv.ID,
		Title:        sv.Title,
		Author:       sv.Author,
		Thumbnail:    pickThumbnail(sv),
		Duration:     seconds,
		DurationText: FormatDuration(seconds),
		Formats:      make([]StreamDescriptor, 0, len(sv.Formats)),
	}
	for _, f := range sv.Formats {
		d, ok := normalizeFormat(f)
		if !ok {
			continue
		}
		info.Formats = append(info.Formats, d)
	}
	return info
}

// FilterUsable applies the two catalog filters in order: drop WebP image
// containers, then drop descriptors without a resolvable HTTP address.
func FilterUsable(formats []StreamDescriptor) []StreamDescriptor {
	out := make([]StreamDescriptor, 0, len(formats))
	for _, d := range formats {
		if IsWebP(d) {
			continue
		}
		if !d.Playable() {
			continue
		}
		out = append(out, d)
	}
	return out
}

// IsWebP reports whether the descriptor uses the WebP image container,
// which the merge pipeline cannot consume.
func IsWebP(d StreamDescriptor) bool {
	return d.Container == "webp" || strings.Contains(strings.ToLower(d.MimeType), "image/webp")
}

func normalizeFormat(f SourceFormat) (StreamDescriptor, bool) {
	container, codecs := splitMime(f.MimeType)
	hasVideo := f.Width > 0 || f.Height > 0 || f.QualityLabel != ""
	hasAudio := f.AudioChannels > 0 || strings.HasPrefix(f.MimeType, "audio/")
	if !hasVideo && !hasAudio {
		return StreamDescriptor{}, false
	}

	bitrate := f.AverageBitrate
	if bitrate == 0 {
		bitrate = f.Bitrate
	}
	d := StreamDescriptor{
		Itag:         f.Itag,
		URL:          f.URL,
		MimeType:     f.MimeType,
		Quality:      f.Quality,
		QualityLabel: f.QualityLabel,
		Container:    container,
		Ext:          containerExt(container, hasVideo),
		HasVideo:     hasVideo,
		HasAudio:     hasAudio,
		Codecs:       codecs,
		Width:        f.Width,
		Height:       f.Height,
		FPS:          f.FPS,
		Bitrate:      bitrate,
	}
	if f.ContentLength > 0 {
		d.ContentLength = strconv.FormatInt(f.ContentLength, 10)
	}
	return d, true
}

// splitMime returns the container subtype and the codecs parameter of a MIME
// type such as `video/mp4; codecs="avc1.4d401f, mp4a.40.2"`.
func splitMime(mimeType string) (container, codecs string) {
	base := mimeType
	if i := strings.IndexByte(base, ';'); i >= 0 {
		params := base[i+1:]
		base = base[:i]
		if j := strings.Index(params, "codecs="); j >= 0 {
			codecs = strings.Trim(strings.TrimSpace(params[j+len("codecs="):]), `"`)
		}
	}
	if i := strings.IndexByte(base, '/'); i >= 0 {
		container = strings.TrimSpace(base[i+1:])
	}
	return container, codecs
}

func containerExt(container string, hasVideo bool) string {
	if container == "mp4" && !hasVideo {
		return "m4a"
	}
	return container
}

func pickThumbnail(sv *SourceVideo) string {
	// Last entry is assumed highest resolution.
	if n := len(sv.Thumbnails); n > 0 {
		return sv.Thumbnails[n-1]
	}
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", sv.ID)
}

func hasHTTPAddress(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// FormatDuration renders seconds as m:ss, or h:mm:ss from one hour up.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
