// Package quality derives the user-facing download choices from a stream
// catalog. BuildOptions is pure and deterministic for a given catalog.
package quality

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vidgrab/vidgrab/internal/catalog"
)

// Group tags an option as an audio or video choice.
type Group string

const (
	GroupAudio Group = "audio"
	GroupVideo Group = "video"
)

// Option is one selectable quality choice.
type Option struct {
	Key           string                   `json:"key"`
	Label         string                   `json:"label"`
	Format        catalog.StreamDescriptor `json:"format"`
	RequiresMerge bool                     `json:"requiresMerge"`
	Group         Group                    `json:"group"`
}

// BuildOptions returns the ordered choice list: at most one best-audio
// option first, then video tiers descending by (height, bitrate) and
// deduplicated by (height, hasAudio). First-seen wins within a dedup key.
func BuildOptions(info *catalog.VideoInfo) []Option {
	var options []Option

	if audio, ok := BestAudio(info.Formats); ok {
		options = append(options, Option{
			Key:    fmt.Sprintf("audio-%d", audio.Itag),
			Label:  fmt.Sprintf("Audio Only (best quality, %s)", strings.ToUpper(audio.Ext)),
			Format: audio,
			Group:  GroupAudio,
		})
	}

	videos := make([]catalog.StreamDescriptor, 0, len(info.Formats))
	for _, d := range info.Formats {
		if d.HasVideo {
			videos = append(videos, d)
		}
	}
	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].Height != videos[j].Height {
			return videos[i].Height > videos[j].Height
		}
		return videos[i].Bitrate > videos[j].Bitrate
	})

	type dedupKey struct {
		height   int
		hasAudio bool
	}
	seen := make(map[dedupKey]struct{}, len(videos))
	for _, d := range videos {
		key := dedupKey{height: d.Height, hasAudio: d.HasAudio}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		options = append(options, Option{
			Key:           fmt.Sprintf("video-%d", d.Itag),
			Label:         videoLabel(d),
			Format:        d,
			RequiresMerge: !d.HasAudio,
			Group:         GroupVideo,
		})
	}
	return options
}

// BestAudio picks the highest-bitrate audio-only descriptor, treating a
// missing bitrate as 0.
func BestAudio(formats []catalog.StreamDescriptor) (catalog.StreamDescriptor, bool) {
	var best catalog.StreamDescriptor
	found := false
	for _, d := range formats {
		if !d.HasAudio || d.HasVideo {
			continue
		}
		if !found || d.Bitrate > best.Bitrate {
			best = d
			found = true
		}
	}
	return best, found
}

func videoLabel(d catalog.StreamDescriptor) string {
	tier := d.QualityLabel
	if tier == "" {
		tier = fmt.Sprintf("%dp", d.Height)
	}
	label := fmt.Sprintf("%s %s", tier, strings.ToUpper(d.Container))
	if d.HasAudio {
		return label + " (Video + Audio)"
	}
	return label + " (Video Only — will merge with audio)"
}
