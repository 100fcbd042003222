package catalog

// StreamDescriptor is the normalized model for one candidate encoded stream.
// At least one of HasVideo/HasAudio is true; descriptors carrying neither are
// rejected during catalog build.
type StreamDescriptor struct {
	Itag          int    `json:"itag"`
	URL           string `json:"url,omitempty"`
	MimeType      string `json:"mimeType"`
	Quality       string `json:"quality,omitempty"`
	QualityLabel  string `json:"qualityLabel,omitempty"`
	Container     string `json:"container"`
	Ext           string `json:"ext"`
	HasVideo      bool   `json:"hasVideo"`
	HasAudio      bool   `json:"hasAudio"`
	Codecs        string `json:"codecs,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	FPS           int    `json:"fps,omitempty"`
	Bitrate       int    `json:"bitrate,omitempty"`
	ContentLength string `json:"contentLength,omitempty"`
}

// Playable reports whether the descriptor carries a usable delivery address.
func (d StreamDescriptor) Playable() bool {
	return hasHTTPAddress(d.URL)
}

// VideoInfo is the resolved subject of a download. Constructed once per
// successful resolution, immutable thereafter, never persisted.
type VideoInfo struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Author       string             `json:"author"`
	Thumbnail    string             `json:"thumbnail"`
	Duration     int                `json:"duration"`
	DurationText string             `json:"durationText"`
	Formats      []StreamDescriptor `json:"formats"`
}
