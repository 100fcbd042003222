package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/vidgrab/vidgrab/internal/catalog"
	"github.com/vidgrab/vidgrab/internal/ytsource"
)

// Identity headers required by the upstream CDN for direct fetches.
const (
	spoofedReferer = "https://www.youtube.com/"
	spoofedOrigin  = "https://www.youtube.com"
)

// Upstream headers propagated verbatim on the direct-fetch path.
var forwardedHeaders = []string{"Content-Type", "Content-Length", "Accept-Ranges", "Content-Range"}

// handleDownload serves GET /download?videoId&itag: the proxy relay. It
// re-resolves the stream server-side and streams the bytes back, preserving
// range semantics.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	itagParam := r.URL.Query().Get("itag")
	if videoID == "" || itagParam == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "videoId and itag query parameters are required")
		return
	}

	sv, err := s.source.Lookup(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, catalog.ErrSignature) {
			writeError(w, http.StatusInternalServerError, "SIGNATURE_ERROR", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "FETCH_ERROR", err.Error())
		return
	}

	// Raw, unfiltered descriptors: the late checks below are defense in
	// depth for callers that bypass the catalog builder.
	info := catalog.Normalize(sv)
	itag, _ := strconv.Atoi(itagParam)
	var descriptor *catalog.StreamDescriptor
	for i := range info.Formats {
		if info.Formats[i].Itag == itag {
			descriptor = &info.Formats[i]
			break
		}
	}
	if descriptor == nil {
		writeError(w, http.StatusNotFound, "FORMAT_NOT_FOUND", "no stream matches the requested itag")
		return
	}
	if !descriptor.Playable() {
		writeError(w, http.StatusNotFound, "NO_URL", "stream has no resolvable delivery address")
		return
	}
	if catalog.IsWebP(*descriptor) {
		writeError(w, http.StatusBadRequest, "WEBP_NOT_SUPPORTED", "webp streams cannot be downloaded or merged")
		return
	}

	rangeHeader := r.Header.Get("Range")

	// A ranged request goes straight to the direct path: the resolution
	// service's own stream reader cannot honor byte ranges.
	if rangeHeader != "" {
		if s.streamDirect(w, r, descriptor, rangeHeader) {
			return
		}
		writeError(w, http.StatusInternalServerError, "DOWNLOAD_FAILED", "both relay strategies failed")
		return
	}

	stream, size, err := s.source.Open(r.Context(), videoID, itag)
	if err == nil {
		defer stream.Close()
		w.Header().Set("Content-Type", descriptor.MimeType)
		if size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		}
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, stream); err != nil {
			s.logger.Warn("relay stream interrupted", "video_id", videoID, "itag", itag, "error", err)
		}
		return
	}

	if ytsource.Is403(err) {
		writeError(w, http.StatusForbidden, "ACCESS_DENIED",
			"upstream denied access to this stream; prefer a combined (video + audio) format")
		return
	}

	s.logger.Warn("service stream failed, trying direct fetch", "video_id", videoID, "itag", itag, "error", err)
	if s.streamDirect(w, r, descriptor, "") {
		return
	}
	writeError(w, http.StatusInternalServerError, "DOWNLOAD_FAILED", "both relay strategies failed")
}

// streamDirect fetches the descriptor's address with spoofed identity
// headers, forwarding an inbound Range header and propagating the upstream
// status and headers verbatim. Returns false if no response was written.
func (s *Server) streamDirect(w http.ResponseWriter, r *http.Request, d *catalog.StreamDescriptor, rangeHeader string) bool {
	if !d.Playable() {
		return false
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, d.URL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Referer", spoofedReferer)
	req.Header.Set("Origin", spoofedOrigin)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return false
	}

	for _, name := range forwardedHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("direct relay stream interrupted", "itag", d.Itag, "error", err)
	}
	return true
}
