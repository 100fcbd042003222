package server

import (
	"errors"
	"net/http"

	"github.com/vidgrab/vidgrab/internal/catalog"
	"github.com/vidgrab/vidgrab/internal/resolve"
)

// handleInfo serves GET /info?url=<string>.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "MISSING_URL", "url query parameter is required")
		return
	}

	videoID, err := resolve.VideoID(rawURL)
	if err != nil {
		code, status := resolveErrorCode(err)
		writeError(w, status, code, err.Error())
		return
	}

	info, err := s.builder.Build(r.Context(), videoID)
	if err != nil {
		code, status := lookupErrorCode(err)
		s.logger.Warn("info lookup failed", "video_id", videoID, "code", code, "error", err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: info})
}

func resolveErrorCode(err error) (string, int) {
	switch {
	case errors.Is(err, resolve.ErrInvalidVideoID):
		return "INVALID_VIDEO_ID", http.StatusBadRequest
	default:
		return "INVALID_URL", http.StatusBadRequest
	}
}

func lookupErrorCode(err error) (string, int) {
	switch {
	case errors.Is(err, catalog.ErrSignature):
		return "SIGNATURE_ERROR", http.StatusInternalServerError
	case errors.Is(err, catalog.ErrAgeRestricted):
		return "AGE_RESTRICTED", http.StatusForbidden
	case errors.Is(err, catalog.ErrUnavailable):
		return "VIDEO_UNAVAILABLE", http.StatusForbidden
	case errors.Is(err, catalog.ErrNotFound):
		return "VIDEO_NOT_FOUND", http.StatusNotFound
	case errors.Is(err, catalog.ErrRateLimited):
		return "RATE_LIMITED", http.StatusTooManyRequests
	default:
		return "FETCH_ERROR", http.StatusInternalServerError
	}
}
