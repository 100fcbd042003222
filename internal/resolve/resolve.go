// Package resolve turns user input (a URL or a bare token) into a canonical
// 11-character YouTube video ID. No network access.
package resolve

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrInvalidURL indicates the input is not a recognized YouTube URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidVideoID indicates the extracted token is not a valid video ID.
	ErrInvalidVideoID = errors.New("invalid video id")
)

var videoIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// urlPatterns are tried in priority order; the first capture wins.
// Captures are deliberately loose so that a malformed token extracted from a
// recognized URL shape fails ID validation rather than URL matching.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?(?:[^#]*&)?v=([^&?/#\s]+)`),
	regexp.MustCompile(`youtu\.be/([^&?/#\s]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&?/#\s]+)`),
	regexp.MustCompile(`youtube\.com/v/([^&?/#\s]+)`),
}

// VideoID accepts either a raw 11-character ID or one of the known YouTube
// URL shapes (watch, short link, embed, legacy /v/).
func VideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrInvalidURL
	}
	for _, p := range urlPatterns {
		if m := p.FindStringSubmatch(s); len(m) == 2 {
			return validateID(m[1])
		}
	}
	// Anything URL-shaped (or containing whitespace) that matched no pattern
	// is a bad URL, not a bad bare token.
	if strings.ContainsAny(s, " \t/?&=:#.") {
		return "", ErrInvalidURL
	}
	return validateID(s)
}

func validateID(token string) (string, error) {
	if !videoIDPattern.MatchString(token) {
		return "", ErrInvalidVideoID
	}
	return token, nil
}
