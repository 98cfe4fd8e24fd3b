// Package validator classifies user-supplied URLs before anything is
// enqueued or handed to the external tool. It is purely syntactic and
// performs no I/O.
package validator

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind is the outcome of classifying a raw URL string.
type Kind string

const (
	KindSingle   Kind = "single"
	KindPlaylist Kind = "playlist"
	KindInvalid  Kind = "invalid"
)

// Classification is the result of Classify.
type Classification struct {
	Kind    Kind
	VideoID string // set only for KindSingle
	Reason  string // set only for KindInvalid
}

var allowedDomains = []string{"youtube.com", "www.youtube.com", "youtu.be", "m.youtube.com"}

// Ordered extraction patterns; first match wins.
var urlPatterns = []*regexp.Regexp{
	// Standard watch URL: youtube.com/watch?v=VIDEO_ID
	regexp.MustCompile(`(?:youtube\.com|www\.youtube\.com|m\.youtube\.com)/watch\?.*v=([a-zA-Z0-9_-]{11})`),
	// Shorts URL: youtube.com/shorts/VIDEO_ID
	regexp.MustCompile(`(?:youtube\.com|www\.youtube\.com|m\.youtube\.com)/shorts/([a-zA-Z0-9_-]{11})`),
	// Short URL: youtu.be/VIDEO_ID
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	// Embed URL: youtube.com/embed/VIDEO_ID
	regexp.MustCompile(`(?:youtube\.com|www\.youtube\.com)/embed/([a-zA-Z0-9_-]{11})`),
}

// IsPlaylist reports whether raw carries a playlist list marker. The check
// is purely syntactic and takes priority over single-video classification.
func IsPlaylist(raw string) bool {
	return strings.Contains(raw, "playlist?list=") || strings.Contains(raw, "&list=")
}

// IsValidDomain reports whether raw parses as a URL whose host is one of
// the allowed video-platform hostnames or a subdomain thereof.
func IsValidDomain(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range allowedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// ExtractVideoID returns the 11-character video identifier embedded in raw,
// or "" when no known pattern matches.
func ExtractVideoID(raw string) string {
	for _, pattern := range urlPatterns {
		if m := pattern.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}
	return ""
}

// Classify decides whether raw is a playlist reference, a valid single-video
// reference (with its extracted id), or invalid with a human-readable reason.
func Classify(raw string) Classification {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Classification{Kind: KindInvalid, Reason: "URL is required"}
	}
	if IsPlaylist(trimmed) {
		return Classification{Kind: KindPlaylist}
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return Classification{Kind: KindInvalid, Reason: "URL must start with http:// or https://"}
	}
	if !IsValidDomain(trimmed) {
		return Classification{Kind: KindInvalid, Reason: "URL must be from youtube.com or youtu.be"}
	}
	id := ExtractVideoID(trimmed)
	if id == "" {
		return Classification{Kind: KindInvalid, Reason: "could not extract video ID from URL"}
	}
	return Classification{Kind: KindSingle, VideoID: id}
}
