package ytdlp

import (
	"regexp"
	"strings"
)

const maxBaseFilenameLen = 80

var (
	// Characters unsafe for URLs or filesystems.
	unsafeChars = regexp.MustCompile("[<>:\"/\\\\|?*#%&{}$!'`@=+]")
	whitespace  = regexp.MustCompile(`\s+`)
	underscores = regexp.MustCompile(`_+`)
)

// SanitizeTitle derives a filesystem-safe base filename from a video title:
// unsafe characters stripped, whitespace collapsed to single underscores,
// repeated underscores collapsed, truncated to 80 characters. Idempotent.
func SanitizeTitle(title string) string {
	s := unsafeChars.ReplaceAllString(title, "")
	s = whitespace.ReplaceAllString(s, "_")
	s = underscores.ReplaceAllString(s, "_")
	if len(s) > maxBaseFilenameLen {
		s = s[:maxBaseFilenameLen]
	}
	return s
}

// BuildFilename combines a sanitized title with the video identifier and the
// extension for the requested format (.mp4 for video, .mp3 for audio).
func BuildFilename(title, videoID string, audio bool) string {
	ext := ".mp4"
	if audio {
		ext = ".mp3"
	}
	return SanitizeTitle(title) + "_" + videoID + ext
}

// safeServeName reduces a filename to word characters, dashes, underscores
// and dots for use in a Content-Disposition header.
var safeServeName = regexp.MustCompile(`[^\w\-.]`)

// SafeAttachmentName returns filename with anything outside [A-Za-z0-9_-.]
// replaced by underscores.
func SafeAttachmentName(filename string) string {
	return safeServeName.ReplaceAllString(filename, "_")
}

// ContainsTraversal reports whether filename carries path-traversal or
// separator characters and must be rejected outright.
func ContainsTraversal(filename string) bool {
	return strings.Contains(filename, "..") ||
		strings.ContainsAny(filename, "/\\")
}
