package ytdlp

import (
	"fmt"
	"regexp"
)

// Code places a failure into a closed, user-facing taxonomy. The mapping
// from raw tool output is deliberately coarse; it exists to turn
// unstructured stderr into actionable categories.
type Code string

const (
	CodeInvalidURL       Code = "INVALID_URL"
	CodeToolNotInstalled Code = "YTDLP_NOT_FOUND"
	CodeProbeFailed      Code = "PROBE_FAILED"
	CodeDownloadFailed   Code = "DOWNLOAD_FAILED"
	CodePrivateVideo     Code = "PRIVATE_VIDEO"
	CodeUnavailable      Code = "UNAVAILABLE"
	CodeAgeRestricted    Code = "AGE_RESTRICTED"
	CodeUnknown          Code = "UNKNOWN"
)

// Error is a classified pipeline failure. The pipeline never lets a raw
// exec error cross its boundary; callers always see one of these.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a classified failure with an explicit code.
func NewError(code Code, message, details string) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

type errorPattern struct {
	pattern *regexp.Regexp
	code    Code
	message string
}

// Ordered pattern checks against tool diagnostics; first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: regexp.MustCompile(`(?i)private video|video is private|sign in to confirm`),
		code:    CodePrivateVideo,
		message: "This video is private and cannot be downloaded",
	},
	{
		pattern: regexp.MustCompile(`(?i)video unavailable|removed|does not exist|not available|been removed|no longer available`),
		code:    CodeUnavailable,
		message: "This video is unavailable or has been removed",
	},
	{
		pattern: regexp.MustCompile(`(?i)age-restricted|age restricted|confirm your age|age gate|sign in to confirm your age`),
		code:    CodeAgeRestricted,
		message: "This video is age-restricted and cannot be downloaded without authentication",
	},
	{
		pattern: regexp.MustCompile(`(?i)copyright|blocked|not available in your country`),
		code:    CodeUnavailable,
		message: "This video is blocked or not available in your region",
	},
}

// ClassifyOutput maps free-text diagnostic output from the external tool
// into the taxonomy. Total: unmatched text yields CodeUnknown carrying the
// raw diagnostics for operator inspection.
func ClassifyOutput(stderr string) *Error {
	for _, ep := range errorPatterns {
		if ep.pattern.MatchString(stderr) {
			return &Error{Code: ep.code, Message: ep.message, Details: stderr}
		}
	}
	return &Error{
		Code:    CodeUnknown,
		Message: "An unexpected error occurred while processing the video",
		Details: stderr,
	}
}
