package fetch

import (
	"fmt"
	"strings"
)

// Kind tags a fetch failure at the point where it is observed, so callers
// never have to pattern-match error text themselves.
type Kind string

const (
	KindNetwork           Kind = "network"
	KindNotFound          Kind = "not_found"
	KindUnsupportedURL    Kind = "unsupported_url"
	KindRestricted        Kind = "restricted"
	KindProtected         Kind = "protected"
	KindFormatUnavailable Kind = "format_unavailable"
	KindOutputMissing     Kind = "output_missing"
	KindUnknown           Kind = "unknown"
)

// Error is a fetch failure with a structured kind and the raw tool output
// that produced it.
type Error struct {
	Kind    Kind
	Quality string
	Raw     string
	cause   error
}

func (e *Error) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("fetch failed (%s): %s", e.Kind, e.Raw)
	}
	if e.cause != nil {
		return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("fetch failed (%s)", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// UserMessage returns the human-legible message shown to callers polling a
// failed task. Unknown kinds surface the raw tool output verbatim; callers
// must not rely on exact wording.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindFormatUnavailable:
		return fmt.Sprintf("Content not available: %s quality may not be available for this source", e.Quality)
	case KindProtected:
		return "Source is protected by Cloudflare. Try a different URL."
	case KindRestricted:
		return "This content is copyright protected and cannot be downloaded."
	case KindNotFound:
		return "Video URL not found (404). Try a different URL."
	case KindUnsupportedURL:
		return "URL format not supported by this service."
	case KindOutputMissing:
		return "Download completed but file not found"
	default:
		if e.Raw != "" {
			return e.Raw
		}
		if e.cause != nil {
			return e.cause.Error()
		}
		return string(e.Kind)
	}
}

// classify maps raw yt-dlp output onto a structured kind. The match order
// mirrors the signature table: availability first, since "Video unavailable"
// style messages also mention formats.
func classify(raw, quality string, cause error) *Error {
	e := &Error{Kind: KindUnknown, Quality: quality, Raw: strings.TrimSpace(raw), cause: cause}
	lower := strings.ToLower(raw)

	switch {
	case strings.Contains(lower, "requested format is not available"),
		strings.Contains(lower, "available"):
		e.Kind = KindFormatUnavailable
	case strings.Contains(lower, "cloudflare"):
		e.Kind = KindProtected
	case strings.Contains(lower, "copyright"),
		strings.Contains(lower, "geo restriction"):
		e.Kind = KindRestricted
	case strings.Contains(lower, "http error 404"),
		strings.Contains(lower, "404: not found"):
		e.Kind = KindNotFound
	case strings.Contains(lower, "unsupported url"):
		e.Kind = KindUnsupportedURL
	case strings.Contains(lower, "timed out"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "connection"),
		strings.Contains(lower, "name or service not known"):
		e.Kind = KindNetwork
	}
	return e
}
