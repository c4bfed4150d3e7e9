package fetch

import (
	"fmt"

	"mediadl/task"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	fragmentRetries = 8
)

var videoHeights = map[string]int{
	"1080p": 1080,
	"720p":  720,
	"360p":  360,
}

var audioBitrates = map[string]int{
	"excellent": 320,
	"good":      192,
	"ok":        128,
}

// FormatSelector builds the yt-dlp format expression for a media type and
// quality tier. Video prefers a separate best video+audio pair capped at the
// tier height, falling back to the best combined stream under the cap.
func FormatSelector(mediaType task.MediaType, quality string) string {
	if mediaType == task.MediaAudio {
		return "bestaudio/best"
	}
	h := videoHeights[quality]
	if h == 0 {
		h = 360
	}
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", h, h)
}

// TargetBitrate returns the MP3 bitrate in kbps for an audio quality tier.
func TargetBitrate(quality string) int {
	if b, ok := audioBitrates[quality]; ok {
		return b
	}
	return 192
}

// TargetHeight returns the pixel-height cap for a video quality tier.
func TargetHeight(quality string) int {
	if h, ok := videoHeights[quality]; ok {
		return h
	}
	return 360
}
