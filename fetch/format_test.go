package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mediadl/task"
)

func TestFormatSelector(t *testing.T) {
	assert.Equal(t,
		"bestvideo[height<=1080]+bestaudio/best[height<=1080]",
		FormatSelector(task.MediaVideo, "1080p"))
	assert.Equal(t,
		"bestvideo[height<=720]+bestaudio/best[height<=720]",
		FormatSelector(task.MediaVideo, "720p"))
	assert.Equal(t,
		"bestvideo[height<=360]+bestaudio/best[height<=360]",
		FormatSelector(task.MediaVideo, "360p"))

	// Audio always takes the best source; the tier only drives the re-encode.
	assert.Equal(t, "bestaudio/best", FormatSelector(task.MediaAudio, "excellent"))
	assert.Equal(t, "bestaudio/best", FormatSelector(task.MediaAudio, "ok"))
}

func TestTargetBitrate(t *testing.T) {
	assert.Equal(t, 320, TargetBitrate("excellent"))
	assert.Equal(t, 192, TargetBitrate("good"))
	assert.Equal(t, 128, TargetBitrate("ok"))
	assert.Equal(t, 192, TargetBitrate("unknown"))
}

func TestTargetHeight(t *testing.T) {
	assert.Equal(t, 1080, TargetHeight("1080p"))
	assert.Equal(t, 720, TargetHeight("720p"))
	assert.Equal(t, 360, TargetHeight("360p"))
	assert.Equal(t, 360, TargetHeight("unknown"))
}
