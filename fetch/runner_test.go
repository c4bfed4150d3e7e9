package fetch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediadl/config"
	"mediadl/task"
)

func writeFile(t *testing.T, dir, name string, size int) {
	t.Helper()
	data := make([]byte, size)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestLocateOutput(t *testing.T) {
	t.Run("picks the file with the expected extension", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "task1.webm", 100)
		writeFile(t, dir, "task1.mp3", 50)

		path, err := locateOutput(dir, "task1", ".mp3")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "task1.mp3"), path)
	})

	t.Run("ignores other tasks' files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "task1_720p.mp4", 100)
		writeFile(t, dir, "task2_1080p.mp4", 500)

		path, err := locateOutput(dir, "task1", ".mp4")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "task1_720p.mp4"), path)
	})

	t.Run("skips partial download leftovers", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "task1.mp4.part", 900)
		writeFile(t, dir, "task1.ytdl", 10)
		writeFile(t, dir, "task1_360p.mp4", 100)

		path, err := locateOutput(dir, "task1", ".mp4")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "task1_360p.mp4"), path)
	})

	t.Run("falls back to the largest prefixed file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "task1.webm", 300)
		writeFile(t, dir, "task1.info.json", 20)

		path, err := locateOutput(dir, "task1", ".mp4")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "task1.webm"), path)
	})

	t.Run("empty directory reports missing output", func(t *testing.T) {
		dir := t.TempDir()
		_, err := locateOutput(dir, "task1", ".mp4")
		assert.Error(t, err)
	})
}

func TestRemoveTaskFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "task1.mp4.part", 10)
	writeFile(t, dir, "task1.ytdl", 10)
	writeFile(t, dir, "task2.mp4", 10)

	removeTaskFiles(dir, "task1")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "task2.mp4", entries[0].Name())
}

func TestBuildArgs(t *testing.T) {
	cfg := &config.Config{
		DownloadDir:         "/tmp/dl",
		SocketTimeout:       30 * time.Second,
		FetchRetries:        3,
		ConcurrentFragments: 16,
	}

	t.Run("video request", func(t *testing.T) {
		r := &Runner{cfg: cfg}
		args := r.buildArgs(task.Task{
			ID:        "abc",
			URL:       "https://example.com/v/1",
			MediaType: task.MediaVideo,
			Quality:   "720p",
		})

		assert.Contains(t, args, "--no-playlist")
		assert.Contains(t, args, "bestvideo[height<=720]+bestaudio/best[height<=720]")
		assert.Contains(t, args, "--recode-video")
		assert.Contains(t, args, filepath.Join("/tmp/dl", "abc_%(height)sp.%(ext)s"))
		assert.Equal(t, "https://example.com/v/1", args[len(args)-1])
		assert.NotContains(t, args, "-x")
	})

	t.Run("audio request", func(t *testing.T) {
		r := &Runner{cfg: cfg}
		args := r.buildArgs(task.Task{
			ID:        "abc",
			URL:       "https://example.com/v/1",
			MediaType: task.MediaAudio,
			Quality:   "good",
		})

		assert.Contains(t, args, "bestaudio/best")
		assert.Contains(t, args, "-x")
		assert.Contains(t, args, "--audio-format")
		assert.Contains(t, args, "192")
		assert.Contains(t, args, filepath.Join("/tmp/dl", "abc.%(ext)s"))
		assert.Equal(t, "https://example.com/v/1", args[len(args)-1])
		assert.NotContains(t, args, "--recode-video")
	})

	t.Run("extra args come before the URL", func(t *testing.T) {
		extra, err := SplitExtraArgs("--geo-bypass")
		require.NoError(t, err)
		r := &Runner{cfg: cfg, extraArgs: extra}
		args := r.buildArgs(task.Task{
			ID:        "abc",
			URL:       "https://example.com/v/1",
			MediaType: task.MediaAudio,
			Quality:   "ok",
		})

		assert.Equal(t, "--geo-bypass", args[len(args)-2])
		assert.Equal(t, "https://example.com/v/1", args[len(args)-1])
	})
}
