// mediadl/config/config_test.go
package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mediadl/config"
)

func TestLoadConfig(t *testing.T) {
	t.Run("loads default values correctly", func(t *testing.T) {
		// Ensure no env vars are lingering from other tests
		t.Setenv("MEDIADL_PORT", "")
		t.Setenv("MEDIADL_MAX_CONCURRENCY", "")
		t.Setenv("MEDIADL_STORAGE_TYPE", "")
		t.Setenv("MEDIADL_SOCKET_TIMEOUT", "")
		t.Setenv("MEDIADL_THROTTLE_FREEDISK", "")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 2, cfg.MaxConcurrency)
		assert.Equal(t, 100, cfg.QueueSize)
		assert.Equal(t, "local", cfg.StorageType)
		assert.Equal(t, "yt-dlp", cfg.YTDLPBin)
		assert.Equal(t, "ffmpeg", cfg.FFmpegBin)
		assert.Equal(t, "ffprobe", cfg.FFprobeBin)
		assert.Equal(t, 30*time.Second, cfg.SocketTimeout)
		assert.Equal(t, time.Hour, cfg.OutputLocalLifetime)
		assert.Equal(t, 24*time.Hour, cfg.S3URLExpiry)
		assert.Equal(t, int64(500*1024*1024), cfg.ThrottleFreeDisk)
		assert.Equal(t, false, cfg.AuthEnable)
	})

	t.Run("overrides defaults with environment variables", func(t *testing.T) {
		t.Setenv("MEDIADL_PORT", "9999")
		t.Setenv("MEDIADL_MAX_CONCURRENCY", "8")
		t.Setenv("MEDIADL_STORAGE_TYPE", "s3")
		t.Setenv("MEDIADL_S3_BUCKET", "artifacts")
		t.Setenv("MEDIADL_SOCKET_TIMEOUT", "45s")
		t.Setenv("MEDIADL_THROTTLE_FREEDISK", "1GB")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, 8, cfg.MaxConcurrency)
		assert.Equal(t, "s3", cfg.StorageType)
		assert.Equal(t, "artifacts", cfg.S3Bucket)
		assert.Equal(t, 45*time.Second, cfg.SocketTimeout)
		assert.Equal(t, int64(1024*1024*1024), cfg.ThrottleFreeDisk)
	})
}
