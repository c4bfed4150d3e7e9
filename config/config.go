// mediadl/config/config.go
package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	YTDLPBin            string        `mapstructure:"YTDLP_BIN"`
	FFmpegBin           string        `mapstructure:"FFMPEG_BIN"`
	FFprobeBin          string        `mapstructure:"FFPROBE_BIN"`
	DownloadDir         string        `mapstructure:"DOWNLOAD_DIR"`
	SocketTimeout       time.Duration `mapstructure:"SOCKET_TIMEOUT"`
	FetchRetries        int           `mapstructure:"FETCH_RETRIES"`
	ConcurrentFragments int           `mapstructure:"CONCURRENT_FRAGMENTS"`
	YTDLPExtraArgs      string        `mapstructure:"YTDLP_EXTRA_ARGS"`
	MaxConcurrency      int           `mapstructure:"MAX_CONCURRENCY"`
	QueueSize           int           `mapstructure:"QUEUE_SIZE"`
	OutputLocalLifetime time.Duration `mapstructure:"OUTPUT_LOCAL_LIFETIME"`
	ThrottleCPU         float64       `mapstructure:"THROTTLE_CPU"`
	ThrottleFreeMem     int64         `mapstructure:"THROTTLE_FREEMEM"`
	ThrottleFreeDisk    int64         `mapstructure:"THROTTLE_FREEDISK"`
	StorageType         string        `mapstructure:"STORAGE_TYPE"`
	S3Endpoint          string        `mapstructure:"S3_ENDPOINT"`
	S3AccessKey         string        `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey         string        `mapstructure:"S3_SECRET_KEY"`
	S3Bucket            string        `mapstructure:"S3_BUCKET"`
	S3Secure            bool          `mapstructure:"S3_SECURE"`
	S3URLExpiry         time.Duration `mapstructure:"S3_URL_EXPIRY"`
	AuthEnable          bool          `mapstructure:"AUTH_ENABLE"`
	AuthKey             string        `mapstructure:"AUTH_KEY"`
	Port                string        `mapstructure:"PORT"`
	LogMode             string        `mapstructure:"LOG_MODE"`
}

// stringToDurationHookFunc is a custom Viper hook for parsing Go's duration strings.
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		return time.ParseDuration(data.(string))
	}
}

// stringToByteSizeHookFunc is a custom Viper hook for parsing human-readable size strings.
func stringToByteSizeHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Int64 {
			return data, nil
		}

		var size datasize.ByteSize
		err := size.UnmarshalText([]byte(data.(string)))
		if err != nil {
			// Not a valid size string, let other parsers handle it.
			return data, nil
		}

		return int64(size.Bytes()), nil
	}
}

func Load() (*Config, error) {
	vp := viper.New()

	// Set default values as strings, the hooks will handle them.
	vp.SetDefault("YTDLP_BIN", "yt-dlp")
	vp.SetDefault("FFMPEG_BIN", "ffmpeg")
	vp.SetDefault("FFPROBE_BIN", "ffprobe")
	vp.SetDefault("DOWNLOAD_DIR", "/tmp/downloads")
	vp.SetDefault("SOCKET_TIMEOUT", "30s")
	vp.SetDefault("FETCH_RETRIES", 3)
	vp.SetDefault("CONCURRENT_FRAGMENTS", 16)
	vp.SetDefault("YTDLP_EXTRA_ARGS", "")
	vp.SetDefault("MAX_CONCURRENCY", 2)
	vp.SetDefault("QUEUE_SIZE", 100)
	vp.SetDefault("OUTPUT_LOCAL_LIFETIME", "1h")
	vp.SetDefault("THROTTLE_CPU", 50.0)
	vp.SetDefault("THROTTLE_FREEMEM", "200MB")
	vp.SetDefault("THROTTLE_FREEDISK", "500MB")
	vp.SetDefault("STORAGE_TYPE", "local")
	vp.SetDefault("S3_ENDPOINT", "")
	vp.SetDefault("S3_ACCESS_KEY", "")
	vp.SetDefault("S3_SECRET_KEY", "")
	vp.SetDefault("S3_BUCKET", "")
	vp.SetDefault("S3_SECURE", false)
	vp.SetDefault("S3_URL_EXPIRY", "24h")
	vp.SetDefault("AUTH_ENABLE", false)
	vp.SetDefault("AUTH_KEY", "")
	vp.SetDefault("PORT", "8080")
	vp.SetDefault("LOG_MODE", "prod")

	// Load from config file
	vp.SetConfigName("mediadl_config")
	vp.SetConfigType("yaml")
	vp.AddConfigPath(".")
	vp.AddConfigPath("/etc/mediadl/")

	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Load from environment variables
	vp.SetEnvPrefix("MEDIADL")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	var cfg Config
	// Unmarshal the config, providing our custom composed hooks.
	// The order matters: the first hook that succeeds is used.
	err := vp.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			stringToDurationHookFunc(),
			stringToByteSizeHookFunc(),
		),
	))
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
