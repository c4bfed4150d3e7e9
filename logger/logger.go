package logger

import (
	"fmt"

	"go.uber.org/zap"
)

var log = zap.NewNop()

// Init builds the global logger. Mode "dev" enables the human-readable
// development config, anything else uses the production JSON config.
func Init(mode string) error {
	var (
		l   *zap.Logger
		err error
	)

	switch mode {
	case "dev":
		l, err = zap.NewDevelopment()
	case "prod", "":
		l, err = zap.NewProduction()
	default:
		return fmt.Errorf("unknown log mode: %q", mode)
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	log = l
	return nil
}

func Sync() {
	_ = log.Sync()
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
}
