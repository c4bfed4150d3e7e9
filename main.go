// mediadl/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mediadl/api"
	"mediadl/config"
	"mediadl/fetch"
	"mediadl/logger"
	"mediadl/storage"
	"mediadl/task"
)

func main() {
	// 1. Load configuration (.env first so viper sees its variables)
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogMode); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 2. Initialize dependencies (runner and uploader first)
	runner, err := fetch.NewRunner(cfg)
	if err != nil {
		logger.Error("failed to initialize fetch runner", zap.Error(err))
		os.Exit(1)
	}

	var uploader task.Uploader
	if cfg.StorageType == "s3" {
		up, err := storage.NewMinIOUploader(cfg)
		if err != nil {
			logger.Error("failed to initialize object storage", zap.Error(err))
			os.Exit(1)
		}
		uploader = up
	}

	// 3. Initialize the task manager
	taskManager, err := task.NewManager(cfg, runner, uploader)
	if err != nil {
		logger.Error("failed to initialize task manager", zap.Error(err))
		os.Exit(1)
	}

	// 4. Set up router and server
	router := api.SetupRouter(taskManager, cfg)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// 5. Start background workers and the HTTP server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	taskManager.Start(ctx)

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 6. Wait for interrupt signal for graceful shutdown
	<-ctx.Done()
	stop()
	logger.Info("shutting down gracefully, press Ctrl+C again to force")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
