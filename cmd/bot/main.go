package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kapu/cinematch-kakao-bot-go/internal/app"
	"github.com/kapu/cinematch-kakao-bot-go/internal/config"
	"github.com/kapu/cinematch-kakao-bot-go/internal/util"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("CineMatch KakaoTalk Bot starting...",
		zap.String("version", "1.0.0-go"),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("store", cfg.Store.Backend),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	kakaoBot, err := container.NewBot()
	if err != nil {
		logger.Error("Failed to initialize bot", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := kakaoBot.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	logger.Info("Bot started, waiting for signals...")

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("Bot error", zap.Error(err))
	}

	logger.Info("Shutting down gracefully...")

	// Drain in-flight commands before tearing down the stream context.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := kakaoBot.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	cancel()

	logger.Info("Shutdown complete")
}
