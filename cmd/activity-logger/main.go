// Command activity-logger drains the activity queue into a log file.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/mutual-help-web/internal/queue"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("load .env", "error", err)
	}
	url := os.Getenv("AMQP_URL")
	if url == "" {
		slog.Error("AMQP_URL is required")
		os.Exit(1)
	}
	dir := os.Getenv("ACTIVITY_LOG_DIR")
	if dir == "" {
		dir = "logs"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("activity-logger started", "dir", dir)
	if err := queue.StartActivityConsumer(ctx, url, dir); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("activity-logger stopped", "error", err)
		os.Exit(1)
	}
}
