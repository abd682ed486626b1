package main // Entry point of the event worker that writes workflow audit logs

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/config"
	"github.com/iliyamo/smartstay/internal/queue"
)

// The worker needs only the broker URL and the log directory, so it does
// not go through config.Load and its required database variables.
func main() {
	_ = godotenv.Load()
	log, err := config.NewLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "smartstay-worker")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	logDir := os.Getenv("EVENT_LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Fatal("cannot create event log dir", zap.String("dir", logDir), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := queue.NewConsumer(config.AMQPURL(), logDir, log)
	log.Info("event worker started", zap.Strings("queues", queue.Queues), zap.String("log_dir", logDir))
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("event worker stopped", zap.Error(err))
	}
	log.Info("event worker stopped")
}
