package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/devdocsai/devdocs/internal/queue"
)

// runWorker consumes processing events until interrupted. Processing
// outcomes are recorded on the document rows; the worker itself only
// fails when Redis becomes unreachable.
func runWorker() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	logger.Info("starting worker", "version", Version)

	consumer := queue.NewConsumer(a.Redis, func(ctx context.Context, event queue.Event) error {
		return a.Pipeline.Process(ctx, event.DocumentID)
	}, logger)

	return consumer.Run(ctx)
}
