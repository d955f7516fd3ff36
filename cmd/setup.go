package cmd

import (
	"context"
	"fmt"

	"github.com/devdocsai/devdocs/internal/app"
	"github.com/devdocsai/devdocs/internal/config"
	"github.com/devdocsai/devdocs/internal/log"
)

// setup loads configuration and wires the application. Callers own
// the returned App and must Close it.
func setup(ctx context.Context) (*app.App, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := app.NewLogger(cfg)
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, logger, nil
}
