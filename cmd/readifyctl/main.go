// Command readifyctl runs maintenance tasks against the configured stores.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"readify-backend/internal/bootstrap"
	"readify-backend/internal/shared/config"
	"readify-backend/internal/shared/telemetry"
)

func main() {
	if err := newRootCmd(loadApp).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := telemetry.NewLogger(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return bootstrap.Build(ctx, cfg, logger)
}
