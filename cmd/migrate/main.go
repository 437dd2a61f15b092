package main

// Apply the kv_collections schema:
//   go run ./cmd/migrate

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"readify-backend/internal/shared/config"
	"readify-backend/internal/shared/storage/db"
	"readify-backend/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := telemetry.NewLogger(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	ctx := context.Background()
	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		logger.Error("failed to connect database", zap.Error(err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		os.Exit(1)
	}
	version, err := db.SchemaVersion(ctx, sqlDB)
	if err != nil {
		logger.Error("failed to read schema version", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("migrations applied", zap.Int64("version", version))
}
