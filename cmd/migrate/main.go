package main

// Run database migrations:
//   go run ./cmd/migrate [up|down|status]

import (
	"context"
	"os"

	"go.uber.org/zap"

	"smartdoc-backend/internal/shared/config"
	"smartdoc-backend/internal/shared/storage/db"
	"smartdoc-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.MustLoad()
	telemetry.Init(cfg.LogLevel)
	defer telemetry.Sync()
	logger := telemetry.L()
	ctx := context.Background()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer sqlDB.Close()

	switch command {
	case "up":
		err = db.RunMigrations(ctx, sqlDB)
	case "down":
		err = db.RollbackMigration(ctx, sqlDB)
	case "status":
		err = db.MigrationStatus(ctx, sqlDB)
	default:
		logger.Fatal("unknown migrate command", zap.String("command", command))
	}
	if err != nil {
		logger.Fatal("migration failed", zap.String("command", command), zap.Error(err))
	}
	logger.Info("migration finished", zap.String("command", command))
}
