package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/migrations"
	"github.com/noah-isme/alumni-survey-api/pkg/config"
	"github.com/noah-isme/alumni-survey-api/pkg/database"
	"github.com/noah-isme/alumni-survey-api/pkg/logger"
)

func main() {
	direction := flag.String("direction", string(database.MigrateUp), "up applies every pending migration, down rolls back one step")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	dir := database.MigrateDirection(*direction)
	if dir != database.MigrateUp && dir != database.MigrateDown {
		logr.Error("unknown migration direction", zap.String("direction", *direction))
		os.Exit(2)
	}

	logr.Info("running migrations",
		zap.String("direction", string(dir)),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name))

	db, err := database.NewPostgres(context.Background(), cfg.Database, logr)
	if err != nil {
		logr.Error("failed to connect database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db.DB, migrations.FS, dir); err != nil {
		logr.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}
	logr.Info("migrations completed")
}
