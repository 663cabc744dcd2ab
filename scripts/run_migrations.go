package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/safar/lanchonete-orders/internal/config"
	"github.com/safar/lanchonete-orders/internal/database"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if len(os.Args) < 2 {
		logger.Error("usage: go run scripts/run_migrations.go [up|down]")
		os.Exit(2)
	}

	direction := database.Direction(os.Args[1])
	if direction != database.Up && direction != database.Down {
		logger.Error("direction must be 'up' or 'down'", slog.String("direction", string(direction)))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	applied, err := database.Migrate(context.Background(), db, direction)
	if err != nil {
		logger.Error("run migrations", slog.String("error", err.Error()))
		db.Close()
		os.Exit(1)
	}

	for _, name := range applied {
		logger.Info("ran migration", slog.String("file", name))
	}
	logger.Info("migrations complete", slog.Int("count", len(applied)), slog.String("direction", string(direction)))
}
