package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/safar/lanchonete-orders/internal/config"
	"github.com/safar/lanchonete-orders/internal/database"
	"github.com/safar/lanchonete-orders/internal/store"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

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

	purged, err := store.New(db, cfg.Orders.Location).PurgeExpiredSessions(ctx)
	if err != nil {
		logger.Error("purge sessions", slog.String("error", err.Error()))
		db.Close()
		os.Exit(1)
	}
	logger.Info("session purge completed", slog.Int64("purged", purged))
}
