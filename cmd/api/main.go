package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safar/lanchonete-orders/internal/api"
	"github.com/safar/lanchonete-orders/internal/auth"
	"github.com/safar/lanchonete-orders/internal/config"
	"github.com/safar/lanchonete-orders/internal/database"
	"github.com/safar/lanchonete-orders/internal/observability"
	"github.com/safar/lanchonete-orders/internal/orders"
	"github.com/safar/lanchonete-orders/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	inst, shutdownTelemetry, err := observability.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			inst.Logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}()
	logger := inst.Logger

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database")

	applied, err := database.Migrate(ctx, db, database.Up)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		logger.Info("applied migrations", slog.Any("files", applied))
	}

	st := store.New(db, cfg.Orders.Location)
	seeded, err := st.SeedProducts(ctx, store.DefaultMenu)
	if err != nil {
		return err
	}
	if seeded > 0 {
		logger.Info("seeded catalog", slog.Int("products", seeded))
	}

	authenticator := auth.NewAuthenticator(st, auth.NewSigner(cfg.Session.Secret), cfg.Session.TTL, logger)
	created, err := authenticator.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		return err
	}
	if created {
		logger.Info("created admin account", slog.String("username", cfg.Admin.Username))
	}

	if cfg.Orders.TrustClientPrices {
		logger.Warn("line item prices are taken from the client payload; set TRUST_CLIENT_PRICES=false to use catalog prices")
	}
	svc := orders.NewInstrumented(
		orders.NewService(st, orders.WithClientPrices(cfg.Orders.TrustClientPrices)),
		orders.WithLogger(logger),
		orders.WithTracer(inst.Tracer("lanchonete-orders/orders")),
		orders.WithMeter(inst.Meter("lanchonete-orders/orders")),
	)

	handler := api.NewHandler(svc, authenticator, db,
		api.WithLogger(logger),
		api.WithSecureCookie(cfg.Session.SecureCookie),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("port", cfg.Server.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
