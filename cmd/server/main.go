package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shama-game/internal/config"
	"shama-game/internal/database"
	"shama-game/internal/logging"
	"shama-game/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "shama server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting Shama server",
		zap.String("addr", cfg.Addr()),
		zap.String("storage", cfg.StorageType),
		zap.Bool("strict_follow_suit", cfg.EnforceFollowSuit))

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	logger.Info("storage ready", zap.String("driver", db.Driver()))

	hub := server.NewHub(server.HubConfig{
		Logger:   logger,
		Recorder: db,
		Strict:   cfg.EnforceFollowSuit,
	})
	go hub.Run(ctx)

	e := server.NewRouter(hub, db, cfg.StaticDir, logger)
	errc := make(chan error, 1)
	go func() {
		errc <- e.Start(cfg.Addr())
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		if err := server.Shutdown(e, 5*time.Second); err != nil {
			return err
		}
	}
	return nil
}
