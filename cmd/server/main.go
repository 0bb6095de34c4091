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

	"github.com/TVimala/Packaged-Food-Rating-App/config"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/bootstrap"
	httpDelivery "github.com/TVimala/Packaged-Food-Rating-App/internal/delivery/http"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, os.Stdout)
	slog.Info("starting FoodScore API",
		"version", httpDelivery.Version,
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port)

	rt, err := bootstrap.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	stop := make(chan struct{})
	defer close(stop)

	handler := httpDelivery.NewHandler(rt.Service)
	router := httpDelivery.SetupRouter(cfg, handler, stop)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exited")
}
