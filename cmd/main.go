package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanced-support/signaling-service/config"
	"github.com/vanced-support/signaling-service/internal/banlist"
	"github.com/vanced-support/signaling-service/internal/room"
	httpx "github.com/vanced-support/signaling-service/internal/transport/http"
	"github.com/vanced-support/signaling-service/internal/transport/ws"
	"github.com/vanced-support/signaling-service/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting signaling-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- room registry ---
	registry := room.NewRegistry(logger.L(), room.Options{
		IdleAfter:  cfg.IdleAfter(),
		SweepEvery: cfg.SweepEvery(),
	})

	// --- ban list ---
	bans := banlist.New(cfg.BanList.IPs, cfg.BanList.PeerIDs)

	// --- WS + HTTP ---
	wsServer := ws.NewServer(registry)
	handler := httpx.NewHandler(registry)
	router := httpx.NewRouter(handler, wsServer, bans)
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped", "active_rooms", registry.Len())
}
