package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rajkumarwolftiger/llm-deployer/internal/config"
	"github.com/rajkumarwolftiger/llm-deployer/internal/logger"
	"github.com/rajkumarwolftiger/llm-deployer/internal/receiver"
)

func main() {
	cfg := config.MustLoad()

	log := logger.SetupLogger(cfg.Env)
	slog.SetDefault(log)
	slog.Info("config loaded",
		"env", cfg.Env,
		"addr", cfg.HTTPServer.Address,
		"work_dir", cfg.Receiver.WorkDir,
		"redis", cfg.Redis.Addr,
	)
	if cfg.Receiver.ExpectedSecret == "" {
		slog.Warn("EXPECTED_SECRET is empty, every task will be rejected")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var nonces receiver.NonceStore = receiver.NewMemoryNonceStore(cfg.Redis.NonceTTL)
	if cfg.Redis.Addr != "" {
		rdb, err := receiver.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("redis unavailable, using in-memory nonce store", "error", err)
		} else {
			defer rdb.Close()
			nonces = receiver.NewRedisNonceStore(rdb, cfg.Redis.NonceTTL)
			slog.Info("connected to redis", "addr", cfg.Redis.Addr)
		}
	}

	ws, err := receiver.NewWorkspace(cfg.Receiver.WorkDir)
	if err != nil {
		slog.Error("failed to prepare work dir", "error", err)
		os.Exit(1)
	}
	handler := receiver.NewHandler(cfg.Receiver.ExpectedSecret, cfg.Receiver.PublicBaseURL, cfg.Receiver.MaxBodyBytes, nonces, ws)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Receiver.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	handler.Routes(r)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      r,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		slog.Info("starting receiver http server", "addr", cfg.HTTPServer.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("receiver server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down receiver server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("receiver shutdown error", "err", err)
	}
}
