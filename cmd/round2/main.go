package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rajkumarwolftiger/llm-deployer/internal/config"
	"github.com/rajkumarwolftiger/llm-deployer/internal/dispatch"
	"github.com/rajkumarwolftiger/llm-deployer/internal/logger"
	"github.com/rajkumarwolftiger/llm-deployer/internal/source"
	"github.com/rajkumarwolftiger/llm-deployer/internal/storage"
	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
	"github.com/rajkumarwolftiger/llm-deployer/internal/workflow"
)

func main() {
	cfg := config.MustLoad()

	log := logger.SetupLogger(cfg.Env)
	slog.SetDefault(log)
	slog.Info("config loaded",
		"env", cfg.Env,
		"source", cfg.Round2.Source,
		"path", cfg.Round2.Path,
		"timeout", cfg.Dispatch.Timeout,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var src workflow.IssuedTaskSource
	switch cfg.Ledger() {
	case config.Round2SourcePostgres:
		db, err := storage.NewStorage(ctx, cfg.TaskDB.DSN)
		if err != nil {
			slog.Error("failed to connect to task db", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		tasks, err := storage.NewRepository(db).ListRound1(ctx)
		if err != nil {
			slog.Error("failed to load round 1 tasks", "error", err)
			os.Exit(1)
		}
		src = source.NewIssuedSlice(tasks)
	default:
		f, err := os.Open(cfg.Round2.Path)
		if err != nil {
			slog.Error("failed to open round 1 ledger", "path", cfg.Round2.Path, "error", err)
			os.Exit(1)
		}
		defer f.Close()

		r, err := source.NewIssuedReader(f)
		if err != nil {
			slog.Error("failed to read round 1 ledger header", "path", cfg.Round2.Path, "error", err)
			os.Exit(1)
		}
		src = source.NewLatestIssued(r)
	}

	builder := task.NewBuilder(cfg.Tasks.DigestLength, !cfg.Tasks.OmitRound1Attachments, cfg.Tasks.IncludeRound2Attachments)
	w := workflow.NewRound2(builder, dispatch.NewDispatcher(cfg.Dispatch.Timeout), log)

	if _, err := w.Run(ctx, src); err != nil {
		slog.Error("round 2 aborted", "error", err)
	}
}
