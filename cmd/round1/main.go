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
		"submissions", cfg.SubmissionsPath,
		"timeout", cfg.Dispatch.Timeout,
		"ledger", cfg.Ledger(),
		"ledger_csv", cfg.Round2.Path,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	f, err := os.Open(cfg.SubmissionsPath)
	if err != nil {
		slog.Error("failed to open submissions", "path", cfg.SubmissionsPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	src, err := source.NewSubmissionReader(f)
	if err != nil {
		slog.Error("failed to read submissions header", "path", cfg.SubmissionsPath, "error", err)
		os.Exit(1)
	}

	var recorder workflow.IssuedTaskRecorder
	switch cfg.Ledger() {
	case config.Round2SourcePostgres:
		db, err := storage.NewStorage(ctx, cfg.TaskDB.DSN)
		if err != nil {
			slog.Error("failed to connect to task db", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := storage.Migrate(ctx, db); err != nil {
			slog.Error("failed to migrate task db", "error", err)
			os.Exit(1)
		}
		recorder = storage.NewRepository(db)
	default:
		if cfg.TaskDB.DSN != "" {
			slog.Warn("TASK_DB_DSN is set but the ledger is csv; set ROUND2_SOURCE=postgres to use the database")
		}
		ledger, err := source.OpenLedger(cfg.Round2.Path)
		if err != nil {
			slog.Error("failed to open task ledger", "path", cfg.Round2.Path, "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := ledger.Close(); err != nil {
				slog.Error("failed to close task ledger", "error", err)
			}
		}()
		recorder = ledger
	}

	builder := task.NewBuilder(cfg.Tasks.DigestLength, !cfg.Tasks.OmitRound1Attachments, cfg.Tasks.IncludeRound2Attachments)
	w := workflow.NewRound1(builder, dispatch.NewDispatcher(cfg.Dispatch.Timeout), recorder, log)

	if _, err := w.Run(ctx, src); err != nil {
		slog.Error("round 1 aborted", "error", err)
	}
}
