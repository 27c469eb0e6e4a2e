package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewStorage(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}
	slog.Info("postgres connected")
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS issued_tasks (
	id             BIGSERIAL PRIMARY KEY,
	task           TEXT        NOT NULL,
	email          TEXT        NOT NULL,
	secret         TEXT        NOT NULL,
	brief          TEXT        NOT NULL DEFAULT '',
	evaluation_url TEXT        NOT NULL DEFAULT '',
	endpoint       TEXT        NOT NULL DEFAULT '',
	round          INT         NOT NULL,
	nonce          TEXT        NOT NULL UNIQUE,
	issued_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS issued_tasks_task_email_idx ON issued_tasks (task, email, issued_at DESC);`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate issued_tasks: %w", err)
	}
	return nil
}
