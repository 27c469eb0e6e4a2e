package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
)

// IssuedRow is one dispatched payload as stored in issued_tasks.
type IssuedRow struct {
	ID       int64
	Issued   task.IssuedTask
	Round    int
	Nonce    string
	IssuedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

func (r *Repository) RecordIssued(ctx context.Context, p task.Payload, issued task.IssuedTask) error {
	const query = `
	INSERT INTO issued_tasks (task, email, secret, brief, evaluation_url, endpoint, round, nonce)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := r.pool.Exec(ctx, query,
		issued.Task, issued.Email, issued.Secret, issued.Brief,
		issued.EvaluationURL, issued.Endpoint, p.Round, p.Nonce,
	)
	if err != nil {
		return fmt.Errorf("record issued task %s: %w", issued.Task, err)
	}
	return nil
}

// ListRound1 returns the latest round 1 row per (task, email), oldest first.
func (r *Repository) ListRound1(ctx context.Context) ([]task.IssuedTask, error) {
	const query = `
	SELECT task, email, secret, brief, evaluation_url, endpoint FROM (
		SELECT DISTINCT ON (task, email) task, email, secret, brief, evaluation_url, endpoint, issued_at
		FROM issued_tasks
		WHERE round = 1
		ORDER BY task, email, issued_at DESC
	) latest
	ORDER BY issued_at;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list round 1 tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (task.IssuedTask, error) {
		var t task.IssuedTask
		err := row.Scan(&t.Task, &t.Email, &t.Secret, &t.Brief, &t.EvaluationURL, &t.Endpoint)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan round 1 tasks: %w", err)
	}
	return tasks, nil
}

func (r *Repository) GetByNonce(ctx context.Context, nonce string) (*IssuedRow, error) {
	const query = `
	SELECT id, task, email, secret, brief, evaluation_url, endpoint, round, nonce, issued_at
	FROM issued_tasks WHERE nonce = $1;`

	var row IssuedRow
	err := r.pool.QueryRow(ctx, query, nonce).Scan(
		&row.ID, &row.Issued.Task, &row.Issued.Email, &row.Issued.Secret, &row.Issued.Brief,
		&row.Issued.EvaluationURL, &row.Issued.Endpoint, &row.Round, &row.Nonce, &row.IssuedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get issued task by nonce: %w", err)
	}
	return &row, nil
}
