package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
)

type Round2 struct {
	builder *task.Builder
	sender  Sender
	log     *slog.Logger
}

func NewRound2(b *task.Builder, s Sender, log *slog.Logger) *Round2 {
	return &Round2{
		builder: b,
		sender:  s,
		log:     log.With("workflow", "round2"),
	}
}

func (w *Round2) Run(ctx context.Context, src IssuedTaskSource) (Summary, error) {
	var sum Summary
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		prev, err := src.Next()
		if done(err) {
			break
		}
		if err != nil {
			if skipRow(w.log, &sum, err) {
				continue
			}
			return sum, fmt.Errorf("read issued task: %w", err)
		}
		sum.Total++

		p, err := w.builder.Round2(prev)
		if err != nil {
			sum.Failed++
			w.log.Error("cannot build round 2 task", "task", prev.Task, "email", prev.Email, "err", err)
			continue
		}
		res, err := w.sender.Send(ctx, prev.Endpoint, p)
		report(w.log, &sum, p, res, err)
	}
	w.log.Info("round 2 finished", "total", sum.Total, "sent", sum.Sent, "failed", sum.Failed)
	return sum, nil
}
