package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
)

type Round1 struct {
	builder  *task.Builder
	sender   Sender
	recorder IssuedTaskRecorder
	log      *slog.Logger
}

// NewRound1 wires the round 1 pipeline. recorder may be nil.
func NewRound1(b *task.Builder, s Sender, recorder IssuedTaskRecorder, log *slog.Logger) *Round1 {
	return &Round1{
		builder:  b,
		sender:   s,
		recorder: recorder,
		log:      log.With("workflow", "round1"),
	}
}

func (w *Round1) Run(ctx context.Context, src SubmissionSource) (Summary, error) {
	var sum Summary
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rec, err := src.Next()
		if done(err) {
			break
		}
		if err != nil {
			if skipRow(w.log, &sum, err) {
				continue
			}
			return sum, fmt.Errorf("read submission: %w", err)
		}
		sum.Total++
		w.handle(ctx, &sum, rec)
	}
	w.log.Info("round 1 finished", "total", sum.Total, "sent", sum.Sent, "failed", sum.Failed)
	return sum, nil
}

func (w *Round1) handle(ctx context.Context, sum *Summary, rec task.SubmissionRecord) {
	p := w.builder.Round1(rec)
	res, err := w.sender.Send(ctx, rec.Endpoint, p)
	if !report(w.log, sum, p, res, err) || w.recorder == nil {
		return
	}
	if err := w.recorder.RecordIssued(ctx, p, p.Issued(rec.Endpoint)); err != nil {
		w.log.Warn("failed to record issued task", "task", p.Task, "err", err)
	}
}
