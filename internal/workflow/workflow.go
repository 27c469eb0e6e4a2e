// Package workflow drives the round 1 and round 2 pipelines: read a record,
// build its payload, post it once, report the outcome. Records are handled
// one at a time in input order and a failure on one record never stops the
// run.
package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/rajkumarwolftiger/llm-deployer/internal/dispatch"
	"github.com/rajkumarwolftiger/llm-deployer/internal/source"
	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
)

type Sender interface {
	Send(ctx context.Context, endpoint string, payload task.Payload) (dispatch.Result, error)
}

type SubmissionSource interface {
	Next() (task.SubmissionRecord, error)
}

// IssuedTaskSource provides round 1 tasks that are due a round 2 follow-up.
type IssuedTaskSource interface {
	Next() (task.IssuedTask, error)
}

// IssuedTaskRecorder remembers what round 1 handed out.
type IssuedTaskRecorder interface {
	RecordIssued(ctx context.Context, p task.Payload, issued task.IssuedTask) error
}

type Summary struct {
	Total  int
	Sent   int
	Failed int
}

// report logs one dispatch attempt and updates the summary.
func report(log *slog.Logger, s *Summary, p task.Payload, res dispatch.Result, err error) bool {
	if err != nil {
		s.Failed++
		log.Error("dispatch failed",
			"endpoint", res.Endpoint,
			"task", p.Task,
			"round", p.Round,
			"err", err,
		)
		return false
	}
	s.Sent++
	log.Info("POST",
		"endpoint", res.Endpoint,
		"status", res.StatusCode,
		"task", p.Task,
		"round", p.Round,
		"nonce", p.Nonce,
	)
	return true
}

// skipRow reports whether err from a source is a bad row rather than the end
// of input or a fatal read error.
func skipRow(log *slog.Logger, s *Summary, err error) bool {
	var re *source.RowError
	if errors.As(err, &re) {
		s.Total++
		s.Failed++
		log.Error("skipping unreadable row", "line", re.Line, "err", re.Err)
		return true
	}
	return false
}

func done(err error) bool {
	return errors.Is(err, io.EOF)
}
