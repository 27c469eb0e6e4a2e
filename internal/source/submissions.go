package source

import (
	"fmt"
	"io"

	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
)

// SubmissionReader yields one task.SubmissionRecord per CSV row with the
// columns email, secret, brief, evaluation_url and endpoint.
type SubmissionReader struct {
	t *table
}

func NewSubmissionReader(r io.Reader) (*SubmissionReader, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}
	if !t.has("endpoint") {
		return nil, fmt.Errorf("submissions: %w endpoint", ErrMissingColumn)
	}
	return &SubmissionReader{t: t}, nil
}

// Next returns io.EOF after the last row.
func (s *SubmissionReader) Next() (task.SubmissionRecord, error) {
	r, err := s.t.next()
	if err != nil {
		return task.SubmissionRecord{}, err
	}
	return task.SubmissionRecord{
		Email:         r.get("email"),
		Secret:        r.get("secret"),
		Brief:         r.get("brief"),
		EvaluationURL: r.get("evaluation_url"),
		Endpoint:      r.get("endpoint"),
	}, nil
}
