package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
)

var issuedColumns = []string{"email", "secret", "task", "brief", "evaluation_url", "endpoint"}

// IssuedReader yields round 1 tasks from a ledger CSV.
type IssuedReader struct {
	t *table
}

func NewIssuedReader(r io.Reader) (*IssuedReader, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}
	return &IssuedReader{t: t}, nil
}

// Next returns io.EOF after the last row. Rows missing required fields are
// still returned; the round 2 builder rejects them.
func (s *IssuedReader) Next() (task.IssuedTask, error) {
	r, err := s.t.next()
	if err != nil {
		return task.IssuedTask{}, err
	}
	return task.IssuedTask{
		Email:         r.get("email"),
		Secret:        r.get("secret"),
		Task:          r.get("task"),
		Brief:         r.get("brief"),
		EvaluationURL: r.get("evaluation_url"),
		Endpoint:      r.get("endpoint"),
	}, nil
}

// IssuedSlice serves a fixed list of tasks, e.g. loaded from the database.
type IssuedSlice struct {
	tasks []task.IssuedTask
	pos   int
}

func NewIssuedSlice(tasks []task.IssuedTask) *IssuedSlice {
	return &IssuedSlice{tasks: tasks}
}

func (s *IssuedSlice) Next() (task.IssuedTask, error) {
	if s.pos >= len(s.tasks) {
		return task.IssuedTask{}, io.EOF
	}
	t := s.tasks[s.pos]
	s.pos++
	return t, nil
}

type issuedKey struct{ task, email string }

type issuedItem struct {
	t          task.IssuedTask
	err        error
	superseded bool
}

// LatestIssued drops earlier rows for the same (task, email) pair so an
// appended ledger yields each task once, from its newest row. Order follows
// the newest occurrence. Bad rows and rows without a task or email pass
// through in place. The wrapped source is read to the end on the first Next.
type LatestIssued struct {
	src    interface{ Next() (task.IssuedTask, error) }
	items  []issuedItem
	loaded bool
	pos    int
}

func NewLatestIssued(src interface{ Next() (task.IssuedTask, error) }) *LatestIssued {
	return &LatestIssued{src: src}
}

func (l *LatestIssued) Next() (task.IssuedTask, error) {
	if !l.loaded {
		if err := l.load(); err != nil {
			return task.IssuedTask{}, err
		}
		l.loaded = true
	}
	for l.pos < len(l.items) {
		it := l.items[l.pos]
		l.pos++
		if it.superseded {
			continue
		}
		return it.t, it.err
	}
	return task.IssuedTask{}, io.EOF
}

func (l *LatestIssued) load() error {
	last := make(map[issuedKey]int)
	for {
		t, err := l.src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var re *RowError
		if errors.As(err, &re) {
			l.items = append(l.items, issuedItem{err: err})
			continue
		}
		if err != nil {
			return err
		}
		if t.Task == "" || t.Email == "" {
			l.items = append(l.items, issuedItem{t: t})
			continue
		}
		k := issuedKey{t.Task, t.Email}
		if i, ok := last[k]; ok {
			l.items[i].superseded = true
		}
		last[k] = len(l.items)
		l.items = append(l.items, issuedItem{t: t})
	}
}

// LedgerWriter appends issued round 1 tasks to a CSV file so a later round 2
// run can read them with IssuedReader.
type LedgerWriter struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

func OpenLedger(path string) (*LedgerWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat ledger: %w", err)
	}

	lw := &LedgerWriter{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := lw.write(issuedColumns); err != nil {
			f.Close()
			return nil, err
		}
	}
	return lw, nil
}

func (l *LedgerWriter) RecordIssued(_ context.Context, _ task.Payload, issued task.IssuedTask) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write([]string{
		issued.Email,
		issued.Secret,
		issued.Task,
		issued.Brief,
		issued.EvaluationURL,
		issued.Endpoint,
	})
}

func (l *LedgerWriter) write(fields []string) error {
	if err := l.w.Write(fields); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	return nil
}

func (l *LedgerWriter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return fmt.Errorf("flush ledger: %w", err)
	}
	return l.f.Close()
}
