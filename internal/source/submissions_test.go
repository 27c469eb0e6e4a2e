package source

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
)

func readAll(t *testing.T, r *SubmissionReader) []task.SubmissionRecord {
	t.Helper()
	var out []task.SubmissionRecord
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, rec)
	}
}

func TestSubmissionReader(t *testing.T) {
	in := "email,secret,brief,evaluation_url,endpoint\n" +
		"x@y.com,s1,brief1,http://eval/1,http://host/ep\n" +
		"\n" +
		"a@b.com,s2,,,http://host/other\n"

	r, err := NewSubmissionReader(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	got := readAll(t, r)
	want := []task.SubmissionRecord{
		{Email: "x@y.com", Secret: "s1", Brief: "brief1", EvaluationURL: "http://eval/1", Endpoint: "http://host/ep"},
		{Email: "a@b.com", Secret: "s2", Endpoint: "http://host/other"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSubmissionReaderColumnOrderAndMissingColumns(t *testing.T) {
	in := "\ufeffEndpoint, Email ,secret,extra\n" +
		"http://host/ep,x@y.com,s,ignored\n" +
		"http://host/short\n"

	r, err := NewSubmissionReader(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	got := readAll(t, r)
	if len(got) != 2 {
		t.Fatalf("got %d records", len(got))
	}
	if got[0].Endpoint != "http://host/ep" || got[0].Email != "x@y.com" || got[0].Brief != "" {
		t.Errorf("record 0 = %+v", got[0])
	}
	if got[1].Endpoint != "http://host/short" || got[1].Email != "" {
		t.Errorf("record 1 = %+v", got[1])
	}
}

func TestSubmissionReaderRequiresHeader(t *testing.T) {
	if _, err := NewSubmissionReader(strings.NewReader("")); !errors.Is(err, ErrNoHeader) {
		t.Errorf("err = %v, want ErrNoHeader", err)
	}
	if _, err := NewSubmissionReader(strings.NewReader("email,secret\nx@y.com,s\n")); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("err = %v, want ErrMissingColumn", err)
	}
}

func TestSubmissionReaderBadRowIsRecoverable(t *testing.T) {
	in := "email,endpoint\n" +
		"bad\"quote,http://host/1\n" +
		"ok@y.com,http://host/2\n"

	r, err := NewSubmissionReader(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Next()
	var re *RowError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RowError", err)
	}
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next after bad row: %v", err)
	}
	if rec.Email != "ok@y.com" {
		t.Errorf("record = %+v", rec)
	}
}
