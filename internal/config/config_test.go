package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dispatch.Timeout != 20*time.Second {
		t.Errorf("dispatch timeout = %s, want 20s", cfg.Dispatch.Timeout)
	}
	if cfg.Tasks.DigestLength != 6 {
		t.Errorf("digest length = %d, want 6", cfg.Tasks.DigestLength)
	}
	if cfg.Tasks.OmitRound1Attachments || cfg.Tasks.IncludeRound2Attachments {
		t.Errorf("attachments flags = %+v, want both false", cfg.Tasks)
	}
	if cfg.SubmissionsPath != "sample_submissions.csv" {
		t.Errorf("submissions path = %q", cfg.SubmissionsPath)
	}
	if cfg.Round2.Source != Round2SourceCSV {
		t.Errorf("round2 source = %q", cfg.Round2.Source)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := []byte(`env: production
submissions_path: subs.csv
dispatch:
  timeout: 3s
tasks:
  digest_length: 10
  omit_round1_attachments: true
receiver:
  expected_secret: s3cret
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "production" || cfg.SubmissionsPath != "subs.csv" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Dispatch.Timeout != 3*time.Second {
		t.Errorf("timeout = %s", cfg.Dispatch.Timeout)
	}
	if cfg.Tasks.DigestLength != 10 || !cfg.Tasks.OmitRound1Attachments {
		t.Errorf("tasks = %+v", cfg.Tasks)
	}
	if cfg.Receiver.ExpectedSecret != "s3cret" {
		t.Errorf("expected secret = %q", cfg.Receiver.ExpectedSecret)
	}
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("ROUND2_SOURCE", Round2SourcePostgres)
	t.Setenv("TASK_DB_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for postgres source without dsn")
	}
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("ROUND2_SOURCE", "ftp")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestLedgerFollowsRound2Source(t *testing.T) {
	tests := []struct {
		name   string
		source string
		dsn    string
		want   string
	}{
		{"default is csv", "", "", Round2SourceCSV},
		{"dsn alone keeps csv", "", "postgres://u@localhost/tasks", Round2SourceCSV},
		{"postgres with dsn", Round2SourcePostgres, "postgres://u@localhost/tasks", Round2SourcePostgres},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
			if tt.source != "" {
				t.Setenv("ROUND2_SOURCE", tt.source)
			}
			t.Setenv("TASK_DB_DSN", tt.dsn)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.Ledger(); got != tt.want {
				t.Errorf("Ledger() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadRejectsCSVWithoutPath(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("ROUND2_SOURCE", Round2SourceCSV)
	t.Setenv("ROUND2_PATH", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for csv source without path")
	}
}

func TestLoadReceiverBodyLimit(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("MAX_BODY_BYTES", "2048")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Receiver.MaxBodyBytes != 2048 {
		t.Errorf("max body bytes = %d", cfg.Receiver.MaxBodyBytes)
	}
}
