package receiver

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
)

const deployURLFile = "deploy_url.txt"

var (
	ErrUnknownRun    = errors.New("unknown run")
	ErrBadAttachment = errors.New("bad attachment")

	runUnsafe = regexp.MustCompile(`[^a-zA-Z0-9\-]`)
	dataURI   = regexp.MustCompile(`^data:[^;]+;base64,(.+)$`)
)

// Workspace owns one directory per accepted run under base.
type Workspace struct {
	base string
	now  func() time.Time
}

func NewWorkspace(base string) (*Workspace, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &Workspace{base: base, now: time.Now}, nil
}

const maxRunSuffix = 100

// Create makes a fresh run directory for taskID and returns its run id. Runs
// created in the same millisecond get a numeric suffix.
func (ws *Workspace) Create(taskID string) (string, error) {
	base := runUnsafe.ReplaceAllString(taskID, "-") + "-" + strconv.FormatInt(ws.now().UnixMilli(), 10)
	runID := base
	for i := 2; ; i++ {
		err := os.Mkdir(ws.dir(runID), 0o755)
		if err == nil {
			return runID, nil
		}
		if !errors.Is(err, os.ErrExist) || i > maxRunSuffix {
			return "", fmt.Errorf("create run dir: %w", err)
		}
		runID = base + "-" + strconv.Itoa(i)
	}
}

// Remove deletes a run directory and everything in it.
func (ws *Workspace) Remove(runID string) error {
	if runID == "" || runID != filepath.Base(runID) || strings.HasPrefix(runID, ".") {
		return ErrUnknownRun
	}
	return os.RemoveAll(ws.dir(runID))
}

// Scaffold writes attachments, a placeholder index.html, README.md and LICENSE.
func (ws *Workspace) Scaffold(runID string, p task.Payload) error {
	dir := ws.dir(runID)

	if p.Attachments != nil {
		for _, att := range *p.Attachments {
			if err := writeAttachment(dir, att); err != nil {
				return err
			}
		}
	}

	index := fmt.Sprintf(`<!doctype html><html><head><meta charset="utf-8"><title>%[1]s</title></head>`+
		`<body><h1>%[1]s</h1><div id="content">Placeholder content. Brief: %[2]s</div></body></html>`,
		html.EscapeString(p.Task), html.EscapeString(p.Brief))

	files := []struct {
		name    string
		content string
	}{
		{"index.html", index},
		{"README.md", fmt.Sprintf("# %s\n\nGenerated by LLM Deploy API.\n", p.Task)},
		{"LICENSE", fmt.Sprintf("MIT License\n\nCopyright (c) %d", ws.now().Year())},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

func writeAttachment(dir string, att task.Attachment) error {
	m := dataURI.FindStringSubmatch(att.URL)
	if m == nil {
		// only inline data URIs are materialised
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(m[1])
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrBadAttachment, att.Name, err)
	}

	name := filepath.Base(att.Name)
	if att.Name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		name = "file-" + uuid.NewString()
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write attachment %q: %w", name, err)
	}
	return nil
}

// DeployURL returns the recorded deployment URL, or "" while the run is in
// progress.
func (ws *Workspace) DeployURL(runID string) (string, error) {
	if runID == "" || runID != filepath.Base(runID) || strings.HasPrefix(runID, ".") {
		return "", ErrUnknownRun
	}
	if _, err := os.Stat(ws.dir(runID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrUnknownRun
		}
		return "", err
	}
	raw, err := os.ReadFile(filepath.Join(ws.dir(runID), deployURLFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// Latest returns the most recently modified run, or "" if there is none.
func (ws *Workspace) Latest() (string, error) {
	entries, err := os.ReadDir(ws.base)
	if err != nil {
		return "", fmt.Errorf("read work dir: %w", err)
	}
	type run struct {
		id      string
		modTime time.Time
	}
	var runs []run
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		runs = append(runs, run{e.Name(), info.ModTime()})
	}
	if len(runs) == 0 {
		return "", nil
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].modTime.After(runs[j].modTime) })
	return runs[0].id, nil
}

func (ws *Workspace) dir(runID string) string {
	return filepath.Join(ws.base, runID)
}
