package receiver

import (
	"crypto/subtle"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
)

// DefaultMaxBodyBytes bounds a task payload, attachments included.
const DefaultMaxBodyBytes = 10 << 20

type Handler struct {
	expectedSecret string
	publicBaseURL  string
	maxBodyBytes   int64
	nonces         NonceStore
	ws             *Workspace
}

// NewHandler builds the receiver. maxBodyBytes <= 0 means DefaultMaxBodyBytes.
func NewHandler(expectedSecret, publicBaseURL string, maxBodyBytes int64, nonces NonceStore, ws *Workspace) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		expectedSecret: expectedSecret,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
		maxBodyBytes:   maxBodyBytes,
		nonces:         nonces,
		ws:             ws,
	}
}

// Routes mounts the receiver endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Route("/api-endpoint", func(rt chi.Router) {
		rt.Get("/", h.Info)
		rt.Post("/", h.AcceptTask)
	})
	r.Get("/status/{runID}", h.Status)
}

type errorResponse struct {
	Error string `json:"error"`
}

type acceptResponse struct {
	OK         bool   `json:"ok"`
	Duplicate  bool   `json:"duplicate,omitempty"`
	Message    string `json:"message,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	StatusPage string `json:"status_page,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "ok")
}

func (h *Handler) AcceptTask(w http.ResponseWriter, r *http.Request) {
	var p task.Payload
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, h.maxBodyBytes), &p); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("task payload too large", "limit", tooLarge.Limit)
			writeError(w, r, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		slog.Error("failed to decode task payload", "err", err)
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	if !h.secretOK(p.Secret) {
		slog.Warn("rejected task with invalid secret", "task", p.Task, "email", p.Email)
		writeError(w, r, http.StatusForbidden, "invalid secret")
		return
	}
	if p.Task == "" {
		writeError(w, r, http.StatusBadRequest, "task is required")
		return
	}

	if p.Nonce != "" {
		fresh, err := h.nonces.Claim(r.Context(), p.Nonce)
		if err != nil {
			slog.Error("nonce store failed", "err", err)
			writeError(w, r, http.StatusInternalServerError, "server error")
			return
		}
		if !fresh {
			slog.Info("duplicate delivery ignored", "task", p.Task, "nonce", p.Nonce)
			render.Status(r, http.StatusOK)
			render.JSON(w, r, acceptResponse{OK: true, Duplicate: true})
			return
		}
	}

	runID, err := h.ws.Create(p.Task)
	if err != nil {
		slog.Error("failed to create run", "task", p.Task, "err", err)
		h.releaseNonce(r, p.Nonce)
		writeError(w, r, http.StatusInternalServerError, "server error")
		return
	}
	if err := h.ws.Scaffold(runID, p); err != nil {
		slog.Error("failed to scaffold run", "run_id", runID, "err", err)
		if rmErr := h.ws.Remove(runID); rmErr != nil {
			slog.Error("failed to remove run dir", "run_id", runID, "err", rmErr)
		}
		h.releaseNonce(r, p.Nonce)
		if errors.Is(err, ErrBadAttachment) {
			writeError(w, r, http.StatusBadRequest, "invalid attachment")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "server error")
		return
	}

	slog.Info("task accepted", "task", p.Task, "round", p.Round, "run_id", runID)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, acceptResponse{
		OK:         true,
		Message:    "Deployment started...",
		RunID:      runID,
		StatusPage: h.publicBaseURL + "/status/" + runID,
	})
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	data := pageData{Endpoint: h.publicBaseURL + "/api-endpoint"}

	latest, err := h.ws.Latest()
	if err != nil {
		slog.Error("failed to find latest run", "err", err)
	}
	if latest != "" {
		data.DeployURL, err = h.ws.DeployURL(latest)
		if err != nil {
			slog.Error("failed to read deploy url", "run_id", latest, "err", err)
		}
	}
	writePage(w, http.StatusOK, infoPage, data)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	deployURL, err := h.ws.DeployURL(runID)
	if errors.Is(err, ErrUnknownRun) {
		http.Error(w, "No record found for run ID: "+runID, http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to read run status", "run_id", runID, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := pageData{RunID: runID, DeployURL: deployURL}
	if deployURL == "" {
		writePage(w, http.StatusOK, pendingPage, data)
		return
	}
	writePage(w, http.StatusOK, completePage, data)
}

// releaseNonce forgets a claimed nonce so a redelivery is processed again.
func (h *Handler) releaseNonce(r *http.Request, nonce string) {
	if nonce == "" {
		return
	}
	if err := h.nonces.Release(r.Context(), nonce); err != nil {
		slog.Error("failed to release nonce", "nonce", nonce, "err", err)
	}
}

func (h *Handler) secretOK(secret string) bool {
	if h.expectedSecret == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(h.expectedSecret)) == 1
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

func writePage(w http.ResponseWriter, status int, t *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.Execute(w, data); err != nil {
		slog.Error("failed to render page", "page", t.Name(), "err", err)
	}
}
