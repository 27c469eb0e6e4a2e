package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rajkumarwolftiger/llm-deployer/internal/task"
)

const DefaultTimeout = 20 * time.Second

var ErrInvalidEndpoint = errors.New("invalid endpoint")

// TransportError is a delivery that never got an HTTP response.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("post %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Result is what came back from the endpoint. Any status code counts.
type Result struct {
	Endpoint   string
	StatusCode int
}

type Dispatcher struct {
	httpClient *http.Client
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewDispatcherWithClient is for callers that bring their own transport.
func NewDispatcherWithClient(c *http.Client) *Dispatcher {
	return &Dispatcher{httpClient: c}
}

// Send posts payload to endpoint once.
func (d *Dispatcher) Send(ctx context.Context, endpoint string, payload task.Payload) (Result, error) {
	res := Result{Endpoint: endpoint}
	if err := validateEndpoint(endpoint); err != nil {
		return res, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return res, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return res, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	res.StatusCode = resp.StatusCode
	return res, nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return &task.MissingFieldError{Field: "endpoint"}
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidEndpoint, endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w %q: want absolute http(s) url", ErrInvalidEndpoint, endpoint)
	}
	return nil
}
