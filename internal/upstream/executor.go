// Package upstream issues HTTP requests against the note application's
// local API and normalizes the decoded responses into a uniform shape.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"anybridge/pkg/apierr"
	"anybridge/pkg/logging"
)

// RequestTimeout covers connect, write and read of a single upstream
// call. There are no retries; a timeout fails the inbound request.
const RequestTimeout = 30 * time.Second

// Executor performs single HTTP requests against the upstream API.
// It owns no state beyond the base URL, an optional fallback token and
// the shared HTTP client.
type Executor struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient overrides the HTTP client, used by tests to shorten
// the timeout or to inject transports.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		e.httpClient = c
	}
}

// NewExecutor creates an Executor for the given base URL. token is the
// process-level fallback used when no per-call token is supplied.
func NewExecutor(baseURL, token string, opts ...Option) *Executor {
	e := &Executor{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request describes a single upstream call.
type Request struct {
	Method string
	Path   string
	Body   any
	Query  url.Values
	Header http.Header
	// Token overrides the executor's fallback token for this call.
	Token string
	// SkipAuth suppresses the Authorization header entirely, used by the
	// two auth-bootstrap calls.
	SkipAuth bool
}

// Do executes the request and returns the decoded JSON body. Non-object
// JSON payloads are wrapped under a "data" key so callers always receive
// a mapping. A 2xx response with an empty body yields an empty mapping.
func (e *Executor) Do(ctx context.Context, req Request) (map[string]any, error) {
	target := joinURL(e.baseURL, req.Path)
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}
	if !req.SkipAuth {
		if token := e.resolveToken(req.Token); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	logging.Debug("Upstream", "request: %s %s", req.Method, req.Path)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			logging.Error("Upstream", err, "request timed out: %s %s (%.2fs)",
				req.Method, req.Path, time.Since(start).Seconds())
			return nil, apierr.ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		logging.Warn("Upstream", "unauthorized: %s %s", req.Method, req.Path)
		return nil, apierr.ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := extractErrorMessage(raw)
		logging.Error("Upstream", nil, "request failed: %s %s - %d %s",
			req.Method, req.Path, resp.StatusCode, message)
		return nil, apierr.NewUpstreamError(resp.StatusCode, message)
	}

	logging.Debug("Upstream", "request completed: %s %s - %d (%.2fs)",
		req.Method, req.Path, resp.StatusCode, time.Since(start).Seconds())

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %s", apierr.ErrInvalidResponse, truncate(string(raw), 200))
	}
	if m, ok := decoded.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{"data": decoded}, nil
}

func (e *Executor) resolveToken(override string) string {
	if override != "" {
		return override
	}
	return e.token
}

// joinURL concatenates base and path, collapsing at most one redundant
// slash at the boundary.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// extractErrorMessage pulls the error/message field out of an upstream
// error body. The upstream wraps errors either flat ({"error": "..."}) or
// nested ({"error": {"message": "..."}}); both are handled here so the
// caller sees a plain string.
func extractErrorMessage(raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	switch v := body["error"].(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	if msg, ok := body["message"].(string); ok {
		return msg
	}
	return ""
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
