// Package remote is the client for the remote data service, a plain
// HTTP/JSON CRUD backend holding the /users and /expenses collections.
// It is the only component that talks to the network.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pennywise/internal/core"
	applog "pennywise/internal/log"
)

// Client talks to the remote data service. All methods wrap transport and
// server failures in core.ErrRemote; a 404 on a collection GET is data
// ("no records"), not a failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *applog.Logger
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.WithComponent(applog.ComponentRemote),
	}
}

// statusError carries a non-2xx response through to the typed helpers,
// which decide whether the status is meaningful (404 on a lookup) or a
// failure.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body != "" {
		return fmt.Sprintf("server returned %d: %s", e.code, e.body)
	}
	return fmt.Sprintf("server returned %d", e.code)
}

func (e *statusError) Unwrap() error { return core.ErrRemote }

// do performs one request against the service and returns the raw body.
// A non-2xx status other than allowNotFound's 404 comes back as a
// *statusError wrapping core.ErrRemote.
func (c *Client) do(ctx context.Context, method, path string, payload any, allowNotFound bool) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Remote request failed",
			applog.FieldMethod, method,
			applog.FieldPath, path,
			applog.FieldRequestID, requestID,
			applog.FieldError, err)
		return nil, fmt.Errorf("%w: %v", core.ErrRemote, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", core.ErrRemote, err)
	}

	c.logger.DebugContext(ctx, "Remote request completed",
		applog.FieldMethod, method,
		applog.FieldPath, path,
		applog.FieldRequestID, requestID,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusNotFound && allowNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, allowNotFound bool) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, allowNotFound)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, payload, false)
}

func (c *Client) put(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPut, path, payload, false)
}

func (c *Client) delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, path, nil, false)
}

// decodeList decodes a collection response. The service is a generic
// mock backend, so a malformed or non-array body degrades to an empty
// list instead of failing the caller.
func decodeList[T any](c *Client, body []byte) []T {
	if len(body) == 0 {
		return nil
	}
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		c.logger.Warn("Non-array collection response, treating as empty",
			applog.FieldError, err)
		return nil
	}
	return items
}
