// Package client talks to the lexdesk REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"lexdesk/internal/config"
	"lexdesk/internal/logging"
)

const defaultTimeout = 10 * time.Second

// ErrNoToken reports that no server has written a token yet.
var ErrNoToken = errors.New("no api token; is the server running? (lexdesk serve)")

type Client struct {
	baseURL   string
	tokenPath string
	token     string
	http      *http.Client
	logger    logging.Logger

	// startServer launches a detached server; replaced in tests.
	startServer func() error
}

// New builds a client from the effective core config. The bearer token is
// read lazily from the token file the server writes.
func New(cfg config.CoreConfig) (*Client, error) {
	tokenPath, err := config.TokenPath()
	if err != nil {
		return nil, err
	}
	c := newClient(cfg.ServerBaseURL(), cfg.RequestTimeout())
	c.tokenPath = tokenPath
	if err := c.loadToken(); err != nil {
		c.log().Warn("token_unreadable", logging.F("path", tokenPath), logging.Err(err))
	}
	return c, nil
}

// NewWithBaseURL builds a client with a fixed token and no token file.
func NewWithBaseURL(baseURL, token string) *Client {
	c := newClient(baseURL, defaultTimeout)
	c.token = strings.TrimSpace(token)
	return c
}

func newClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: timeout},
		startServer: StartBackgroundServer,
	}
}

// SetLogger routes client diagnostics (stream lifecycle, autostart) to l.
func (c *Client) SetLogger(l logging.Logger) {
	c.logger = l
}

func (c *Client) log() logging.Logger {
	if c.logger == nil {
		return logging.Nop()
	}
	return c.logger
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ShutdownServer(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/shutdown", nil, true, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, requireAuth bool, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}
	resp, err := c.do(ctx, method, path, reader, "application/json", requireAuth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// do sends one request and returns the response only for 2xx statuses. The
// caller closes the body.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, requireAuth bool) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if requireAuth {
		if err := c.ensureToken(); err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	httpClient := c.http
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func (c *Client) ensureToken() error {
	if c.token != "" {
		return nil
	}
	if err := c.loadToken(); err != nil {
		return err
	}
	if c.token == "" {
		return ErrNoToken
	}
	return nil
}

// loadToken rereads the token file; a missing file clears the token.
func (c *Client) loadToken() error {
	if c.tokenPath == "" {
		return nil
	}
	data, err := os.ReadFile(c.tokenPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		c.token = ""
		return nil
	case err != nil:
		return fmt.Errorf("read token: %w", err)
	}
	c.token = strings.TrimSpace(string(data))
	return nil
}

// decodeAPIError reads the {"success":false,"message":...} failure body. A
// body without a message falls back to the status text.
func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&payload)
	message := strings.TrimSpace(payload.Message)
	if message == "" {
		message = strings.TrimSpace(payload.Error)
	}
	if message == "" {
		message = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func asAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
