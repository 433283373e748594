package permission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	errors "github.com/sekreterlik/sekreterlik/internal"
)

// Client talks to the registry endpoints of a running server. Reads never
// fail: errors are logged and an empty result is returned. Writes return the
// server's message on failure.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithClientLogger(lg *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = lg }
}

// NewClient builds a client for baseURL, e.g. http://localhost:8080/api/v1.
// The session cookie issued by Login is kept for later calls.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		c.http.Jar = jar
	}
	// guard redirects mean "not allowed", never follow them
	c.http.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// Login opens a session on the server.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("login failed: %s", resp.Message)
	}
	return nil
}

// GetAllPermissions returns the whole registry, or an empty one on any error.
func (c *Client) GetAllPermissions(ctx context.Context) Registry {
	reg := Registry{}
	if err := c.do(ctx, http.MethodGet, "/permissions", nil, &reg); err != nil {
		c.logger.Error("fetch permission registry", "error", err)
		return Registry{}
	}
	return reg
}

// GetPermissionsForPosition returns the keys of position, or an empty slice on any error.
func (c *Client) GetPermissionsForPosition(ctx context.Context, position string) []string {
	var keys []string
	if err := c.do(ctx, http.MethodGet, "/permissions/"+url.PathEscape(position), nil, &keys); err != nil {
		c.logger.Error("fetch position permissions", "position", position, "error", err)
		return []string{}
	}
	if keys == nil {
		keys = []string{}
	}
	return keys
}

// SetPermissionsForPosition replaces the keys of position.
func (c *Client) SetPermissionsForPosition(ctx context.Context, position string, permissions []string) error {
	if permissions == nil {
		permissions = []string{}
	}
	var resp SetPermissionsResponse
	return c.do(ctx, http.MethodPost, "/permissions/"+url.PathEscape(position), SetPermissionsDTO{Permissions: permissions}, &resp)
}

// RequestError is a non-2xx answer of the server.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("registry request failed (%d): %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{StatusCode: resp.StatusCode, Message: serverMessage(resp, raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// serverMessage pulls the human readable message out of both error body shapes
// the server writes.
func serverMessage(resp *http.Response, raw []byte) string {
	if loc := resp.Header.Get("Location"); loc != "" && resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return "redirected to " + loc
	}

	var wrapped struct {
		Error *struct {
			Message string                   `json:"message"`
			Details *errors.ValidationErrors `json:"details"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && wrapped.Error != nil {
		if d := wrapped.Error.Details; d != nil && len(d.Errors) > 0 {
			msgs := make([]string, len(d.Errors))
			for i, e := range d.Errors {
				msgs[i] = e.Message
			}
			return strings.Join(msgs, "; ")
		}
		if wrapped.Error.Message != "" {
			return wrapped.Error.Message
		}
	}

	var plain struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &plain) == nil && plain.Message != "" {
		return plain.Message
	}
	return http.StatusText(resp.StatusCode)
}
