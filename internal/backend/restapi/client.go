// Package restapi implements service.Store and service.Accounts over the
// task store's JSON REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/service"
)

// Client talks to the REST task store.
type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	log     *slog.Logger
}

// New creates a client for the store configured in cfg.
// When a session is stored its token is sent as a bearer credential on
// every request. If requireSession is set, a missing or expired session is
// reported as service.ErrUnauthorized before any request is made.
func New(ctx context.Context, cfg *config.Config, requireSession bool) (*Client, error) {
	httpClient := &http.Client{}

	sess, err := auth.Load(cfg.SessionPath())
	switch {
	case err == nil && sess.Expired(time.Now()):
		if requireSession {
			return nil, fmt.Errorf("%w: session expired (run: %s login)", service.ErrUnauthorized, config.AppName)
		}
	case err == nil:
		httpClient = oauth2.NewClient(ctx, sess.TokenSource())
	case errors.Is(err, auth.ErrNoSession):
		if requireSession {
			return nil, fmt.Errorf("%w: not logged in (run: %s login)", service.ErrUnauthorized, config.AppName)
		}
	default:
		return nil, err
	}

	c := NewWithHTTPClient(cfg.APIURL(), httpClient)
	c.timeout = cfg.Timeout()
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// The HTTP client is responsible for attaching credentials.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		timeout: config.DefaultTimeout,
		log:     logger.With("component", "restapi"),
	}
}

// SetTimeout changes the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// ListTasks implements service.Store.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask implements service.Store.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", draft, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// UpdateTask implements service.Store.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), patch, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// DeleteTask implements service.Store.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// ReorderTasks implements service.Store.
func (c *Client) ReorderTasks(ctx context.Context, entries []service.OrderEntry) error {
	body := struct {
		Tasks []service.OrderEntry `json:"tasks"`
	}{Tasks: entries}
	return c.do(ctx, http.MethodPost, "/api/tasks/reorder", body, nil)
}

// Login implements service.Accounts.
func (c *Client) Login(ctx context.Context, email, password string) (service.Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var creds service.Credentials
	if err := c.do(ctx, http.MethodPost, "/api/users/login", body, &creds); err != nil {
		return service.Credentials{}, err
	}
	return creds, nil
}

// Register implements service.Accounts.
func (c *Client) Register(ctx context.Context, name, email, password string) (service.Credentials, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var creds service.Credentials
	if err := c.do(ctx, http.MethodPost, "/api/users/register", body, &creds); err != nil {
		return service.Credentials{}, err
	}
	return creds, nil
}

// Me implements service.Accounts.
func (c *Client) Me(ctx context.Context) (service.User, error) {
	var u service.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &u); err != nil {
		return service.User{}, err
	}
	return u, nil
}

// Logout implements service.Accounts.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/users/logout", nil, nil)
}

// errorBody is the store's error payload. Older endpoints use "message".
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "err", err)
		return wrapError(err)
	}
	defer resp.Body.Close()
	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from %s %s: %w", method, path, wrapError(err))
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &service.APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil {
		apiErr.Message = eb.Error
		if apiErr.Message == "" {
			apiErr.Message = eb.Message
		}
	}
	return apiErr
}

// wrapError wraps transport errors with user-friendly messages.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("cannot reach task store: %w", urlErr.Err)
	}
	return err
}
