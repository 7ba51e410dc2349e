// Package googletasks implements service.Store using the Google Tasks API.
//
// Tasks live in the user's default list. Google Tasks orders tasks by an
// opaque position string, so display order is derived from position and a
// batch reorder is replayed as a chain of moves.
package googletasks

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// OAuth scope for Google Tasks
	tasksScope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Store using Google Tasks API.
type Client struct {
	svc     *tasks.Service
	listID  string
	timeout time.Duration
	log     *slog.Logger
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and google_token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := oauthConfig(cfg)
	if err != nil {
		return nil, err
	}

	token, err := loadToken(cfg.GoogleTokenPath())
	if err != nil {
		return nil, err
	}

	// Token source refreshes the access token as needed
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	c, err := NewWithHTTPClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	c.timeout = cfg.Timeout()
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// Extra options such as option.WithEndpoint are passed to the API client.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{
		svc:     svc,
		listID:  DefaultListID,
		timeout: config.DefaultTimeout,
		log:     logger.With("component", "googletasks"),
	}, nil
}

// ListTasks returns the top-level tasks of the default list, completed ones
// included, ordered by position with Order set to the display index.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	items, err := c.listItems(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]service.Task, len(items))
	for i, item := range items {
		result[i] = toTask(item, i)
	}
	return result, nil
}

// CreateTask inserts the task after the current last task.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	items, err := c.listItems(ctx)
	if err != nil {
		return service.Task{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	call := c.svc.Tasks.Insert(c.listID, &tasks.Task{
		Title: draft.Title,
		Notes: draft.Description,
	}).Context(ctx)
	if len(items) > 0 {
		call = call.Previous(items[len(items)-1].Id)
	}
	created, err := call.Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	c.log.Debug("created", "id", created.Id, "position", created.Position)
	return toTask(created, len(items)), nil
}

// UpdateTask patches title, notes and status. Google Tasks has no priority
// field; a priority change is accepted and ignored.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	body := &tasks.Task{}
	if patch.Title != nil {
		body.Title = *patch.Title
	}
	if patch.Description != nil {
		body.Notes = *patch.Description
		if body.Notes == "" {
			body.ForceSendFields = append(body.ForceSendFields, "Notes")
		}
	}
	if patch.Completed != nil {
		if *patch.Completed {
			body.Status = statusCompleted
		} else {
			body.Status = statusNeedsAction
			body.NullFields = append(body.NullFields, "Completed")
		}
	}

	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	_, err := c.svc.Tasks.Patch(c.listID, id, body).Context(pctx).Do()
	cancel()
	if err != nil {
		return service.Task{}, wrapError(err)
	}

	// The patched record carries no display index; read it back from the list.
	list, err := c.ListTasks(ctx)
	if err != nil {
		return service.Task{}, err
	}
	i := slices.IndexFunc(list, func(t service.Task) bool { return t.ID == id })
	if i < 0 {
		return service.Task{}, service.ErrNotFound
	}
	return list[i], nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// ReorderTasks moves each task behind its predecessor in the requested
// order. The API has no batch move, so a failure part way through leaves
// the list partially reordered; callers reload on error.
func (c *Client) ReorderTasks(ctx context.Context, entries []service.OrderEntry) error {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b service.OrderEntry) int {
		return cmp.Compare(a.Order, b.Order)
	})

	for i, e := range sorted {
		mctx, cancel := context.WithTimeout(ctx, c.timeout)
		call := c.svc.Tasks.Move(c.listID, e.ID).Context(mctx)
		if i > 0 {
			call = call.Previous(sorted[i-1].ID)
		}
		_, err := call.Do()
		cancel()
		if err != nil {
			c.log.Debug("move failed", "id", e.ID, "index", i, "err", err)
			return wrapError(err)
		}
	}
	return nil
}

// listItems fetches all top-level tasks sorted by position.
func (c *Client) listItems(ctx context.Context) ([]*tasks.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var items []*tasks.Task
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, item := range resp.Items {
				if item.Parent == "" {
					items = append(items, item)
				}
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}

	// Positions are zero-padded digit strings, so byte order is display order.
	slices.SortStableFunc(items, func(a, b *tasks.Task) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return items, nil
}

func toTask(item *tasks.Task, order int) service.Task {
	t := service.Task{
		ID:          item.Id,
		Title:       item.Title,
		Description: item.Notes,
		Priority:    service.DefaultPriority,
		Completed:   item.Status == statusCompleted,
		Order:       order,
	}
	if ts, err := time.Parse(time.RFC3339, item.Updated); err == nil {
		t.CreatedAt = ts
	}
	return t
}

// wrapError maps API errors onto the service error taxonomy.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		apiErr := &service.APIError{Status: gerr.Code, Message: gerr.Message}
		if gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden {
			apiErr.Message = fmt.Sprintf("token expired or revoked (run: %s login)", config.AppName)
		}
		return apiErr
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: token expired or revoked (run: %s login)", service.ErrUnauthorized, config.AppName)
	}
	return err
}

func oauthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.OAuthClientFile, err)
	}
	oc, err := google.ConfigFromJSON(clientJSON, tasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.OAuthClientFile, err)
	}
	return oc, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: not logged in (run: %s login)", service.ErrUnauthorized, config.AppName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.GoogleTokenFile, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.GoogleTokenFile, err)
	}
	return &token, nil
}

// saveToken saves an OAuth token to a file with mode 0600.
func saveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
