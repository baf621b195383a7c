package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"calm/internal/core"
	"calm/internal/log"
	"calm/internal/tasks"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"
)

// Configuration errors.
var (
	ErrMissingAPIKey     = errors.New("missing Notion API key")
	ErrMissingDatabaseID = errors.New("missing Notion database id")
)

// Config holds what is needed to talk to one Notion database.
type Config struct {
	APIKey     string
	DatabaseID string // required for QueryTasks only
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

// Client reads tasks from a Notion database and updates task pages.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	databaseID string
	version    string
}

// Ensure interface conformance
var (
	_ tasks.Reader        = (*Client)(nil)
	_ tasks.DurationStore = (*Client)(nil)
)

// New creates a Notion client. Empty BaseURL and Version fall back to the
// public API and the schema version the page properties are read with.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = DefaultVersion
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		databaseID: strings.TrimSpace(cfg.DatabaseID),
		version:    version,
	}, nil
}

// QueryTasks runs a filtered database query for the dates of q.
func (c *Client) QueryTasks(ctx context.Context, q tasks.Query) ([]core.Task, error) {
	if c.databaseID == "" {
		return nil, ErrMissingDatabaseID
	}
	body := newQueryRequest(q)

	var resp queryResponse
	path := "/databases/" + url.PathEscape(c.databaseID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, body, tasks.OpQuery, &resp); err != nil {
		return nil, err
	}

	out := make([]core.Task, 0, len(resp.Results))
	for _, p := range resp.Results {
		out = append(out, p.toTask())
	}
	log.FromContext(ctx).WithComponent(log.ComponentBackend).DebugContext(ctx, "Notion query completed",
		log.FieldRangeStart, q.Start,
		log.FieldRangeEnd, q.End,
		log.FieldIncludeAll, q.IncludeAll,
		"results", len(out),
		"has_more", resp.HasMore)
	return out, nil
}

// GetDuration returns the Actual Duration of a task page, 0 when unset.
func (c *Client) GetDuration(ctx context.Context, taskID string) (float64, error) {
	var p page
	if err := c.do(ctx, http.MethodGet, "/pages/"+url.PathEscape(taskID), nil, tasks.OpGet, &p); err != nil {
		return 0, err
	}
	return p.toTask().ActualDuration, nil
}

// SetDuration overwrites the Actual Duration of a task page.
func (c *Client) SetDuration(ctx context.Context, taskID string, hours float64) error {
	body := updateRequest{Properties: map[string]numberValue{
		PropActualDuration: {Number: hours},
	}}
	return c.do(ctx, http.MethodPatch, "/pages/"+url.PathEscape(taskID), body, tasks.OpUpdate, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, op string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		log.FromContext(ctx).WithComponent(log.ComponentBackend).ErrorContext(ctx, "Notion API error",
			log.FieldOperation, op,
			log.FieldStatusCode, resp.StatusCode,
			log.FieldDetails, string(raw))
		return &tasks.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
