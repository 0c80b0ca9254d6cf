// Package tracker is a client for the ClickUp v2 REST API, the project
// tracking backend of the project handler.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/config"
)

const service = "clickup"

// Space is a ClickUp space.
type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Folder is a ClickUp folder. Projects are folders.
type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaskCount string `json:"task_count,omitempty"`
	Lists     []List `json:"lists,omitempty"`
}

// List is a ClickUp list.
type List struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

// Client talks to the ClickUp API.
type Client struct {
	baseURL     string
	token       string
	workspaceID string
	http        *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New returns a client for cfg. A missing token is a configuration error.
func New(cfg config.TrackerConfig, opts ...Option) (*Client, error) {
	if cfg.Token == "" {
		return nil, apperr.Configuration("tracker.New", "CLICKUP_API_TOKEN is not set")
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.clickup.com/api/v2"
	}
	c := &Client{
		baseURL:     strings.TrimRight(base, "/"),
		token:       cfg.Token,
		workspaceID: cfg.WorkspaceID,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Spaces lists the spaces of the configured workspace.
func (c *Client) Spaces(ctx context.Context) ([]Space, error) {
	if c.workspaceID == "" {
		return nil, apperr.Configuration("tracker.Spaces", "CLICKUP_WORKSPACE_ID is not set")
	}
	var out struct {
		Spaces []Space `json:"spaces"`
	}
	err := c.do(ctx, "tracker.Spaces", http.MethodGet, "/team/"+url.PathEscape(c.workspaceID)+"/space", nil, &out)
	return out.Spaces, err
}

// ConstructionSpace returns the first space whose name mentions
// construction, or the first space of the workspace.
func (c *Client) ConstructionSpace(ctx context.Context) (*Space, error) {
	spaces, err := c.Spaces(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range spaces {
		if strings.Contains(strings.ToLower(s.Name), "construction") {
			return &s, nil
		}
	}
	if len(spaces) == 0 {
		return nil, apperr.NotFound("tracker.ConstructionSpace", "space in workspace", c.workspaceID)
	}
	return &spaces[0], nil
}

// Folders lists the folders of a space.
func (c *Client) Folders(ctx context.Context, spaceID string) ([]Folder, error) {
	var out struct {
		Folders []Folder `json:"folders"`
	}
	err := c.do(ctx, "tracker.Folders", http.MethodGet, "/space/"+url.PathEscape(spaceID)+"/folder", nil, &out)
	return out.Folders, err
}

// Folder fetches one folder.
func (c *Client) Folder(ctx context.Context, folderID string) (*Folder, error) {
	var out Folder
	if err := c.do(ctx, "tracker.Folder", http.MethodGet, "/folder/"+url.PathEscape(folderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFolder creates a folder in a space.
func (c *Client) CreateFolder(ctx context.Context, spaceID, name string) (*Folder, error) {
	var out Folder
	body := map[string]any{"name": name}
	if err := c.do(ctx, "tracker.CreateFolder", http.MethodPost, "/space/"+url.PathEscape(spaceID)+"/folder", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Lists lists the lists of a folder.
func (c *Client) Lists(ctx context.Context, folderID string) ([]List, error) {
	var out struct {
		Lists []List `json:"lists"`
	}
	err := c.do(ctx, "tracker.Lists", http.MethodGet, "/folder/"+url.PathEscape(folderID)+"/list", nil, &out)
	return out.Lists, err
}

// CreateList creates a list in a folder.
func (c *Client) CreateList(ctx context.Context, folderID, name, content string) (*List, error) {
	var out List
	body := map[string]any{"name": name, "content": content}
	if err := c.do(ctx, "tracker.CreateList", http.MethodPost, "/folder/"+url.PathEscape(folderID)+"/list", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends a JSON request and decodes the JSON response into out. Non-2xx
// responses become external service errors carrying the status.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.External(op, service, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperr.External(op, service, resp.StatusCode, fmt.Errorf("%s", errorMessage(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return apperr.External(op, service, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// errorMessage extracts ClickUp's {"err": "...", "ECODE": "..."} body.
func errorMessage(body []byte) string {
	var e struct {
		Err   string `json:"err"`
		ECode string `json:"ECODE"`
	}
	if json.Unmarshal(body, &e) == nil && e.Err != "" {
		if e.ECode != "" {
			return e.Err + " (" + e.ECode + ")"
		}
		return e.Err
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response"
	}
	return msg
}
