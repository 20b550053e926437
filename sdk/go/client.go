package goatsdk

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
)

// Client is a minimal GOAT HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Item is one rankable entry.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Slot is one ranked grid position.
type Slot struct {
	Position int   `json:"position"`
	Matched  bool  `json:"matched"`
	Item     *Item `json:"item,omitempty"`
}

// Session summarizes a board session.
type Session struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	GridSize  int    `json:"grid_size"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Board is the full state of a session.
type Board struct {
	Session Session           `json:"session"`
	Grid    []Slot            `json:"grid"`
	Backlog []Item            `json:"backlog"`
	Tiers   map[string][]Item `json:"tiers,omitempty"`
	Pool    []Item            `json:"pool,omitempty"`
}

// Element identifies one side of a drag gesture. The Data map carries the
// metadata the decision layer reads (type, positions, tier ids).
type Element struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data,omitempty"`
}

// DragEndEvent is the gesture-end payload.
type DragEndEvent struct {
	Active *Element `json:"active"`
	Over   *Element `json:"over"`
}

// OperationResult reports what a drop did.
type OperationResult struct {
	Success       bool           `json:"success"`
	OperationType string         `json:"operation_type"`
	Action        string         `json:"action"`
	Code          string         `json:"code,omitempty"`
	Message       string         `json:"message,omitempty"`
	Item          *Item          `json:"item,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Rules is the validation policy.
type Rules struct {
	AllowSwap            bool `json:"allow_swap"`
	RequireAvailableItem bool `json:"require_available_item"`
	AllowSamePosition    bool `json:"allow_same_position"`
}

// Event is one operation-log entry.
type Event struct {
	ID        int64  `json:"id"`
	TS        string `json:"ts"`
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	ItemID    string `json:"item_id,omitempty"`
	ActorID   string `json:"actor_id"`
	Payload   string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateSession creates a board session.
func (c *Client) CreateSession(ctx context.Context, name string, gridSize int, tiers []string, items []Item) (Session, error) {
	body := map[string]any{
		"name":      name,
		"grid_size": gridSize,
		"tiers":     tiers,
		"items":     items,
	}
	var resp Session
	err := c.do(ctx, http.MethodPost, "v0/sessions", body, &resp)
	return resp, err
}

// Sessions lists sessions.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var resp []Session
	err := c.do(ctx, http.MethodGet, "v0/sessions", nil, &resp)
	return resp, err
}

// Board fetches the full board state.
func (c *Client) Board(ctx context.Context, sessionID string) (Board, error) {
	var resp Board
	err := c.do(ctx, http.MethodGet, c.sessionPath(sessionID, ""), nil, &resp)
	return resp, err
}

// DeleteSession deletes a session.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, c.sessionPath(sessionID, ""), nil, nil)
}

// AddItems appends backlog items and returns the updated backlog.
func (c *Client) AddItems(ctx context.Context, sessionID string, items []Item) ([]Item, error) {
	body := map[string]any{"items": items}
	var resp []Item
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "items"), body, &resp)
	return resp, err
}

// DragEnd submits a gesture-end event and returns the operation outcome.
func (c *Client) DragEnd(ctx context.Context, sessionID string, ev DragEndEvent) (OperationResult, error) {
	var resp OperationResult
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "drag-end"), ev, &resp)
	return resp, err
}

// DropOnGrid is a convenience for the common backlog-to-grid drop.
// Position is 0-based.
func (c *Client) DropOnGrid(ctx context.Context, sessionID, itemID string, position int) (OperationResult, error) {
	return c.DragEnd(ctx, sessionID, DragEndEvent{
		Active: &Element{ID: itemID, Data: map[string]any{"type": "backlog", "item_id": itemID}},
		Over:   &Element{ID: fmt.Sprintf("grid-slot-%d", position), Data: map[string]any{"type": "grid-slot", "position": position}},
	})
}

// RemoveFromGrid clears a grid position.
func (c *Client) RemoveFromGrid(ctx context.Context, sessionID string, position int) (OperationResult, error) {
	var resp OperationResult
	err := c.do(ctx, http.MethodDelete, c.sessionPath(sessionID, fmt.Sprintf("grid/%d", position)), nil, &resp)
	return resp, err
}

// Grid fetches the grid snapshot.
func (c *Client) Grid(ctx context.Context, sessionID string) ([]Slot, error) {
	var resp []Slot
	err := c.do(ctx, http.MethodGet, c.sessionPath(sessionID, "grid"), nil, &resp)
	return resp, err
}

// Rules fetches the active validation policy.
func (c *Client) Rules(ctx context.Context) (Rules, error) {
	var resp Rules
	err := c.do(ctx, http.MethodGet, "v0/rules", nil, &resp)
	return resp, err
}

// SetRules replaces the validation policy.
func (c *Client) SetRules(ctx context.Context, r Rules) (Rules, error) {
	var resp Rules
	err := c.do(ctx, http.MethodPut, "v0/rules", r, &resp)
	return resp, err
}

// Events returns recent operation-log entries.
func (c *Client) Events(ctx context.Context, sessionID string, limit int) ([]Event, error) {
	endpoint := "v0/events"
	q := url.Values{}
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) sessionPath(sessionID, p string) string {
	id := url.PathEscape(sessionID)
	if p == "" {
		return fmt.Sprintf("v0/sessions/%s", id)
	}
	return fmt.Sprintf("v0/sessions/%s/%s", id, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
