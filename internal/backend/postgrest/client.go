// Package postgrest implements service.Store against a PostgREST (Supabase)
// REST endpoint.
package postgrest

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
	"time"

	"golang.org/x/oauth2"

	"listshare/internal/service"
)

const (
	// APITimeout is the timeout for each request.
	APITimeout = 10 * time.Second

	restPath = "/rest/v1"

	spaceTable = "space"
	listTable  = "list"
)

// Client implements service.Store over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport the authenticated client is built on.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout overrides APITimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the project at baseURL. apiKey is sent both as the
// apikey header and as the bearer token.
func New(ctx context.Context, baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("%w: rest url and api key are required", service.ErrNotConfigured)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid rest url: %w", err)
	}
	if !strings.HasSuffix(baseURL, restPath) {
		baseURL += restPath
	}

	c := &Client{baseURL: baseURL, apiKey: apiKey, timeout: APITimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.http != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
	c.http = oauth2.NewClient(ctx, src)
	return c, nil
}

// SpaceByToken implements service.Store.
func (c *Client) SpaceByToken(ctx context.Context, token string) (*service.Space, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("space_token", "eq."+token)
	q.Set("limit", "1")

	var rows []spaceRow
	if err := c.doJSON(ctx, http.MethodGet, spaceTable, q, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	sp := rows[0].toSpace()
	return &sp, nil
}

// InsertSpace implements service.Store.
func (c *Client) InsertSpace(ctx context.Context, space service.NewSpace) (service.Space, error) {
	var rows []spaceRow
	body := []service.NewSpace{space}
	if err := c.doJSON(ctx, http.MethodPost, spaceTable, nil, body, &rows); err != nil {
		return service.Space{}, err
	}
	if len(rows) != 1 {
		return service.Space{}, &service.RemoteError{Message: fmt.Sprintf("expected one inserted space, got %d", len(rows))}
	}
	return rows[0].toSpace(), nil
}

// ListsBySpace implements service.Store.
func (c *Client) ListsBySpace(ctx context.Context, spaceID string) ([]service.List, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("space_id", "eq."+spaceID)

	var rows []listRow
	if err := c.doJSON(ctx, http.MethodGet, listTable, q, nil, &rows); err != nil {
		return nil, err
	}
	return toLists(rows)
}

// InsertList implements service.Store.
func (c *Client) InsertList(ctx context.Context, list service.NewList) (service.List, error) {
	data, err := encodeData(list.Items)
	if err != nil {
		return service.List{}, err
	}
	body := []listInsert{{Title: list.Title, Slug: list.Slug, Data: data, SpaceID: list.SpaceID}}

	var rows []listRow
	if err := c.doJSON(ctx, http.MethodPost, listTable, nil, body, &rows); err != nil {
		return service.List{}, err
	}
	if len(rows) != 1 {
		return service.List{}, &service.RemoteError{Message: fmt.Sprintf("expected one inserted list, got %d", len(rows))}
	}
	return rows[0].toList()
}

// UpdateList implements service.Store.
func (c *Client) UpdateList(ctx context.Context, id, spaceID string, patch service.ListPatch) ([]service.List, error) {
	body := listUpdate{Title: patch.Title}
	if patch.Items != nil {
		data, err := encodeData(patch.Items)
		if err != nil {
			return nil, err
		}
		body.Data = data
	}
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("space_id", "eq."+spaceID)

	var rows []listRow
	if err := c.doJSON(ctx, http.MethodPatch, listTable, q, body, &rows); err != nil {
		return nil, err
	}
	return toLists(rows)
}

// DeleteList implements service.Store.
func (c *Client) DeleteList(ctx context.Context, id, spaceID string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("space_id", "eq."+spaceID)
	return c.doJSON(ctx, http.MethodDelete, listTable, q, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, table string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + "/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return wrapError(readErr)
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if out == nil || len(bytes.TrimSpace(payload)) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode %s response: %w", table, err)
		}
		return nil
	}
	return decodeError(resp.StatusCode, payload)
}

func decodeError(status int, payload []byte) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
		Hint    string `json:"hint"`
	}
	_ = json.Unmarshal(payload, &body)

	msg := body.Message
	if msg == "" {
		msg = strings.TrimSpace(string(payload))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if body.Details != "" {
		msg += " (" + body.Details + ")"
	}
	return &service.RemoteError{Status: status, Code: body.Code, Message: msg}
}

// wrapError gives transport failures a readable message.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &service.RemoteError{Message: "request timed out"}
	}
	return err
}
