// Package transport talks to the list API over HTTP. Every call returns
// the status code and raw body; only connection-level failures are
// returned as errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sim-sync/internal/domain"
)

// Resources names the list and item collections a client works against.
type Resources struct {
	Lists string
	Items string
}

var (
	ShoppingLists = Resources{Lists: "shopping_lists", Items: "shopping_list_items"}
	WishLists     = Resources{Lists: "wish_lists", Items: "wish_list_items"}
)

// ResourcesFor maps a configured name to its resource pair.
func ResourcesFor(name string) (Resources, error) {
	switch name {
	case ShoppingLists.Lists, "shopping":
		return ShoppingLists, nil
	case WishLists.Lists, "wish":
		return WishLists, nil
	default:
		return Resources{}, fmt.Errorf("unknown list resource %q", name)
	}
}

type Client struct {
	baseURL    string
	resources  Resources
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(baseURL string, resources Resources, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		resources:  resources,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "transport").Logger(),
	}
}

// Resources returns the list and item collections this client targets.
func (c *Client) Resources() Resources {
	return c.resources
}

func (c *Client) ListGames(ctx context.Context, token string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/games", token, nil)
}

func (c *Client) CreateGame(ctx context.Context, req *domain.CreateGameRequest, token string) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/games", token, req)
}

func (c *Client) UpdateGame(ctx context.Context, gameID int, req *domain.UpdateGameRequest, token string) (*Response, error) {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/games/%d", gameID), token, req)
}

func (c *Client) DestroyGame(ctx context.Context, gameID int, token string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/games/%d", gameID), token, nil)
}

func (c *Client) ListLists(ctx context.Context, gameID int, token string) (*Response, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/games/%d/%s", gameID, c.resources.Lists), token, nil)
}

func (c *Client) CreateList(ctx context.Context, gameID int, req *domain.CreateListRequest, token string) (*Response, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/games/%d/%s", gameID, c.resources.Lists), token, req)
}

func (c *Client) UpdateList(ctx context.Context, listID int, req *domain.UpdateListRequest, token string) (*Response, error) {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/%s/%d", c.resources.Lists, listID), token, req)
}

func (c *Client) DestroyList(ctx context.Context, listID int, token string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/%s/%d", c.resources.Lists, listID), token, nil)
}

func (c *Client) CreateItem(ctx context.Context, listID int, req *domain.CreateItemRequest, token string) (*Response, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/%s/%d/%s", c.resources.Lists, listID, c.resources.Items), token, req)
}

func (c *Client) UpdateItem(ctx context.Context, itemID int, req *domain.UpdateItemRequest, token string) (*Response, error) {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/%s/%d", c.resources.Items, itemID), token, req)
}

func (c *Client) DestroyItem(ctx context.Context, itemID int, token string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/%s/%d", c.resources.Items, itemID), token, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, payload interface{}) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", RequestID(ctx)).
		Msg("api call")

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
