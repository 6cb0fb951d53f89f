package main

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

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/route-tycoon/internal/handlers"
	"github.com/jwebster45206/route-tycoon/internal/services/events"
	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/suggest"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API returned status %d", e.Status)
}

// InsufficientFunds reports whether err is the API's insufficient funds rejection.
func InsufficientFunds(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == handlers.CodeInsufficientFunds
}

// APIClient talks to the route-tycoon API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *APIClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, http.StatusOK, nil)
}

func (c *APIClient) Catalog(ctx context.Context) (*handlers.CatalogResponse, error) {
	var resp handlers.CatalogResponse
	if err := c.do(ctx, http.MethodGet, "/v1/catalog", nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) CreateGame(ctx context.Context) (*handlers.GameResponse, error) {
	var resp handlers.GameResponse
	if err := c.do(ctx, http.MethodPost, "/v1/games", nil, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) GetGame(ctx context.Context, id uuid.UUID) (*handlers.GameResponse, error) {
	var resp handlers.GameResponse
	if err := c.do(ctx, http.MethodGet, gamePath(id, ""), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) UpgradeRoute(ctx context.Context, id uuid.UUID, routeID string) (*handlers.MutationResponse, error) {
	var resp handlers.MutationResponse
	path := gamePath(id, "/routes/"+url.PathEscape(routeID)+"/upgrade")
	if err := c.do(ctx, http.MethodPost, path, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) BuildRoute(ctx context.Context, id uuid.UUID, from, to string) (*handlers.MutationResponse, error) {
	var resp handlers.MutationResponse
	body := handlers.BuildRouteRequest{From: from, To: to}
	if err := c.do(ctx, http.MethodPost, gamePath(id, "/routes"), body, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) UnlockZone(ctx context.Context, id uuid.UUID, zone state.Zone) (*handlers.MutationResponse, error) {
	var resp handlers.MutationResponse
	path := gamePath(id, "/zones/"+string(zone)+"/unlock")
	if err := c.do(ctx, http.MethodPost, path, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) Suggest(ctx context.Context, id uuid.UUID, focus string) (*suggest.Result, error) {
	var resp suggest.Result
	body := handlers.SuggestionRequest{Focus: focus}
	if err := c.do(ctx, http.MethodPost, gamePath(id, "/suggestions"), body, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Subscribe opens the game's WebSocket event stream. The channel is closed
// when the connection drops or ctx is cancelled.
func (c *APIClient) Subscribe(ctx context.Context, id uuid.UUID) (<-chan events.Event, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + gamePath(id, "/ws")
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}

	out := make(chan events.Event, 16)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		for {
			var event events.Event
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		apiErr := &APIError{Status: resp.StatusCode}
		var errorResp handlers.ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err == nil {
			apiErr.Code = errorResp.Code
			apiErr.Message = errorResp.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func gamePath(id uuid.UUID, suffix string) string {
	return "/v1/games/" + id.String() + suffix
}

// requestTimeout bounds one-off calls made from UI commands.
const requestTimeout = 15 * time.Second
