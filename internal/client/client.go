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

	"quill/internal/config"
	"quill/internal/types"
)

// Client talks to the vault assistant daemon. Auth is a bearer token the
// daemon writes next to its socket; retry and backoff policy live with the
// caller, not here.
type Client struct {
	baseURL   string
	tokenPath string
	token     string
	http      *http.Client
}

func New() (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	tokenPath, err := config.TokenPath()
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   cfg.DaemonBaseURL(),
		tokenPath: tokenPath,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	_ = c.loadToken()
	return c, nil
}

func NewWithBaseURL(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListVaults(ctx context.Context) ([]*types.Vault, error) {
	var resp VaultsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/vaults", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Vaults, nil
}

// OpenSession creates a session for a vault, or resumes one when sessionID
// is non-empty. The authoritative resumed transcript arrives on the event
// stream's session_ready, not here.
func (c *Client) OpenSession(ctx context.Context, vault, sessionID string) (*SessionResponse, error) {
	req := OpenSessionRequest{Vault: vault, SessionID: sessionID}
	var resp SessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions", req, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SendMessage(ctx context.Context, sessionID, content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("message content is required")
	}
	path := fmt.Sprintf("/v1/sessions/%s/messages", sessionID)
	return c.doJSON(ctx, http.MethodPost, path, SendMessageRequest{Content: content}, true, nil)
}

// StopTurn signals cancellation of the open turn. It does not mutate local
// state; the turn closes when (and if) the stream delivers response_end.
func (c *Client) StopTurn(ctx context.Context, sessionID string) error {
	path := fmt.Sprintf("/v1/sessions/%s/stop", sessionID)
	return c.doJSON(ctx, http.MethodPost, path, nil, true, nil)
}

func (c *Client) ListTasks(ctx context.Context, vault string) ([]types.TaskItem, error) {
	var resp TasksResponse
	path := fmt.Sprintf("/v1/vaults/%s/tasks", vault)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// UpdateTask persists a toggled task state. Callers that applied the state
// optimistically decide between retry and rollback when this fails.
func (c *Client) UpdateTask(ctx context.Context, vault string, req UpdateTaskRequest) (*types.TaskItem, error) {
	var resp types.TaskItem
	path := fmt.Sprintf("/v1/vaults/%s/tasks", vault)
	if err := c.doJSON(ctx, http.MethodPut, path, req, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, requireAuth bool, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requireAuth {
		if err := c.ensureToken(); err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpClient := c.http
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) ensureToken() error {
	if strings.TrimSpace(c.token) == "" {
		if err := c.loadToken(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.token) == "" {
		return errors.New("token not found; is the daemon running?")
	}
	return nil
}

func (c *Client) loadToken() error {
	if c.tokenPath == "" {
		return nil
	}
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.token = ""
			return nil
		}
		return err
	}
	c.token = strings.TrimSpace(string(data))
	return nil
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error string `json:"error"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}
