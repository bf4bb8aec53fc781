package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sightlinehq/sightline/internal/model"
)

// HTTPClient implements FeedClient using the sightline HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check that HTTPClient implements FeedClient.
var _ FeedClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func (c *HTTPClient) FetchPage(ctx context.Context, req *PageRequest) (*PageResponse, error) {
	q := url.Values{}
	if req.BrandID != "" {
		q.Set("brand_id", req.BrandID)
	}
	if req.Workflow != "" {
		q.Set("workflow", string(req.Workflow))
	}
	if req.Severity != "" {
		q.Set("severity", string(req.Severity))
	}
	if req.UnreadOnly {
		q.Set("unread_only", "true")
	}
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", req.Limit))
	}

	path := "/v1/feed"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp PageResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UpdateState(ctx context.Context, ids []string, op StateOp) error {
	body := map[string]any{
		"event_ids": ids,
		"action":    string(op),
	}
	return c.doJSON(ctx, http.MethodPatch, "/v1/feed/state", body, nil)
}

func (c *HTTPClient) PerformAction(ctx context.Context, id string, action model.Action) (*ActionResult, error) {
	body := map[string]string{"action": string(action)}
	var result ActionResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/feed/"+url.PathEscape(id)+"/actions", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) GetEvent(ctx context.Context, id string) (*model.FeedEvent, error) {
	var event model.FeedEvent
	if err := c.doJSON(ctx, http.MethodGet, "/v1/feed/"+url.PathEscape(id), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *HTTPClient) UnreadCounts(ctx context.Context, brandID string) (map[model.Workflow]int, error) {
	path := "/v1/feed/unread"
	if brandID != "" {
		path += "?brand_id=" + url.QueryEscape(brandID)
	}
	var resp struct {
		Counts map[model.Workflow]int `json:"counts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Counts, nil
}

func (c *HTTPClient) CreateEvent(ctx context.Context, req *CreateEventRequest) (*model.FeedEvent, error) {
	var event model.FeedEvent
	if err := c.doJSON(ctx, http.MethodPost, "/v1/feed", req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server, distinct from a
// transport failure: the request reached the server and was rejected.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for PATCH/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
