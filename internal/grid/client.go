// Package grid implements the interactive table over one collection: schema
// and row stores with optimistic persistence, selection and bulk mutation,
// column drag reorder, and the projection glue.
package grid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gridbase/gridbase/internal/collection"
)

// PersistClient is the persistence surface the grid consumes. It maps to the
// collection endpoints of the gridbase server but any transport works.
type PersistClient interface {
	// FetchCollection loads the schema and all items of a collection.
	FetchCollection(ctx context.Context, collectionID string) (*collection.Collection, []*collection.Item, error)
	// UpdateColumns replaces the full column array. Used for every schema
	// mutation: add, delete, reorder, option edits.
	UpdateColumns(ctx context.Context, collectionID string, columns []collection.Column) error
	// CreateItem creates an item from seed data. The returned item is
	// canonical; its id wins over anything predicted client-side.
	CreateItem(ctx context.Context, collectionID string, data map[string]any) (*collection.Item, error)
	// UpdateItem replaces an item's data map.
	UpdateItem(ctx context.Context, collectionID, itemID string, data map[string]any) (*collection.Item, error)
	// DeleteItem removes an item.
	DeleteItem(ctx context.Context, collectionID, itemID string) error
	// Upload stores a file attachment and returns its URL.
	Upload(ctx context.Context, collectionID, filename string, r io.Reader) (string, error)
}

// APIError is an error response from the gridbase server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d, code %s): %s", e.Status, e.Code, e.Message)
}

// Client is an HTTP PersistClient for the gridbase server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client for the server at baseURL. The token, if
// non-empty, is sent as a bearer credential on every request. No request
// timeout is configured; callers bound requests through the context.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
	}
}

// do performs an HTTP request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var wrapper struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(respBody, &wrapper); err != nil || wrapper.Error.Message == "" {
			return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
		}
		wrapper.Error.Status = resp.StatusCode
		return nil, &wrapper.Error
	}
	return respBody, nil
}

// FetchCollection loads the schema and all items of a collection.
func (c *Client) FetchCollection(ctx context.Context, collectionID string) (*collection.Collection, []*collection.Item, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/collections/"+collectionID, nil)
	if err != nil {
		return nil, nil, err
	}
	var resp struct {
		Collection *collection.Collection `json:"collection"`
		Items      []*collection.Item     `json:"items"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to parse collection response: %w", err)
	}
	return resp.Collection, resp.Items, nil
}

// UpdateColumns replaces the full column array.
func (c *Client) UpdateColumns(ctx context.Context, collectionID string, columns []collection.Column) error {
	body := map[string]any{"columns": columns}
	_, err := c.do(ctx, http.MethodPut, "/api/collections/"+collectionID, body)
	return err
}

// CreateItem creates an item and returns the server's canonical copy.
func (c *Client) CreateItem(ctx context.Context, collectionID string, data map[string]any) (*collection.Item, error) {
	body := map[string]any{"data": data}
	respBody, err := c.do(ctx, http.MethodPost, "/api/collections/"+collectionID+"/items", body)
	if err != nil {
		return nil, err
	}
	var item collection.Item
	if err := json.Unmarshal(respBody, &item); err != nil {
		return nil, fmt.Errorf("failed to parse created item: %w", err)
	}
	return &item, nil
}

// UpdateItem replaces an item's data map and returns the updated item.
func (c *Client) UpdateItem(ctx context.Context, collectionID, itemID string, data map[string]any) (*collection.Item, error) {
	body := map[string]any{"data": data}
	respBody, err := c.do(ctx, http.MethodPut, "/api/collections/"+collectionID+"/items/"+itemID, body)
	if err != nil {
		return nil, err
	}
	var item collection.Item
	if err := json.Unmarshal(respBody, &item); err != nil {
		return nil, fmt.Errorf("failed to parse updated item: %w", err)
	}
	return &item, nil
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, collectionID, itemID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/collections/"+collectionID+"/items/"+itemID, nil)
	return err
}

// Upload stores a file attachment and returns the URL to put into a files
// cell.
func (c *Client) Upload(ctx context.Context, collectionID, filename string, r io.Reader) (string, error) {
	endpoint := c.baseURL + "/api/collections/" + collectionID + "/upload?filename=" + url.QueryEscape(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, r)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("upload error (status %d): %s", resp.StatusCode, string(respBody))
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	return out.URL, nil
}
