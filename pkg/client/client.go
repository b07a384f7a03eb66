package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// Client is an HTTP client for the image conversion server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new conversion client
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// NewWithHTTPClient creates a new conversion client with a custom HTTP client
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Convert converts paths on the server and waits for the batch to finish
func (c *Client) Convert(ctx context.Context, paths []string) (*pipeline.ConvertResponse, error) {
	var resp pipeline.ConvertResponse
	if err := c.post(ctx, "/v1/convert", pipeline.ConvertRequest{Paths: paths}, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConvertAsync enqueues durable conversions and returns their run IDs
func (c *Client) ConvertAsync(ctx context.Context, paths []string) (*pipeline.AsyncResponse, error) {
	var resp pipeline.AsyncResponse
	if err := c.post(ctx, "/v1/convert/async", pipeline.ConvertRequest{Paths: paths}, http.StatusAccepted, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the state of an async run
func (c *Client) Status(ctx context.Context, runID string) (*pipeline.RunStatus, error) {
	u := fmt.Sprintf("%s/v1/runs/%s", c.baseURL, url.PathEscape(runID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var status pipeline.RunStatus
	if err := c.do(httpReq, http.StatusOK, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) post(ctx context.Context, path string, req any, wantStatus int, out any) error {
	// Marshal request
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	// Create HTTP request
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, wantStatus, out)
}

func (c *Client) do(httpReq *http.Request, wantStatus int, out any) error {
	// Execute request
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	// Parse response
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
