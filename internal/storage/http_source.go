package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPSource reads input images from http and https URLs
type HTTPSource struct {
	httpClient *http.Client
}

// NewHTTPSource creates a new HTTP-based source
func NewHTTPSource() *HTTPSource {
	return &HTTPSource{
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// NewHTTPSourceWithClient creates a source with a custom HTTP client
func NewHTTPSourceWithClient(httpClient *http.Client) *HTTPSource {
	return &HTTPSource{httpClient: httpClient}
}

// IsURL reports whether key is an http or https URL
func IsURL(key string) bool {
	lower := strings.ToLower(key)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// GetReader downloads the content at url
func (s *HTTPSource) GetReader(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download content: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// Exists checks the URL with a HEAD request
func (s *HTTPSource) Exists(ctx context.Context, url string) (bool, error) {
	resp, err := s.head(ctx, url)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return true, nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	// Some servers refuse HEAD; let the download decide
	if resp.StatusCode == http.StatusMethodNotAllowed {
		return true, nil
	}

	return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}

// GetMetadata returns size, content type and ETag from a HEAD request.
// Servers that refuse HEAD yield an unknown size.
func (s *HTTPSource) GetMetadata(ctx context.Context, url string) (*Metadata, error) {
	resp, err := s.head(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusMethodNotAllowed:
		return &Metadata{Size: -1}, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return &Metadata{
		Size:        resp.ContentLength,
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        resp.Header.Get("ETag"),
	}, nil
}

func (s *HTTPSource) head(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to check content: %w", err)
	}
	return resp, nil
}
