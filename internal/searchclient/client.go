// Package searchclient is an HTTP client for the external search service
// used during source discovery.
package searchclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonesrussell/linkengine/internal/config"
)

// ErrUnavailable indicates the search service is unreachable.
var ErrUnavailable = errors.New("search service unavailable")

// Client is an HTTP client for the search service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// SearchRequest is the request body for /search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// SearchResult is one hit returned by the search service.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// NewClient creates a new search client.
func NewClient(cfg config.SearchConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Search runs one query against the search service. Non-2xx responses come
// back as errors carrying the status code so the retry layer can classify
// them.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	reqBody, err := json.Marshal(SearchRequest{Query: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search service returned status %d", resp.StatusCode)
	}

	var results []SearchResult
	if decodeErr := json.NewDecoder(resp.Body).Decode(&results); decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	return results, nil
}

// Health checks if the search service is healthy.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search service unhealthy: %d", resp.StatusCode)
	}

	return nil
}
