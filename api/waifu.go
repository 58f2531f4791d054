// Package api: Used to call the image APIs behind the action commands
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	waifuBaseURL = "https://api.waifu.pics"
)

// WaifuClient represents the waifu.pics API client
type WaifuClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// WaifuResponse is the body of GET /sfw/{category}
type WaifuResponse struct {
	URL string `json:"url"`
}

// NewWaifuClient creates a new waifu.pics API client. An empty baseURL uses the public API.
func NewWaifuClient(baseURL, userAgent string, timeout time.Duration) *WaifuClient {
	if baseURL == "" {
		baseURL = waifuBaseURL
	}
	return &WaifuClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// Name identifies the source in logs and replies
func (c *WaifuClient) Name() string {
	return "waifu.pics"
}

// ActionImage returns the URL of a random SFW image for category (bite, kick, blush...)
func (c *WaifuClient) ActionImage(ctx context.Context, category string) (string, error) {
	endpoint := c.baseURL + "/sfw/" + url.PathEscape(category)

	var result WaifuResponse
	if err := getJSON(ctx, c.httpClient, c.userAgent, endpoint, &result); err != nil {
		return "", err
	}
	if result.URL == "" {
		return "", fmt.Errorf("no image returned for %q", category)
	}
	return result.URL, nil
}

// getJSON performs a GET request and decodes a JSON body into out
func getJSON(ctx context.Context, client *http.Client, userAgent, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
