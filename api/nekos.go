package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	nekosBaseURL = "https://nekos.best/api/v2"
)

// NekosClient represents the nekos.best API client
type NekosClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NekosImage is one entry of a nekos.best response
type NekosImage struct {
	URL        string `json:"url"`
	AnimeName  string `json:"anime_name"`
	ArtistName string `json:"artist_name"`
	SourceURL  string `json:"source_url"`
}

// NekosResponse is the body of GET /{category}
type NekosResponse struct {
	Results []NekosImage `json:"results"`
}

// NewNekosClient creates a new nekos.best API client. An empty baseURL uses the public API.
func NewNekosClient(baseURL, userAgent string, timeout time.Duration) *NekosClient {
	if baseURL == "" {
		baseURL = nekosBaseURL
	}
	return &NekosClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// Name identifies the source in logs and replies
func (c *NekosClient) Name() string {
	return "nekos.best"
}

// ActionImage returns the URL of a random GIF for category
func (c *NekosClient) ActionImage(ctx context.Context, category string) (string, error) {
	images, err := c.Images(ctx, category, 1)
	if err != nil {
		return "", err
	}
	if len(images) == 0 || images[0].URL == "" {
		return "", fmt.Errorf("no image returned for %q", category)
	}
	return images[0].URL, nil
}

// Images fetches up to count images of category (1-20)
func (c *NekosClient) Images(ctx context.Context, category string, count int) ([]NekosImage, error) {
	if count < 1 {
		count = 1
	}
	if count > 20 {
		count = 20
	}

	endpoint := fmt.Sprintf("%s/%s?amount=%d", c.baseURL, url.PathEscape(category), count)

	var result NekosResponse
	if err := getJSON(ctx, c.httpClient, c.userAgent, endpoint, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}
