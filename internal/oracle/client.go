// Package oracle reads FTSO price feeds: one-shot reads over HTTP for
// threshold entry and resolution display, and a websocket stream for
// live feed watching.
package oracle

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Feed is one feed reading. Price is the raw fixed-point string exactly
// as published, scaled by Decimals; it is never parsed through floats.
type Feed struct {
	FeedID    string `json:"feed_id"`
	Price     string `json:"price"`
	Decimals  uint8  `json:"decimals"`
	Timestamp int64  `json:"timestamp"`
}

// ReadAt returns the reading's publication time.
func (f *Feed) ReadAt() time.Time {
	return time.Unix(f.Timestamp, 0)
}

// Client reads feeds from the oracle HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an oracle client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("oracle base URL cannot be empty")
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// GetFeed fetches the current reading for a feed.
func (c *Client) GetFeed(ctx context.Context, feedID string) (*Feed, error) {
	endpoint := fmt.Sprintf("%s/feeds/%s", c.baseURL, feedID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	FeedReadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		FeedReadErrorsTotal.Inc()
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		FeedReadErrorsTotal.Inc()
		return nil, fmt.Errorf("fetch feed %s: status %d", feedID, resp.StatusCode)
	}

	var feed Feed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if feed.Price == "" {
		return nil, fmt.Errorf("feed %s returned no price", feedID)
	}
	return &feed, nil
}
