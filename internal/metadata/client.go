// Package metadata talks to the bridge service that stores descriptive
// market metadata off-chain, keyed by on-chain market index. The chain
// stays authoritative for everything financial; this service only
// carries the human-readable question text.
package metadata

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/kleoslabs/kleos/pkg/types"
)

// Record is one market's stored metadata.
type Record struct {
	MarketIndex uint64 `json:"market_index"`
	Question    string `json:"question"`
}

// Client fetches and persists market metadata over the bridge HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a metadata client for the given bridge base URL.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("metadata base URL cannot be empty")
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// GetQuestion fetches the stored question for a market index. A market
// with no stored record returns ErrMetadataNotFound so callers can fall
// back to a placeholder title.
func (c *Client) GetQuestion(ctx context.Context, index uint64) (string, error) {
	endpoint := fmt.Sprintf("%s/markets?index=%d", c.baseURL, index)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	RequestDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
	if err != nil {
		RequestErrorsTotal.WithLabelValues("get").Inc()
		return "", fmt.Errorf("fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", types.ErrMetadataNotFound
	}
	if resp.StatusCode != http.StatusOK {
		RequestErrorsTotal.WithLabelValues("get").Inc()
		return "", fmt.Errorf("fetch metadata: status %d", resp.StatusCode)
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", fmt.Errorf("decode metadata: %w", err)
	}
	if record.Question == "" {
		return "", types.ErrMetadataNotFound
	}
	return record.Question, nil
}

// DisplayTitle resolves the title shown for a market: the stored
// question when one exists, otherwise a numbered placeholder. Metadata
// being unreachable never hides a market that exists on-chain.
func (c *Client) DisplayTitle(ctx context.Context, index uint64) string {
	question, err := c.GetQuestion(ctx, index)
	if err != nil {
		return Placeholder(index)
	}
	return question
}

// Placeholder is the title used when no metadata record exists. Display
// numbering is 1-based.
func Placeholder(index uint64) string {
	return fmt.Sprintf("Market %d", index+1)
}

// Upsert stores the question for a market index. Repeating the call
// with the same index overwrites rather than duplicates, so a retry
// after a partial creation failure is safe.
func (c *Client) Upsert(ctx context.Context, index uint64, question string) error {
	return c.write(ctx, http.MethodPost, index, question)
}

// UpdateQuestion replaces the question for an existing record.
func (c *Client) UpdateQuestion(ctx context.Context, index uint64, question string) error {
	return c.write(ctx, http.MethodPut, index, question)
}

func (c *Client) write(ctx context.Context, method string, index uint64, question string) error {
	body, err := json.Marshal(Record{MarketIndex: index, Question: question})
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/markets", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	label := "upsert"
	if method == http.MethodPut {
		label = "update"
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	RequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		RequestErrorsTotal.WithLabelValues(label).Inc()
		return fmt.Errorf("persist metadata: %w", err)
	}
	defer resp.Body.Close()

	// The bridge updates existing records only on PUT; a miss is the
	// not-found class, not a transport failure.
	if method == http.MethodPut && resp.StatusCode == http.StatusNotFound {
		return types.ErrMetadataNotFound
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		RequestErrorsTotal.WithLabelValues(label).Inc()
		return fmt.Errorf("persist metadata: status %d", resp.StatusCode)
	}
	return nil
}

// List fetches every stored record, used when rendering the full market
// listing in one round trip.
func (c *Client) List(ctx context.Context) (map[uint64]string, error) {
	endpoint, err := url.JoinPath(c.baseURL, "markets")
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	RequestDuration.WithLabelValues("list").Observe(time.Since(start).Seconds())
	if err != nil {
		RequestErrorsTotal.WithLabelValues("list").Inc()
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		RequestErrorsTotal.WithLabelValues("list").Inc()
		return nil, fmt.Errorf("list metadata: status %d", resp.StatusCode)
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode metadata list: %w", err)
	}

	questions := make(map[uint64]string, len(records))
	for _, r := range records {
		questions[r.MarketIndex] = r.Question
	}
	return questions, nil
}
