// Package market provides the client for the downstream market-creation
// API.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/darkalpha/marketscout/internal/models"
)

// Creator is the downstream collaborator that turns an opportunity into a
// live market and returns its identifier.
type Creator interface {
	CreateMarket(ctx context.Context, opp models.Opportunity) (string, error)
}

// ClientConfig tunes HTTP behavior of the creation client.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
}

// Client posts opportunities to the market-creation API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient builds a creation client. Retry knobs fall back to sane
// values when unset.
func NewClient(cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
	}
}

type createRequest struct {
	Question     string  `json:"question"`
	Category     string  `json:"category"`
	DurationDays int     `json:"duration_days"`
	Liquidity    float64 `json:"liquidity"`
	Reasoning    string  `json:"reasoning,omitempty"`
}

type createResponse struct {
	ID string `json:"id"`
}

// CreateMarket submits one opportunity and returns the created-record ID.
// Transient failures retry with linear backoff.
func (c *Client) CreateMarket(ctx context.Context, opp models.Opportunity) (string, error) {
	body, err := json.Marshal(createRequest{
		Question:     opp.Question,
		Category:     string(opp.Category),
		DurationDays: opp.SuggestedDurationDays,
		Liquidity:    opp.SuggestedLiquidity,
		Reasoning:    opp.Reasoning,
	})
	if err != nil {
		return "", fmt.Errorf("marshal create request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(attempt)):
			}
		}

		id, err := c.createOnce(ctx, body)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("create market failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) createOnce(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/markets", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post market: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("create market %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded createResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	if decoded.ID == "" {
		return "", fmt.Errorf("create response missing id")
	}
	return decoded.ID, nil
}
