// Package slack delivers notifications through a Slack workflow webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/foldwatch/foldwatch/internal/models"
)

// Client posts notification payloads to a Slack workflow webhook URL.
type Client struct {
	webhookURL     string
	channelID      string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a Slack webhook client.
func NewClient(webhookURL, channelID string, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		webhookURL:     webhookURL,
		channelID:      channelID,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// payload mirrors the field names the Slack workflow expects.
type payload struct {
	ChannelID  string `json:"channelId"`
	URL        string `json:"url"`
	MarketName string `json:"market_name"`
	MarketID   string `json:"market_id"`
	Report     string `json:"report"`
	Comments   string `json:"comments,omitempty"`
	MoreInfo   string `json:"more_info,omitempty"`
}

// Send posts a market move digest to the webhook.
func (c *Client) Send(ctx context.Context, n models.Notification) error {
	channelID := n.ChannelID
	if channelID == "" {
		channelID = c.channelID
	}
	return c.post(ctx, payload{
		ChannelID:  channelID,
		URL:        n.MarketURL,
		MarketName: n.MarketName,
		MarketID:   n.MarketID,
		Report:     n.Report,
		Comments:   n.Comments,
		MoreInfo:   n.MoreInfo,
	})
}

// Announce posts a "now tracking" message for a newly added question.
func (c *Client) Announce(ctx context.Context, marketName, marketURL, marketID string) error {
	return c.post(ctx, payload{
		ChannelID:  c.channelID,
		URL:        marketURL,
		MarketName: "\U0001F331 " + marketName,
		MarketID:   marketID,
		Report:     "\U0001F440 Now tracking this market ^",
	})
}

func (c *Client) post(ctx context.Context, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return nil
		}
		lastErr = fmt.Errorf("unexpected status: %d", resp.StatusCode)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return lastErr
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}
