// Package fraudapi provides the HTTP client for the fraud-engine backend.
// The backend owns scoring and storage; this layer only reads transactions
// and counters and submits user decisions on delayed payments.
package fraudapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fdtlabs/fraudlens/internal/domain"
)

const requestTimeout = 10 * time.Second

// Client talks to the fraud-engine backend over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		log:     log.With().Str("client", "fraudapi").Logger(),
	}
}

// Transactions fetches the user's transactions, newest first. A zero
// statusFilter means no filter.
func (c *Client) Transactions(ctx context.Context, token string, limit int, statusFilter domain.Action) (*domain.TransactionPage, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if statusFilter != "" {
		params.Set("status_filter", string(statusFilter))
	}

	var page domain.TransactionPage
	if err := c.getJSON(ctx, token, "/api/user/transactions", params, &page); err != nil {
		return nil, err
	}

	c.log.Debug().
		Int("count", len(page.Transactions)).
		Str("status_filter", string(statusFilter)).
		Msg("Fetched transactions")
	return &page, nil
}

// DashboardData fetches the scalar dashboard counters for a time range.
func (c *Client) DashboardData(ctx context.Context, token string, timeRange string) (*domain.DashboardData, error) {
	params := url.Values{}
	if timeRange != "" {
		params.Set("time_range", timeRange)
	}

	var data domain.DashboardData
	if err := c.getJSON(ctx, token, "/dashboard-data", params, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// RecentTransactions fetches the most recent transactions for a time range.
func (c *Client) RecentTransactions(ctx context.Context, token string, limit int, timeRange string) ([]domain.Transaction, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if timeRange != "" {
		params.Set("time_range", timeRange)
	}

	var payload struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	if err := c.getJSON(ctx, token, "/recent-transactions", params, &payload); err != nil {
		return nil, err
	}
	return payload.Transactions, nil
}

// SubmitDecision resolves a delayed transaction with confirm or cancel.
func (c *Client) SubmitDecision(ctx context.Context, token string, txID string, decision domain.Decision) error {
	body, err := json.Marshal(map[string]string{
		"tx_id":    txID,
		"decision": string(decision),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/user-decision", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("decision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	c.log.Info().
		Str("tx_id", txID).
		Str("decision", string(decision)).
		Msg("Submitted decision")
	return nil
}

// getJSON performs an authorized GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, token, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.authorize(req, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Verify interface implementation
var _ domain.Backend = (*Client)(nil)
