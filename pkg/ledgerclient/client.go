/**
 * @description
 * This package provides a client for the external ledger API, the system that
 * actually holds and moves native funds. The biopay-service only ever asks it
 * two things: an account's available balance, and one atomic transfer per
 * processed payment. A transfer is final once the ledger acknowledges it.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 * - github.com/google/uuid: Account identity.
 */
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client is a client for the ledger API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new ledger API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TransferRequest is the payload for the ledger's transfer endpoint.
type TransferRequest struct {
	Amount int64  `json:"amount"` // in kobo
	From   string `json:"from"`
	To     string `json:"to"`
}

// TransferResponse is the expected response from the ledger's transfer endpoint.
type TransferResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
}

// BalanceResponse represents the balance response from the ledger API.
type BalanceResponse struct {
	Account          string `json:"account"`
	AvailableBalance int64  `json:"available_balance"` // in kobo
}

// ErrorResponse represents an error from the ledger API.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ledger api error: %s", e.Message)
	}
	return fmt.Sprintf("ledger api error: status %d", e.StatusCode)
}

// BalanceOf fetches the account's available balance.
func (c *Client) BalanceOf(ctx context.Context, account uuid.UUID) (int64, error) {
	url := fmt.Sprintf("%s/accounts/%s/balance", c.BaseURL, account)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to query ledger balance: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp)
	}

	var balance BalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		return 0, fmt.Errorf("failed to decode balance response: %w", err)
	}
	return balance.AvailableBalance, nil
}

// Transfer moves amount from one account to another. The ledger applies the
// transfer atomically; any non-2xx response means no funds moved.
func (c *Client) Transfer(ctx context.Context, amount int64, from, to uuid.UUID) error {
	payload := TransferRequest{
		Amount: amount,
		From:   from.String(),
		To:     to.String(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/transfers", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit ledger transfer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return decodeError(resp)
	}

	var transfer TransferResponse
	if err := json.NewDecoder(resp.Body).Decode(&transfer); err != nil {
		return fmt.Errorf("failed to decode transfer response: %w", err)
	}
	if transfer.Status != "completed" {
		return fmt.Errorf("ledger transfer not completed: status %q", transfer.Status)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &ErrorResponse{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(raw) > 0 {
		_ = json.Unmarshal(raw, apiErr)
	}
	return apiErr
}
