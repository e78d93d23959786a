// Package transfer sends the 1-unit ownership verification transfers
// through the bank transfer gateway.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"cashout/internal/platform/config"
)

// Client posts micro-deposit transfers to the gateway.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// New constructs a transfer client. Returns nil when no gateway is
// configured; callers treat a nil client as micro-deposits disabled.
func New(cfg config.MicroDepositConfig, logger *slog.Logger) *Client {
	if cfg.GatewayURL == "" {
		return nil
	}
	return &Client{
		baseURL: cfg.GatewayURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type transferBody struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	Amount        int64  `json:"amount"`
	DepositorName string `json:"depositor_name"`
}

// SendMicroDeposit sends a 1-unit transfer tagged with the depositor name.
func (c *Client) SendMicroDeposit(ctx context.Context, bankCode, accountNumber, depositorName string) error {
	raw, err := json.Marshal(transferBody{
		BankCode:      bankCode,
		AccountNumber: accountNumber,
		Amount:        1,
		DepositorName: depositorName,
	})
	if err != nil {
		return fmt.Errorf("encode transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfers", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send micro-deposit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.ErrorContext(ctx, "transfer gateway rejected micro-deposit",
			"status", resp.StatusCode,
			"bank_code", bankCode,
		)
		return fmt.Errorf("transfer gateway returned status %d", resp.StatusCode)
	}
	return nil
}
