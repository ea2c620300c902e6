// Package autoctl is the client for the automation process control API:
// starting and stopping the send loop and reading its run state. The
// telemetry stream itself is consumed by internal/telemetry.
package autoctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vitrine/dmconsole/internal/config"
	"github.com/vitrine/dmconsole/internal/pkg/httpretry"
)

// Status reports whether the automation loop is running.
type Status struct {
	LoopRunning bool `json:"loop_running"`
}

// Client talks to the automation process control endpoints.
type Client struct {
	baseURL    string
	httpClient httpretry.Doer
}

// NewClient creates an automation control client.
func NewClient(cfg config.AutomationConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpretry.New(&http.Client{
			Timeout: cfg.Timeout(),
		}, 2),
	}
}

func (c *Client) post(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("automation API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Start asks the automation process to start its send loop.
func (c *Client) Start(ctx context.Context) error {
	_, err := c.post(ctx, "/start/")
	return err
}

// Stop asks the automation process to stop after the current cycle.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.post(ctx, "/stop/")
	return err
}

// GetStatus reads the automation loop state.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("automation API error (status %d): %s", resp.StatusCode, string(body))
	}

	var st Status
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("parsing status: %w", err)
	}
	return &st, nil
}
