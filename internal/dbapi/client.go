// Package dbapi is the client for the remote database API that owns the
// catalog (target accounts, sender identities, message templates). The
// console never touches the store directly; every read and write goes
// through this client.
package dbapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vitrine/dmconsole/internal/cache"
	"github.com/vitrine/dmconsole/internal/config"
	"github.com/vitrine/dmconsole/internal/domain"
	"github.com/vitrine/dmconsole/internal/pkg/httpretry"
)

// Client talks to the database API. It owns the per-kind read cache:
// cached reads are served from it, cache-bypassing reads refill it, and
// writes invalidate it.
type Client struct {
	baseURL    string
	httpClient httpretry.Doer
	lists      *cache.ListCache
}

// NewClient creates a database API client.
func NewClient(cfg config.DatabaseAPIConfig, lists *cache.ListCache) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpretry.New(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
		lists: lists,
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("database API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// List returns the current full record list for kind. With bypassCache
// the cache is skipped and refilled from the remote response; the
// import planner always bypasses before seeding its dedup index.
func (c *Client) List(ctx context.Context, kind domain.EntityKind, bypassCache bool) ([]map[string]any, error) {
	if !bypassCache {
		if records, ok := c.lists.Get(ctx, kind); ok {
			return records, nil
		}
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/"+string(kind)+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parsing %s list: %w", kind, err)
	}

	c.lists.Set(ctx, kind, records)
	return records, nil
}

// BulkCreate submits one chunk of candidates to the bulk endpoint for
// kind, preserving their order.
func (c *Client) BulkCreate(ctx context.Context, kind domain.EntityKind, chunk []domain.Candidate) (*BulkResult, error) {
	payload := make([]map[string]any, 0, len(chunk))
	for _, cand := range chunk {
		payload = append(payload, cand.Fields)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/"+string(kind)+"/bulk", payload)
	if err != nil {
		return nil, fmt.Errorf("bulk-creating %s: %w", kind, err)
	}

	var result BulkResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing bulk result: %w", err)
	}
	return &result, nil
}

// InvalidateList clears the read cache for kind so the next list view
// reflects writes.
func (c *Client) InvalidateList(ctx context.Context, kind domain.EntityKind) {
	c.lists.Invalidate(ctx, kind)
}

// Proxy forwards an arbitrary request to the database API and returns
// status and body, for the console's thin CRUD panels.
func (c *Client) Proxy(ctx context.Context, method, path string, query string, body io.Reader) (int, []byte, error) {
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}
