package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// Client implements Service over HTTP/JSON.
//
// Routes:
//
//	POST   {base}/tenants/{tenant}/{entityType}        save (create or update by id)
//	DELETE {base}/tenants/{tenant}/{entityType}/{id}   delete
//	GET    {base}/tenants/{tenant}/snapshot            full snapshot
type Client struct {
	base  string
	http  *http.Client
	token func() string // current bearer token; re-auth swaps it
	now   func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client (tests, custom
// transports).
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithNow overrides the time source for the local token-expiry check.
func WithNow(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client with sensible defaults. token is called per
// request so a refreshed credential takes effect without rebuilding the
// client.
func NewClient(base string, token func() string, opts ...ClientOption) *Client {
	c := &Client{
		base:  base,
		http:  &http.Client{Timeout: 15 * time.Second},
		token: token,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Save(ctx context.Context, tenantID string, entityType domain.EntityType, payload map[string]any) (map[string]any, error) {
	op := fmt.Sprintf("save %s", entityType)
	path := fmt.Sprintf("%s/tenants/%s/%s", c.base, url.PathEscape(tenantID), url.PathEscape(string(entityType)))

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RequestError{Class: FailureValidation, Op: op, Err: err}
	}
	data, err := c.do(ctx, op, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var saved map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &saved); err != nil {
			return nil, &RequestError{Class: FailureNetwork, Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	if saved == nil {
		saved = payload
	}
	return saved, nil
}

func (c *Client) Delete(ctx context.Context, tenantID string, entityType domain.EntityType, id string) error {
	op := fmt.Sprintf("delete %s", entityType)
	path := fmt.Sprintf("%s/tenants/%s/%s/%s", c.base, url.PathEscape(tenantID), url.PathEscape(string(entityType)), url.PathEscape(id))
	_, err := c.do(ctx, op, http.MethodDelete, path, nil)
	return err
}

func (c *Client) FetchSnapshot(ctx context.Context, tenantID string) (Snapshot, error) {
	op := "fetch snapshot"
	path := fmt.Sprintf("%s/tenants/%s/snapshot", c.base, url.PathEscape(tenantID))
	data, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	snap := Snapshot{}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &RequestError{Class: FailureNetwork, Op: op, Err: fmt.Errorf("decode snapshot: %w", err)}
	}
	return snap, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader) ([]byte, error) {
	token := c.token()
	if token != "" && TokenExpired(token, c.now()) {
		return nil, &RequestError{Class: FailureAuth, Op: op, Err: fmt.Errorf("bearer token expired")}
	}

	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return nil, &RequestError{Class: FailureValidation, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Class: FailureNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Class: FailureNetwork, Op: op, Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &RequestError{
			Class:  classifyStatus(resp.StatusCode),
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", bytes.TrimSpace(data)),
		}
	}
	return data, nil
}
