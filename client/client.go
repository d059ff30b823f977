// Package client talks to the olimpiad API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	v1 "olimpiad/pkg/api/v1"
)

// APIError is a non-2xx response. Detail carries the server's message.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("olimpiad api: %d %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	addr       string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func NewClient(addr string, opts ...Option) *Client {
	c := &Client{
		addr:       strings.TrimRight(addr, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.addr+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil || e.Detail == "" {
			e.Detail = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: res.StatusCode, Detail: e.Detail}
	}
	if out == nil {
		_, err = io.Copy(io.Discard, res.Body)
		return err
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Login exchanges admin credentials for a token pair and keeps the access
// token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return err
	}
	c.mu.Lock()
	c.token = out.AccessToken
	c.mu.Unlock()
	return nil
}

func (c *Client) ListFeatures(ctx context.Context) ([]v1.Feature, error) {
	var out []v1.Feature
	if err := c.do(ctx, http.MethodGet, "/api/features", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateFeature(ctx context.Context, name, featureType string) (*v1.Feature, error) {
	var out v1.Feature
	if err := c.do(ctx, http.MethodPost, "/api/features", v1.FeatureCreate{Name: name, Type: featureType}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteFeature(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/features/"+url.PathEscape(id), nil, nil)
}

func (c *Client) SchemaSnapshot(ctx context.Context) (*v1.SchemaSnapshot, error) {
	var out v1.SchemaSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/features/snapshot", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOlimpiads returns olimpiads newest first; empty arguments do not filter.
func (c *Client) ListOlimpiads(ctx context.Context, status, search string) ([]v1.Olimpiad, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/api/olimpiads"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []v1.Olimpiad
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListByStatus(ctx context.Context, status string) ([]v1.Olimpiad, error) {
	var out []v1.Olimpiad
	if err := c.do(ctx, http.MethodGet, "/api/olimpiads/by-status/"+url.PathEscape(status), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOlimpiad(ctx context.Context, id string) (*v1.Olimpiad, error) {
	var out v1.Olimpiad
	if err := c.do(ctx, http.MethodGet, "/api/olimpiads/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOlimpiad(ctx context.Context, in v1.OlimpiadCreate) (*v1.Olimpiad, error) {
	var out v1.Olimpiad
	if err := c.do(ctx, http.MethodPost, "/api/olimpiads", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOlimpiad(ctx context.Context, id string, in v1.OlimpiadUpdate) (*v1.Olimpiad, error) {
	var out v1.Olimpiad
	if err := c.do(ctx, http.MethodPut, "/api/olimpiads/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteOlimpiad(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/olimpiads/"+url.PathEscape(id), nil, nil)
}

func (c *Client) AppendDate(ctx context.Context, id string, pair v1.DatePair) error {
	return c.do(ctx, http.MethodPost, "/api/olimpiads/"+url.PathEscape(id)+"/dates", pair, nil)
}

func (c *Client) SetFeatureValue(ctx context.Context, id, featureID string, value any) error {
	path := "/api/olimpiads/" + url.PathEscape(id) + "/dynamic-feature/" + url.PathEscape(featureID)
	return c.do(ctx, http.MethodPut, path, map[string]any{"value": value}, nil)
}
