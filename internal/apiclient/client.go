package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

var ErrNotFound = errors.New("not found")

// APIError is a non-successful backend answer. Message is the backend's own
// message when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit paces outgoing requests; rps <= 0 disables pacing.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type response struct {
	Status int
	Body   []byte
}

func (r response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return response{}, err
		}
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return response{}, fmt.Errorf("encode body: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}
	return response{Status: resp.StatusCode, Body: data}, nil
}

// messageOf extracts the backend message: a plain string, a nested
// message.message, or the raw body when it is not JSON.
func messageOf(body []byte, fallback string) string {
	if !gjson.ValidBytes(body) {
		if s := string(bytes.TrimSpace(body)); s != "" {
			return s
		}
		return fallback
	}
	m := gjson.GetBytes(body, "message")
	switch {
	case m.Type == gjson.String && m.String() != "":
		return m.String()
	case m.IsObject():
		if inner := m.Get("message"); inner.Type == gjson.String && inner.String() != "" {
			return inner.String()
		}
	}
	return fallback
}

func apiError(r response, fallback string) *APIError {
	return &APIError{Status: r.Status, Message: messageOf(r.Body, fallback)}
}

// decodeList decodes the array at path; a missing or non-array value is an
// empty list.
func decodeList[T any](body []byte, path string) ([]T, error) {
	res := gjson.GetBytes(body, path)
	if !res.IsArray() {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(res.Raw), &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func decodeObject[T any](body []byte, path string) (*T, error) {
	res := gjson.GetBytes(body, path)
	if !res.IsObject() {
		return nil, ErrNotFound
	}
	var out T
	if err := json.Unmarshal([]byte(res.Raw), &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &out, nil
}
