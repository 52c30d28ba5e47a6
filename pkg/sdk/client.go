// Package sdk is a small Go client for the compliwire HTTP API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors. Use errors.Is() to check.
var (
	// ErrUnauthorized means the API key was missing or rejected.
	ErrUnauthorized = errors.New("sdk: unauthorized")
	// ErrRunInProgress means an ingestion run or reindex is already in flight.
	ErrRunInProgress = errors.New("sdk: run already in progress")
)

// APIError carries the status and message of a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sdk: api error %d: %s", e.Status, e.Message)
}

// Client talks to a compliwire server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Reference points at an article that grounded an answer.
type Reference struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Source      string     `json:"source"`
	Tag         string     `json:"tag"`
	Score       float64    `json:"score"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// ChatResponse is one answered question.
type ChatResponse struct {
	Answer     string      `json:"answer"`
	References []Reference `json:"references"`
}

// ChatOptions tune a single chat call. Zero values use server defaults.
type ChatOptions struct {
	TopK int
	Mode string // "hybrid" or "vector"
}

// Chat asks a question grounded in the stored articles.
func (c *Client) Chat(ctx context.Context, message string, opts *ChatOptions) (ChatResponse, error) {
	body := map[string]any{"message": message}
	if opts != nil {
		if opts.TopK > 0 {
			body["topK"] = opts.TopK
		}
		if opts.Mode != "" {
			body["mode"] = opts.Mode
		}
	}

	var resp ChatResponse
	if err := c.post(ctx, "/chat", body, &resp); err != nil {
		return ChatResponse{}, err
	}
	return resp, nil
}

// IngestResult summarizes a triggered ingestion run.
type IngestResult struct {
	Status   string `json:"status"`
	Ingested int    `json:"ingested"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// TriggerIngest starts a full ingestion pass and waits for it to finish.
// Returns ErrRunInProgress if one is already executing.
func (c *Client) TriggerIngest(ctx context.Context) (IngestResult, error) {
	var resp IngestResult
	if err := c.post(ctx, "/admin/ingest", nil, &resp); err != nil {
		return IngestResult{}, err
	}
	return resp, nil
}

// ReindexResult reports how many articles were re-embedded.
type ReindexResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// TriggerReindex re-embeds every stored article.
func (c *Client) TriggerReindex(ctx context.Context) (ReindexResult, error) {
	var resp ReindexResult
	if err := c.post(ctx, "/admin/reindex", nil, &resp); err != nil {
		return ReindexResult{}, err
	}
	return resp, nil
}

// HealthReport is the server's health snapshot.
type HealthReport struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Articles  int               `json:"articles"`
	Ingesting bool              `json:"ingesting"`
}

// Health fetches the server's health report. A degraded server still
// returns a report, not an error.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return HealthReport{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return HealthReport{}, fmt.Errorf("sdk: health request: %w", err)
	}
	defer resp.Body.Close()

	var report HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return HealthReport{}, fmt.Errorf("sdk: decode health response: %w", err)
	}
	return report, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sdk: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, reader)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sdk: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.asError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("sdk: decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("sdk: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) asError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed struct {
		Error  string `json:"error"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(data, &parsed)
	msg := parsed.Error
	if msg == "" {
		msg = parsed.Status
	}
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrRunInProgress, msg)
	default:
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
}
