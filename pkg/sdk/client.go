package scholarmatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client is the scholarmatch SDK entry point.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for a scholarmatch service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Match runs one similarity search.
func (c *Client) Match(ctx context.Context, req MatchRequest) (MatchResponse, error) {
	var out MatchResponse
	err := c.do(ctx, http.MethodPost, "/v1/match", req, &out)
	return out, err
}

// Recommend computes (or returns the previously computed) recommendation
// batch for the request. The call is idempotent per profile state.
func (c *Client) Recommend(ctx context.Context, req RecommendationRequest) (RecommendationBatch, error) {
	var out RecommendationBatch
	err := c.do(ctx, http.MethodPost, "/v1/recommendations", req, &out)
	return out, err
}

// Recommendation fetches a stored batch by fingerprint.
func (c *Client) Recommendation(ctx context.Context, fingerprint string) (RecommendationBatch, error) {
	var out RecommendationBatch
	err := c.do(ctx, http.MethodGet, "/v1/recommendations/"+url.PathEscape(fingerprint), nil, &out)
	return out, err
}

// IndexProfile embeds and indexes one profile. Ineligible profiles return
// ErrProfileNotEligible and lose any previously indexed vector.
func (c *Client) IndexProfile(ctx context.Context, p Profile) error {
	if p.ID == "" {
		return fmt.Errorf("scholarmatch: profile id is required")
	}
	return c.do(ctx, http.MethodPut, "/v1/profiles/"+url.PathEscape(p.ID)+"/index", p, nil)
}

// RemoveProfile drops a profile's vector from the index.
func (c *Client) RemoveProfile(ctx context.Context, kind Kind, id string) error {
	path := "/v1/profiles/" + url.PathEscape(id) + "/index?kind=" + url.QueryEscape(string(kind))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Reindex embeds and indexes profiles in bulk, typically after a taxonomy
// change.
func (c *Client) Reindex(ctx context.Context, profiles []Profile) (ReindexResult, error) {
	var out ReindexResult
	in := map[string][]Profile{"profiles": profiles}
	err := c.do(ctx, http.MethodPost, "/v1/profiles/reindex", in, &out)
	return out, err
}

// Health returns the service health report.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("scholarmatch: encode request: %w", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("scholarmatch: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("scholarmatch: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return newAPIError(resp.StatusCode, "", fmt.Sprintf("unexpected status %d", resp.StatusCode))
		}
		return newAPIError(resp.StatusCode, apiErr.Code, apiErr.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("scholarmatch: decode response: %w", err)
	}
	return nil
}
