// Package collab talks to the external collaborator services: canonical
// profile-text extraction (CV parsing, OCR) and match-justification prose.
// Both are best-effort: any failure becomes an empty string so the matching
// pipeline degrades instead of failing.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/usecase/recommend"
)

// DefaultTimeout bounds any single collaborator call. These services sit
// in front of OCR and LLM backends, so the bound is generous.
const DefaultTimeout = 30 * time.Second

// Config holds collaborator endpoints. Empty URLs disable the respective
// collaborator.
type Config struct {
	TextURL    string
	JustifyURL string
	APIKey     string
	Timeout    time.Duration
}

// Client calls the collaborator HTTP services.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a collaborator client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// CanonicalText asks the extraction service for the requester's profile/CV
// text. Returns "" without error when the collaborator is not configured,
// fails, or has no text: absent text is a degraded signal, not a fault.
func (c *Client) CanonicalText(ctx context.Context, requesterID string) (string, error) {
	if c.cfg.TextURL == "" {
		return "", nil
	}

	var out struct {
		Text string `json:"text"`
	}
	err := c.post(ctx, c.cfg.TextURL, map[string]string{"profile_id": requesterID}, &out)
	if err != nil {
		c.logger.Warn("canonical text extraction failed",
			zap.String("profile_id", requesterID), zap.Error(err))
		return "", nil
	}
	return strings.TrimSpace(out.Text), nil
}

// Justify asks the prose service to explain one match. Returns "" on any
// failure; a missing justification never blocks the ranked result.
func (c *Client) Justify(ctx context.Context, jc recommend.JustificationContext) (string, error) {
	if c.cfg.JustifyURL == "" {
		return "", nil
	}

	in := map[string]any{
		"requester_text": jc.RequesterText,
		"entity_id":      jc.EntityID,
		"entity_payload": jc.EntityPayload,
		"score":          jc.Score,
	}
	var out struct {
		Justification string `json:"justification"`
	}
	if err := c.post(ctx, c.cfg.JustifyURL, in, &out); err != nil {
		c.logger.Warn("justification generation failed",
			zap.String("entity_id", jc.EntityID), zap.Error(err))
		return "", nil
	}
	return strings.TrimSpace(out.Justification), nil
}

func (c *Client) post(ctx context.Context, url string, in, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(in); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("call %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}
