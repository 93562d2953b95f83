// Package qdrant is the vector store repository, speaking the Qdrant HTTP API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
)

const maxErrorBodyBytes = 1024

// DefaultTimeout bounds any single vector-store call.
const DefaultTimeout = 15 * time.Second

// Config holds vector store connection settings.
type Config struct {
	URL               string
	APIKey            string
	Dimensions        int
	Distance          string // default "Cosine"
	ReplicationFactor int
	Timeout           time.Duration
}

// Client talks to a Qdrant instance over its HTTP API.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a Qdrant client. No connection is attempted here; use
// Reachable or EnsureCollection to probe.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("vector dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.Distance == "" {
		cfg.Distance = "Cosine"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// envelope is the {result, status, time} wrapper Qdrant puts around every response.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

// Reachable probes the instance so callers can pick the degraded brute-force
// path up front instead of failing mid-request.
func (c *Client) Reachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return false
	}
	c.setHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// doJSON executes one API call, decoding the result into out when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBodyBytes))
	if readErr != nil {
		return fmt.Errorf("read response: %w", readErr)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("qdrant status=404 body=%q: %w", truncateBody(raw), errNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant status=%d body=%q: %w",
			resp.StatusCode, truncateBody(raw), domain.ErrVectorStoreUnavailable)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if statusErr := parseEnvelopeStatus(env.Status); statusErr != "" {
		return fmt.Errorf("qdrant error: %s: %w", statusErr, domain.ErrVectorStoreUnavailable)
	}

	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("api-key", c.cfg.APIKey)
	}
}

// errNotFound marks a 404 from the collection existence probe.
var errNotFound = errors.New("qdrant: not found")

// classifyTransportError folds timeouts and connection failures into the
// unavailable sentinel so upstream degrades instead of propagating.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("qdrant timeout: %w", domain.ErrVectorStoreUnavailable)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("qdrant timeout: %w", domain.ErrVectorStoreUnavailable)
	}
	return fmt.Errorf("qdrant request failed: %v: %w", err, domain.ErrVectorStoreUnavailable)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}

	return "status=" + status
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
