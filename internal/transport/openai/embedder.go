// Package openai is the embedding provider transport for OpenAI-compatible
// endpoints.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/metrics"
)

// DefaultTimeout bounds a single embedding call. Anything slower is treated
// as a soft failure upstream, never a crash.
const DefaultTimeout = 30 * time.Second

// Embedder is an embedding provider using the OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	timeout    time.Duration
	provider   string
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
	Provider   string
	Logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		timeout:    timeout,
		provider:   cfg.Provider,
		logger:     cfg.Logger,
	}
}

// Embed implements domain.Embedder. Input is normalized first; text that is
// empty after normalization is rejected before any network call.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	normalized := NormalizeText(text)
	if normalized == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("input empty after normalization: %w", domain.ErrNoVector)
	}

	req := openai.EmbeddingRequest{
		Input:          []string{normalized},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		classified := e.classifyAPIError(err)
		errType := "api_error"
		if errors.Is(classified, domain.ErrUnknownModel) {
			errType = "unknown_model"
		}
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), errType).Inc()
		return domain.EmbeddingResult{}, classified
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, string(e.model)).Observe(duration.Seconds())

	totalTokens := resp.Usage.TotalTokens
	promptTokens := resp.Usage.PromptTokens
	if totalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.model), "prompt").Add(float64(promptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.model), "total").Add(float64(totalTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: promptTokens,
		TotalTokens:  totalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// NormalizeText force-normalizes the encoding and collapses whitespace.
// Invalid UTF-8 bytes are replaced rather than propagated to the API.
func NormalizeText(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}

// classifyAPIError maps provider failures onto the domain taxonomy. A
// misconfigured model name is a configuration error and is flagged apart
// from transient transport failures so operators see it immediately.
func (e *Embedder) classifyAPIError(err error) error {
	logFailure := func(kind string, detail string) {
		if e.logger != nil {
			e.logger.Warn("Embedding request failed",
				zap.String("provider", e.provider),
				zap.String("model", string(e.model)),
				zap.String("kind", kind),
				zap.String("detail", detail),
			)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		if isUnknownModel(detail) {
			logFailure("unknown_model", detail)
			return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, domain.ErrUnknownModel)
		}
		logFailure("api_error", detail)
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, domain.ErrEmbeddingProviderError)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if isUnknownModel(apiErr.Message) {
			logFailure("unknown_model", apiErr.Message)
			return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrUnknownModel)
		}
		logFailure("api_error", apiErr.Message)
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, domain.ErrEmbeddingProviderError)
	}

	logFailure("transport", err.Error())
	return fmt.Errorf("embedding request failed: %w", domain.ErrEmbeddingProviderError)
}

// isUnknownModel detects the provider's model-does-not-exist responses.
func isUnknownModel(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "model") &&
		(strings.Contains(m, "does not exist") ||
			strings.Contains(m, "not found") ||
			strings.Contains(m, "unknown"))
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
