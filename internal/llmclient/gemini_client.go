// internal/llmclient/gemini_client.go
package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultEndpointFormat = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// Request is one prompt sent to the model.
type Request struct {
	Prompt      string
	Temperature float32
	// MaxTokens overrides the configured output limit when positive.
	MaxTokens int
}

// GeminiClient talks to the Gemini generateContent endpoint. It performs a
// single call per Generate; key rotation and fallback live in the caller.
type GeminiClient struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	config     config.LLMConfig
}

// -- Gemini API Request/Response Structures --
type GeminiContent struct {
	Parts []GeminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type GeminiPart struct {
	Text string `json:"text"`
}

type GeminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type GeminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type GeminiRequestPayload struct {
	Contents         []GeminiContent        `json:"contents"`
	SafetySettings   []GeminiSafetySetting  `json:"safetySettings,omitempty"`
	GenerationConfig GeminiGenerationConfig `json:"generationConfig"`
}

type GeminiResponsePayload struct {
	Candidates []struct {
		Content      GeminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiErrorPayload struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiClient initializes the client. The HTTP transport is instrumented
// with otelhttp and requests are paced by requests_per_minute.
func NewGeminiClient(cfg config.LLMConfig, logger *zap.Logger) *GeminiClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf(defaultEndpointFormat, cfg.Model)
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &GeminiClient{
		endpoint: endpoint,
		config:   cfg,
		httpClient: &http.Client{
			Timeout:   cfg.APITimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.Named("llm_client.gemini"),
	}
}

// Endpoint returns the URL requests are posted to.
func (c *GeminiClient) Endpoint() string { return c.endpoint }

// Generate sends req authenticated with apiKey and returns the first
// candidate's text. Non-2xx responses are returned as *APIError.
func (c *GeminiClient) Generate(ctx context.Context, apiKey string, req Request) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", &APIError{StatusCode: http.StatusUnauthorized, Status: "UNAUTHENTICATED", Message: "no API key"}
	}
	body, err := json.Marshal(c.buildRequestPayload(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)
	if err != nil {
		return "", fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.handleAPIError(resp.StatusCode, respBody)
	}

	var payload GeminiResponsePayload
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(payload.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	candidate := payload.Candidates[0]
	if len(candidate.Content.Parts) == 0 || strings.TrimSpace(candidate.Content.Parts[0].Text) == "" {
		return "", fmt.Errorf("%w: empty content (finish reason %s)", ErrMalformedResponse, candidate.FinishReason)
	}

	c.logger.Debug("LLM generation complete.",
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", payload.UsageMetadata.PromptTokenCount),
		zap.Int("completion_tokens", payload.UsageMetadata.CandidatesTokenCount),
		zap.Int("total_tokens", payload.UsageMetadata.TotalTokenCount),
	)
	return candidate.Content.Parts[0].Text, nil
}

// Ping sends the minimal connection test prompt.
func (c *GeminiClient) Ping(ctx context.Context, apiKey string) error {
	_, err := c.Generate(ctx, apiKey, Request{
		Prompt:      "Test connection - respond with 'OK'",
		Temperature: 0.1,
		MaxTokens:   10,
	})
	return err
}

func (c *GeminiClient) buildRequestPayload(req Request) GeminiRequestPayload {
	maxTokens := c.config.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	return GeminiRequestPayload{
		Contents: []GeminiContent{
			{Parts: []GeminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: GeminiGenerationConfig{
			Temperature:     req.Temperature,
			TopP:            c.config.TopP,
			TopK:            c.config.TopK,
			MaxOutputTokens: maxTokens,
		},
		SafetySettings: c.getSafetySettings(),
	}
}

func (c *GeminiClient) handleAPIError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	var payload geminiErrorPayload
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		apiErr.Status = payload.Error.Status
	}
	c.logger.Warn("Gemini API returned error status.",
		zap.Int("status", statusCode),
		zap.String("class", apiErr.Class().String()),
		zap.String("message", apiErr.Message))
	return apiErr
}

// getSafetySettings upper-cases categories, since config keys arrive lower-cased.
func (c *GeminiClient) getSafetySettings() []GeminiSafetySetting {
	settings := make([]GeminiSafetySetting, 0, len(c.config.SafetyFilters))
	for category, threshold := range c.config.SafetyFilters {
		settings = append(settings, GeminiSafetySetting{
			Category:  strings.ToUpper(category),
			Threshold: strings.ToUpper(threshold),
		})
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Category < settings[j].Category })
	return settings
}
