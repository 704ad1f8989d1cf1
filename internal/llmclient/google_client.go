// internal/llmclient/google_client.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/config"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// contentGenerator is the slice of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GoogleClient implements schemas.LLMClient on top of the Gemini API SDK.
type GoogleClient struct {
	models contentGenerator
	cfg    config.OracleConfig
	logger *zap.Logger
}

var _ schemas.LLMClient = (*GoogleClient)(nil)

// NewGoogleClient initializes the SDK client for the Gemini API backend.
func NewGoogleClient(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API Key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newGoogleClient(client.Models, cfg, logger), nil
}

func newGoogleClient(models contentGenerator, cfg config.OracleConfig, logger *zap.Logger) *GoogleClient {
	return &GoogleClient{
		models: models,
		cfg:    cfg,
		logger: logger.Named("llm_client.gemini"),
	}
}

// Generate sends the prompts to the model and returns the text of the first candidate.
// The call is bounded by the configured API timeout.
func (c *GoogleClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if c.cfg.APITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.APITimeout)
		defer cancel()
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Options.Temperature)),
	}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Options.ForceJSONFormat {
		gc.ResponseMIMEType = "application/json"
	}
	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if maxTokens > 0 {
		gc.MaxOutputTokens = int32(maxTokens)
	}

	model := c.modelFor(req.Tier)
	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, model, genai.Text(req.UserPrompt), gc)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	fields := []zap.Field{zap.Duration("duration", time.Since(start)), zap.String("model", model)}
	if u := resp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", u.PromptTokenCount),
			zap.Int32("completion_tokens", u.CandidatesTokenCount),
			zap.Int32("total_tokens", u.TotalTokenCount),
		)
	}
	c.logger.Debug("LLM generation complete (Gemini)", fields...)
	return text, nil
}

// modelFor maps a tier to a configured model. Fast and unset tiers use Model.
func (c *GoogleClient) modelFor(tier schemas.ModelTier) string {
	if tier == schemas.TierPowerful && c.cfg.PowerfulModel != "" {
		return c.cfg.PowerfulModel
	}
	return c.cfg.Model
}

// Close is a no-op; the SDK holds no resources beyond its HTTP client.
func (c *GoogleClient) Close() error { return nil }
