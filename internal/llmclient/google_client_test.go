// internal/llmclient/google_client_test.go
package llmclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/config"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	deadline bool

	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, cfg
	_, f.deadline = ctx.Deadline()
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 5, TotalTokenCount: 15},
	}
}

func testOracleConfig() config.OracleConfig {
	return config.OracleConfig{
		Enabled:    true,
		Provider:   config.ProviderGemini,
		Model:      "gemini-2.5-flash",
		APIKey:     "test-key",
		APITimeout: 15 * time.Second,
		MaxTokens:  256,
	}
}

func TestGoogleClientGenerate(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	fake := &fakeModels{resp: textResponse(`{"action":"sum"}`)}
	client := newGoogleClient(fake, testOracleConfig(), zap.New(core))

	out, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "classify",
		UserPrompt:   "what is the total of sales",
		Options:      schemas.GenerationOptions{ForceJSONFormat: true},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"action":"sum"}`, out)

	assert.Equal(t, "gemini-2.5-flash", fake.model)
	assert.True(t, fake.deadline, "the API timeout bounds the call")
	require.NotNil(t, fake.config)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.Equal(t, int32(256), fake.config.MaxOutputTokens)
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, "classify", fake.config.SystemInstruction.Parts[0].Text)
	require.Len(t, fake.contents, 1)
	assert.Equal(t, "what is the total of sales", fake.contents[0].Parts[0].Text)

	entries := logs.FilterMessage("LLM generation complete (Gemini)").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int32(15), entries[0].ContextMap()["total_tokens"])
}

func TestGoogleClientSelectsModelByTier(t *testing.T) {
	cfg := testOracleConfig()
	cfg.PowerfulModel = "gemini-2.5-pro"

	tests := []struct {
		name string
		cfg  config.OracleConfig
		tier schemas.ModelTier
		want string
	}{
		{"unset tier", cfg, "", "gemini-2.5-flash"},
		{"fast", cfg, schemas.TierFast, "gemini-2.5-flash"},
		{"powerful", cfg, schemas.TierPowerful, "gemini-2.5-pro"},
		{"powerful without a model", testOracleConfig(), schemas.TierPowerful, "gemini-2.5-flash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeModels{resp: textResponse("ok")}
			client := newGoogleClient(fake, tt.cfg, zaptest.NewLogger(t))
			_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "x", Tier: tt.tier})
			require.NoError(t, err)
			assert.Equal(t, tt.want, fake.model)
		})
	}
}

func TestGoogleClientGenerateErrors(t *testing.T) {
	t.Run("sdk error is wrapped", func(t *testing.T) {
		cause := errors.New("429 resource exhausted")
		client := newGoogleClient(&fakeModels{err: cause}, testOracleConfig(), zaptest.NewLogger(t))

		_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "x"})
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("empty text", func(t *testing.T) {
		client := newGoogleClient(&fakeModels{resp: &genai.GenerateContentResponse{}}, testOracleConfig(), zaptest.NewLogger(t))

		_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "x"})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	t.Run("disabled", func(t *testing.T) {
		cfg := testOracleConfig()
		cfg.Enabled = false
		c, err := NewClient(ctx, cfg, logger)
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("missing key disables the oracle", func(t *testing.T) {
		cfg := testOracleConfig()
		cfg.APIKey = ""
		c, err := NewClient(ctx, cfg, logger)
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := testOracleConfig()
		cfg.Provider = "anthropic"
		_, err := NewClient(ctx, cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported LLM provider")
	})

	t.Run("gemini", func(t *testing.T) {
		c, err := NewClient(ctx, testOracleConfig(), logger)
		require.NoError(t, err)
		assert.IsType(t, &GoogleClient{}, c)
		assert.NoError(t, c.Close())
	})
}
