// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/config"
)

// NewClient creates the LLMClient named by the configuration. A nil client and a nil
// error mean the oracle is disabled or has no credentials.
func NewClient(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.APIKey == "" {
		logger.Warn("No API key configured for the oracle; LLM fallback disabled.", zap.String("provider", string(cfg.Provider)))
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := NewGoogleClient(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]", cfg.Provider, config.ProviderGemini)
	}
}
