// File: cmd/wiring.go
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/action"
	"github.com/xkilldash9x/quizwalk/internal/answer"
	"github.com/xkilldash9x/quizwalk/internal/artifact"
	"github.com/xkilldash9x/quizwalk/internal/browser"
	"github.com/xkilldash9x/quizwalk/internal/config"
	"github.com/xkilldash9x/quizwalk/internal/llmclient"
	"github.com/xkilldash9x/quizwalk/internal/network"
	"github.com/xkilldash9x/quizwalk/internal/oracle"
	"github.com/xkilldash9x/quizwalk/internal/session"
	"github.com/xkilldash9x/quizwalk/internal/submit"
	"github.com/xkilldash9x/quizwalk/internal/transcribe"
)

// sessionRunner is what the commands need from the wired components.
type sessionRunner interface {
	Run(ctx context.Context, req schemas.QuizRequest) schemas.Outcome
}

// components owns everything built for a command and knows how to release it.
type components struct {
	runner  sessionRunner
	browser *browser.Manager
	llm     schemas.LLMClient
	logger  *zap.Logger
}

// Close stops the browser and the LLM client.
func (c *components) Close(ctx context.Context) error {
	var firstErr error
	if c.browser != nil {
		if err := c.browser.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("browser shutdown: %w", err)
		}
	}
	if c.llm != nil {
		if err := c.llm.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("llm client close: %w", err)
		}
	}
	return firstErr
}

// buildComponents is swapped out in tests.
var buildComponents = wireComponents

// wireComponents builds the production graph: one browser process, one HTTP client,
// one oracle limiter, shared by every session.
func wireComponents(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*components, error) {
	httpClient := network.NewClient(network.NewClientConfig(cfg.Network(), logger))

	llm, err := llmclient.NewClient(ctx, cfg.Oracle(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	var resolverOracle action.Oracle
	if llm != nil {
		resolverOracle = oracle.New(llm, cfg.Oracle(), logger)
		logger.Info("Oracle enabled.", zap.String("provider", string(cfg.Oracle().Provider)))
	}

	deps := session.Dependencies{
		Fetcher:   artifact.NewFetcher(httpClient, cfg.Network().MaxDownloadBytes, logger),
		Resolver:  action.NewResolver(resolverOracle, logger),
		Computer:  answer.NewComputer(cfg.Answer(), logger),
		Submitter: submit.NewClient(httpClient, cfg.Submit(), logger),
	}
	if tr := transcribe.New(cfg.Transcriber(), logger); tr != nil {
		deps.Transcriber = tr
	}

	// The browser outlives a cancelled command context; Close stops it.
	manager := browser.NewManager(context.WithoutCancel(ctx), cfg.Browser(), logger)
	deps.Renderers = manager

	runner, err := session.New(deps, cfg, logger)
	if err != nil {
		_ = manager.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize session runner: %w", err)
	}
	return &components{runner: runner, browser: manager, llm: llm, logger: logger}, nil
}
