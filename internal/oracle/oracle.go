// File: internal/oracle/oracle.go
// Package oracle asks a language model to classify a page the heuristics could not.
package oracle

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/action"
	"github.com/xkilldash9x/quizwalk/internal/config"
	"github.com/xkilldash9x/quizwalk/internal/llmutil"
)

const systemPrompt = `You are a helper that converts instructions into a structured JSON action.
Return ONLY a JSON object.
Possible keys: action, column, page, cutoff.
action is one of: count, sum, mean, max, min, median, chart, return_text, pdf_read.
column is the name of the data column the question refers to.
page is a 1-based page number of a document.
cutoff is a number; only values strictly greater than it are used.
Omit keys you have no opinion about.`

// LLMOracle implements action.Oracle with a schemas.LLMClient.
type LLMOracle struct {
	client      schemas.LLMClient
	limiter     *rate.Limiter
	timeout     time.Duration
	maxPrompt   int
	tier        schemas.ModelTier
	temperature float64
	logger      *zap.Logger
}

var _ action.Oracle = (*LLMOracle)(nil)

// New wraps client. The limiter is shared by every session using the returned oracle.
func New(client schemas.LLMClient, cfg config.OracleConfig, logger *zap.Logger) *LLMOracle {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	tier := schemas.ModelTier(cfg.Tier)
	if tier == "" {
		tier = schemas.TierFast
	}
	return &LLMOracle{
		client:      client,
		limiter:     rate.NewLimiter(limit, 1),
		timeout:     cfg.APITimeout,
		maxPrompt:   cfg.MaxPrompt,
		tier:        tier,
		temperature: float64(cfg.Temperature),
		logger:      logger.Named("oracle"),
	}
}

// Resolve asks the model for an opinion. A reply with no usable keys yields (nil, nil).
func (o *LLMOracle) Resolve(ctx context.Context, pageText, instructionText string) (*action.Override, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("oracle rate limiter: %w", err)
	}

	prompt := fmt.Sprintf("Instruction:\n%s\n%s\n\nOutput JSON only.", instructionText, pageText)
	if o.maxPrompt > 0 {
		if r := []rune(prompt); len(r) > o.maxPrompt {
			prompt = string(r[:o.maxPrompt])
		}
	}

	raw, err := o.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Tier:         o.tier,
		Options:      schemas.GenerationOptions{Temperature: o.temperature, ForceJSONFormat: true},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle generate: %w", err)
	}

	reply, err := llmutil.ParseJSONResponse[map[string]interface{}](raw)
	if err != nil {
		return nil, fmt.Errorf("oracle reply: %w", err)
	}
	override := toOverride(*reply)
	o.logger.Debug("Oracle replied.", zap.String("raw", raw), zap.Bool("has_opinion", override != nil))
	return override, nil
}

// toOverride keeps the keys whose values can be interpreted. Numbers may arrive as
// strings such as "2" or "1,000".
func toOverride(reply map[string]interface{}) *action.Override {
	var o action.Override
	found := false

	if s, ok := stringValue(reply["action"]); ok {
		o.Action = &s
		found = true
	}
	if s, ok := stringValue(reply["column"]); ok {
		s = strings.ReplaceAll(s, " ", "_")
		o.Column = &s
		found = true
	}
	if f, ok := numberValue(reply["cutoff"]); ok {
		o.Cutoff = &f
		found = true
	}
	if f, ok := numberValue(reply["page"]); ok && f == math.Trunc(f) {
		p := int(f)
		o.Page = &p
		found = true
	}

	if !found {
		return nil
	}
	return &o
}

func stringValue(v interface{}) (string, bool) {
	s, ok := v.(string)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

func numberValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := action.ParseNumber(n)
		return f, err == nil
	default:
		return 0, false
	}
}
