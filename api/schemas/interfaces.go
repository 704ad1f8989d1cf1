package schemas

import (
	"context"
	"errors"
	"time"
)

// -- Renderer Interfaces --

// WaitStrategy selects the readiness condition a navigation waits for.
type WaitStrategy int

const (
	// WaitNetworkIdle waits until the page has had no network activity for a short period.
	WaitNetworkIdle WaitStrategy = iota
	// WaitLoad waits for the document load event.
	WaitLoad
)

func (w WaitStrategy) String() string {
	switch w {
	case WaitNetworkIdle:
		return "networkidle"
	case WaitLoad:
		return "load"
	default:
		return "unknown"
	}
}

// ErrNavigationTimeout is wrapped by Renderer.Navigate when the wait condition is not met in time.
// Callers use errors.Is to decide whether a retry with a weaker strategy is worthwhile.
var ErrNavigationTimeout = errors.New("navigation timed out")

// Renderer drives a single browser tab. It is owned by one session and is not
// safe for concurrent use.
type Renderer interface {
	// Navigate loads url and blocks until the wait condition holds or timeout elapses.
	Navigate(ctx context.Context, url string, wait WaitStrategy, timeout time.Duration) error
	// BodyText returns the visible text of the document body.
	BodyText(ctx context.Context) (string, error)
	// PreformattedText returns the text of every <pre> element joined by blank lines.
	PreformattedText(ctx context.Context) (string, error)
	// Wait pauses for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration) error
	// Close releases the tab.
	Close() error
}

// RendererFactory hands out renderers backed by a shared browser process.
type RendererFactory interface {
	NewRenderer(ctx context.Context) (Renderer, error)
}

// -- LLM Client Interface --

// ModelTier allows for selecting a model based on a preference for speed versus capability.
type ModelTier string

const (
	TierFast     ModelTier = "fast"
	TierPowerful ModelTier = "powerful"
)

// GenerationOptions controls sampling and output format.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`
	ForceJSONFormat bool    `json:"force_json_format"` // If true, asks the model for a JSON response.
	MaxTokens       int     `json:"max_tokens"`
}

// GenerationRequest encapsulates a complete request to the LLM.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Tier         ModelTier         `json:"tier"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient defines a standard interface for interacting with a Large Language
// Model, abstracting the specifics of the underlying provider.
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}
