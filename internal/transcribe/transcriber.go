// File: internal/transcribe/transcriber.go
// Package transcribe turns audio artifacts into text.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/internal/config"
)

// ErrEmptyAudio is returned when there is nothing to transcribe.
var ErrEmptyAudio = errors.New("empty audio payload")

// Transcriber sends audio to an OpenAI-compatible speech-to-text endpoint.
type Transcriber struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// New returns nil when transcription is disabled or no API key is configured.
func New(cfg config.TranscriberConfig, logger *zap.Logger) *Transcriber {
	logger = logger.Named("transcriber")
	if !cfg.Enabled {
		return nil
	}
	if cfg.APIKey == "" {
		logger.Warn("No API key configured for transcription; audio directives will be ignored.")
		return nil
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &Transcriber{
		client:  openai.NewClientWithConfig(oc),
		model:   model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Transcribe returns the text spoken in data. name carries the file name, whose
// extension tells the service the audio format.
func (t *Transcriber) Transcribe(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyAudio
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: fileName(name),
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	t.logger.Debug("Transcribed audio.",
		zap.String("file", name),
		zap.Int("bytes", len(data)),
		zap.Int("chars", len(resp.Text)),
		zap.Duration("duration", time.Since(start)),
	)
	return strings.TrimSpace(resp.Text), nil
}

// fileName reduces a URL or path to a bare file name with an extension the service accepts.
func fileName(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == "" {
		base = "audio"
	}
	if path.Ext(base) == "" {
		base += ".mp3"
	}
	return base
}
