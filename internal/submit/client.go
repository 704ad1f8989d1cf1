// File: internal/submit/client.go
// Package submit posts answers to challenge endpoints.
package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/config"
	"github.com/xkilldash9x/quizwalk/internal/directive"
	"github.com/xkilldash9x/quizwalk/internal/network"
)

// maxResponseBytes bounds how much of a submit response is read.
const maxResponseBytes = 1 << 20

// Client posts SubmissionPayloads.
type Client struct {
	http   *network.Client
	cfg    config.SubmitConfig
	logger *zap.Logger
}

// NewClient creates a submission client.
func NewClient(httpClient *network.Client, cfg config.SubmitConfig, logger *zap.Logger) *Client {
	return &Client{http: httpClient, cfg: cfg, logger: logger.Named("submit")}
}

// Encode serializes the payload. When the result exceeds the payload cap and the answer
// is a string, the answer is truncated once and the payload encoded again; the second
// encoding is not checked against the cap.
func (c *Client) Encode(p schemas.SubmissionPayload) ([]byte, schemas.SubmissionPayload, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, p, fmt.Errorf("encode payload: %w", err)
	}
	if len(body) <= c.cfg.MaxPayloadBytes || !p.Answer.IsString() {
		return body, p, nil
	}

	c.logger.Warn("Payload over size cap; truncating answer.",
		zap.Int("bytes", len(body)),
		zap.Int("cap", c.cfg.MaxPayloadBytes),
		zap.Int("truncate_to", c.cfg.TruncateChars),
	)
	p.Answer = p.Answer.Truncate(c.cfg.TruncateChars)
	body, err = json.Marshal(p)
	if err != nil {
		return nil, p, fmt.Errorf("encode truncated payload: %w", err)
	}
	return body, p, nil
}

// Submit posts the payload to submitURL. Only transport failures are returned as errors;
// a non-2xx status is logged and its body still searched for the next URL.
func (c *Client) Submit(ctx context.Context, submitURL string, p schemas.SubmissionPayload) (schemas.SubmissionResult, error) {
	body, p, err := c.Encode(p)
	if err != nil {
		return schemas.SubmissionResult{}, err
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(body))
	if err != nil {
		return schemas.SubmissionResult{}, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return schemas.SubmissionResult{}, fmt.Errorf("submit to %s: %w", submitURL, err)
	}
	defer resp.Body.Close()

	result := schemas.SubmissionResult{HTTPStatus: resp.StatusCode}
	log := c.logger.With(zap.String("url", submitURL), zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("Submit endpoint returned non-success status.", zap.String("answer", p.Answer.String()))
	}

	data, err := network.ReadBody(resp, maxResponseBytes)
	if err != nil && !errors.Is(err, network.ErrBodyTooLarge) {
		log.Warn("Could not read submit response.", zap.Error(err))
		return result, nil
	}

	result.NextURL = nextURL(data, submitURL)
	log.Info("Answer submitted.", zap.String("answer", p.Answer.String()), zap.String("next_url", result.NextURL))
	return result, nil
}

// nextURL extracts a string "url" field from a JSON response body. Relative values
// are resolved against the submit URL.
func nextURL(body []byte, submitURL string) string {
	var reply map[string]interface{}
	if err := json.Unmarshal(body, &reply); err != nil {
		return ""
	}
	u, ok := reply["url"].(string)
	if !ok {
		return ""
	}
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	return directive.Resolve(submitURL, u)
}
