// File: internal/session/scrape.go
package session

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/api/schemas"
)

var secretCodePattern = regexp.MustCompile(`(?i)secret\s*code\s*[:\-]?\s*([A-Za-z0-9_-]+)`)

// scrape visits a secondary page with the session's renderer and returns the code it
// shows. Without a labelled code the leading text of the page is returned. Failures
// yield "".
func (r *Runner) scrape(ctx context.Context, log *zap.Logger, renderer schemas.Renderer, url string) string {
	log = log.With(zap.String("scrape_url", url))

	err := renderer.Navigate(ctx, url, schemas.WaitNetworkIdle, r.browser.ScrapeIdleTimeout)
	if err != nil {
		log.Debug("Scrape idle wait failed; retrying with load event.", zap.Error(err))
		err = renderer.Navigate(ctx, url, schemas.WaitLoad, r.browser.ScrapeLoadTimeout)
	}
	if err != nil {
		log.Warn("Scrape navigation failed.", zap.Error(err))
		return ""
	}
	_ = renderer.Wait(ctx, r.browser.ScrapeSettleWait)

	text, err := renderer.BodyText(ctx)
	if err != nil {
		log.Warn("Could not read scraped page.", zap.Error(err))
		return ""
	}
	code := ExtractSecretCode(text, r.answer.ScrapeTextLimit)
	log.Info("Scraped secondary page.", zap.String("code", code))
	return code
}

// ExtractSecretCode finds a "secret code" label in text. When there is none, the first
// limit characters of the trimmed text are returned.
func ExtractSecretCode(text string, limit int) string {
	if m := secretCodePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	r := []rune(strings.TrimSpace(text))
	if limit > 0 && len(r) > limit {
		r = r[:limit]
	}
	return string(r)
}
