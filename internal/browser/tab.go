// File: internal/browser/tab.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/api/schemas"
)

const (
	bodyTextScript = `document.body ? document.body.innerText : ""`
	preTextScript  = `Array.from(document.querySelectorAll("pre")).map(n => n.innerText).join("\n\n")`
)

// Tab is one browser tab. It implements schemas.Renderer and is used by a single session.
type Tab struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	tracker *idleTracker
	quiet   time.Duration
	logger  *zap.Logger

	closeOnce sync.Once
	onClose   func()
}

var _ schemas.Renderer = (*Tab)(nil)

// ID returns the CDP target id of the tab.
func (t *Tab) ID() string { return t.id }

// Navigate loads url and waits according to wait. Exceeding timeout yields an error
// wrapping schemas.ErrNavigationTimeout.
func (t *Tab) Navigate(ctx context.Context, url string, wait schemas.WaitStrategy, timeout time.Duration) error {
	opCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	runCtx, cancel := combineContext(t.ctx, opCtx)
	defer cancel()

	start := time.Now()
	t.tracker.reset()
	err := chromedp.Run(runCtx, chromedp.Navigate(url))
	if err == nil && wait == schemas.WaitNetworkIdle {
		err = t.tracker.wait(runCtx, t.quiet)
	}
	if err != nil {
		if ctx.Err() == nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("navigate to %s (%s, %s): %w", url, wait, timeout, schemas.ErrNavigationTimeout)
		}
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	t.logger.Debug("Navigation complete.",
		zap.String("url", url),
		zap.Stringer("wait", wait),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// BodyText returns the rendered text of the document body.
func (t *Tab) BodyText(ctx context.Context) (string, error) {
	return t.evalString(ctx, bodyTextScript)
}

// PreformattedText returns the text of every <pre> block, separated by blank lines.
func (t *Tab) PreformattedText(ctx context.Context) (string, error) {
	return t.evalString(ctx, preTextScript)
}

func (t *Tab) evalString(ctx context.Context, script string) (string, error) {
	runCtx, cancel := combineContext(t.ctx, ctx)
	defer cancel()

	var out string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &out)); err != nil {
		return "", fmt.Errorf("evaluate page script: %w", err)
	}
	return out, nil
}

// Wait pauses for d unless ctx ends first.
func (t *Tab) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the tab. It is safe to call more than once.
func (t *Tab) Close() error {
	var err error
	t.closeOnce.Do(func() {
		err = chromedp.Cancel(t.ctx)
		t.cancel()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		if t.onClose != nil {
			t.onClose()
		}
		t.logger.Debug("Tab closed.")
	})
	return err
}
