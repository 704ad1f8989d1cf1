// File: internal/browser/manager.go
// Package browser renders challenge pages in headless Chrome through chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/config"
)

// ErrManagerClosed is returned by NewRenderer after Shutdown.
var ErrManagerClosed = errors.New("browser manager is shut down")

const tabSetupTimeout = 30 * time.Second

// Manager owns one Chrome process, shared by all sessions, and hands out a tab per session.
// The browser is launched on the first NewRenderer call.
type Manager struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc

	cfg    config.BrowserConfig
	logger *zap.Logger

	mu     sync.Mutex
	tabs   map[string]*Tab
	closed bool
	wg     sync.WaitGroup

	// launchMu serializes launches. A failed launch is not remembered, so the next
	// NewRenderer tries again.
	launchMu sync.Mutex
	launch   func() (context.Context, context.CancelFunc, error)
}

var _ schemas.RendererFactory = (*Manager)(nil)

// NewManager creates the exec allocator. ctx bounds the lifetime of the browser process.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, ExecOptions(cfg)...)
	m := &Manager{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      logger.Named("browser_manager"),
		tabs:        make(map[string]*Tab),
	}
	m.launch = m.launchBrowser
	m.logger.Info("Browser manager created (launch deferred).", zap.Bool("headless", cfg.Headless))
	return m
}

func (m *Manager) initialize() error {
	m.launchMu.Lock()
	defer m.launchMu.Unlock()

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrManagerClosed
	}
	if m.browserCtx != nil {
		return nil
	}

	browserCtx, stop, err := m.launch()
	if err != nil {
		m.logger.Warn("Browser launch failed; the next session will retry.", zap.Error(err))
		return err
	}
	m.browserCtx, m.browserStop = browserCtx, stop
	return nil
}

func (m *Manager) launchBrowser() (context.Context, context.CancelFunc, error) {
	m.logger.Info("Launching browser.")
	sugar := m.logger.Sugar()
	browserCtx, stop := chromedp.NewContext(m.allocCtx,
		chromedp.WithErrorf(sugar.Errorf),
		chromedp.WithDebugf(sugar.Debugf),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		stop()
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}
	m.logger.Info("Browser launched.")
	return browserCtx, stop, nil
}

// NewRenderer opens a new tab.
func (m *Manager) NewRenderer(ctx context.Context) (schemas.Renderer, error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrManagerClosed
	}
	if err := m.initialize(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(m.browserCtx)
	tracker := newIdleTracker()
	chromedp.ListenTarget(tabCtx, tracker.handle)

	// The first Run attaches the target and starts its event loop, which lives as long
	// as the context it runs on. It must be tabCtx itself; the setup deadline closes
	// the tab instead.
	deadlineCtx, deadlineCancel := context.WithTimeout(ctx, tabSetupTimeout)
	defer deadlineCancel()
	unwatch := context.AfterFunc(deadlineCtx, cancel)

	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	setupCtx, setupCancel := combineContext(tabCtx, deadlineCtx)
	err := chromedp.Run(setupCtx, network.Enable(), page.SetLifecycleEventsEnabled(true))
	setupCancel()
	if !unwatch() {
		return nil, fmt.Errorf("open tab: %w", context.Cause(deadlineCtx))
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("enable tab events: %w", err)
	}

	id := ""
	if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
		id = string(c.Target.TargetID)
		tracker.setMainFrame(cdp.FrameID(id))
	}

	tab := &Tab{
		id:      id,
		ctx:     tabCtx,
		cancel:  cancel,
		tracker: tracker,
		quiet:   m.cfg.NetworkQuietPeriod,
		logger:  m.logger.Named("tab").With(zap.String("tab_id", id)),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return nil, ErrManagerClosed
	}
	m.tabs[id] = tab
	m.wg.Add(1)
	m.mu.Unlock()

	tab.onClose = func() {
		m.mu.Lock()
		delete(m.tabs, id)
		m.mu.Unlock()
		m.wg.Done()
	}

	m.logger.Debug("Tab opened.", zap.String("tab_id", id))
	return tab, nil
}

// Shutdown closes every open tab and stops the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	open := make([]*Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		open = append(open, t)
	}
	m.mu.Unlock()

	// Waits for an in-flight launch; later ones see closed.
	m.launchMu.Lock()
	m.launchMu.Unlock()

	m.logger.Info("Shutting down browser manager.", zap.Int("open_tabs", len(open)))
	for _, t := range open {
		if err := t.Close(); err != nil {
			m.logger.Warn("Error closing tab during shutdown.", zap.String("tab_id", t.ID()), zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Timed out waiting for tabs to close.", zap.Error(ctx.Err()))
	}

	var err error
	if m.browserCtx != nil {
		if cerr := chromedp.Cancel(m.browserCtx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = fmt.Errorf("stop browser: %w", cerr)
		}
		m.browserStop()
	}
	m.allocCancel()
	m.logger.Info("Browser manager shut down.")
	return err
}
