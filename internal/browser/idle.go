// File: internal/browser/idle.go
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
)

const networkIdleCheckFrequency = 50 * time.Millisecond

// idleTracker follows the requests of one tab. The network counts as idle when the
// browser reports a networkIdle lifecycle event for the current document, or when no
// request has been in flight for the quiet period.
type idleTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	// lastActivity is when the in-flight set last changed.
	lastActivity time.Time
	idleSignal   chan struct{}
	signaled     bool
	now          func() time.Time
	// mainFrame, when set, restricts lifecycle events to the top-level document.
	mainFrame cdp.FrameID
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
		idleSignal:   make(chan struct{}),
		now:          time.Now,
	}
}

func (t *idleTracker) setMainFrame(id cdp.FrameID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mainFrame = id
}

// reset forgets earlier documents. Called before each navigation.
func (t *idleTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight = make(map[network.RequestID]struct{})
	t.lastActivity = t.now()
	t.idleSignal = make(chan struct{})
	t.signaled = false
}

// handle is registered with chromedp.ListenTarget and must not block.
func (t *idleTracker) handle(ev interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev := ev.(type) {
	case *network.EventRequestWillBeSent:
		// Redirects reuse the request id.
		t.inflight[ev.RequestID] = struct{}{}
		t.lastActivity = t.now()
	case *network.EventLoadingFinished:
		t.finish(ev.RequestID)
	case *network.EventLoadingFailed:
		t.finish(ev.RequestID)
	case *page.EventLifecycleEvent:
		if t.mainFrame != "" && ev.FrameID != t.mainFrame {
			return
		}
		switch ev.Name {
		case "init":
			t.inflight = make(map[network.RequestID]struct{})
			t.lastActivity = t.now()
		case "networkIdle":
			if !t.signaled {
				t.signaled = true
				close(t.idleSignal)
			}
		}
	}
}

func (t *idleTracker) finish(id network.RequestID) {
	if _, ok := t.inflight[id]; ok {
		delete(t.inflight, id)
		t.lastActivity = t.now()
	}
}

// quietFor reports whether nothing has been in flight for at least d.
func (t *idleTracker) quietFor(d time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.lastActivity) >= d
}

func (t *idleTracker) signal() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idleSignal
}

// wait blocks until the network is idle or ctx ends.
func (t *idleTracker) wait(ctx context.Context, quiet time.Duration) error {
	ticker := time.NewTicker(networkIdleCheckFrequency)
	defer ticker.Stop()

	sig := t.signal()
	for {
		if t.quietFor(quiet) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sig:
			return nil
		case <-ticker.C:
		}
	}
}
