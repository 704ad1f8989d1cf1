// File: internal/browser/manager_test.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/config"
)

// findChrome returns a browser binary or skips the test.
func findChrome(t *testing.T) string {
	t.Helper()
	if p := os.Getenv("QUIZWALK_TEST_CHROME"); p != "" {
		return p
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome binary found; set QUIZWALK_TEST_CHROME to run browser tests")
	return ""
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.NewDefaultConfig().Browser()
	cfg.ExecPath = findChrome(t)
	cfg.Headless = true
	cfg.DisableGPU = true
	cfg.Args = append(cfg.Args, "--user-data-dir="+t.TempDir())

	m := NewManager(context.Background(), cfg, zaptest.NewLogger(t))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	return m
}

func TestTabRendersPage(t *testing.T) {
	m := newTestManager(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow":
			time.Sleep(2 * time.Second)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><h1>Question</h1><pre>first block</pre><p>Post to /submit</p><pre>second block</pre></body></html>`)
	}))
	defer srv.Close()

	ctx := context.Background()
	r, err := m.NewRenderer(ctx)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Navigate(ctx, srv.URL+"/q", schemas.WaitNetworkIdle, 20*time.Second))

	body, err := r.BodyText(ctx)
	require.NoError(t, err)
	assert.Contains(t, body, "Post to /submit")

	pre, err := r.PreformattedText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first block\n\nsecond block", pre)

	err = r.Navigate(ctx, srv.URL+"/slow", schemas.WaitLoad, 200*time.Millisecond)
	assert.True(t, errors.Is(err, schemas.ErrNavigationTimeout), "got %v", err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestTabKeepsWorkingAcrossNavigations(t *testing.T) {
	m := newTestManager(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><body><p>page %s</p></body></html>`, r.URL.Path)
	}))
	defer srv.Close()

	// A short-lived caller context must not take the tab down with it.
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 20*time.Second)
	r, err := m.NewRenderer(openCtx)
	cancelOpen()
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	require.NoError(t, r.Navigate(ctx, srv.URL+"/one", schemas.WaitNetworkIdle, 10*time.Second))
	require.NoError(t, r.Navigate(ctx, srv.URL+"/two", schemas.WaitNetworkIdle, 10*time.Second))

	body, err := r.BodyText(ctx)
	require.NoError(t, err)
	assert.Contains(t, body, "page /two")

	other, err := m.NewRenderer(ctx)
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Navigate(ctx, srv.URL+"/three", schemas.WaitLoad, 10*time.Second))
	body, err = other.BodyText(ctx)
	require.NoError(t, err)
	assert.Contains(t, body, "page /three")
}

func TestLaunchFailureIsRetried(t *testing.T) {
	m := NewManager(context.Background(), config.BrowserConfig{Headless: true}, zaptest.NewLogger(t))
	t.Cleanup(m.allocCancel)

	attempts := 0
	m.launch = func() (context.Context, context.CancelFunc, error) {
		attempts++
		if attempts < 3 {
			return nil, nil, fmt.Errorf("attempt %d: %w", attempts, assert.AnError)
		}
		ctx, cancel := context.WithCancel(context.Background())
		return ctx, cancel, nil
	}

	assert.ErrorIs(t, m.initialize(), assert.AnError)
	assert.ErrorIs(t, m.initialize(), assert.AnError)
	require.NoError(t, m.initialize())
	require.NoError(t, m.initialize())
	assert.Equal(t, 3, attempts, "a successful launch is kept")
	m.browserStop()
}

func TestNewRendererAfterShutdown(t *testing.T) {
	m := NewManager(context.Background(), config.BrowserConfig{Headless: true}, zaptest.NewLogger(t))
	require.NoError(t, m.Shutdown(context.Background()))

	_, err := m.NewRenderer(context.Background())
	assert.ErrorIs(t, err, ErrManagerClosed)
}
