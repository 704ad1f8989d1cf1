// File: internal/api/launcher.go
package api

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/config"
	"github.com/xkilldash9x/quizwalk/internal/session"
)

var (
	// ErrAtCapacity is returned by Launch when max_sessions sessions are already running.
	ErrAtCapacity = errors.New("session limit reached")
	// ErrShuttingDown is returned by Launch after Shutdown has started.
	ErrShuttingDown = errors.New("launcher is shutting down")
)

// SessionRunner runs one quiz chain to completion.
type SessionRunner interface {
	Run(ctx context.Context, req schemas.QuizRequest) schemas.Outcome
}

// liveSession is a registry entry for a running session.
type liveSession struct {
	id     string
	url    string
	cancel context.CancelFunc
}

// Launcher starts sessions in the background and keeps track of them until they end.
type Launcher struct {
	runner SessionRunner
	logger *zap.Logger
	sem    *semaphore.Weighted

	// baseCtx is the lifetime of the launcher; cancelling it cancels every session.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*liveSession
	closed   bool
	wg       sync.WaitGroup

	outcomes chan schemas.Outcome
	drained  chan struct{}
}

// NewLauncher creates a launcher and starts the goroutine that logs outcomes.
// A MaxSessions of zero means no limit.
func NewLauncher(runner SessionRunner, cfg config.ServerConfig, logger *zap.Logger) *Launcher {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	buffer := cfg.OutcomeBuffer
	if buffer <= 0 {
		buffer = 1
	}
	l := &Launcher{
		runner:     runner,
		logger:     logger.Named("launcher"),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		sessions:   make(map[string]*liveSession),
		outcomes:   make(chan schemas.Outcome, buffer),
		drained:    make(chan struct{}),
	}
	if cfg.MaxSessions > 0 {
		l.sem = semaphore.NewWeighted(int64(cfg.MaxSessions))
	}
	go l.drain()
	return l
}

// Launch starts a session for req and returns its id without waiting for it.
func (l *Launcher) Launch(req schemas.QuizRequest) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return "", ErrShuttingDown
	}
	if l.sem != nil && !l.sem.TryAcquire(1) {
		return "", ErrAtCapacity
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(session.WithSessionID(l.baseCtx, id))
	l.sessions[id] = &liveSession{id: id, url: req.URL, cancel: cancel}
	l.wg.Add(1)

	go l.run(ctx, id, req)
	l.logger.Info("Session launched.", zap.String("session_id", id), zap.String("url", req.URL), zap.Int("running", len(l.sessions)))
	return id, nil
}

func (l *Launcher) run(ctx context.Context, id string, req schemas.QuizRequest) {
	defer l.wg.Done()
	defer l.release(id)

	out := schemas.Outcome{SessionID: id, LastURL: req.URL}
	func() {
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("Session panicked.",
					zap.String("session_id", id),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				out.Reason = schemas.ReasonNavigationFailed
				out.Err = fmt.Errorf("session panicked: %v", r)
			}
		}()
		out = l.runner.Run(ctx, req)
	}()

	// The channel is closed only after every session has returned.
	l.outcomes <- out
}

func (l *Launcher) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.sessions[id]; ok {
		s.cancel()
		delete(l.sessions, id)
	}
	if l.sem != nil {
		l.sem.Release(1)
	}
}

// drain logs outcomes until the channel is closed by Shutdown.
func (l *Launcher) drain() {
	defer close(l.drained)
	for out := range l.outcomes {
		fields := []zap.Field{
			zap.String("session_id", out.SessionID),
			zap.String("reason", string(out.Reason)),
			zap.Int("iterations", out.Iterations),
			zap.String("last_url", out.LastURL),
			zap.Duration("elapsed", out.Elapsed),
		}
		if out.Err != nil {
			fields = append(fields, zap.Error(out.Err))
		}
		l.logger.Info("Session finished.", fields...)
	}
}

// Running reports how many sessions are in flight.
func (l *Launcher) Running() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// cancel stops one session. It reports whether the session was running.
func (l *Launcher) cancel(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[id]
	if ok {
		s.cancel()
	}
	return ok
}

// Shutdown refuses new sessions, cancels the running ones and waits for them to
// return and for their outcomes to be logged.
func (l *Launcher) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	already := l.closed
	l.closed = true
	running := len(l.sessions)
	l.mu.Unlock()
	if !already {
		l.logger.Info("Shutting down launcher.", zap.Int("running", running))
		l.baseCancel()
		go func() {
			l.wg.Wait()
			close(l.outcomes)
		}()
	}

	select {
	case <-l.drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for sessions: %w", ctx.Err())
	}
}
