// File: internal/session/session.go
// Package session runs the navigate, answer and submit loop for one quiz chain.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/action"
	"github.com/xkilldash9x/quizwalk/internal/answer"
	"github.com/xkilldash9x/quizwalk/internal/artifact"
	"github.com/xkilldash9x/quizwalk/internal/config"
	"github.com/xkilldash9x/quizwalk/internal/directive"
)

// Fetcher downloads artifacts.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, timeout time.Duration) (*artifact.File, error)
}

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, name string, data []byte) (string, error)
}

// Submitter posts answers.
type Submitter interface {
	Submit(ctx context.Context, submitURL string, p schemas.SubmissionPayload) (schemas.SubmissionResult, error)
}

// ActionResolver decides what a page asks for.
type ActionResolver interface {
	Resolve(ctx context.Context, snap schemas.PageSnapshot) action.Spec
}

// AnswerComputer produces the value to submit.
type AnswerComputer interface {
	Compute(ctx context.Context, in answer.Input) schemas.Answer
}

// Dependencies are the collaborators of a Runner. Transcriber may be nil.
type Dependencies struct {
	Renderers   schemas.RendererFactory
	Fetcher     Fetcher
	Transcriber Transcriber
	Resolver    ActionResolver
	Computer    AnswerComputer
	Submitter   Submitter
}

// Session is the state owned by one running loop.
type Session struct {
	ID         string
	InitialURL string
	Email      string
	Secret     string
	Deadline   time.Time
	Visited    map[string]struct{}
	CurrentURL string
}

func (s *Session) remaining(now time.Time) time.Duration {
	return s.Deadline.Sub(now)
}

type sessionIDKey struct{}

// WithSessionID makes Run use id for the session it starts with ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

func sessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Runner executes sessions. It holds no per-session state and may run many sessions at once.
type Runner struct {
	deps    Dependencies
	session config.SessionConfig
	browser config.BrowserConfig
	network config.NetworkConfig
	answer  config.AnswerConfig
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a runner.
func New(deps Dependencies, cfg config.Interface, logger *zap.Logger) (*Runner, error) {
	if deps.Renderers == nil || deps.Fetcher == nil || deps.Resolver == nil || deps.Computer == nil || deps.Submitter == nil {
		return nil, fmt.Errorf("cannot initialize session runner with nil dependencies")
	}
	if cfg == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize session runner without config and logger")
	}
	return &Runner{
		deps:    deps,
		session: cfg.Session(),
		browser: cfg.Browser(),
		network: cfg.Network(),
		answer:  cfg.Answer(),
		logger:  logger.Named("session"),
		now:     time.Now,
	}, nil
}

// Run walks the chain starting at req.URL until it ends. The outcome is also logged.
func (r *Runner) Run(ctx context.Context, req schemas.QuizRequest) (out schemas.Outcome) {
	start := r.now()
	s := &Session{
		ID:         sessionID(ctx),
		InitialURL: req.URL,
		Email:      req.Email,
		Secret:     req.Secret,
		Deadline:   start.Add(r.session.TimeBudget),
		Visited:    make(map[string]struct{}),
		CurrentURL: req.URL,
	}
	log := r.logger.With(zap.String("session_id", s.ID))
	out = schemas.Outcome{SessionID: s.ID, LastURL: s.CurrentURL}

	defer func() {
		out.Elapsed = r.now().Sub(start)
		fields := []zap.Field{
			zap.String("reason", string(out.Reason)),
			zap.Int("iterations", out.Iterations),
			zap.String("last_url", out.LastURL),
			zap.Duration("remaining", s.remaining(r.now())),
		}
		if out.Err != nil {
			fields = append(fields, zap.Error(out.Err))
		}
		switch out.Reason {
		case schemas.ReasonCompleted, schemas.ReasonCycleDetected, schemas.ReasonTimeExhausted, schemas.ReasonCanceled:
			log.Info("Session terminated.", fields...)
		default:
			log.Error("Session terminated.", fields...)
		}
	}()

	log.Info("Session started.", zap.String("url", s.InitialURL), zap.Duration("budget", r.session.TimeBudget))
	if s.remaining(start) <= r.session.StartFloor {
		out.Reason = schemas.ReasonTimeExhausted
		return out
	}

	renderer, err := r.deps.Renderers.NewRenderer(ctx)
	if err != nil {
		out.Reason, out.Err = schemas.ReasonRendererUnavailable, err
		return out
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Warn("Failed to close renderer.", zap.Error(err))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			out.Reason, out.Err = schemas.ReasonCanceled, err
			return out
		}
		if left := s.remaining(r.now()); left <= r.session.IterationFloor {
			out.Reason = schemas.ReasonTimeExhausted
			return out
		}
		if _, seen := s.Visited[s.CurrentURL]; seen {
			log.Warn("URL already visited; stopping.", zap.String("url", s.CurrentURL))
			out.Reason = schemas.ReasonCycleDetected
			return out
		}
		s.Visited[s.CurrentURL] = struct{}{}
		out.Iterations++
		out.LastURL = s.CurrentURL

		next, reason, err := r.iterate(ctx, log, s, renderer)
		if reason != "" {
			if ctx.Err() != nil {
				reason, err = schemas.ReasonCanceled, ctx.Err()
			}
			out.Reason, out.Err = reason, err
			return out
		}
		if next == "" {
			out.Reason = schemas.ReasonCompleted
			return out
		}
		log.Info("Following next URL.", zap.String("next_url", next))
		s.CurrentURL = next
	}
}

// iterate handles one page. A non-empty reason ends the session.
func (r *Runner) iterate(ctx context.Context, log *zap.Logger, s *Session, renderer schemas.Renderer) (string, schemas.TerminationReason, error) {
	log = log.With(zap.String("url", s.CurrentURL))
	log.Info("Loading page.", zap.Duration("remaining", s.remaining(r.now())))

	snap, err := r.load(ctx, log, renderer, s.CurrentURL)
	if err != nil {
		return "", schemas.ReasonNavigationFailed, err
	}

	directives := directive.DetectSnapshot(snap)
	if directives.SubmitURL == "" {
		return "", schemas.ReasonSubmitURLNotFound, nil
	}
	log.Info("Directives detected.",
		zap.String("submit_url", directives.SubmitURL),
		zap.String("file_url", directives.FileURL),
		zap.String("scrape_url", directives.ScrapeURL),
		zap.String("audio_url", directives.AudioURL),
	)

	in := answer.Input{PageText: snap.BodyText}
	if directives.FileURL != "" {
		in.File = r.fetch(ctx, log, directives.FileURL, r.network.DownloadTimeout)
	}
	if directives.ScrapeURL != "" {
		in.SecretCode = r.scrape(ctx, log, renderer, directives.ScrapeURL)
	}
	if directives.AudioURL != "" {
		in.Transcript = r.transcribe(ctx, log, directives, in.File)
	}

	in.Spec = r.deps.Resolver.Resolve(ctx, snap)
	ans := r.deps.Computer.Compute(ctx, in)
	log.Info("Answer computed.", zap.String("action", in.Spec.String()), zap.Stringer("kind", ans.Kind))

	res, err := r.deps.Submitter.Submit(ctx, directives.SubmitURL, schemas.SubmissionPayload{
		Email:  s.Email,
		Secret: s.Secret,
		URL:    s.CurrentURL,
		Answer: ans,
	})
	if err != nil {
		return "", schemas.ReasonSubmissionFailed, err
	}
	return res.NextURL, "", nil
}

// load navigates and reads the page. Only a timeout earns a retry with the load event.
func (r *Runner) load(ctx context.Context, log *zap.Logger, renderer schemas.Renderer, url string) (schemas.PageSnapshot, error) {
	err := renderer.Navigate(ctx, url, schemas.WaitNetworkIdle, r.browser.IdleTimeout)
	if errors.Is(err, schemas.ErrNavigationTimeout) {
		log.Warn("Network idle wait timed out; retrying with load event.", zap.Error(err))
		err = renderer.Navigate(ctx, url, schemas.WaitLoad, r.browser.LoadTimeout)
	}
	if err != nil {
		return schemas.PageSnapshot{}, fmt.Errorf("load %s: %w", url, err)
	}
	_ = renderer.Wait(ctx, r.session.SettleWait)

	snap := schemas.PageSnapshot{URL: url}
	if snap.BodyText, err = renderer.BodyText(ctx); err != nil {
		log.Debug("Could not read body text.", zap.Error(err))
	}
	if snap.PreformattedText, err = renderer.PreformattedText(ctx); err != nil {
		log.Debug("Could not read preformatted text.", zap.Error(err))
	}
	log.Debug("Page read.", zap.String("snippet", snippet(snap.BodyText, 300)))
	return snap, nil
}

func (r *Runner) fetch(ctx context.Context, log *zap.Logger, url string, timeout time.Duration) *artifact.File {
	f, err := r.deps.Fetcher.Fetch(ctx, url, timeout)
	if err != nil {
		log.Warn("Artifact fetch failed; continuing without it.", zap.String("artifact_url", url), zap.Error(err))
		return nil
	}
	log.Info("Artifact downloaded.", zap.String("artifact_url", url), zap.String("ext", f.Ext), zap.Int("bytes", len(f.Data)))
	return f
}

func (r *Runner) transcribe(ctx context.Context, log *zap.Logger, d schemas.DirectiveSet, file *artifact.File) string {
	if r.deps.Transcriber == nil {
		log.Info("Audio directive ignored; no transcriber configured.", zap.String("audio_url", d.AudioURL))
		return ""
	}

	var audio *artifact.File
	if d.AudioURL == d.FileURL && file != nil {
		audio = file
	} else {
		audio = r.fetch(ctx, log, d.AudioURL, r.network.AudioTimeout)
	}
	if audio == nil {
		return ""
	}

	text, err := r.deps.Transcriber.Transcribe(ctx, d.AudioURL, audio.Data)
	if err != nil {
		log.Warn("Transcription failed; continuing without it.", zap.String("audio_url", d.AudioURL), zap.Error(err))
		return ""
	}
	return text
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	out := make([]rune, len(r))
	for i, c := range r {
		if c == '\n' {
			c = ' '
		}
		out[i] = c
	}
	return string(out)
}
