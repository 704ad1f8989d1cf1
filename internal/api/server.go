// File: internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/internal/config"
)

// NewRouter builds the chi router serving h.
func NewRouter(h *Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

// requestLogger logs each request once it has been served.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("Request served.",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.String("remote", r.RemoteAddr),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// Server is the HTTP front end plus the launcher behind it.
type Server struct {
	cfg        config.ServerConfig
	logger     *zap.Logger
	launcher   *Launcher
	httpServer *http.Server
}

// NewServer wires the launcher into a router. runner executes the launched sessions.
func NewServer(runner SessionRunner, cfg config.ServerConfig, logger *zap.Logger) *Server {
	logger = logger.Named("api")
	launcher := NewLauncher(runner, cfg, logger)
	handlers := NewHandlers(launcher, cfg.Secret, logger)
	if cfg.Secret == "" {
		logger.Warn("No server secret configured; every quiz request will be rejected.")
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		launcher: launcher,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(handlers, logger),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}
}

// Launcher returns the session launcher.
func (s *Server) Launcher() *Launcher { return s.launcher }

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Serve accepts connections on ln until ctx is cancelled, then shuts down the
// listener and the running sessions.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Quiz front end listening.", zap.String("address", ln.Addr().String()))
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = s.launcher.Shutdown(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down quiz front end...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.launcher.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("launcher shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return 20 * time.Second
}
