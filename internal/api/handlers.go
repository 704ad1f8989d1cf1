// File: internal/api/handlers.go
// Package api is the HTTP front end that accepts quiz requests.
package api

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/api/schemas"
)

// maxRequestBytes bounds the size of a quiz request body.
const maxRequestBytes = 64 << 10

// Launch starts a background session.
type Launch interface {
	Launch(req schemas.QuizRequest) (string, error)
}

// Handlers holds the dependencies of the HTTP handlers.
type Handlers struct {
	launcher Launch
	secret   string
	log      *zap.Logger
}

// NewHandlers creates the handler set. Requests must carry secret to be accepted.
func NewHandlers(launcher Launch, secret string, logger *zap.Logger) *Handlers {
	return &Handlers{
		launcher: launcher,
		secret:   secret,
		log:      logger.Named("api_handlers"),
	}
}

// RegisterRoutes mounts the handlers on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Post("/api/quiz", h.HandleQuiz)
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleQuiz validates a quiz request and launches a session for it.
func (h *Handlers) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	var req schemas.QuizRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.URL = strings.TrimSpace(req.URL)
	if missing := missingFields(req); len(missing) > 0 {
		h.respondWithError(w, http.StatusBadRequest, "missing fields: "+strings.Join(missing, ", "))
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
		h.log.Warn("Rejected quiz request with bad secret.", zap.String("remote", r.RemoteAddr), zap.String("email", req.Email))
		h.respondWithError(w, http.StatusForbidden, "invalid secret")
		return
	}

	id, err := h.launcher.Launch(req)
	switch {
	case errors.Is(err, ErrAtCapacity):
		h.respondWithError(w, http.StatusServiceUnavailable, "too many sessions running, try again later")
		return
	case errors.Is(err, ErrShuttingDown):
		h.respondWithError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	case err != nil:
		h.log.Error("Failed to launch session.", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "could not start session")
		return
	}

	h.log.Debug("Quiz request accepted.", zap.String("session_id", id), zap.String("url", req.URL))
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func missingFields(req schemas.QuizRequest) []string {
	var missing []string
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Secret == "" {
		missing = append(missing, "secret")
	}
	if req.URL == "" {
		missing = append(missing, "url")
	}
	return missing
}

// respondWithError sends a JSON error body.
func (h *Handlers) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

func (h *Handlers) respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
