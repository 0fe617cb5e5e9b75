// Package httpapi exposes the tutoring pipeline over HTTP: JSON endpoints
// for running sessions and grading answers, an SSE stream for step
// progress, and the usual health and metrics plumbing.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/session"
)

// Tutor is the slice of the engine the HTTP layer needs.
type Tutor interface {
	NewSession(topic string, profile domain.StudentProfile) (*domain.SessionState, error)
	RunSession(ctx context.Context, state *domain.SessionState) error
	Assess(ctx context.Context, topic, question, response string, plan *domain.AssessmentPlan) domain.Assessment
}

// Server wires the tutor, the session manager and the event streams into an
// http.Handler.
type Server struct {
	tutor    Tutor
	sessions *session.Manager
	streams  *StreamManager
	logger   *slog.Logger

	// metrics is mounted at /metrics when set.
	metrics http.Handler
}

type ServerOption func(*Server)

// WithMetricsHandler mounts a metrics endpoint, typically promhttp.Handler().
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

func NewServer(tutor Tutor, sessions *session.Manager, streams *StreamManager, opts ...ServerOption) *Server {
	s := &Server{
		tutor:    tutor,
		sessions: sessions,
		streams:  streams,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Post("/teach", s.handleTeach)
	r.Post("/assess", s.handleAssess)
	r.Get("/sessions", s.handleListSessions)
	r.Get("/sessions/{id}", s.handleGetSession)
	r.Delete("/sessions/{id}", s.handleDeleteSession)
	r.Get("/events", s.handleEvents)
	r.Get("/subjects", s.handleSubjects)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type teachRequest struct {
	Topic   string                `json:"topic"`
	Profile domain.StudentProfile `json:"student_profile"`
	// Async returns immediately with the session ID; progress is available
	// on /events and the final state on /sessions/{id}.
	Async bool `json:"async,omitempty"`
}

func (s *Server) handleTeach(w http.ResponseWriter, r *http.Request) {
	var req teachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	state, err := s.tutor.NewSession(req.Topic, req.Profile)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	if req.Async {
		// The session outlives this request on purpose.
		go s.runAndRecord(context.WithoutCancel(r.Context()), state)
		s.writeJSON(w, http.StatusAccepted, map[string]string{"session_id": state.SessionID})
		return
	}

	// Degraded sessions still complete and return 200; only a fatal abort
	// is an error to the caller.
	if err := s.runAndRecord(r.Context(), state); errors.Is(err, domain.ErrFatalAbort) {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// runAndRecord executes the session, persists whatever terminal state it
// reached, aborted and cancelled sessions included, and returns the run
// error.
func (s *Server) runAndRecord(ctx context.Context, state *domain.SessionState) error {
	runErr := s.tutor.RunSession(ctx, state)
	if runErr != nil {
		s.logger.Warn("session did not complete", "session_id", state.SessionID, "status", state.Status, "err", runErr)
	}
	if err := s.sessions.Record(context.WithoutCancel(ctx), state); err != nil {
		s.logger.Error("session persist failed", "session_id", state.SessionID, "err", err)
	}
	return runErr
}

type assessRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Topic     string `json:"topic,omitempty"`
	Question  string `json:"question,omitempty"`
	Response  string `json:"response"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Response == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("response must not be empty"))
		return
	}

	topic := req.Topic
	var plan *domain.AssessmentPlan
	if req.SessionID != "" {
		state, err := s.sessions.Load(r.Context(), req.SessionID)
		if err != nil {
			s.writeError(w, statusFor(err), err)
			return
		}
		topic = state.Topic
		plan = state.AssessmentPlan
	}
	if topic == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("either topic or session_id is required"))
		return
	}

	s.writeJSON(w, http.StatusOK, s.tutor.Assess(r.Context(), topic, req.Question, req.Response, plan))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"subjects": domain.Subjects()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("session_id query parameter is required"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Status: status})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFatalAbort):
		return http.StatusBadGateway
	case errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
