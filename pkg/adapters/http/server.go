package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/aretw0/automaton/internal/logging"
	"github.com/aretw0/automaton/pkg/definition"
	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/aretw0/automaton/pkg/observability"
	"github.com/aretw0/automaton/pkg/ports"
	"github.com/aretw0/automaton/pkg/runner"
	"github.com/aretw0/automaton/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes sessions of one automaton definition over HTTP.
type Server struct {
	sessions   *session.Manager
	definition atomic.Pointer[definition.Definition]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts GET /metrics for the given collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger configures the request error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server that starts new sessions from def.
func NewServer(sessions *session.Manager, def *definition.Definition, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	s.definition.Store(def)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDefinition swaps the definition used by new sessions. Running sessions
// keep the graph they were started with.
func (s *Server) SetDefinition(def *definition.Definition) {
	s.definition.Store(def)
}

// Definition returns the active definition.
func (s *Server) Definition() *definition.Definition {
	return s.definition.Load()
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/graph", s.graph)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/events", s.fireEvent)
		})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// NewHandler is a shortcut for NewServer(...).Handler().
func NewHandler(sessions *session.Manager, def *definition.Definition, opts ...Option) http.Handler {
	return NewServer(sessions, def, opts...).Handler()
}

// GraphResponse describes the active definition.
type GraphResponse struct {
	Name    string     `json:"name,omitempty"`
	Initial string     `json:"initial"`
	States  []string   `json:"states"`
	Edges   []fsm.Edge `json:"edges"`
}

// SessionResponse describes one session.
type SessionResponse struct {
	ID      string   `json:"id"`
	State   string   `json:"state"`
	Accepts []string `json:"accepts"`
}

// FireResponse is the body of POST /sessions/{id}/events. Error is set when
// the transition was committed but its action handler failed.
type FireResponse struct {
	session.Result
	Error string `json:"error,omitempty"`
}

type createRequest struct {
	ID string `json:"id"`
}

type eventRequest struct {
	Event string `json:"event"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	def := s.Definition()
	a, err := def.Build()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, GraphResponse{
		Name:    def.Name,
		Initial: def.Initial,
		States:  a.States(),
		Edges:   a.Edges(),
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.logger.Warn("Create session: invalid request body", "err", err)
			s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
			return
		}
	}

	a, err := s.Definition().Build()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	id, err := s.sessions.Start(r.Context(), body.ID, a)
	if err != nil {
		if errors.Is(err, session.ErrSessionExists) {
			s.writeError(w, http.StatusConflict, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondSession(w, r, http.StatusCreated, id)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.respondSession(w, r, http.StatusOK, chi.URLParam(r, "id"))
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, status int, id string) {
	a, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	resp := SessionResponse{ID: id, Accepts: []string{}}
	if current := a.CurrentState(); current != nil {
		resp.State = current.Name()
		resp.Accepts = current.Events()
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fireEvent(w http.ResponseWriter, r *http.Request) {
	var body eventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("Fire: invalid request body", "err", err)
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	event, err := runner.SanitizeEvent(body.Event)
	if err != nil {
		s.logger.Warn("Fire: event rejected", "err", err, "size", len(body.Event))
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if event == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("event is required"))
		return
	}

	res, err := s.sessions.Fire(r.Context(), chi.URLParam(r, "id"), event)
	switch {
	case errors.Is(err, session.ErrActionFailed):
		// The transition is committed; report the new state with the error.
		s.logger.Warn("Fire: action failed", "session_id", res.SessionID, "err", err)
		s.writeJSON(w, http.StatusOK, FireResponse{Result: res, Error: err.Error()})
	case err != nil:
		s.writeSessionError(w, err)
	default:
		s.writeJSON(w, http.StatusOK, FireResponse{Result: res})
	}
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, fsm.ErrIllegalEvent):
		s.writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.logger.Error("Session request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
