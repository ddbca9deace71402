// Package http exposes form sessions over a REST-ish API: create a
// session, mutate its state field by field, watch it over SSE, submit it.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	formwork "github.com/formwork-dev/formwork"
	"github.com/formwork-dev/formwork/internal/logging"
	"github.com/formwork-dev/formwork/pkg/domain"
	"github.com/formwork-dev/formwork/pkg/observability"
	"github.com/formwork-dev/formwork/pkg/ports"
	"github.com/formwork-dev/formwork/pkg/schema"
	"github.com/formwork-dev/formwork/pkg/session"
)

// Server binds a session manager to HTTP routes.
type Server struct {
	sessions *session.Manager
	logger   *slog.Logger
	metrics  *observability.Collector
	registry *prometheus.Registry
	submit   ports.SubmitHandler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a collector to every created form and serves the
// registry at /metrics.
func WithMetrics(c *observability.Collector, reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = c
		s.registry = reg
	}
}

// WithSubmitHandler wires a submit handler into every form created over
// HTTP. Without one, submitting a session fails.
func WithSubmitHandler(h ports.SubmitHandler) Option {
	return func(s *Server) { s.submit = h }
}

// NewHandler builds the HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()

	r.Get("/healthz", s.health)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)

		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.deleteSession)
			r.Get("/state", s.getState)
			r.Put("/state", s.setState)
			r.Patch("/fields/{path}", s.setFieldValue)
			r.Put("/fields/{path}/meta", s.setFieldMeta)
			r.Get("/fields/{path}", s.getField)
			r.Get("/errors", s.getErrors)
			r.Get("/status", s.getStatus)
			r.Post("/submit", s.submitSession)
			r.Post("/undo", s.undo)
			r.Post("/redo", s.redo)
			r.Post("/reset", s.reset)
			r.Get("/events", s.subscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// createRequest is the body of POST /sessions. Schema, when present, is
// an inline document (fields list or raw JSON Schema) that becomes the
// form's validator.
type createRequest struct {
	Name         string         `json:"name"`
	InitialState map[string]any `json:"initialState"`
	Schema       map[string]any `json:"schema,omitempty"`
	HistoryLimit int            `json:"historyLimit,omitempty"`
}

type sessionResponse struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	State  any           `json:"state"`
	Errors domain.Errors `json:"errors"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("createSession: invalid request body", "err", err)
		return
	}
	if body.Name == "" {
		http.Error(w, "Missing session name", http.StatusBadRequest)
		return
	}

	opts := []formwork.Option{
		formwork.WithLogger(s.logger),
	}
	if s.metrics != nil {
		opts = append(opts, formwork.WithMetrics(s.metrics))
	}
	if s.submit != nil {
		opts = append(opts, formwork.WithSubmitHandler(s.submit))
	}
	if body.HistoryLimit > 0 {
		opts = append(opts, formwork.WithHistoryLimit(body.HistoryLimit))
	}
	if body.Schema != nil {
		validator, err := decodeValidator(body.Name, body.Schema)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid schema: %v", err), http.StatusBadRequest)
			s.logger.Warn("createSession: invalid schema", "err", err)
			return
		}
		opts = append(opts, formwork.WithValidator(validator))
	}

	var initial any = body.InitialState
	id, form, err := s.sessions.Create(r.Context(), body.Name, initial, opts...)
	if err != nil {
		http.Error(w, fmt.Sprintf("Create error: %v", err), http.StatusInternalServerError)
		s.logger.Error("createSession failed", "err", err)
		return
	}

	writeJSON(w, s.logger, http.StatusCreated, sessionResponse{
		ID:     id,
		Name:   body.Name,
		State:  form.State(),
		Errors: form.Errors(),
	})
}

// decodeValidator turns an inline schema document into a validator.
// The document shape matches the YAML file format accepted by the CLI.
func decodeValidator(name string, raw map[string]any) (ports.Validator, error) {
	doc, err := schema.ParseMap(raw)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = name
	}
	return doc.Validator()
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.sessions.List())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"state":        form.State(),
		"initialState": form.InitialState(),
		"modified":     form.WasModified(),
	})
}

func (s *Server) setState(w http.ResponseWriter, r *http.Request) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	var body struct {
		State any `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := form.SetState(r.Context(), body.State); err != nil {
		http.Error(w, fmt.Sprintf("SetState error: %v", err), http.StatusInternalServerError)
		s.logger.Error("setState failed", "err", err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"state":  form.State(),
		"errors": form.Errors(),
	})
}

func (s *Server) setFieldValue(w http.ResponseWriter, r *http.Request) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	p := chi.URLParam(r, "path")
	var body struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := form.SetFieldValue(r.Context(), p, body.Value); err != nil {
		http.Error(w, fmt.Sprintf("SetFieldValue error: %v", err), http.StatusInternalServerError)
		s.logger.Error("setFieldValue failed", "path", p, "err", err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"value":  form.FieldValue(p),
		"errors": form.Errors().Field(p),
	})
}

func (s *Server) setFieldMeta(w http.ResponseWriter, r *http.Request) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	p := chi.URLParam(r, "path")
	var meta domain.FieldMeta
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := form.SetFieldMeta(r.Context(), p, meta); err != nil {
		http.Error(w, fmt.Sprintf("SetFieldMeta error: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, form.FieldMeta(p))
}

func (s *Server) getField(w http.ResponseWriter, r *http.Request) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	p := chi.URLParam(r, "path")
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"value":  form.FieldValue(p),
		"meta":   form.FieldMeta(p),
		"errors": form.Errors().Field(p),
		"status": form.FieldStatus(p),
	})
}

func (s *Server) getErrors(w http.ResponseWriter, r *http.Request) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, http.StatusOK, form.Errors())
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"form":     form.FormStatus(),
		"fields":   form.FieldStatuses(),
		"modified": form.WasModified(),
		"canUndo":  form.CanUndo(),
		"canRedo":  form.CanRedo(),
	})
}

func (s *Server) submitSession(w http.ResponseWriter, r *http.Request) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	if err := form.Submit(r.Context()); err != nil {
		if errors.Is(err, domain.ErrNoSubmitHandler) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, fmt.Sprintf("Submit error: %v", err), http.StatusInternalServerError)
		s.logger.Error("submit failed", "err", err)
		return
	}
	errs := form.Errors()
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"submitted": errs.IsZero(),
		"errors":    errs,
	})
}

type stepsRequest struct {
	Steps int `json:"steps,omitempty"`
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, "undo")
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, "redo")
}

func (s *Server) move(w http.ResponseWriter, r *http.Request, direction string) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	var body stepsRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	if body.Steps < 1 {
		body.Steps = 1
	}

	var err error
	if direction == "undo" {
		err = form.Undo(r.Context(), body.Steps)
	} else {
		err = form.Redo(r.Context(), body.Steps)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("History error: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"state":   form.State(),
		"canUndo": form.CanUndo(),
		"canRedo": form.CanRedo(),
	})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	if err := form.Reset(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("Reset error: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{"state": form.State()})
}

// subscribeEvents streams state snapshots over SSE until the client
// disconnects. A receiver that falls behind misses intermediate states
// but always converges on the latest one.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	form, ok := s.form(w, r)
	if !ok {
		return
	}
	flusher, flushable := w.(http.Flusher)
	if !flushable {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	updates, err := form.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case state, open := <-updates:
			if !open {
				return
			}
			payload, err := json.Marshal(state)
			if err != nil {
				s.logger.Warn("SSE: state encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) form(w http.ResponseWriter, r *http.Request) (*formwork.Form, bool) {
	form, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return nil, false
	}
	return form, true
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	http.Error(w, fmt.Sprintf("Session error: %v", err), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
