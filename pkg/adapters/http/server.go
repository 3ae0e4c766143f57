// Package http exposes pipelines over HTTP. Each request becomes one unit
// of work with a ResponseTarget build target; the chain's stages fill the
// response in and the handler flushes it.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/cascadehq/cascade"
	"github.com/cascadehq/cascade/internal/logging"
	"github.com/cascadehq/cascade/pkg/domain"
	"github.com/cascadehq/cascade/pkg/pipeline"
	"github.com/cascadehq/cascade/pkg/ports"
	"github.com/cascadehq/cascade/pkg/suspend"
)

// RequestKey is the context key under which the incoming *http.Request is
// seeded for stages.
const RequestKey = "http.request"

// InputKey is the context key holding the decoded JSON request body.
const InputKey = "input"

// Server routes pipeline runs and resume callbacks.
type Server struct {
	engine    *cascade.Engine
	pipelines *pipeline.File
	broker    *suspend.Broker
	sink      ports.ErrorSink
	logger    *slog.Logger
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithErrorSink replaces the default log-based sink for failures that occur
// after the outcome can no longer carry them.
func WithErrorSink(sink ports.ErrorSink) ServerOption {
	return func(s *Server) {
		s.sink = sink
	}
}

// WithLogger configures the handler's logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler builds the HTTP handler. A run request blocks until its
// execution is terminal; suspended executions hold the request open until a
// resume callback (usually on another connection) settles them.
func NewHandler(engine *cascade.Engine, pipelines *pipeline.File, broker *suspend.Broker, opts ...ServerOption) http.Handler {
	s := &Server{
		engine:    engine,
		pipelines: pipelines,
		broker:    broker,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink == nil {
		s.sink = &logSink{logger: s.logger}
	}

	r := chi.NewRouter()
	r.Post("/v1/run/{pipeline}", s.runPipeline)
	r.Post("/v1/resume/{token}", s.resume)
	r.Post("/v1/fail/{token}", s.fail)
	r.Get("/healthz", s.health)
	return r
}

func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "pipeline")
	def, err := s.pipelines.Get(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	input, err := decodeInput(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	seed := []domain.Entry{domain.E(RequestKey, r)}
	if input != nil {
		seed = append(seed, domain.E(InputKey, input))
	}
	initial := domain.NewContext(seed...)

	outcome, err := s.engine.Run(r.Context(), def.Chain(), initial, Factory{})
	if err != nil {
		// The client went away while the execution was still in flight.
		s.logger.Warn("run abandoned", "pipeline", name, "err", err)
		http.Error(w, "Request canceled", http.StatusGatewayTimeout)
		return
	}

	switch outcome.Status {
	case domain.StatusCompleted:
		s.writeResult(r.Context(), w, outcome.Result)
	case domain.StatusRejected:
		http.Error(w, "No stage produced a response", http.StatusNotFound)
	default:
		s.sink.ReportUnrecoverable(r.Context(), outcome.Err)
		http.Error(w, "Pipeline failed", http.StatusInternalServerError)
	}
}

func (s *Server) writeResult(ctx context.Context, w http.ResponseWriter, result any) {
	if target, ok := result.(*ResponseTarget); ok {
		target.WriteTo(w)
		return
	}

	// A terminating stage handed back a plain value.
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.sink.ReportUnrecoverable(ctx, err)
	}
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	input, err := decodeInput(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entries := make([]domain.Entry, 0, len(input))
	for key, value := range input {
		entries = append(entries, domain.E(key, value))
	}

	if err := s.broker.Resume(r.Context(), token, entries...); err != nil {
		if errors.Is(err, domain.ErrSuspensionNotFound) {
			http.Error(w, "Unknown or already answered token", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Reason == "" {
		body.Reason = "failed by caller"
	}

	if err := s.broker.Fail(r.Context(), token, errors.New(body.Reason)); err != nil {
		if errors.Is(err, domain.ErrSuspensionNotFound) {
			http.Error(w, "Unknown or already answered token", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint:errcheck
}

// decodeInput parses an optional JSON object body. An empty body is fine.
func decodeInput(body io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return input, nil
}

// logSink reports unrecoverable errors through the structured logger.
type logSink struct {
	logger *slog.Logger
}

func (s *logSink) ReportUnrecoverable(_ context.Context, err error) {
	s.logger.Error("unrecoverable transport failure", "err", err)
}
