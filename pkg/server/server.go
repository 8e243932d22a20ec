package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/security"
	"github.com/jdziat/simple-asset-sync/pkg/storage"
	"github.com/jdziat/simple-asset-sync/pkg/trigger"
)

// PushSecretHeader carries the shared push secret.
const PushSecretHeader = "X-Push-Secret"

const maxPushBody = 64 << 10

// Queue is the read side of the job queue.
type Queue interface {
	Len() int
	IsRunning() bool
	Current() *core.Job
}

// RunSource reports the most recent run of this process.
type RunSource interface {
	LastRun() *core.SyncRun
}

// RunLister reads the persisted run history.
type RunLister interface {
	ListRuns(ctx context.Context, filter storage.RunFilter) ([]*core.SyncRun, error)
}

// Option configures a Server.
type Option interface {
	applyServer(*Server)
}

type optionFunc func(*Server)

func (f optionFunc) applyServer(s *Server) { f(s) }

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(s *Server) {
		if l != nil {
			s.logger = l
		}
	})
}

// WithPush mounts the push webhook. Channel IDs are checked against the
// current settings.
func WithPush(source *trigger.PushSource, settings core.SettingsProvider) Option {
	return optionFunc(func(s *Server) {
		s.push = source
		s.settings = settings
	})
}

// WithPushSecret requires PushSecretHeader to match secret on push requests.
func WithPushSecret(secret string) Option {
	return optionFunc(func(s *Server) {
		s.pushSecret = secret
	})
}

// WithRunHistory mounts GET /runs.
func WithRunHistory(runs RunLister) Option {
	return optionFunc(func(s *Server) {
		s.history = runs
	})
}

// WithMetrics mounts handler at GET /metrics.
func WithMetrics(handler http.Handler) Option {
	return optionFunc(func(s *Server) {
		s.metrics = handler
	})
}

// WithMiddlewares adds middleware ahead of every route.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return optionFunc(func(s *Server) {
		s.middlewares = append(s.middlewares, mw...)
	})
}

// Server is the connector HTTP surface.
type Server struct {
	queue       Queue
	runs        RunSource
	push        *trigger.PushSource
	settings    core.SettingsProvider
	pushSecret  string
	history     RunLister
	metrics     http.Handler
	middlewares []func(http.Handler) http.Handler
	logger      *slog.Logger

	router *chi.Mux
}

// New builds the router.
func New(queue Queue, runs RunSource, opts ...Option) *Server {
	s := &Server{
		queue:  queue,
		runs:   runs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt.applyServer(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	for _, mw := range s.middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", s.health)
	r.Get("/status", s.status)
	if s.push != nil {
		r.Post("/push", s.handlePush)
	}
	if s.history != nil {
		r.Get("/runs", s.listRuns)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// logRequests logs each request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// JobInfo describes a queued or running job.
type JobInfo struct {
	ID        string    `json:"id"`
	Origin    string    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Waiting int           `json:"waiting"`
	Running bool          `json:"running"`
	Current *JobInfo      `json:"current,omitempty"`
	LastRun *core.SyncRun `json:"last_run,omitempty"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Waiting: s.queue.Len(),
		Running: s.queue.IsRunning(),
	}
	if job := s.queue.Current(); job != nil {
		resp.Current = &JobInfo{ID: job.ID, Origin: job.Origin.String(), CreatedAt: job.CreatedAt}
	}
	if s.runs != nil {
		resp.LastRun = s.runs.LastRun()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// PushRequest is the body of POST /push.
type PushRequest struct {
	ChannelID string `json:"channel_id"`
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if s.pushSecret != "" {
		got := r.Header.Get(PushSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.pushSecret)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "invalid push secret")
			return
		}
	}

	var req PushRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPushBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid push payload")
		return
	}

	if s.settings != nil {
		settings, err := s.settings.Settings(r.Context())
		if err == nil {
			err = security.ValidateSettingsForPush(settings)
		}
		if err != nil {
			s.logger.Warn("push rejected: connector not configured for push", "error", err)
			s.writeError(w, http.StatusServiceUnavailable, "push not configured")
			return
		}
		if req.ChannelID != settings.ChannelID {
			s.writeError(w, http.StatusNotFound, "unknown channel")
			return
		}
	}

	if !s.push.Publish(trigger.PushEvent{ChannelID: req.ChannelID, ReceivedAt: time.Now()}) {
		s.writeError(w, http.StatusNotFound, "unknown channel")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.RunFilter{
		Status: core.RunStatus(q.Get("status")),
		Origin: q.Get("origin"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = min(n, security.MaxRunListLimit)
	}

	runs, err := s.history.ListRuns(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*core.SyncRun{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, ErrorResponse{Error: msg})
}
