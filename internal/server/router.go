// Package server exposes the extraction and quiz services over HTTP.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/core"
	"github.com/joseph-ayodele/quizgen/internal/core/async"
	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/export"
	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/services/ingest"
)

// Processor is the part of *core.Processor the handlers use.
type Processor interface {
	ProcessUpload(ctx context.Context, filename string, r io.Reader) (*core.Outcome, error)
	GenerateQuiz(ctx context.Context, text string, n int, filename string) ([]llm.Question, error)
	Job(ctx context.Context, id uuid.UUID) (*entity.ExtractJob, error)
	RecentJobs(ctx context.Context, limit int) ([]*entity.ExtractJob, error)
}

// Ingester is satisfied by *ingest.Service.
type Ingester interface {
	IngestPath(ctx context.Context, req ingest.PathRequest) (*ingest.Result, error)
}

// QueueStats is satisfied by *async.ProcessorQueue.
type QueueStats interface {
	Stats() async.Stats
}

type Config struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

type Server struct {
	proc   Processor
	export *export.Service
	db     HealthChecker
	ingest Ingester
	queue  QueueStats
	cfg    Config
	logger *slog.Logger
}

type Option func(*Server)

// WithQueueStats reports background queue counters on /healthz.
func WithQueueStats(q QueueStats) Option {
	return func(s *Server) { s.queue = q }
}

// WithIngester mounts POST /api/ingest.
func WithIngester(i Ingester) Option {
	return func(s *Server) { s.ingest = i }
}

// New builds the HTTP server. db may be nil, in which case /healthz only
// reports liveness.
func New(proc Processor, exp *export.Service, db HealthChecker, cfg Config, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if exp == nil {
		exp = export.NewService(logger)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	s := &Server{proc: proc, export: exp, db: db, cfg: cfg, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the chi router with middleware and routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: !allowsAll(s.cfg.AllowedOrigins),
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/generate-quiz", s.handleGenerateQuiz)
		r.Post("/quiz/export", s.handleExportQuiz)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		if s.ingest != nil {
			r.Post("/ingest", s.handleIngest)
		}
	})
	return r
}

func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(common.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(ww, r)
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz Generator API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := PingDB(r.Context(), s.db, s.logger, 2*time.Second); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	body := map[string]any{"status": "ok"}
	if s.queue != nil {
		body["queue"] = s.queue.Stats()
	}
	writeJSON(w, http.StatusOK, body)
}
