package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"studycompanion"
)

type Server struct {
	cfg       *studycompanion.Config
	companion *studycompanion.StudyCompanion
	sessions  *studycompanion.SessionRegistry
	store     studycompanion.Store
	cookies   *sessionCookies
	limiter   *rateLimiter
	metrics   *httpMetrics
	gatherer  prometheus.Gatherer
	now       func() time.Time

	// streams is cancelled by closeStreams when the server shuts down.
	streams      context.Context
	closeStreams context.CancelFunc
}

func newServer(cfg *studycompanion.Config, companion *studycompanion.StudyCompanion, store studycompanion.Store, reg *prometheus.Registry) *Server {
	streams, closeStreams := context.WithCancel(context.Background())
	return &Server{
		cfg:       cfg,
		companion: companion,
		sessions:  studycompanion.NewSessionRegistry(store),
		store:     store,
		cookies:   newSessionCookies(cfg.Session, cfg.Server.Mode == "release"),
		limiter:   newRateLimiter(cfg.RateLimit),
		metrics:   newHTTPMetrics(reg),
		gatherer:  reg,
		now:       time.Now,

		streams:      streams,
		closeStreams: closeStreams,
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	r.Use(s.metrics.middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.middleware)
			r.Post("/generate-study-plan", s.handleGenerateStudyPlan)
			r.Post("/generate-notes", s.handleGenerateNotes)
			r.Post("/generate-explanation", s.handleGenerateExplanation)
			r.Post("/generate-quiz", s.handleGenerateQuiz)
		})

		r.Get("/study-plan", s.handleGetStudyPlan)
		r.Put("/study-plan", s.handlePutStudyPlan)
		r.Post("/study-plan/topics/{index}/toggle", s.handleToggleTopic)

		r.Get("/progress", s.handleProgress)
		r.Get("/countdown", s.handleCountdown)
		r.Get("/countdown/stream", s.handleCountdownStream)

		r.Get("/quiz-results", s.handleListQuizResults)
		r.Post("/quiz-results", s.handleAppendQuizResult)
		r.Post("/quiz-results/grade", s.handleGradeQuiz)
		r.Get("/notes", s.handleListNotes)
		r.Post("/notes", s.handleAppendNote)
		r.Get("/explanations", s.handleListExplanations)
		r.Post("/explanations", s.handleAppendExplanation)

		r.Get("/dashboard", s.handleDashboard)
	})

	return r
}

// session resolves the caller's session, issuing a cookie on first contact.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *studycompanion.Session {
	return s.sessions.Get(r.Context(), s.cookies.sessionID(w, r))
}

// housekeeping drops idle sessions and rate limiter entries.
func (s *Server) housekeeping(idle time.Duration) {
	pruned := s.sessions.Prune(idle)
	s.limiter.cleanup(idle)
	if pruned > 0 {
		studycompanion.Logger().Debug("Pruned idle sessions", zap.Int("count", pruned))
	}
}
