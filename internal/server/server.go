// Package server exposes the tutor over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abhisek/verba/internal/auth"
	"github.com/abhisek/verba/internal/lessons"
	"github.com/abhisek/verba/internal/logger"
	"github.com/abhisek/verba/internal/metrics"
	"github.com/abhisek/verba/internal/onboarding"
	"github.com/abhisek/verba/internal/realtime"
	"github.com/abhisek/verba/internal/store"
)

// Config holds HTTP settings.
type Config struct {
	Addr        string
	Mode        string
	CORSOrigins []string
	ServiceName string
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Auth       *auth.Authenticator
	Users      store.UserRepo
	Onboarding *onboarding.Service
	Lessons    *lessons.Service
	Bus        realtime.Bus
	Store      *store.Store // for readiness; may be nil

	Log      *logger.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // for /metrics; may be nil
}

// Server wraps the gin engine and its http.Server.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	log    *logger.Logger
}

func New(cfg Config, deps Deps) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "server")
	if cfg.ServiceName == "" {
		cfg.ServiceName = "verba"
	}

	r := gin.New()
	r.Use(Recovery(log))
	r.Use(RequestID())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(CORS(cfg.CORSOrigins))
	r.Use(Metrics(deps.Metrics))
	r.Use(RequestLogger(log))

	h := &handlers{deps: deps, log: log}

	r.GET("/healthz", h.healthz)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(RequireAuth(deps.Auth, log))
	{
		api.GET("/me", h.me)
		api.POST("/onboarding/chat", h.onboardingChat)
		api.POST("/goal", h.changeGoal)
		api.POST("/lesson/start", h.lessonStart)
		api.GET("/conversation", h.conversation)
		api.GET("/events", h.events)
	}

	return &Server{
		engine: r,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.log.Info("listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
