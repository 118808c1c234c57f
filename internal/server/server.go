package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/crewhub/internal/api/v1"
	"github.com/gosuda/crewhub/internal/api/ws"
	"github.com/gosuda/crewhub/internal/config"
	"github.com/gosuda/crewhub/internal/server/middleware"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PubSub is the event bus behind the WebSocket routes.
// *redisstore.PubSub satisfies this interface.
type PubSub interface {
	Pinger
	ws.Subscriber
}

// Deps are the collaborators the server exposes over HTTP.
type Deps struct {
	Services v1.Services
	Store    Pinger
	PubSub   PubSub // nil disables the WebSocket routes
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	deps       Deps
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds the background
// sweepers of the rate limiters.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(hlog.NewHandler(log.Logger))
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", chimw.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("server: request")
	}))
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		deps:   deps,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
	}

	rps := float64(cfg.Server.RateLimit)
	burst := cfg.Server.RateBurst

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, rps*2, burst*2))
		r.Use(middleware.Auth(cfg.JWT.Secret, cfg.JWT.Issuer))
		r.Use(middleware.RateLimit(ctx, rps, burst))
		r.Use(middleware.RequireWriteRole())

		apiConfig := huma.DefaultConfig("Crewhub API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, deps.Services)
	})

	if deps.PubSub != nil {
		router.Route("/ws", func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, rps, burst))
			r.Use(middleware.Auth(cfg.JWT.Secret, cfg.JWT.Issuer))
			registerWSRoutes(r, ws.NewHub(deps.PubSub))
		})
	}

	// Health check (unauthenticated).
	router.Get("/healthz", s.healthz)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK

	check := func(name string, p Pinger) {
		if p == nil {
			checks[name] = "disabled"
			return
		}
		if err := p.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("check", name).Msg("server.healthz: ping failed")
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			return
		}
		checks[name] = "ok"
	}
	check("postgres", s.deps.Store)
	if s.deps.PubSub != nil {
		check("redis", s.deps.PubSub)
	} else {
		check("redis", nil)
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": overall, "checks": checks})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("server.Start: listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
