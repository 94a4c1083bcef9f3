package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/musicreward/musicreward/internal/config"
	"github.com/musicreward/musicreward/internal/handler"
	"github.com/musicreward/musicreward/internal/lookup"
	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/openapi"
	"github.com/musicreward/musicreward/internal/reward"
	"github.com/musicreward/musicreward/internal/server/middleware"
	"github.com/musicreward/musicreward/internal/service"
	"github.com/musicreward/musicreward/internal/store"
)

// sweepInterval is how often idle play sessions are evicted.
const sweepInterval = time.Minute

// Server is the top-level HTTP server for MusicReward. It owns the Chi
// router, the storage backend and the services built on top of it.
type Server struct {
	cfg        *config.Config
	router     chi.Router
	store      store.Store
	sessions   *service.SessionManager
	catalog    *service.CatalogService
	withdraws  *service.WithdrawService
	adSettings *service.AdSettingsService
	lookup     *lookup.Service
	tracker    *reward.Tracker
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server backed by st, wires up all routes and middleware, and
// returns it ready to listen. upstream may be a disabled client; lookups then
// fall back to the featured catalog.
func New(cfg *config.Config, st store.Store, upstream lookup.Upstream, logger *slog.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		store:  st,
		logger: logger,
	}

	s.sessions = service.NewSessionManager(st, st, cfg.Auth.SessionTTL)
	s.catalog = service.NewCatalogService(st)
	s.withdraws = service.NewWithdrawService(st, st, service.WithdrawPolicy{
		Minimum:       cfg.Withdraw.Minimum,
		ServerWallets: cfg.Reward.ServerAttested,
	}, logger)
	s.adSettings = service.NewAdSettingsService(st)
	s.lookup = lookup.New(s.catalog, upstream, cfg.YouTube.Region, logger)

	if cfg.Reward.ServerAttested {
		secret, err := tokenSecret(cfg.Reward.TokenSecret, logger)
		if err != nil {
			return nil, err
		}
		s.tracker = reward.NewTracker(reward.TrackerConfig{
			Policy: reward.Policy{
				ThresholdSeconds: cfg.Reward.ThresholdSeconds,
				Amount:           cfg.Reward.Amount,
				Repeating:        cfg.Reward.Repeating,
			},
			Secret:      secret,
			MaxGap:      cfg.Reward.MaxHeartbeatGap,
			IdleTimeout: cfg.Reward.SessionIdle,
		}, st, logger)
	}

	s.setupRouter()
	return s, nil
}

// tokenSecret returns the configured play-token secret, or a random one.
// A random secret invalidates open plays on restart.
func tokenSecret(configured string, logger *slog.Logger) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate play token secret: %w", err)
	}
	logger.Warn("reward.token_secret not set, using a random secret")
	return secret, nil
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.Preflight)
	r.Use(middleware.Metrics)
	if s.cfg.Server.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.Server.MaxBodySize))
	}

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	// --- Probes and metadata (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.json", handler.NewOpenAPIHandler(openapi.Options{
		RequireAdmin:   s.cfg.Auth.RequireAdmin,
		ServerAttested: s.cfg.Reward.ServerAttested,
	}).ServeSpec)

	systemH := handler.NewSystemHandler(s.cfg.Storage.Driver)
	adminH := handler.NewAdminHandler(s.sessions, s.logger)
	catalogH := handler.NewCatalogHandler(s.catalog, s.logger)
	withdrawH := handler.NewWithdrawHandler(s.withdraws, s.logger)
	adsH := handler.NewAdSettingsHandler(s.adSettings, s.logger)
	musicH := handler.NewMusicHandler(s.lookup)
	configH := handler.NewConfigHandler(model.ClientConfig{
		RewardThresholdSeconds: s.cfg.Reward.ThresholdSeconds,
		RewardAmount:           s.cfg.Reward.Amount,
		Repeating:              s.cfg.Reward.Repeating,
		WithdrawMinimum:        s.withdraws.Minimum(),
		ServerAttested:         s.tracker != nil,
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", systemH.Health)
		r.Get("/test", systemH.Test)
		r.Get("/config", configH.Config)

		// Public catalog and music lookup
		r.Get("/featured-songs", catalogH.ListPublic)
		r.Get("/ytmusic/search", musicH.Search)
		r.Get("/ytmusic/charts", musicH.Charts)
		r.Get("/ytmusic/song/{videoId}", musicH.Song)

		// User withdrawals
		r.Post("/user/withdraw", withdrawH.Create)
		r.Get("/user/withdrawals", withdrawH.History)

		if s.tracker != nil {
			playH := handler.NewPlayHandler(s.tracker, s.store, s.logger)
			r.Post("/user/plays", playH.Start)
			r.Post("/user/plays/{playId}/heartbeat", playH.Heartbeat)
			r.Delete("/user/plays/{playId}", playH.End)
			r.Get("/user/balance", playH.Balance)
		}

		r.Route("/admin", func(r chi.Router) {
			// Login is rate limited per client IP; logout authenticates itself.
			if s.cfg.Server.LoginRateLimit > 0 {
				r.With(middleware.RateLimit(s.cfg.Server.LoginRateLimit)).Post("/login", adminH.Login)
			} else {
				r.Post("/login", adminH.Login)
			}
			r.Post("/logout", adminH.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(s.sessions, false))
				r.Get("/profile", adminH.Profile)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(s.sessions, s.cfg.Auth.RequireAdmin))

				r.Get("/featured-songs", catalogH.List)
				r.Post("/featured-songs", catalogH.Create)
				r.Delete("/featured-songs/{id}", catalogH.Delete)
				r.Patch("/featured-songs/{id}/order", catalogH.SetOrder)
				r.Patch("/featured-songs/{id}/status", catalogH.SetStatus)
				r.Patch("/featured-songs/{id}/toggle", catalogH.SetStatus)

				r.Get("/withdrawals", withdrawH.List)
				r.Patch("/withdrawals/{id}", withdrawH.SetStatus)

				r.Get("/ad-settings", adsH.Get)
				r.Post("/ad-settings", adsH.Save)
			})
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the storage backend is
// reachable and 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"storage": "ok"}

	if err := s.store.Ping(r.Context()); err != nil {
		checks["storage"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	if s.lookup.UpstreamEnabled() {
		checks["youtube"] = "enabled"
	} else {
		checks["youtube"] = "disabled"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the storage backend.
func (s *Server) ListenAndServe() error {
	addr := s.cfg.Addr()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if s.tracker != nil {
		go s.tracker.Run(ctx, sweepInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "storage", s.cfg.Storage.Driver,
			"require_admin", s.cfg.Auth.RequireAdmin, "server_attested", s.cfg.Reward.ServerAttested)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("close storage", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Sessions returns the admin session manager.
func (s *Server) Sessions() *service.SessionManager {
	return s.sessions
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
