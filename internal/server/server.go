package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"categorydesk/internal/config"
	"categorydesk/internal/handlers"
	"categorydesk/internal/middlewares"
	"categorydesk/internal/repositories"
	"categorydesk/internal/services"
	"categorydesk/internal/sessions"
)

// Server is the web UI: one page backed by a per-session category workspace.
type Server struct {
	port            int
	apiURL          string
	allowedOrigins  []string
	monitorInterval time.Duration
	httpServer      *http.Server

	registry    *sessions.Registry
	monitor     *services.Monitor
	pageHandler *handlers.PageHandler
	limiter     *middlewares.RateLimiter
	metrics     *prometheus.Registry
	instrument  *middlewares.PrometheusMiddleware

	background context.Context
	stop       context.CancelFunc
}

func NewServer(cfg config.Config) (*Server, error) {
	client := &http.Client{}
	remote := repositories.NewRemoteCategoryRepository(cfg.APIURL, client)

	registry := sessions.NewRegistry(func() services.CategoryService {
		return services.NewCategoryService(remote, services.WithLoadTimeout(cfg.ProbeTimeout))
	}, sessions.DefaultIdleTimeout)
	monitor := services.NewMonitor(services.NewProber(cfg.APIURL, client, cfg.ProbeTimeout), time.Local)

	pageHandler, err := handlers.NewPageHandler(registry, sessions.NewStore(cfg.SessionSecret), monitor)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	reg := prometheus.NewRegistry()
	background, stop := context.WithCancel(context.Background())

	s := &Server{
		port:            cfg.Port,
		apiURL:          cfg.APIURL,
		allowedOrigins:  cfg.AllowedOrigins,
		monitorInterval: cfg.MonitorInterval,
		registry:        registry,
		monitor:         monitor,
		pageHandler:     pageHandler,
		limiter:         middlewares.NewRateLimiter(rate.Limit(10), 20),
		metrics:         reg,
		instrument:      middlewares.NewPrometheusMiddleware(reg),
		background:      background,
		stop:            stop,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

func (s *Server) Start() error {
	go s.limiter.CleanupVisitors(s.background)
	go s.registry.Cleanup(s.background, time.Minute)

	if s.monitorInterval > 0 {
		if _, err := s.monitor.Schedule(s.monitorInterval); err != nil {
			return fmt.Errorf("schedule API monitor: %w", err)
		}
		s.monitor.Start()
		go s.monitor.Check(s.background)
	}

	log.Info().Int("port", s.port).Str("api_url", s.apiURL).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	waitForSignal()

	s.stop()
	if s.monitorInterval > 0 {
		s.monitor.Stop()
	}
	shutdown(s.httpServer)
	done <- true
}

func waitForSignal() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
}

func shutdown(httpServer *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	log.Info().Msg("Server exiting")
}
