package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"categorydesk/internal/handlers"
	"categorydesk/internal/middlewares"
	"categorydesk/internal/models"
	"categorydesk/internal/repositories"
	"categorydesk/internal/services"
)

// StubAPIOptions configures the in-memory categories API.
type StubAPIOptions struct {
	Port           int
	Seed           bool
	Bare           bool
	AllowedOrigins []string
}

// StubAPIServer serves the categories REST API from memory, for local development.
type StubAPIServer struct {
	port            int
	bare            bool
	allowedOrigins  []string
	httpServer      *http.Server
	categoryService services.CatalogService
	limiter         *middlewares.RateLimiter
	metrics         *prometheus.Registry
	instrument      *middlewares.PrometheusMiddleware

	background context.Context
	stop       context.CancelFunc
}

func NewStubAPIServer(opts StubAPIOptions) *StubAPIServer {
	var seed []models.Category
	if opts.Seed {
		seed = models.SampleCategories()
	}
	categoryRepo := repositories.NewMemoryCategoryRepository(seed)

	reg := prometheus.NewRegistry()
	background, stop := context.WithCancel(context.Background())

	s := &StubAPIServer{
		port:            opts.Port,
		bare:            opts.Bare,
		allowedOrigins:  opts.AllowedOrigins,
		categoryService: services.NewCatalogService(categoryRepo),
		limiter:         middlewares.NewRateLimiter(rate.Limit(50), 100),
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

	return s
}

func (s *StubAPIServer) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(s.instrument.Instrument)
	r.Use(middlewares.CorsMiddleware(s.allowedOrigins))
	r.Use(s.limiter.Limit)

	ch := handlers.NewCommonHandler("", nil, nil)
	r.HandleFunc("/health", ch.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, s.metrics},
		promhttp.HandlerOpts{},
	)).Methods("GET")

	s.registerCategoryRoutes(r)

	return r
}

func (s *StubAPIServer) registerCategoryRoutes(r *mux.Router) {
	ch := handlers.NewCategoryHandler(s.categoryService, s.bare)
	r.HandleFunc("/api/categories", ch.AddCategory).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/categories", ch.GetCategories).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/categories/{id}", ch.GetCategoryByID).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/categories/{id}", ch.DeleteCategory).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/api/categories/{id}", ch.UpdateCategory).Methods("PUT", "OPTIONS")
}

func (s *StubAPIServer) Start() error {
	go s.limiter.CleanupVisitors(s.background)

	log.Info().Int("port", s.port).Bool("bare", s.bare).Msg("Starting stub categories API")
	return s.httpServer.ListenAndServe()
}

func (s *StubAPIServer) GracefulShutdown(done chan bool) {
	waitForSignal()

	s.stop()
	shutdown(s.httpServer)
	done <- true
}
