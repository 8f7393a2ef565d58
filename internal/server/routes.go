package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"categorydesk/internal/handlers"
	"categorydesk/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(s.instrument.Instrument)
	r.Use(middlewares.CorsMiddleware(s.allowedOrigins))
	r.Use(s.limiter.Limit)

	ch := handlers.NewCommonHandler(s.apiURL, s.monitor, s.registry)
	r.HandleFunc("/health", ch.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, s.metrics},
		promhttp.HandlerOpts{},
	)).Methods("GET")
	r.PathPrefix("/static/").Handler(handlers.StaticHandler()).Methods("GET")

	s.registerPageRoutes(r)

	return r
}

func (s *Server) registerPageRoutes(r *mux.Router) {
	ph := s.pageHandler
	r.HandleFunc("/", ph.Index).Methods("GET")
	r.HandleFunc("/retry", ph.Retry).Methods("POST")
	r.HandleFunc("/categories", ph.CreateCategory).Methods("POST")
	r.HandleFunc("/categories/bulk", ph.BulkCreateCategories).Methods("POST")
	r.HandleFunc("/categories/{id:[0-9]+}", ph.RenameCategory).Methods("POST")
	r.HandleFunc("/categories/{id:[0-9]+}/delete", ph.DeleteCategory).Methods("POST")
}
