package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockfolio/config"
	"stockfolio/observability"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *APIHandler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second))
	r.Use(corsMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(metricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Route("/books/{book}", func(r chi.Router) {
			r.Get("/", h.handleGetBook)
			r.Get("/summary", h.handleGetSummary)
			r.Post("/refresh", h.handleRefresh)
			r.Post("/import", h.handleImport)

			r.Route("/positions", func(r chi.Router) {
				r.Post("/", h.handleOpenPosition)
				r.Delete("/{index}", h.handleRemovePosition)
				r.Post("/{index}/buy", h.handleBuy)
				r.Post("/{index}/sell", h.handleSell)
			})
		})
	})

	return r
}

// corsMiddleware returns CORS middleware with the specified allowed origins
func corsMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// metricsMiddleware records request counts and latencies per route pattern
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}
		observability.GetMetrics().RecordHTTPRequest(
			r.Method,
			path,
			strconv.Itoa(ww.Status()),
			time.Since(start),
		)
	})
}
