package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderdocs/orderdocs/internal/handlers"
	"github.com/orderdocs/orderdocs/internal/middleware"
)

// NewRouter constructs a ServeMux with the upload and webhook routes
// registered.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Upload form endpoints
	mux.HandleFunc("/upload", h.HandleUpload)
	mux.HandleFunc("GET /test", h.HandleTest)

	// Platform webhooks
	mux.HandleFunc("/webhook/orders/create", h.HandleOrderCreated)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	cors := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	})

	return middleware.RequestID(cors(mux))
}
