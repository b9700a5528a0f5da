package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"worldmobile.com/reviews-api/internal/metrics"
)

// SetupRoutes configures and returns the HTTP router
func SetupRoutes(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	// Add middleware to all routes
	r.Use(metrics.MetricsMiddleware)
	r.Use(RecoverMiddleware)

	// Review endpoints (POST with JSON bodies, matching the site's fetch calls)
	r.HandleFunc("/submitReview", h.SubmitReview).Methods("POST")
	r.HandleFunc("/getReviews", h.GetReviews).Methods("POST")
	r.HandleFunc("/getReviewSummary", h.GetReviewSummary).Methods("POST")

	// Health check endpoint
	r.HandleFunc("/health", HealthHandler).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}

// RecoverMiddleware converts panics into 500 responses so the process
// never returns an unhandled fault to the platform.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Recovered from panic in handler")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "Internal Server Error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
