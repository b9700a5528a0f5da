package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"worldmobile.com/reviews-api/internal/api"
	"worldmobile.com/reviews-api/internal/captcha"
	"worldmobile.com/reviews-api/internal/dal"
	"worldmobile.com/reviews-api/internal/metrics"
	"worldmobile.com/reviews-api/pkg/zerolog_config"
)

func main() {
	// Load .env file if present
	err := godotenv.Load()
	if err != nil {
		log.Info().Msg("Not found .env file, assuming environment variables are set")
	}

	// Get configuration from environment
	elasticsearchURL := getEnvOrDefault("ELASTICSEARCH_URL", "")
	apiPort := getEnvOrDefault("API_PORT", "8080")
	apiLogLevel := getEnvOrDefault("API_LOG_LEVEL", "info")
	recaptchaSecret := getEnvOrDefault("RECAPTCHA_SECRET_KEY", "")

	// Set app prefix
	zerolog_config.SetAppPrefix("reviews-api")

	// Initialize zerolog, shipping to Elasticsearch when configured
	zerolog_config.StartupWithEnv(elasticsearchURL, "logs", apiLogLevel)

	log.Info().Msg("Starting reviews-api service")

	if recaptchaSecret == "" {
		log.Warn().Msg("RECAPTCHA_SECRET_KEY not set, all submissions will fail captcha verification")
	}

	// Start system metrics collection
	metrics.StartSystemMetricsCollection(15 * time.Second)

	// Connect to Couchbase
	conn, err := dal.NewConnection()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to document store")
	}

	verifier := captcha.NewRecaptchaVerifier(recaptchaSecret, getEnvOrDefault("RECAPTCHA_VERIFY_URL", ""))

	// Setup routes
	handlers := api.NewHandlers(conn, verifier)
	router := api.SetupRoutes(handlers)

	// Create HTTP server
	server := &http.Server{
		Addr:    ":" + apiPort,
		Handler: router,
	}

	// Listen for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", apiPort).
			Msg("Server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().
				Err(err).
				Msg("Failed to start server")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Shutdown server with timeout
	shutdownTimeout := 30 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	// Close database connection
	log.Info().Msg("Closing database connection...")
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database connection")
	}

	log.Info().Msg("API service shutdown complete")
}

// Helper function to get environment variable with default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
