package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"thomann-reviews/extractor"
	"thomann-reviews/internal/metrics"
	"thomann-reviews/internal/types"
)

// APIRequest represents the request body for the API
type APIRequest struct {
	Products []string `json:"products"`
	Rating   int      `json:"rating"`
	Order    int      `json:"order"`
	Language *int     `json:"language,omitempty"`
}

// TableData is the wire form of a review table
type TableData struct {
	Columns  []string               `json:"columns"`
	Rows     []types.Review         `json:"rows"`
	Failures []types.ProductFailure `json:"failures,omitempty"`
}

// APIResponse represents the response from the API
type APIResponse struct {
	Success bool       `json:"success"`
	Data    *TableData `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Server holds the API server configuration. All requests share one
// extractor so RequestDelay paces the store across concurrent requests.
type Server struct {
	logger    *logrus.Logger
	config    *types.Config
	registry  *prometheus.Registry
	extractor *extractor.ReviewExtractor
}

// NewServer creates a new API server
func NewServer(config *types.Config, logger *logrus.Logger) *Server {
	return &Server{
		logger:    logger,
		config:    config,
		registry:  metrics.InitRegistry(),
		extractor: extractor.NewReviewExtractor(config, logger),
	}
}

// Close releases the shared extractor
func (s *Server) Close() {
	s.extractor.Close()
}

func newLogger() *logrus.Logger {
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequest)

	r.Post("/reviews", s.handleReviews)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler(s.registry))
	return r
}

// handleReviews collects the reviews of the requested products
func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req APIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var products []string
	for _, p := range req.Products {
		if p = strings.TrimSpace(p); p != "" {
			products = append(products, p)
		}
	}
	if len(products) == 0 {
		s.sendError(w, "No products provided", http.StatusBadRequest)
		return
	}

	filter := types.ReviewFilter{Rating: req.Rating, Order: req.Order, Language: s.config.Filter.Language}
	if req.Language != nil {
		filter.Language = *req.Language
	}

	s.logger.Infof("API request received for products: %v", products)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	table, err := s.extractor.BuildWithFilter(ctx, products, filter)
	if err != nil {
		s.logger.Warnf("Review extraction failed: %v", err)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	response := APIResponse{
		Success: true,
		Data: &TableData{
			Columns:  table.Columns(),
			Rows:     table.Rows,
			Failures: table.Failures,
		},
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := APIResponse{
		Success: false,
		Error:   message,
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Failed to encode error response: %v", err)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
		}).Info("http_request")
	})
}

// Start starts the API server
func (s *Server) Start(port string) error {
	s.logger.Infof("Starting API server on port %s", port)
	s.logger.Info("Available endpoints:")
	s.logger.Info("  POST /reviews - Collect reviews for a list of products")
	s.logger.Info("  GET  /health  - Health check")
	s.logger.Info("  GET  /metrics - Prometheus metrics")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Get port from environment variable, default to 8080
	serverPort := "8080"
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		serverPort = envPort
	}

	config := types.DefaultConfig()
	config.ApplyEnv()
	config.SkipFailedProducts = true

	server := NewServer(config, newLogger())

	log.Fatal(fmt.Errorf("api server: %w", server.Start(serverPort)))
}
