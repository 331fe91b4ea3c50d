package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"envecom-simulator/internal/audit"
	"envecom-simulator/internal/compensation/application"
	compensation "envecom-simulator/internal/compensation/domain"
	"envecom-simulator/internal/compensation/infrastructure/gemini"
	"envecom-simulator/internal/compensation/infrastructure/imageopt"
	"envecom-simulator/internal/compensation/interfaces"
	"envecom-simulator/internal/observability/metrics"
)

func main() {
	loadDotEnv()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	metrics.Init()

	policy, err := application.LoadPolicy()
	if err != nil {
		logger.Fatalf("policy load error: %v", err)
	}
	calc, err := compensation.NewCalculator(policy)
	if err != nil {
		logger.Fatalf("calculator init error: %v", err)
	}
	simulations, err := application.NewSimulationService(calc,
		application.WithStrictValidation(cfg.StrictValidation),
		application.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("simulation service init error: %v", err)
	}

	var extractor application.Extractor = gemini.Unavailable{}
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Fatalf("gemini init error: %v", err)
		}
		extractor = client
	} else {
		logger.Printf("GEMINI_API_KEY not set; bill extraction disabled")
	}
	extraction, err := application.NewExtractionService(extractor, imageopt.New(0, 0, logger), application.ExtractionConfig{
		MaxBytes: cfg.MaxUploadBytes,
		Timeout:  cfg.ExtractTimeout,
	}, logger)
	if err != nil {
		logger.Fatalf("extraction service init error: %v", err)
	}

	auditLogger := audit.NewLogWriter(logger)
	mux, err := newMux(simulations, extraction, cfg.GeminiAPIKey != "", auditLogger, logger)
	if err != nil {
		logger.Fatalf("http init error: %v", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ExtractTimeout + 30*time.Second,
		WriteTimeout:      cfg.ExtractTimeout + 30*time.Second,
	}
	logger.Printf("http listening on %s (policy unknown=%s strict=%t)", cfg.HTTPAddr, policy.UnknownClass, cfg.StrictValidation)
	logger.Fatal(server.ListenAndServe())
}

// newMux mounts every route. The dashboard hides the upload form when
// extraction is disabled; the API still answers 503 in that case.
func newMux(simulations *application.SimulationService, extraction *application.ExtractionService, extractEnabled bool, auditLogger audit.Logger, logger *log.Logger) (*http.ServeMux, error) {
	simulationHandler, err := interfaces.NewSimulationHandler(simulations, auditLogger, logger)
	if err != nil {
		return nil, err
	}
	extractHandler, err := interfaces.NewExtractHandler(extraction, auditLogger, logger)
	if err != nil {
		return nil, err
	}
	dashboardExtraction := extraction
	if !extractEnabled {
		dashboardExtraction = nil
	}
	dashboardHandler, err := interfaces.NewDashboardHandler(simulations, dashboardExtraction, auditLogger, logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/simulations", simulationHandler)
	mux.Handle("/api/v1/simulations/", simulationHandler)
	mux.Handle("/api/extract", extractHandler)
	mux.Handle("/", dashboardHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux, nil
}

type config struct {
	HTTPAddr         string
	GeminiAPIKey     string
	GeminiModel      string
	ExtractTimeout   time.Duration
	MaxUploadBytes   int
	StrictValidation bool
}

func loadConfig() config {
	return config{
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		GeminiAPIKey:     getenvDefault("GEMINI_API_KEY", getenvDefault("API_KEY", "")),
		GeminiModel:      getenvDefault("GEMINI_MODEL", gemini.DefaultModel),
		ExtractTimeout:   getenvDuration("EXTRACT_TIMEOUT", application.DefaultExtractTimeout),
		MaxUploadBytes:   getenvIntDefault("MAX_UPLOAD_BYTES", application.DefaultMaxUploadBytes),
		StrictValidation: getenvBoolDefault("STRICT_VALIDATION", false),
	}
}

// loadDotEnv overlays .env outside production. A missing file is not an error.
func loadDotEnv() {
	if strings.EqualFold(os.Getenv("ENV"), "production") {
		return
	}
	if err := godotenv.Overload(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf(".env load error: %v", err)
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
