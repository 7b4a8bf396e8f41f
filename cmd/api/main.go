// main.go - The entry point and router setup.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bosocmputer/document_gateway/configs"
	"github.com/bosocmputer/document_gateway/internal/ai"
	"github.com/bosocmputer/document_gateway/internal/api"
	"github.com/bosocmputer/document_gateway/internal/countries"
	"github.com/bosocmputer/document_gateway/internal/extractor"
	"github.com/bosocmputer/document_gateway/internal/processor"
	"github.com/bosocmputer/document_gateway/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	// Step 0: Load configuration from environment variables
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Step 1: Model gateway (process lifetime)
	gateway, err := ai.NewGateway(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create model gateway: %v", err)
	}
	defer func() {
		if err := gateway.Close(); err != nil {
			log.Printf("Error closing model gateway: %v", err)
		}
	}()

	// Step 2: Country configuration. A missing configuration does not stop the
	// server; only the business license endpoint is unavailable.
	source, closeSource := countrySource(ctx, cfg)
	defer closeSource()

	store := countries.NewStore(source)
	if err := store.Reload(ctx); err != nil {
		logMissingCountryConfig(store.Source(), err)
	}

	// Step 3: Extraction pipeline
	normalizer := processor.NewNormalizer(processor.Options{
		MaxDimension: cfg.MaxImageDimension,
		Enhance:      cfg.EnableImagePreprocessing,
		PDFRenderDPI: cfg.PDFRenderDPI,
		PdftoppmPath: cfg.PdftoppmPath,
	}, nil)
	service := extractor.NewService(normalizer, gateway, store)
	handler := api.NewHandler(service, store, cfg.MaxUploadMB)
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	// Step 4: Setup HTTP server with timeouts
	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   cfg.ModelTimeout*2 + time.Minute, // auto-detection makes two model calls
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting server on :%s (model provider: %s)", cfg.Port, gateway.Name())
		log.Println("API Endpoints:")
		log.Println("  POST /process")
		log.Println("  POST /extract-keywords")
		log.Println("  POST /process-business-license")
		log.Println("  POST /process-adaptive")
		log.Println("  POST /process-receipt")
		log.Println("  GET  /countries")
		log.Println("  GET  /health")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// SIGHUP reloads the country configuration; the old one stays on failure
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			log.Printf("🔄 Reloading country configuration from %s", store.Source())
			reloadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := store.Reload(reloadCtx); err != nil {
				log.Printf("❌ Country configuration reload failed, keeping previous: %v", err)
			}
			cancel()
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	signal.Stop(reload)

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// countrySource picks the configuration source. The returned func releases it.
func countrySource(ctx context.Context, cfg *configs.Config) (countries.Source, func()) {
	if cfg.CountryConfigSource != configs.CountrySourceMongoDB {
		return countries.NewFileSource(cfg.CountryConfigFile), func() {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	src, err := storage.ConnectMongoSource(connectCtx, cfg.MongoURI, cfg.MongoDBName, cfg.MongoCollection)
	if err != nil {
		log.Printf("❌ Failed to connect to MongoDB for country configuration: %v", err)
		return nil, func() {}
	}
	return src, src.Close
}

func logMissingCountryConfig(source string, err error) {
	banner := strings.Repeat("!", 72)
	log.Println(banner)
	log.Println("CRITICAL: country configuration is missing or invalid")
	log.Printf("CRITICAL: source: %s", source)
	log.Printf("CRITICAL: error: %v", err)
	log.Println("CRITICAL: /process-business-license will answer 503 until the")
	log.Println("CRITICAL: configuration is fixed and the process receives SIGHUP")
	log.Println(banner)
}
