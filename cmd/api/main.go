// main.go - The entry point and router setup.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/townsquare/complaint_analyzer/configs"
	"github.com/townsquare/complaint_analyzer/internal/api"
	"github.com/townsquare/complaint_analyzer/internal/bootstrap"
	"github.com/townsquare/complaint_analyzer/internal/storage"
)

func main() {
	// Step 0: Load configuration from environment variables
	configs.LoadConfig()

	// Step 0.5: Set production mode
	if ginMode := os.Getenv("GIN_MODE"); ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Step 1: Build the analysis engine
	orchestrator, provider, err := bootstrap.NewOrchestrator(bootstrap.ProviderConfig(), bootstrap.EngineConfig())
	if err != nil {
		log.Fatalf("Failed to build analysis engine: %v", err)
	}

	// Step 1.5: Open the audit log and schedule retention
	audit, err := storage.OpenAuditStore(ctx, storage.AuditConfig{
		Backend:    configs.AUDIT_STORE,
		MongoURI:   configs.MONGO_URI,
		MongoDB:    configs.MONGO_DB_NAME,
		SQLitePath: configs.SQLITE_PATH,
	})
	if err != nil {
		log.Fatalf("Failed to open audit store: %v", err)
	}
	defer audit.Close()

	if err := storage.StartRetentionScheduler(ctx, audit, configs.AUDIT_PRUNE_SCHEDULE, configs.AuditRetention()); err != nil {
		log.Fatalf("Failed to schedule audit retention: %v", err)
	}

	// Step 2: Initialize the Gin router
	handler := api.NewHandler(orchestrator, api.HandlerOptions{
		Provider:       provider,
		Audit:          audit,
		Cache:          storage.NewResultCache(configs.ResultCacheTTL()),
		MaxUploadBytes: configs.MaxUploadBytes(),
	})
	router := api.NewRouter(handler, configs.ALLOWED_ORIGINS)

	// Step 3: Setup HTTP server with timeouts
	srv := &http.Server{
		Addr:           ":" + configs.PORT,
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   configs.PrimaryTimeout() + 30*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on :%s", configs.PORT)
		log.Println("API Endpoints:")
		log.Println("  POST /api/v1/analyze-complaint")
		log.Println("  GET  /health")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
