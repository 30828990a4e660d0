package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docuvault/internal/config"
	milvusdb "docuvault/internal/database/milvus"
	miniodb "docuvault/internal/database/minio"
	"docuvault/internal/database/mysql"
	"docuvault/internal/ingest/chunker"
	"docuvault/internal/ingest/dal"
	"docuvault/internal/ingest/embedding"
	"docuvault/internal/ingest/extraction"
	"docuvault/internal/ingest/pipeline"
	"docuvault/internal/ingest/vectorindex"
	"docuvault/internal/service"
	"docuvault/internal/service/api"
	"docuvault/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	serviceLogger := logger.New("IngestService")

	// Connect to MySQL and migrate the documents table
	db, err := mysql.GetDB(&cfg.MySQL)
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to connect to MySQL: %v", err))
	}
	documentDAL := dal.NewDocumentDAL(db)
	if err := documentDAL.AutoMigrate(); err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to migrate database: %v", err))
	}
	serviceLogger.Info("Successfully connected to MySQL")

	// Connect to MinIO for extraction artifacts
	minioClient, err := miniodb.GetClient(&cfg.MinIO)
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to connect to MinIO: %v", err))
	}
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()
	if err := miniodb.EnsureBucket(startupCtx, minioClient, cfg.MinIO.Bucket); err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to prepare MinIO bucket: %v", err))
	}
	serviceLogger.Info("Successfully connected to MinIO")

	// Probe Milvus before accepting work
	if err := milvusdb.HealthCheck(startupCtx, &cfg.Milvus); err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Milvus is not reachable: %v", err))
	}
	serviceLogger.Info("Milvus health check passed")

	// Create pipeline components
	artifactStore := extraction.NewArtifactStore(minioClient, cfg.MinIO.Bucket, serviceLogger)
	extractionEngine, err := extraction.NewEngine(&cfg.Extraction, artifactStore, serviceLogger)
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to create extraction engine: %v", err))
	}
	serviceLogger.WithField("device", extractionEngine.Device().String()).Info("Extraction engine ready")

	documentChunker, err := chunker.New(cfg.Embedding.Model, cfg.Chunking.MaxTokens)
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to create chunker: %v", err))
	}

	embeddingEngine, err := embedding.NewEngine(&cfg.Embedding)
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to create embedding engine: %v", err))
	}

	index := vectorindex.NewIndex(&cfg.Milvus, embeddingEngine.Dimension(), serviceLogger)
	if err := index.EnsureSchema(startupCtx); err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to prepare vector collection: %v", err))
	}
	serviceLogger.Info("Vector collection ready")

	orchestrator, err := pipeline.NewOrchestrator(&cfg.Pipeline, documentDAL, extractionEngine, documentChunker, embeddingEngine, index, serviceLogger)
	if err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Failed to create orchestrator: %v", err))
	}

	documentService := service.NewDocumentService(&cfg.Storage, documentDAL, orchestrator, artifactStore, index, serviceLogger)

	// Setup HTTP server
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	apiHandler := api.NewAPI(documentService, serviceLogger)
	api.RegisterRoutes(router, apiHandler)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	// Start server
	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.Fatal(fmt.Sprintf("HTTP server failed to start: %v", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	if err := mysql.Close(); err != nil {
		serviceLogger.Error(fmt.Sprintf("Error closing MySQL connection: %v", err))
	}

	serviceLogger.Info("Server gracefully stopped")
}
