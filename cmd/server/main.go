// Package main initializes and starts the document repository server,
// setting up configuration, logging, database connections, schema evolution,
// repositories, services, and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/mzaikov/docvault/internal/config"
	"github.com/mzaikov/docvault/internal/db"
	"github.com/mzaikov/docvault/internal/logger"
	"github.com/mzaikov/docvault/internal/middleware"
	"github.com/mzaikov/docvault/internal/repository"
	"github.com/mzaikov/docvault/internal/server/handler/http"
	"github.com/mzaikov/docvault/internal/service"
	"github.com/mzaikov/docvault/internal/storage"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init("info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	if options.JWTSecret == "" {
		zapLogger.Fatal("JWT_SECRET is required")
	}

	// Initialize PostgreSQL connection and base schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Apply the additive schema steps eagerly. The same guard serves lazy
	// calls later; running it here just front-loads the DDL cost.
	guard := db.NewGuard(postgresDB, zapLogger)
	if err := guard.Run(context.Background(), db.Migrations); err != nil {
		zapLogger.Fatal("schema evolution failed", zap.Error(err))
	}

	// Choose the blob store collaborator.
	var blobs service.BlobStore
	if options.S3Bucket != "" {
		blobs = storage.NewS3BlobStore(storage.S3Options{
			Bucket:   options.S3Bucket,
			Region:   options.S3Region,
			Endpoint: options.S3Endpoint,
			KeyID:    options.S3KeyID,
			Secret:   options.S3Secret,
		})
	} else {
		blobs = storage.NewFSBlobStore(options.BlobRoot)
	}

	// Start the background purge of old soft-deleted documents.
	retention := time.Duration(options.PurgeRetentionDays) * 24 * time.Hour
	db.StartPurgeCleaner(context.Background(), postgresDB, blobs,
		time.Hour, retention, zapLogger)

	// Initialize repositories.
	principalRepo := repository.NewPostgresPrincipalRepository(postgresDB)
	documentRepo := repository.NewPostgresDocumentRepository(postgresDB)
	settingsRepo := repository.NewPostgresSettingsRepository(postgresDB)

	// Initialize business-logic services.
	policyService := service.NewPolicyService(middleware.ContextIdentity{})
	documentService := service.NewDocumentService(documentRepo, policyService)
	maintenanceService := service.NewMaintenanceService(documentRepo, principalRepo, blobs, zapLogger)
	settingsService := service.NewSettingsService(settingsRepo)

	// Create HTTP handlers.
	docHandler := &http.DocumentHandler{Documents: documentService}
	adminHandler := &http.AdminHandler{Maintenance: maintenanceService, Policy: policyService}
	settingsHandler := &http.SettingsHandler{Settings: settingsService}

	// Build the router with middleware and routes.
	router := http.NewRouter(docHandler, adminHandler, settingsHandler,
		[]byte(options.JWTSecret), principalRepo, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Port,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
