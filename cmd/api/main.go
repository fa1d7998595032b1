package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"securechain-api/config"
	_ "securechain-api/docs" // Important for Swagger
	v1 "securechain-api/internal/delivery/http/v1"
	"securechain-api/internal/domain"
	"securechain-api/internal/monitoring"
	"securechain-api/internal/repository/postgres"
	"securechain-api/internal/sink"
	"securechain-api/internal/usecase"
	"securechain-api/pkg/database"
	"securechain-api/pkg/email"
	"securechain-api/pkg/logger"
	"securechain-api/pkg/redis"
	"securechain-api/pkg/security"
	"securechain-api/pkg/security/antivirus"
	"securechain-api/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           SecureChain Intake API
// @version         1.0
// @description     Contact and audit request intake for the SecureChain website.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxBackups:  5,
		MaxAge:      30,
		Compress:    true,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Log.Sync() }()
	secLog := security.InitSecurityLogger(logger.Log, "securechain-api", cfg.GinMode)
	gin.SetMode(cfg.GinMode)

	logger.Log.Info("Starting securechain-api", zap.String("port", cfg.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.NewMetrics()
	health := monitoring.NewHealthChecker()

	// 3. Setup Redis (rate limiting)
	if err := redis.Initialize(redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
		if !errors.Is(err, redis.ErrNotConfigured) {
			logger.Log.Warn("Redis unavailable, using in-memory rate limiting", zap.Error(err))
		}
	} else {
		defer func() { _ = redis.Close() }()
		health.AddDependency("redis", monitoring.PingerFunc(redis.HealthCheck), 2*time.Second)
	}

	// 4. Setup Sinks
	sinks := sink.NewMultiSink(logger.Log, metrics).Add("log", sink.NewLogSink(logger.Log))

	if cfg.DBUrl != "" {
		dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
		if err != nil {
			logger.Log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer dbPool.Close()

		if err := postgres.EnsureSchema(ctx, dbPool); err != nil {
			logger.Log.Fatal("Failed to prepare schema", zap.Error(err))
		}
		sinks.Add("postgres", postgres.NewSubmissionRepository(dbPool))
		secLog.SetPersistFunc(postgres.NewSecurityEventRepository(dbPool).CreatePersistFunc())
		health.AddDependency("postgres", dbPool, 2*time.Second)
	}

	emailService := email.NewEmailService(cfg)
	if emailService.IsConfigured() {
		sinks.Add("email", sink.NewEmailSink(emailService))
	} else {
		logger.Log.Warn("Email service not fully configured - team notifications are disabled")
	}

	// 5. Setup Blob Store and scanner
	blobs, err := newBlobStore(ctx, cfg, health)
	if err != nil {
		logger.Log.Fatal("Failed to set up storage", zap.Error(err))
	}

	var scanner antivirus.Scanner = antivirus.NewNoOpScanner()
	if cfg.ClamAVAddress != "" {
		scanner = antivirus.NewChainScanner(antivirus.NewClamAVScanner(cfg.ClamAVAddress, 30*time.Second))
		logger.Log.Info("Antivirus scanning enabled", zap.String("address", cfg.ClamAVAddress))
	}

	// 6. Setup UseCases
	contactUC := usecase.NewContactUsecase(sinks)
	auditUC := usecase.NewAuditRequestUsecase(blobs, scanner, sinks)

	// 7. Setup Router
	router := v1.NewRouter(ctx, v1.RouterDeps{
		ContactUC:     contactUC,
		AuditUC:       auditUC,
		UploadLimiter: security.NewUploadLimiter(10, 20),
		Metrics:       metrics,
		Health:        health,
		Config:        cfg,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", zap.Error(err))
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exiting")
}

// newBlobStore builds the store selected by STORAGE_PROVIDER. With no
// provider, audit requests carrying a file fail with UploadFailed.
func newBlobStore(ctx context.Context, cfg *config.Config, health *monitoring.HealthChecker) (domain.BlobStore, error) {
	switch cfg.StorageProvider {
	case config.StorageS3:
		s3cfg := storage.S3Config{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Prefix:          "audit-requests",
			Endpoint:        cfg.S3Endpoint,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		}
		client, err := storage.NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		store := storage.NewS3Store(client, s3cfg)
		health.AddDependency("s3", store, 5*time.Second)
		logger.Log.Info("Using S3 storage", zap.String("bucket", cfg.S3Bucket))
		return store, nil

	case config.StorageMinio:
		mcfg := storage.MinioConfig{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			Prefix:        "audit-requests",
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MinioPublicBaseURL,
		}
		client, err := storage.NewMinioClient(mcfg)
		if err != nil {
			return nil, err
		}
		store := storage.NewMinioStore(client, mcfg)
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		health.AddDependency("minio", store, 5*time.Second)
		logger.Log.Info("Using MinIO storage", zap.String("bucket", cfg.MinioBucket))
		return store, nil

	default:
		logger.Log.Warn("No storage provider configured - audit documentation uploads are disabled")
		return nil, nil
	}
}
