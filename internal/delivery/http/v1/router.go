package v1

import (
	"context"
	"net/http"
	"time"

	"securechain-api/config"
	"securechain-api/internal/delivery/http/middleware"
	"securechain-api/internal/delivery/http/response"
	"securechain-api/internal/domain"
	"securechain-api/internal/monitoring"
	"securechain-api/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ContactUC     domain.ContactUsecase
	AuditUC       domain.AuditRequestUsecase
	UploadLimiter UploadLimiter
	Metrics       *monitoring.Metrics
	Health        *monitoring.HealthChecker
	Config        *config.Config
}

// NewRouter builds the HTTP engine. ctx bounds the background work of the
// rate limiters.
func NewRouter(ctx context.Context, deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins, cfg.GinMode == gin.ReleaseMode)) // CORS must be first!
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.BodyLimit(cfg.MaxMultipartBytes, cfg.MaxJSONBytes))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational", nil)
	})

	// Public form endpoints share one per-IP budget
	limit := middleware.SubmitRateLimitConfig(cfg.RateLimitSubmitThreshold, time.Duration(cfg.RateLimitWindowSeconds)*time.Second)
	if deps.Metrics != nil {
		limit.OnLimited = deps.Metrics.RecordRateLimitBlock
	}
	forms := v1.Group("")
	forms.Use(middleware.RateLimitMiddleware(ctx, limit))
	{
		NewContactHandler(forms, deps.ContactUC, deps.Metrics)
		NewAuditRequestHandler(forms, deps.AuditUC, deps.UploadLimiter, deps.Metrics)
	}

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if deps.Health != nil {
		r.GET("/healthz/live", gin.WrapH(deps.Health.LiveHandler()))
		r.GET("/healthz/ready", gin.WrapH(deps.Health.ReadyHandler()))
	}
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	return r
}
