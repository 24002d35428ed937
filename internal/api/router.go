package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/leavehub/approval-system/docs"
	"github.com/leavehub/approval-system/internal/api/handler"
	"github.com/leavehub/approval-system/internal/api/middleware"
	"github.com/leavehub/approval-system/internal/core/service"
	"github.com/leavehub/approval-system/internal/infrastructure/config"
	mongodb "github.com/leavehub/approval-system/internal/infrastructure/db/mongo"
	redisdb "github.com/leavehub/approval-system/internal/infrastructure/db/redis"
	"github.com/leavehub/approval-system/internal/infrastructure/queue"
)

// NewRouter builds the Echo instance with all routes registered, plus the
// audit dispatcher the caller must Start. Construction fails when the signing
// key is too short; the caller treats that as fatal.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, *queue.Dispatcher, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderOrigin},
		AllowCredentials: true,
		MaxAge:           3600,
	}))
	e.Use(echoprometheus.NewMiddleware("approval"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, nil, err
	}
	throttle := redisdb.NewLoginThrottle(rdb, log)
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, service.NewAuditWriter(auditRepo, log), log)
	authService := service.NewAuthService(userRepo, hasher, tokens, throttle, dispatcher, log)
	authHandler := handler.NewAuthHandler(authService)

	// Authentication runs once per request; routes that need a principal add
	// RequireAuth on top.
	e.Use(middleware.Authenticate(tokens, userRepo, log))

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/profile", authHandler.Profile, middleware.RequireAuth())

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, dispatcher, nil
}
