package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/oceanauth/auth-api/docs"
	"github.com/oceanauth/auth-api/internal/api/handler"
	"github.com/oceanauth/auth-api/internal/api/middleware"
	"github.com/oceanauth/auth-api/internal/core/ports"
	"github.com/oceanauth/auth-api/internal/core/ratelimit"
	"github.com/oceanauth/auth-api/internal/core/security"
	"github.com/oceanauth/auth-api/internal/core/service"
	"github.com/oceanauth/auth-api/internal/infrastructure/config"
	mongodb "github.com/oceanauth/auth-api/internal/infrastructure/db/mongo"
	redisdb "github.com/oceanauth/auth-api/internal/infrastructure/db/redis"
	"github.com/oceanauth/auth-api/internal/infrastructure/http/handlers"
	"github.com/oceanauth/auth-api/internal/infrastructure/identity"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, client *mongo.Client, db *mongo.Database, rdb *redis.Client, mailer handler.MailEnqueuer, log zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("auth"))

	// --- Dependencies ---
	codec, err := security.NewTokenCodec(
		cfg.Auth.JWTSecret,
		cfg.Auth.TokenAlgorithm,
		time.Duration(cfg.Auth.AccessTokenTTLMinutes)*time.Minute,
	)
	if err != nil {
		return nil, err
	}

	limiter, err := newRateLimiter(cfg, rdb)
	if err != nil {
		return nil, err
	}

	userRepo := mongodb.NewUserRepository(db)
	resetRepo := mongodb.NewResetRepository(client, db)
	provider := identity.NewGoogleProvider(identity.Config{UserinfoURL: cfg.Google.UserinfoURL})

	authService := service.NewAuthService(
		userRepo,
		resetRepo,
		provider,
		codec,
		time.Duration(cfg.Auth.VerificationTTLHours)*time.Hour,
		time.Duration(cfg.Auth.ResetTTLHours)*time.Hour,
		log,
	)

	echoTokens := !cfg.IsProduction()
	authHandler := handler.NewAuthHandler(authService, mailer, echoTokens)
	passwordHandler := handler.NewPasswordHandler(authService, mailer, echoTokens)
	authMiddleware := middleware.Auth(codec)
	rateLimitMiddleware := middleware.RateLimit(limiter)

	// --- API routes ---
	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register, rateLimitMiddleware)
	auth.POST("/login", authHandler.Login, rateLimitMiddleware)
	auth.POST("/google", authHandler.GoogleLogin)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.GET("/me", authHandler.Me, authMiddleware)

	passwords := v1.Group("/passwords")
	passwords.POST("/forgot", passwordHandler.ForgotPassword, rateLimitMiddleware)
	passwords.POST("/reset", passwordHandler.ResetPassword)

	// --- Operational endpoints ---
	healthHandler := handlers.NewHealthHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness)    // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e, nil
}

// newRateLimiter selects the rate-limit backend. The in-memory limiter bounds
// abuse per instance; the Redis limiter shares one window across instances.
func newRateLimiter(cfg *config.Config, rdb *redis.Client) (ports.RateLimiter, error) {
	switch cfg.RateLimit.Backend {
	case "", "memory":
		return ratelimit.NewSlidingWindow(cfg.RateLimit.PerMinute, time.Minute), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("rate limit backend redis requires a redis connection")
		}
		return redisdb.NewSlidingWindowLimiter(rdb, cfg.RateLimit.PerMinute, time.Minute), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}
}
