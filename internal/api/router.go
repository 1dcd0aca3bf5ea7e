package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/webwaymark/identity-service/docs"
	"github.com/webwaymark/identity-service/internal/api/handler"
	"github.com/webwaymark/identity-service/internal/api/middleware"
	"github.com/webwaymark/identity-service/internal/auth"
	"github.com/webwaymark/identity-service/internal/core/ports"
	"github.com/webwaymark/identity-service/internal/core/service"
	"github.com/webwaymark/identity-service/internal/infrastructure/config"
	mongodb "github.com/webwaymark/identity-service/internal/infrastructure/db/mongo"
	redisdb "github.com/webwaymark/identity-service/internal/infrastructure/db/redis"
	"github.com/webwaymark/identity-service/internal/infrastructure/mail"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, audit ports.AuditRecorder, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	otpStore := redisdb.NewOTPStore(rdb)
	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	identity := service.NewIdentityService(userRepo, otpStore, mailer, hasher, tokens, audit, cfg.OTPTTL, log)
	userHandler := handler.NewUserHandler(identity)

	anonOnly := middleware.AnonymousOnly()
	requireAuth := middleware.RequireAuth(tokens, userRepo, cfg.AuthPrefix)

	// --- User routes ---
	users := e.Group("/users")
	users.POST("/sign-up", userHandler.SignUp, anonOnly)
	users.POST("/verify", userHandler.Verify, anonOnly)
	users.POST("/log-in", userHandler.LogIn, anonOnly)
	users.POST("/reset-password", userHandler.ResetPassword, anonOnly)
	users.POST("/verify-reset-otp", userHandler.VerifyResetOTP, anonOnly)
	users.POST("/new-password", userHandler.NewPassword, anonOnly)
	users.GET("/account", userHandler.Account, requireAuth)

	e.GET("/home", handler.Home)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
