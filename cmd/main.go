package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coffeeshop/api/handler"
	apiMiddleware "coffeeshop/api/middleware"
	"coffeeshop/api/routes"
	"coffeeshop/config"
	"coffeeshop/internal/migrations"
	"coffeeshop/internal/repository"
	"coffeeshop/internal/scheduler"
	"coffeeshop/internal/service"
	"coffeeshop/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectionDb(cfg)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("database handle unavailable")
	}
	defer sqlDB.Close()

	if err := migrations.Up(ctx, sqlDB); err != nil {
		logger.WithError(err).Fatal("migrations failed")
	}

	validate := validator.New()

	jwtManager := &utils.JWTManager{
		Secret:          []byte(cfg.JWTSecret),
		Issuer:          cfg.JWTIssuer,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}

	userRepo := repository.NewUserRepository(db)
	codeRepo := repository.NewVerificationCodeRepository(db)
	securityRepo := repository.NewSecurityLogRepository(db)

	passwordHasher := service.BcryptPasswordHasher{}
	verifications := service.NewVerificationService(
		codeRepo,
		service.NewHOTPCodeGenerator(cfg.VerificationCodeDigits),
		service.RealClock{},
		cfg.VerificationCodeTTL,
	)

	authService := service.NewAuthService(
		userRepo,
		verifications,
		securityRepo,
		newCodeSender(cfg.Email, logger),
		passwordHasher,
		jwtManager,
		logger,
	)
	userService := service.NewUserService(userRepo, securityRepo, passwordHasher, logger)

	cleanup := scheduler.NewCleanupJob(userRepo, cfg.CleanupInterval, cfg.CleanupMaxAge, logger)
	go cleanup.Start(ctx)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.HTTPErrorHandler = handler.ErrorHandler
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.BodyLimit("1M"))
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status":  v.Status,
				"method":  v.Method,
				"uri":     v.URI,
				"ip":      v.RemoteIP,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authHandler := handler.NewAuthHandler(authService, userService, validate)
	userHandler := handler.NewUserHandler(userService, validate)
	authMiddleware := apiMiddleware.AuthMiddleware{JWT: jwtManager}
	router := routes.NewRouter(app, authHandler, userHandler, authMiddleware, cfg.AuthRatePerSec, cfg.AuthRateBurst)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server started")
		if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	logger.Info("server exited")
}

func newCodeSender(cfg config.EmailConfig, logger logrus.FieldLogger) service.CodeSender {
	switch cfg.Provider {
	case config.EmailProviderResend:
		return service.NewResendCodeSender(cfg.ResendAPIKey, cfg.From)
	case config.EmailProviderSMTP:
		return service.NewSMTPCodeSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From)
	default:
		return service.LogCodeSender{Logger: logger}
	}
}
