package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamie/internal/core/services"
	httphandlers "streamie/internal/handlers/http"
	"streamie/internal/infrastructure/chat"
	"streamie/internal/infrastructure/middleware"
	"streamie/internal/infrastructure/monitoring"
	"streamie/internal/infrastructure/repositories"
	"streamie/pkg/config"
	"streamie/pkg/logger"
	"streamie/pkg/tracing"

	"github.com/gin-gonic/gin"
)

func main() {
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/streamie/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error
	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "streamie",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), cfg.Store.ConnectTimeout*time.Duration(cfg.Store.ConnectRetries+1))
	repoFactory, err := repositories.NewRepositoryFactory(startupCtx, cfg, log)
	startupCancel()
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}

	collector := monitoring.NewPrometheusCollector()

	// Services
	codec, err := services.NewTokenCodec(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatalw("failed to create token codec", "error", err)
	}
	authService := services.NewAuthService(codec, cfg.Auth.TokenTTL, log)
	captchaService := services.NewCaptchaService(cfg.Auth.JWTSecret, cfg.Auth.CaptchaLength, cfg.Auth.CaptchaTTL)
	userService := services.NewUserService(repoFactory.UserRepository(), services.NewPasswordHasher(cfg.Auth.BcryptCost), log)
	sessionService := services.NewCachedSessionService(
		services.NewSessionService(repoFactory.SessionRepository(), log),
		repoFactory.SessionCache(),
		log,
	)

	hub, err := chat.NewHub(chat.Config{
		Capacity:  cfg.Chat.Capacity,
		LagPolicy: chat.LagPolicy(cfg.Chat.LagPolicy),
	}, collector, log)
	if err != nil {
		log.Fatalw("failed to create chat hub", "error", err)
	}
	chatService := services.NewChatService(hub, services.ChatRateLimit{
		MessagesPerSecond: cfg.Chat.MessagesPerSecond,
		Burst:             cfg.Chat.Burst,
	}, log)

	health := monitoring.NewHealthChecker()
	health.AddCheck("store", 2*time.Second, repoFactory.HealthCheck)

	// Router
	if err := httphandlers.RegisterValidators(); err != nil {
		log.Fatalw("failed to register validators", "error", err)
	}
	templates, err := httphandlers.LoadTemplates(cfg.Web.TemplatesDir)
	if err != nil {
		log.Fatalw("failed to load templates", "error", err)
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.SetHTMLTemplate(templates)
	router.Use(
		middleware.RecoveryMiddleware(log, httphandlers.RenderErrorView),
		middleware.TracingMiddleware(),
		middleware.RequestLogger(logger.NewContextLogger(zapLogger), collector),
		middleware.ErrorHandlerMiddleware(log, httphandlers.RenderErrorView),
		middleware.NewHTTPRateLimitMiddleware(cfg, "/chat", "/chat/ws"),
		middleware.Authenticate(authService),
	)

	handlers := httphandlers.Handlers{
		Auth: httphandlers.NewAuthHandler(authService, captchaService, userService, httphandlers.CookieConfig{
			Secure:   cfg.Auth.CookieSecure,
			TokenTTL: cfg.Auth.TokenTTL,
		}, collector, log),
		Sessions: httphandlers.NewSessionHandler(sessionService),
		Admin:    httphandlers.NewAdminHandler(sessionService, log),
		Chat: httphandlers.NewChatHandler(chatService, httphandlers.ChatConfig{
			Heartbeat:    cfg.Chat.Heartbeat,
			PingInterval: cfg.Chat.PingInterval,
			PongTimeout:  cfg.Chat.PongTimeout,
		}, log),
		Users:     httphandlers.NewUserHandler(userService, log),
		Health:    health,
		StaticDir: cfg.Web.StaticDir,
	}
	if cfg.Monitoring.PrometheusEnabled {
		handlers.Metrics = collector.Handler()
		log.Info("Prometheus metrics enabled")
	}
	httphandlers.RegisterRoutes(router, authService, handlers)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting streamie server", "address", cfg.Server.Address, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// open chat streams only end once their subscriptions close
	hub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	} else {
		log.Info("server shutdown gracefully")
	}

	if err := repoFactory.Close(shutdownCtx); err != nil {
		log.Errorw("error closing repository factory", "error", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error shutting down tracer provider", "error", err)
	}

	log.Info("streamie server stopped")
}
