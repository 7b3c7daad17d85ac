package router

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anonto42/nano-sns/backend/internal/handlers"
	"github.com/anonto42/nano-sns/backend/internal/metrics"
	"github.com/anonto42/nano-sns/backend/internal/middleware"
	"github.com/anonto42/nano-sns/backend/internal/repositories"
	"github.com/anonto42/nano-sns/backend/internal/services"
	"github.com/anonto42/nano-sns/backend/internal/views"
	"github.com/anonto42/nano-sns/backend/pkg/config"
	"github.com/anonto42/nano-sns/backend/pkg/mailer"
	"github.com/anonto42/nano-sns/backend/pkg/storage"
)

// Dependencies are the process-wide resources the routes are built on
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Contacts repositories.ContactRepository
	Mailer   mailer.Mailer
	Pictures storage.PictureStore
	Firebase handlers.TokenVerifier // nil disables Firebase login
	Registry *prometheus.Registry
	Log      *logrus.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	cfg := deps.Config
	log := deps.Log

	renderer, err := views.NewRenderer()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	e.Renderer = renderer
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(e, log)

	m := metrics.NewMetrics(deps.Registry)
	e.Use(m.Middleware())

	// --- Initialize Services ---
	store := repositories.NewStore(deps.DB)
	resets := services.NewPasswordResetService(store, m, cfg.ResetTokenTTL)
	accounts := services.NewAccountService(store, resets, deps.Pictures, m)
	connections := services.NewConnectionService(store, m)
	messaging := services.NewMessagingService(store, m)
	notifier := services.NewNotifier(deps.Mailer, cfg.BaseURL, cfg.SupportEmail)
	contacts := services.NewContactService(deps.Contacts, notifier, log)

	sessions := handlers.NewSessions(cfg.SessionKey, int(cfg.SessionTTL.Seconds()), cfg.IsProduction())
	authenticator := middleware.NewAuthenticator(cfg.JWTSecret, cfg.SessionTTL, cfg.IsProduction(), accounts)
	e.Use(authenticator.JWTAuthMiddleware())
	e.Use(middleware.CSRF(cfg.IsProduction()))
	requireLogin := middleware.RequireLogin()

	// Health check and metrics - always accessible
	e.GET("/health", handlers.NewHealthHandler(deps.DB).HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	e.Static("/static", cfg.StaticDir)

	handlers.NewHomeHandler(connections, sessions).RegisterHomeRoutes(e)
	handlers.NewAuthHandler(accounts, resets, notifier, authenticator, sessions, deps.Firebase, log).RegisterAuthRoutes(e)
	log.WithField("firebase", deps.Firebase != nil).Info("Auth routes configured")

	handlers.NewUserHandler(accounts, connections, sessions).RegisterUserRoutes(e, requireLogin)
	handlers.NewConnectHandler(connections, sessions, log).RegisterConnectRoutes(e, requireLogin)
	handlers.NewMessageHandler(messaging, connections, accounts, renderer, sessions).RegisterMessageRoutes(e, requireLogin)
	handlers.NewContactHandler(contacts, sessions).RegisterContactRoutes(e, requireLogin)
	log.Info("User, connect, message and contact routes configured")

	if cfg.DebugRoutes {
		handlers.NewDebugHandler(accounts, store, sessions).RegisterDebugRoutes(e)
		log.Warn("Debug maintenance routes enabled")
	}

	log.Info("All routes configured")
	return nil
}
