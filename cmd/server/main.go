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

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/anonto42/nano-sns/backend/internal/handlers"
	"github.com/anonto42/nano-sns/backend/internal/repositories"
	"github.com/anonto42/nano-sns/backend/internal/router"
	"github.com/anonto42/nano-sns/backend/internal/services"
	"github.com/anonto42/nano-sns/backend/internal/validators"
	"github.com/anonto42/nano-sns/backend/pkg/firebase"
	"github.com/anonto42/nano-sns/backend/pkg/telemetry"
)

const serviceName = "nano-sns"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Small social network: friends and direct messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newPurgeTokensCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(commandContext(cmd))
			if err != nil {
				return err
			}
			defer a.db.CloseDB()

			if err := repositories.Migrate(a.db.SQL); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			a.log.Info("Database schema is up to date")
			return nil
		},
	}
}

func newPurgeTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-tokens",
		Short: "Delete expired password reset tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.db.CloseDB()

			resets := services.NewPasswordResetService(repositories.NewStore(a.db.SQL), nil, a.cfg.ResetTokenTTL)
			n, err := resets.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			a.log.WithField("deleted", n).Info("Expired tokens purged")
			return nil
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func serve(ctx context.Context) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.db.CloseDB()
	cfg, log := a.cfg, a.log

	if cfg.AutoMigrate {
		if err := repositories.Migrate(a.db.SQL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("Auto-migrations completed for all models")
	}

	shutdownTracing, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint, log)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	pictures, err := newPictureStore(ctx, cfg)
	if err != nil {
		return err
	}

	// Initialize Firebase
	var verifier handlers.TokenVerifier
	fb, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath, log)
	if err != nil {
		return err
	}
	if fb != nil {
		verifier = fb
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	if cfg.OTLPEndpoint != "" {
		e.Use(telemetry.Middleware(serviceName))
	}
	a.setupMiddleware(e)

	err = router.SetupRoutes(e, router.Dependencies{
		Config:   cfg,
		DB:       a.db.SQL,
		Contacts: newContactRepository(cfg, a.db),
		Mailer:   newMailer(cfg, log),
		Pictures: pictures,
		Firebase: verifier,
		Registry: registry,
		Log:      log,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
