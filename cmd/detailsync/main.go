package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/detailsync/internal/api"
	"github.com/terraincognita07/detailsync/internal/config"
	"github.com/terraincognita07/detailsync/internal/db"
	"github.com/terraincognita07/detailsync/internal/i18n"
	"github.com/terraincognita07/detailsync/internal/logging"
	"github.com/terraincognita07/detailsync/internal/services"
)

const csrfCookieName = "detailsync_csrf"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	envFile string
}

func newRootCommand() *cobra.Command {
	options := &rootOptions{}
	root := &cobra.Command{
		Use:           "detailsync",
		Short:         "DetailSync marketing site and sign-up service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&options.envFile, "env-file", ".env", "optional dotenv file loaded before the environment")

	root.AddCommand(
		newServeCommand(options),
		newMigrateCommand(options),
		newSignupsCommand(options),
	)
	return root
}

func (options *rootOptions) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(options.envFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	return cfg, logging.New(cfg.AppEnv), nil
}

func newServeCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := options.load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, logger)
		},
	}
}

func newMigrateCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := options.load()
			if err != nil {
				return err
			}
			store, err := db.OpenRecordStore(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("database init failed: %w", err)
			}
			defer store.Close()

			logger.Info().Str("driver", cfg.DBDriver).Msg("migrations applied")
			return nil
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	store, err := db.OpenRecordStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("close record store")
		}
	}()

	i18nManager, err := i18n.NewManager(cfg.DefaultLanguage, cfg.LocalesDir)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}
	catalog, err := services.LoadCatalog()
	if err != nil {
		return fmt.Errorf("catalog init failed: %w", err)
	}

	socialProof := services.NewSocialProofCounter(cfg.SocialProofInterval)
	handler, err := api.NewHandler(api.Dependencies{
		Signups: services.NewSignupService(store, services.SignupServiceOptions{
			RequireUniqueEmail: cfg.RequireUniqueEmail,
			Logger:             logger,
		}),
		Receipts:    services.NewReceiptIssuer([]byte(cfg.SecretKey), 0),
		Catalog:     catalog,
		SocialProof: socialProof,
		Health:      store,
		I18n:        i18nManager,
		Logger:      logger,
	}, api.Options{
		SecretKey:                cfg.SecretKey,
		TemplateDir:              cfg.TemplateDir,
		CookieSecure:             cfg.CookieSecure,
		SignupRateLimitPerMinute: cfg.SignupRateLimitPerMinute,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	app := newApp(cfg, handler)

	lifecycleCtx, cancelLifecycle := context.WithCancel(ctx)
	defer cancelLifecycle()
	socialProof.Start(lifecycleCtx)
	defer socialProof.Stop()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-lifecycleCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	logger.Info().
		Str("port", cfg.Port).
		Str("driver", cfg.DBDriver).
		Bool("unique_email", cfg.RequireUniqueEmail).
		Msg("detailsync listening")
	listenErr := app.Listen(":" + cfg.Port)

	cancelLifecycle()
	<-shutdownDone
	if listenErr != nil && !errors.Is(listenErr, context.Canceled) {
		return fmt.Errorf("server exited: %w", listenErr)
	}
	return nil
}

func newApp(cfg *config.Config, handler *api.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "DetailSync",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(handler.RequestLogger)
	app.Use(compress.New())
	app.Use(cors.New(corsMiddlewareConfig(cfg.CORSOrigin)))
	app.Use(handler.LanguageMiddleware)
	app.Use(csrf.New(csrfMiddlewareConfig(cfg.CookieSecure)))

	app.Static("/static", cfg.StaticDir)
	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app
}

// csrfMiddlewareConfig protects browser form posts. JSON API clients are
// skipped; a cross-origin JSON post needs a CORS preflight first.
func csrfMiddlewareConfig(cookieSecure bool) csrf.Config {
	return csrf.Config{
		KeyLookup:      "form:csrf_token",
		CookieName:     csrfCookieName,
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		CookieSecure:   cookieSecure,
		ContextKey:     "csrf",
		Next: func(c *fiber.Ctx) bool {
			return c.Is("json")
		},
	}
}

func corsMiddlewareConfig(origin string) cors.Config {
	return cors.Config{
		AllowOrigins: origin,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Accept,Accept-Language,X-Request-ID",
	}
}
