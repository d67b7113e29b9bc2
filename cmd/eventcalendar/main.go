package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"eventcalendar/config"
	"eventcalendar/internal/adapters/auth"
	"eventcalendar/internal/adapters/email"
	"eventcalendar/internal/adapters/ical"
	httpdelivery "eventcalendar/internal/delivery/http"
	"eventcalendar/internal/delivery/http/controllers"
	_ "eventcalendar/internal/docs"
	"eventcalendar/internal/repository/postgres"
	"eventcalendar/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "eventcalendar",
		Usage: "Shared calendar API: events, membership and invitations.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and exit.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.NewLogger()

			db, err := postgres.Open(c.Context, cfg.DBUrl)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(c.Context, db); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "skip-migrations", Usage: "Do not apply migrations on startup."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.NewLogger()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := postgres.Open(ctx, cfg.DBUrl)
			if err != nil {
				return err
			}
			defer db.Close()
			if !c.Bool("skip-migrations") {
				if err := postgres.Migrate(ctx, db); err != nil {
					return err
				}
			}

			handler, err := buildHandler(cfg, logger, db)
			if err != nil {
				return err
			}
			return serve(ctx, logger, ":"+cfg.Port, handler)
		},
	}
}

func buildHandler(cfg *config.Config, logger *slog.Logger, db *sql.DB) (http.Handler, error) {
	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	jwt := auth.NewJWT(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	encoder := ical.NewEncoder(uidDomain(cfg.BaseURL))

	invitationService := services.NewInvitationService(invitationRepo, eventRepo, userRepo, emailService, cfg.BaseURL, logger, time.Now, cfg.ContextTimeout)
	eventService := services.NewEventService(eventRepo, userRepo, invitationService, encoder, logger, time.Now, cfg.ContextTimeout)
	authService := services.NewAuthService(userRepo, hasher, jwt, cfg.JWTExpiry, logger, time.Now, cfg.ContextTimeout)
	userService := services.NewUserService(userRepo, cfg.ContextTimeout)

	return httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Logger:               logger,
		Verifier:             jwt,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		AuthController:       controllers.NewAuthController(logger, authService),
		UserController:       controllers.NewUserController(logger, userService),
		EventController:      controllers.NewEventController(logger, eventService),
		InvitationController: controllers.NewInvitationController(logger, invitationService),
	}), nil
}

// uidDomain returns the host of baseURL, used to qualify exported iCalendar UIDs.
func uidDomain(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "eventcalendar.local"
	}
	return u.Hostname()
}

func serve(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
