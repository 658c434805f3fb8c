package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/go-employee-api/internal/application/auth"
	"github.com/go-employee-api/internal/application/employee"
	"github.com/go-employee-api/internal/application/otp"
	"github.com/go-employee-api/internal/application/token"
	"github.com/go-employee-api/internal/config"
	"github.com/go-employee-api/internal/domain"
	"github.com/go-employee-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-employee-api/internal/infrastructure/jwt"
	"github.com/go-employee-api/internal/infrastructure/postgres"
	redisinfra "github.com/go-employee-api/internal/infrastructure/redis"
	"github.com/go-employee-api/internal/infrastructure/smtp"
	"github.com/go-employee-api/internal/infrastructure/sns"
	"github.com/go-employee-api/internal/observability"
	"github.com/go-employee-api/internal/pkg/password"
	transporthttp "github.com/go-employee-api/internal/transport/http"
	"github.com/go-employee-api/internal/transport/http/handler"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Connect to PostgreSQL and the session store, apply pending migrations
and serve the API until SIGINT or SIGTERM.`,
		RunE: runServe,
	}
}

// sessionStore is a registry plus the teardown for whatever backs it.
type sessionStore struct {
	domain.SessionRegistry
	close func() error
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.Open(ctx, cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	defer store.Close()
	if err := waitFor(ctx, "postgres", cfg.StartupRetries, store.Ping); err != nil {
		return err
	}
	if err := migrateUp(cfg.DatabaseURL); err != nil {
		return err
	}

	sessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sessions.close(); err != nil {
			slog.Warn("failed to close session store", "err", err)
		}
	}()
	if err := waitFor(ctx, "sessions", cfg.StartupRetries, sessions.Ping); err != nil {
		return err
	}

	notifier, err := openNotifier(ctx, cfg)
	if err != nil {
		return err
	}

	provider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	metrics := observability.NewMetrics()
	tokens := token.NewService(token.ServiceDeps{JWTProvider: provider, Sessions: sessions})
	otps := otp.NewService(otp.ServiceDeps{Notifier: notifier, Expiry: cfg.OTPExpiry})
	deps := &transporthttp.Deps{
		Auth: auth.NewService(auth.ServiceDeps{
			UnitOfWork: store,
			Sessions:   sessions,
			Tokens:     tokens,
			OTPs:       otps,
			Passwords:  password.NewCodec(cfg.BcryptCost),
			Events:     metrics,
		}),
		Employees: employee.NewService(employee.ServiceDeps{UnitOfWork: store, Sessions: sessions}),
		Metrics:   metrics,
		Readiness: []handler.ReadinessCheck{
			{Name: "postgres", Ping: store.Ping},
			{Name: "sessions", Ping: sessions.Ping},
		},
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv,
			"sessions", cfg.SessionBackend, "mail", cfg.MailBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	slog.Info("server stopped")
	return nil
}

// waitFor pings a dependency with exponential backoff until it answers or
// retries are exhausted.
func waitFor(ctx context.Context, name string, retries int, ping func(context.Context) error) error {
	b := retry.WithMaxRetries(uint64(max(retries, 0)), retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			slog.Warn("dependency not ready", "dependency", name, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DEPENDENCY_UNAVAILABLE").With("dependency", name).Wrap(err)
	}
	return nil
}

func migrateUp(databaseURL string) (err error) {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return m.Up()
}

func openSessions(ctx context.Context, cfg *config.Config) (*sessionStore, error) {
	switch cfg.SessionBackend {
	case config.BackendDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, oops.Code("SESSION_STORE_INIT_FAILED").Wrap(err)
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		reg := dynamo.NewSessionRegistry(client, cfg.DynamoTables.Sessions, cfg.JWTExpiry)
		return &sessionStore{SessionRegistry: reg, close: func() error { return nil }}, nil
	default:
		reg, err := redisinfra.New(cfg.RedisURL, cfg.JWTExpiry)
		if err != nil {
			return nil, oops.Code("SESSION_STORE_INIT_FAILED").Wrap(err)
		}
		return &sessionStore{SessionRegistry: reg, close: reg.Close}, nil
	}
}

func openNotifier(ctx context.Context, cfg *config.Config) (domain.Notifier, error) {
	switch cfg.MailBackend {
	case config.BackendSNS:
		n, err := sns.NewNotifier(ctx, cfg)
		if err != nil {
			return nil, oops.Code("NOTIFIER_INIT_FAILED").Wrap(err)
		}
		return n, nil
	default:
		return smtp.NewNotifier(cfg), nil
	}
}
