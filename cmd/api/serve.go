package main

import (
	"bms-service/internal/auth"
	"bms-service/internal/config"
	"bms-service/internal/repository"
	"bms-service/internal/repository/inmemory"
	"bms-service/internal/repository/postgres"
	"bms-service/internal/service"
	httptransport "bms-service/internal/transport/http"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	connectRetries    = 5
	connectRetryDelay = 2 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")

	return cmd
}

func (a *app) serve(ctx context.Context, skipMigrations bool) error {
	if a.cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.Storage == config.StoragePostgres && !skipMigrations {
		if err := a.migrateUp(); err != nil {
			return err
		}
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	limiter, err := a.rateLimiter(ctx)
	if err != nil {
		return err
	}
	defer limiter.Close()

	services := httptransport.Services{
		Users:       service.NewUserService(store, a.logger),
		Teams:       service.NewTeamService(store, a.logger),
		Tasks:       service.NewTaskService(store, a.logger),
		Meetings:    service.NewMeetingService(store, a.logger),
		Evaluations: service.NewEvaluationService(store, a.logger),
		Calendar:    service.NewCalendarService(store),
	}
	authenticator := auth.NewAuthenticator(a.cfg.JWTSecret, store.Repos().Users)

	httpHandler := httptransport.NewHandler(services, authenticator, a.logger,
		httptransport.WithRateLimiter(limiter, a.cfg.RateLimit.PerMinute),
	)

	srv := &http.Server{
		Addr:         a.cfg.ServerPort,
		Handler:      httpHandler.RegisterRoutes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		a.logger.Info("server starting", "port", a.cfg.ServerPort, "storage", a.cfg.Storage)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.logger.Info("server shut down gracefully")

	return nil
}

// openStore returns the configured persistence backend and a function releasing it.
func (a *app) openStore(ctx context.Context) (repository.Store, func(), error) {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warn("using in-memory storage; data is lost on exit")
		return inmemory.NewStorage(), func() {}, nil
	}

	a.logger.Info("connecting to database...")
	retrier := postgres.NewPostgresRetrier(connectRetries, connectRetryDelay, postgres.NewPsqlConnection)
	pool, err := postgres.NewPsqlConnectionWithRetrier(ctx, postgres.Config{DSN: a.cfg.DatabaseDSN}, retrier)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("database connection established")

	return postgres.NewStore(pool), pool.Close, nil
}

func (a *app) rateLimiter(ctx context.Context) (httptransport.RateLimiter, error) {
	rl := a.cfg.RateLimit
	if rl.RedisAddr == "" {
		return httptransport.NewMemoryRateLimiter(), nil
	}

	limiter, err := httptransport.NewRedisRateLimiter(ctx, httptransport.RedisConfig{
		Addr:     rl.RedisAddr,
		Password: rl.RedisPassword,
		DB:       rl.RedisDB,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("rate limiter backed by redis", "addr", rl.RedisAddr)

	return limiter, nil
}

