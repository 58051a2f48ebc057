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

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/dental-api/internal/config"
	"github.com/jwalitptl/dental-api/internal/handler"
	"github.com/jwalitptl/dental-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/dental-api/internal/handler/auth"
	"github.com/jwalitptl/dental-api/internal/handler/dashboard"
	"github.com/jwalitptl/dental-api/internal/handler/event"
	"github.com/jwalitptl/dental-api/internal/handler/patient"
	"github.com/jwalitptl/dental-api/internal/middleware"
	"github.com/jwalitptl/dental-api/internal/repository"
	"github.com/jwalitptl/dental-api/internal/repository/backend"
	"github.com/jwalitptl/dental-api/internal/router"
	authService "github.com/jwalitptl/dental-api/internal/service/auth"
	"github.com/jwalitptl/dental-api/internal/store"
	"github.com/jwalitptl/dental-api/internal/worker"
	"github.com/jwalitptl/dental-api/pkg/logger"
	"github.com/jwalitptl/dental-api/pkg/messaging/redis"
	"github.com/jwalitptl/dental-api/pkg/metrics"
	"github.com/jwalitptl/dental-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.Setup(cfg.Log)
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, l); err != nil {
		l.Fatal().Err(err).Msg("server stopped")
	}
	l.Info().Msg("server exited properly")
}

func run(cfg *config.Config, l zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Metrics.Namespace, reg)

	// Initialize persistence
	repo, err := backend.Open(ctx, cfg.Storage, m)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer repo.Close()
	snapshots := repository.NewSnapshots(repo, cfg.Storage.Prefix)
	l.Info().Str("driver", snapshots.Driver()).Msg("storage opened")

	// Initialize credential directory
	directory, err := authService.NewStaticDirectory(cfg.Auth.Accounts, security.NewBcryptHasher(cfg.Auth.BcryptCost))
	if err != nil {
		return fmt.Errorf("failed to build account directory: %w", err)
	}

	opts := []store.Option{
		store.WithDirectory(directory),
		store.WithLogger(l),
		store.WithMetrics(m),
	}

	// Optional change fan-out over Redis pub/sub
	if cfg.Events.RedisURL != "" {
		broker, err := redis.NewRedisBroker(ctx, redis.Config{URL: cfg.Events.RedisURL}, l)
		if err != nil {
			return fmt.Errorf("failed to connect to event broker: %w", err)
		}
		defer broker.Close()
		opts = append(opts, store.WithObserver(store.PublishTo(broker, cfg.Events.Channel, 2*time.Second, l, m)))
	}

	st := store.New(snapshots, opts...)
	if err := st.Load(ctx); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	if cfg.Backup.Enabled {
		backupRepo, err := backend.Open(ctx, cfg.Backup.Storage, m)
		if err != nil {
			return fmt.Errorf("failed to open %s backup storage: %w", cfg.Backup.Storage.Driver, err)
		}
		defer backupRepo.Close()
		target := repository.NewSnapshots(backupRepo, cfg.Backup.Storage.Prefix)
		go worker.NewBackupWorker(st, target, cfg.Backup.Interval(), l, m).Start(ctx)
	}

	// Initialize services
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		l.Warn().Msg("auth.jwt_secret not set, using a random secret; tokens will not survive a restart")
	}
	tokens, err := authService.NewTokenService(secret, cfg.Auth.Expiry())
	if err != nil {
		return err
	}
	authSvc := authService.NewService(st, tokens, l)

	loc, err := cfg.Clinic.Location()
	if err != nil {
		return err
	}

	// Initialize handlers
	events := event.NewHandler(st, 30*time.Second)
	handlers := router.Handlers{
		Auth:        authHandler.NewHandler(authSvc),
		Patient:     patient.NewHandler(st),
		Appointment: appointment.NewHandler(st),
		Dashboard:   dashboard.NewHandler(st, time.Now, loc),
		Event:       events,
		Health:      handler.NewHandler(snapshots, snapshots.Driver(), reg),
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.Security.AllowedOrigins

	r := router.NewRouter(middleware.NewAuthMiddleware(authSvc), handlers, m, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		LoginPerMinute:   cfg.RateLimit.LoginPerMinute,
		CORSConfig:       corsConfig,
		Security:         middleware.DefaultSecurityConfig(),
		MetricsEnabled:   cfg.Metrics.Enabled,
		RequestTimeout:   cfg.Server.Timeout(),
		Logger:           l,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: cfg.Server.Timeout(),
	}
	srv.RegisterOnShutdown(events.Shutdown)

	errCh := make(chan error, 1)
	go func() {
		l.Info().Int("port", cfg.Server.Port).Msg("starting server")
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
	l.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
