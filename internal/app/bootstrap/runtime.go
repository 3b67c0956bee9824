package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	alertadapter "github.com/meridianhealth/account-security-service/internal/adapters/alerts"
	cacheadapter "github.com/meridianhealth/account-security-service/internal/adapters/cache"
	"github.com/meridianhealth/account-security-service/internal/adapters/geoip"
	httpadapter "github.com/meridianhealth/account-security-service/internal/adapters/http"
	"github.com/meridianhealth/account-security-service/internal/adapters/postgres"
	"github.com/meridianhealth/account-security-service/internal/adapters/security"
	"github.com/meridianhealth/account-security-service/internal/application"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	dispatcher *alertadapter.DispatchWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping account security service", "http_port", cfg.HTTPPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	verifier, err := security.NewServiceTokenVerifier(cfg.ServiceTokenSecret)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init service token verifier: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			SessionTTL:             cfg.SessionTTL,
			DefaultLockoutDuration: cfg.DefaultLockoutDuration,
			PolicyCacheTTL:         cfg.PolicyCacheTTL,
			StoreRetryAttempts:     cfg.StoreRetryAttempts,
			StoreRetryBackoff:      cfg.StoreRetryBackoff,
			AlertEmitTimeout:       cfg.AlertEmitTimeout,
		},
		Policies:     repos.Policies,
		History:      repos.History,
		Lockouts:     repos.Lockouts,
		Sessions:     repos.Sessions,
		Baselines:    repos.Baselines,
		Activity:     repos.Activity,
		Users:        repos.Users,
		AlertOutbox:  repos.AlertOutbox,
		PolicyCache:  cacheadapter.NewRedisPolicyCache(redisClient),
		Terminations: cacheadapter.NewRedisTerminationStore(redisClient),
		Geo:          geoip.NewStaticResolver(cfg.GeoIPTable),
		Hasher:       security.NewBcryptHasher(cfg.BcryptCost),
	})

	handler := httpadapter.NewHandler(svc, verifier)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	dispatcher := alertadapter.NewDispatchWorker(
		logger,
		repos.AlertOutbox,
		alertadapter.NewLoggingPublisher(logger),
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
		cfg.OutboxClaimTTL,
		cfg.OutboxMaxRetries,
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    svc,
		httpServer: httpServer,
		dispatcher: dispatcher,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

// RunAPI serves the HTTP surface and the in-process session sweeper until a
// shutdown signal arrives.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go r.runSweeper(ctx)

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

// RunWorker drives the alert dispatch loop until a shutdown signal arrives.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("alert dispatch worker started")
	err := r.dispatcher.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}

// runSweeper periodically terminates expired sessions. The sweep is an
// idempotent bulk update, so overlap with another instance is harmless.
func (r *Runtime) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.service.SweepExpiredSessions(ctx); err != nil {
				r.logger.ErrorContext(ctx, "session sweep failed",
					"module", "bootstrap",
					"layer", "app",
					"operation", "sweep_expired_sessions",
					"outcome", "failure",
					"error", err,
				)
			}
		}
	}
}
