package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/yourusername/parlay-slip/internal/api"
	"github.com/yourusername/parlay-slip/internal/betslip"
	"github.com/yourusername/parlay-slip/internal/config"
	"github.com/yourusername/parlay-slip/internal/database"
	"github.com/yourusername/parlay-slip/internal/feed"
	"github.com/yourusername/parlay-slip/internal/health"
	"github.com/yourusername/parlay-slip/internal/logger"
	"github.com/yourusername/parlay-slip/internal/metrics"
	"github.com/yourusername/parlay-slip/internal/repository"
	"github.com/yourusername/parlay-slip/internal/scheduler"
	"github.com/yourusername/parlay-slip/internal/service"
)

const shutdownTimeout = 15 * time.Second

func serve(ctx context.Context) error {
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"store":       cfg.Store.Backend,
		"version":     Version,
	}).Info("Slip server starting")

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var db *database.DB
	if cfg.Store.Backend == config.StorePostgres {
		var err error
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		appLog.Info("Database connection established")
	}

	var rdb *redis.Client
	if cfg.Store.Backend == config.StoreRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		appLog.WithField("addr", cfg.Redis.Addr).Info("Redis connection established")
	}

	repos, err := repository.NewRepositories(cfg, db, rdb)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	persister := service.NewPersister(repos.Slips, service.PersisterConfig{
		Backend:    repos.Backend,
		QueueSize:  cfg.Store.RetryQueueSize,
		RetryLimit: cfg.Store.RetryQueueSize,
	}, logger.NewAuditLogger(appLog), m)
	// Writes outlive the signal context so shutdown can still flush them.
	persister.Start(context.Background())

	deps := service.Dependencies{
		Slips:     repos.Slips,
		Templates: repos.Templates,
		Persister: persister,
		Logger:    appLog,
		Metrics:   m,
	}

	var feedClient *feed.Client
	var lister api.SuggestionLister
	if cfg.Feed.BaseURL != "" {
		feedClient = feed.NewClient(cfg.Feed, appLog, m)
		defer feedClient.Close()
		deps.Suggestions = feedClient
		lister = feedClient
	}

	slips := service.New(service.Config{
		Slip: betslip.Config{
			MaxLegs:         cfg.Slip.MaxLegs,
			AllowCorrelated: cfg.Slip.AllowCorrelated,
			DefaultStake:    cfg.Slip.DefaultStake,
		},
		MaxPool:     cfg.Slip.MaxRoundRobinPool,
		IdleTimeout: cfg.SessionIdleTimeout(),
	}, deps)

	jobs, err := newScheduler(slips, persister, feedClient)
	if err != nil {
		return err
	}
	if err := jobs.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	healthSrv := newHealthServer(repos, slips, persister, feedClient)
	if err := healthSrv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	grpcSrv, grpcHealth, err := startGRPC(cfg.Server.GRPCPort)
	if err != nil {
		return err
	}

	handler := api.NewHandler(slips, lister, appLog)
	httpSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, api.RouterOptions{
			CORSOrigins: cfg.Server.CORSOrigins,
			Metrics:     m,
			MetricsPath: cfg.Metrics.Path,
		}),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLog.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	healthSrv.SetReady(true)

	select {
	case <-ctx.Done():
		appLog.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			appLog.WithError(err).Error("HTTP server failed")
		}
	}

	healthSrv.SetReady(false)
	if grpcHealth != nil {
		grpcHealth.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("HTTP server shutdown failed")
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := jobs.Stop(); err != nil {
		appLog.WithError(err).Warn("Scheduler stop timed out")
	}
	if err := slips.Close(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Failed to flush pending slip writes")
	}
	if n := persister.Pending(); n > 0 {
		appLog.WithField("pending", n).Warn("Slip writes still unsaved at shutdown")
	}
	appLog.Info("Slip server stopped")
	return nil
}

func newScheduler(slips *service.Service, persister *service.Persister, feedClient *feed.Client) (*scheduler.Scheduler, error) {
	jobs := scheduler.NewScheduler(appLog)

	if err := jobs.SchedulePersistRetry(cfg.Scheduler.PersistRetry, persister); err != nil {
		return nil, err
	}
	if err := jobs.ScheduleSessionEviction(cfg.Scheduler.SessionEviction, slips); err != nil {
		return nil, err
	}
	if feedClient != nil && cfg.Scheduler.SuggestionPrefetch != "" && len(cfg.Scheduler.PrefetchSports) > 0 {
		if err := jobs.ScheduleSuggestionPrefetch(cfg.Scheduler.SuggestionPrefetch, feedClient, cfg.Scheduler.PrefetchSports); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func newHealthServer(repos *repository.Repositories, slips *service.Service, persister *service.Persister, feedClient *feed.Client) *health.Server {
	checks := map[string]health.Pinger{}
	if p, ok := repos.Slips.(repository.Pinger); ok {
		checks["store"] = p
	}

	return health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Port:        cfg.Server.HealthPort,
		Logger:      appLog,
		Checks:      checks,
		Stats: func() map[string]interface{} {
			stats := map[string]interface{}{
				"sessions":       slips.Sessions(),
				"pending_writes": persister.Pending(),
				"store":          repos.Backend,
			}
			if feedClient != nil {
				stats["feed_circuit_open"] = feedClient.CircuitOpen()
			}
			return stats
		},
	})
}

// startGRPC serves the standard gRPC health service. A zero port disables it.
func startGRPC(port int) (*grpc.Server, *grpchealth.Server, error) {
	if port == 0 {
		return nil, nil, nil
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on gRPC port %d: %w", port, err)
	}

	srv := grpc.NewServer()
	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("parlay.slip", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		appLog.WithField("port", port).Info("gRPC health server listening")
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			appLog.WithError(err).Error("gRPC server failed")
		}
	}()
	return srv, hs, nil
}
