// Package main provides the entry point for the form signal worker.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/form-signals/internal/config"
	"github.com/yourusername/form-signals/internal/database"
	"github.com/yourusername/form-signals/internal/engine"
	"github.com/yourusername/form-signals/internal/health"
	"github.com/yourusername/form-signals/internal/logger"
	"github.com/yourusername/form-signals/internal/metrics"
	"github.com/yourusername/form-signals/internal/publisher"
	"github.com/yourusername/form-signals/internal/repository"
	"github.com/yourusername/form-signals/internal/scheduler"
	"github.com/yourusername/form-signals/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to configuration file")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadValidated(ctx, *configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("Form signal worker starting")

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to run migrations")
	}

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	var redisClient *redis.Client
	if cfg.Publisher.Kind == publisher.KindRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLog.WithError(err).Fatal("Failed to connect to Redis")
		}
	}

	pub, err := publisher.New(cfg.Publisher, redisClient, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create publisher")
	}
	defer func() {
		if err := pub.Close(); err != nil {
			appLog.WithError(err).Warn("Failed to close publisher")
		}
	}()

	eng := engine.New(cfg.Rules.Thresholds())
	svc := service.NewSignalService(eng, repos, pub, cfg.Analysis, appLog)

	healthCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Health.Port,
		Logger:      appLog,
		DB:          db,
	}
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		healthCfg.Metrics = metrics.Handler()
		healthCfg.MetricsPath = cfg.Metrics.Path
	}
	if broadcast, ok := pub.(*publisher.BroadcastPublisher); ok {
		healthCfg.Handlers = map[string]http.Handler{"/ws/opportunities": broadcast}
	}
	healthServer := health.NewServer(healthCfg)
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	sched := scheduler.NewScheduler(svc, appLog)
	if cfg.Scheduler.Enabled {
		if err := sched.ScheduleAnalysis(cfg.Scheduler.ScheduledAnalysis); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule analysis")
		}
		if err := sched.ScheduleLiveAnalysis(cfg.Scheduler.LiveAnalysis); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule live analysis")
		}
		if err := sched.ScheduleBackfill(cfg.Scheduler.Backfill); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule backfill")
		}
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
	} else {
		appLog.Warn("Scheduler disabled; worker only serves health endpoints")
	}

	healthServer.SetReady(true)
	appLog.WithFields(logrus.Fields{
		"publisher":   pub.Name(),
		"rules":       len(eng.Catalog().Rules()),
		"health_port": cfg.Health.Port,
		"next_run":    sched.GetNextRun().Format(time.RFC3339),
	}).Info("Form signal worker running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)
	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Failed to stop scheduler")
	}
	cancel()

	appLog.Info("Form signal worker stopped")
}
