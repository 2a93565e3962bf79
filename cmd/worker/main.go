package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"venueq/internal/config"
	"venueq/internal/queue"
	"venueq/internal/sms"
	"venueq/internal/storage/postgres"
	"venueq/internal/worker"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		logger.Fatal("failed to load database config", zap.Error(err))
	}

	db, err := postgres.ConnectDB(dbCfg, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := postgres.Migrate(db); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	repo := postgres.NewJobRepository(db)
	q := queue.New(repo, queue.NewRegistry(), logger)

	worker.Register(q.Registry(), worker.Deps{
		Queue:        q,
		SMS:          sms.NewClient(cfg.SMSGatewayURL, cfg.SMSGatewayToken, cfg.SMSFromNumber),
		Messaging:    postgres.NewMessagingRepository(db),
		Logger:       logger,
		ContactPhone: cfg.ContactPhone,
	})
	logger.Info("handlers registered",
		zap.Int("types", len(q.Registry().Types())))

	// The queue has no scheduler of its own; these ticks are the external
	// trigger that drives processing and retention.
	c := cron.New()

	_, err = c.AddFunc("@every "+cfg.PollInterval.String(), func() {
		processed, err := q.ProcessJobs(ctx, cfg.BatchLimit)
		if err != nil {
			logger.Error("processing pass failed", zap.Error(err))
			return
		}
		if processed > 0 {
			logger.Info("processing pass finished", zap.Int("processed", processed))
		}
	})
	if err != nil {
		logger.Fatal("failed to schedule processing", zap.Error(err))
	}

	if _, err := c.AddFunc("@daily", func() {
		if _, err := q.Cleanup(ctx, cfg.RetentionDays); err != nil {
			logger.Error("cleanup pass failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("failed to schedule cleanup", zap.Error(err))
	}

	if _, err := c.AddFunc("@every 10m", func() {
		q.ReportStuck(ctx, cfg.StuckAfter)
	}); err != nil {
		logger.Fatal("failed to schedule stuck-job report", zap.Error(err))
	}

	c.Start()
	logger.Info("worker running",
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Int("batch_limit", cfg.BatchLimit))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	<-c.Stop().Done()
	logger.Info("shutdown complete")
}
