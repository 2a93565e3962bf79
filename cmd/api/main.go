package main

import (
	"context"

	"go.uber.org/zap"

	"venueq/internal/api"
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

	// The API's manual drain endpoint dispatches jobs, so it needs the same
	// handler set the worker uses.
	worker.Register(q.Registry(), worker.Deps{
		Queue:        q,
		SMS:          sms.NewClient(cfg.SMSGatewayURL, cfg.SMSGatewayToken, cfg.SMSFromNumber),
		Messaging:    postgres.NewMessagingRepository(db),
		Logger:       logger,
		ContactPhone: cfg.ContactPhone,
	})

	router := api.NewRouter(q, cfg.BatchLimit)

	logger.Info("api listening", zap.String("port", cfg.HTTPPort))
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
