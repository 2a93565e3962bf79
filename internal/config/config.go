package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the worker and API settings that are not database-specific;
// the database config lives with the storage package.
type Config struct {
	HTTPPort string `env:"HTTP_PORT,default=8080"`

	PollInterval  time.Duration `env:"QUEUE_POLL_INTERVAL,default=30s"`
	BatchLimit    int           `env:"QUEUE_BATCH_LIMIT,default=10"`
	RetentionDays int           `env:"QUEUE_RETENTION_DAYS,default=30"`
	StuckAfter    time.Duration `env:"QUEUE_STUCK_AFTER,default=30m"`

	SMSGatewayURL   string `env:"SMS_GATEWAY_URL,default=https://api.twilio.example"`
	SMSGatewayToken string `env:"SMS_GATEWAY_TOKEN"`
	SMSFromNumber   string `env:"SMS_FROM_NUMBER"`
	ContactPhone    string `env:"CONTACT_PHONE_NUMBER"`
}

func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	var errs []string
	if cfg.PollInterval <= 0 {
		errs = append(errs, "QUEUE_POLL_INTERVAL must be positive")
	}
	if cfg.BatchLimit < 1 {
		errs = append(errs, "QUEUE_BATCH_LIMIT must be at least 1")
	}
	if cfg.RetentionDays < 1 {
		errs = append(errs, "QUEUE_RETENTION_DAYS must be at least 1")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}

	return &cfg, nil
}
