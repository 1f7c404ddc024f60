// Package cli holds the start-up steps shared by every command.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spendwise/spendwise/internal/infrastructure/config"
	"github.com/spendwise/spendwise/internal/infrastructure/database"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// MapEnvToGinMode turns a deployment environment name into a gin mode.
func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}

// ResolveEnv lets the ENV variable override the --env flag.
func ResolveEnv(flag string) string {
	if v := os.Getenv("ENV"); v != "" {
		return v
	}
	return flag
}

// Bootstrap loads configuration and initializes the logger and the
// business timezone.
func Bootstrap(env string) (*config.Config, logger.Interface, error) {
	mode := MapEnvToGinMode(env)
	cfg, err := config.Load(mode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger, mode == "debug"); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := biztime.Init(cfg.Tenancy.BizTimezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}
	return cfg, logger.NewLogger(), nil
}

// OpenDatabase connects to the configured database. Call database.Close when done.
func OpenDatabase(ctx context.Context, cfg *config.Config) error {
	if err := database.Init(ctx, &cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}
