package worker

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spendwise/spendwise/internal/infrastructure/database"
	"github.com/spendwise/spendwise/internal/interfaces/cli"
	httpapi "github.com/spendwise/spendwise/internal/interfaces/http"
)

var env string

// NewCommand runs the maintenance jobs without serving HTTP: audit
// retention, usage reconciliation and operator policy reload. Run one
// worker per deployment.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run scheduled maintenance jobs",
		RunE:  run,
	}
	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	env = cli.ResolveEnv(env)
	cfg, log, err := cli.Bootstrap(env)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.OpenDatabase(ctx, cfg); err != nil {
		return err
	}
	defer database.Close()

	redisClient, err := httpapi.NewRedisClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	container, err := httpapi.NewContainer(cfg, database.Get(), redisClient, log)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	if err := container.Start(ctx); err != nil {
		return err
	}
	defer container.Shutdown()

	container.Scheduler().Start()
	log.Infow("worker started", "environment", env)

	<-ctx.Done()
	log.Infow("worker stopping")
	return nil
}
