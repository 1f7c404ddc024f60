package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/spendwise/spendwise/internal/infrastructure/database"
	"github.com/spendwise/spendwise/internal/infrastructure/migration"
	"github.com/spendwise/spendwise/internal/interfaces/cli"
	httpapi "github.com/spendwise/spendwise/internal/interfaces/http"
)

var (
	env           string
	autoMigrate   bool
	skipSeed      bool
	withScheduler bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the Spendwise HTTP server: tenant resolution, gating and the operator console.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup")
	cmd.Flags().BoolVar(&skipSeed, "skip-plan-seed", false, "Do not create missing plans from the catalog file")
	cmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "Also run the maintenance jobs in this process")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	env = cli.ResolveEnv(env)
	cfg, log, err := cli.Bootstrap(env)
	if err != nil {
		return err
	}
	log.Infow("starting server", "environment", env, "mode", cfg.Server.Mode, "auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.OpenDatabase(ctx, cfg); err != nil {
		return err
	}
	defer database.Close()

	if autoMigrate {
		if cfg.Server.IsRelease() {
			log.Warnw("auto-migration is enabled in release mode")
		}
		if err := migration.NewManager(cfg.Server.Mode).Migrate(database.Get()); err != nil {
			return err
		}
	}

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
	if !skipSeed {
		if err := container.SeedPlans(ctx); err != nil {
			return err
		}
	}
	if err := container.Start(ctx); err != nil {
		return err
	}
	defer container.Shutdown()
	if withScheduler {
		container.Scheduler().Start()
	}

	srv := &http.Server{
		Addr:              cfg.Server.GetAddr(),
		Handler:           container.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Infow("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}
	log.Infow("server exited gracefully")
	return nil
}
