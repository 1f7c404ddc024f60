package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spendwise/spendwise/internal/infrastructure/database"
	"github.com/spendwise/spendwise/internal/infrastructure/migration"
	"github.com/spendwise/spendwise/internal/interfaces/cli"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

var (
	env   string
	name  string
	steps int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations including running migrations, checking status, and creating new migration files.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "production", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new SQL migration",
		RunE:  runCreate,
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// withManager connects to the database and hands fn a migration manager for
// the configured mode.
func withManager(cmd *cobra.Command, fn func(m *migration.Manager, log logger.Interface) error) error {
	cfg, log, err := cli.Bootstrap(cli.ResolveEnv(env))
	if err != nil {
		return err
	}
	if err := cli.OpenDatabase(cmd.Context(), cfg); err != nil {
		return err
	}
	defer database.Close()

	return fn(migration.NewManager(cfg.Server.Mode), log)
}

func runUp(cmd *cobra.Command, args []string) error {
	return withManager(cmd, func(m *migration.Manager, log logger.Interface) error {
		log.Infow("running up migrations", "strategy", m.Strategy().GetName())
		return m.Migrate(database.Get())
	})
}

func runDown(cmd *cobra.Command, args []string) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}
	return withManager(cmd, func(m *migration.Manager, log logger.Interface) error {
		log.Infow("rolling back migrations", "steps", steps)
		return m.Down(database.Get(), steps)
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withManager(cmd, func(m *migration.Manager, _ logger.Interface) error {
		return m.Status(database.Get())
	})
}

// runCreate only writes a file and needs no database connection.
func runCreate(cmd *cobra.Command, args []string) error {
	if _, _, err := cli.Bootstrap(cli.ResolveEnv(env)); err != nil {
		return err
	}
	return migration.NewManager("release").Create(name)
}
