package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/spendwise/spendwise/internal/interfaces/cli/migrate"
	"github.com/spendwise/spendwise/internal/interfaces/cli/server"
	"github.com/spendwise/spendwise/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spendwise",
		Short: "Spendwise - multi-tenant expense platform",
		Long:  `Spendwise serves the multi-tenant API and runs its migrations and maintenance jobs.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		worker.NewCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
