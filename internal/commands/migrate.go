package commands

import (
	"fmt"

	"agency-portal/internal/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(database.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin and demo accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			database.CreateDefaultAdmin()
			created := database.SeedDemoUsers()
			if len(created) == 0 {
				fmt.Fprintln(out, "demo users already exist")
				return nil
			}
			for _, email := range created {
				color.New(color.FgGreen).Fprintf(out, "created %s\n", email)
			}
			return nil
		},
	}
}
