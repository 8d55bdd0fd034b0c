// Package commands содержит команды portalctl для обслуживания портала.
package commands

import (
	"fmt"
	"os"

	"agency-portal/internal/database"
	"agency-portal/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
)

// connect открывает базу по DSN. В тестах база уже поднята и connect не вызывается.
var connect = func(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("DB_DSN is not set (use --dsn or the environment)")
	}
	return database.Open(postgres.Open(dsn))
}

// NewRootCmd собирает дерево команд portalctl.
func NewRootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Maintenance tool for the agency portal",
		Long:          `portalctl runs migrations, manages portal users and inspects incoming leads.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if database.DB != nil {
				return nil
			}
			return connect(dsn)
		},
	}

	_ = godotenv.Load()
	root.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newCreateUserCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newLeadsCmd())
	root.AddCommand(newDigestCmd())
	return root
}

// Execute runs portalctl with os.Args.
func Execute() error {
	logger.New(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
	return NewRootCmd().Execute()
}
