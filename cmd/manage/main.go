package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/civicworks/idlewatch/internal/config"
	"github.com/civicworks/idlewatch/internal/database"
	"github.com/civicworks/idlewatch/internal/logger"
	"github.com/civicworks/idlewatch/internal/seed"
)

var (
	numberUsers   int
	numberReports int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "manage",
		Short: "Administrative commands for the Idlewatch API",
	}

	recreateCmd := &cobra.Command{
		Use:   "recreate-db",
		Short: "Drop all tables and recreate the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *database.Database, log *logger.Logger) error {
				if err := db.Recreate(); err != nil {
					return fmt.Errorf("recreating schema: %w", err)
				}
				log.Info("Schema recreated", nil)
				return nil
			})
		},
	}

	setupDevCmd := &cobra.Command{
		Use:   "setup-dev",
		Short: "Recreate the schema and seed roles, agencies and default development users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *database.Database, log *logger.Logger) error {
				if err := db.Recreate(); err != nil {
					return fmt.Errorf("recreating schema: %w", err)
				}
				if err := seed.SetupDev(db.Gorm); err != nil {
					return fmt.Errorf("seeding development data: %w", err)
				}
				log.Info("Development environment ready", nil)
				return nil
			})
		},
	}

	setupProdCmd := &cobra.Command{
		Use:   "setup-prod",
		Short: "Migrate the schema and seed roles and agencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *database.Database, log *logger.Logger) error {
				if err := db.AutoMigrate(); err != nil {
					return fmt.Errorf("migrating schema: %w", err)
				}
				if err := seed.SetupProd(db.Gorm); err != nil {
					return fmt.Errorf("seeding production data: %w", err)
				}
				log.Info("Production environment ready", nil)
				return nil
			})
		},
	}

	fakeDataCmd := &cobra.Command{
		Use:   "add-fake-data",
		Short: "Generate fake users and incident reports for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *database.Database, log *logger.Logger) error {
				users, err := seed.GenerateFakeUsers(db.Gorm, numberUsers)
				if err != nil {
					return fmt.Errorf("generating fake users: %w", err)
				}
				reports, err := seed.GenerateFakeReports(db.Gorm, numberReports)
				if err != nil {
					return fmt.Errorf("generating fake reports: %w", err)
				}
				log.Info("Fake data generated", map[string]interface{}{
					"users":   users,
					"reports": reports,
				})
				return nil
			})
		},
	}
	fakeDataCmd.Flags().IntVarP(&numberUsers, "number-users", "u", 10, "number of fake users to create")
	fakeDataCmd.Flags().IntVarP(&numberReports, "number-reports", "r", 100, "number of fake incident reports to create")

	rootCmd.AddCommand(recreateCmd, setupDevCmd, setupProdCmd, fakeDataCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withDatabase loads configuration, opens a database connection and hands it
// to fn, closing the connection afterwards.
func withDatabase(fn func(db *database.Database, log *logger.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.New(cfg.Server.Env)

	db, err := database.Connect(context.Background(), cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	return fn(db, log)
}
