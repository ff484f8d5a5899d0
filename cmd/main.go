package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/config"
	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/internal/repository"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "account-service",
		Short: "Health record account service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the account API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := repository.OpenPostgres(context.Background(), cfg.DatabaseURL, repository.PoolConfig{MaxOpenConns: 2})
			if err != nil {
				return err
			}
			defer db.Close()

			version, err := repository.MigrateUp(db)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Schema at version %d.\n", version)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := repository.OpenPostgres(context.Background(), cfg.DatabaseURL, repository.PoolConfig{MaxOpenConns: 2})
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.MigrateDown(db, steps); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Printf("Rolled back %d migration(s).\n", steps)
			return nil
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(downCmd)

	return cmd
}
