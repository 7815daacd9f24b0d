package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/branch-workshop/service-booking/internal/common/database"
	"github.com/branch-workshop/service-booking/internal/common/logger"
	"github.com/branch-workshop/service-booking/internal/config"
)

var rollbackSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadForMigrate()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		return database.RunMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsPath, log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rollbackSteps < 1 {
			return fmt.Errorf("--steps must be at least 1, got %d", rollbackSteps)
		}
		cfg, log, err := loadForMigrate()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		log.Warn("rolling back migrations", zap.Int("steps", rollbackSteps))
		return database.RollbackMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsPath, rollbackSteps, log)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

func loadForMigrate() (*config.ServiceConfig, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}
