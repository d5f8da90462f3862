package cli

import (
	"istas_backend/internal/app"
	"istas_backend/pkg/database"
	"istas_backend/pkg/logger"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *rootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	a, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	a.ConfigFile = filepath.Join(opts.configDir, "config.yaml")
	a.Run()
	return nil
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed severities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			db, err := database.InitDB(&cfg.Database, logger.Log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			logger.Log.Info("Database migrated", zap.String("driver", cfg.Database.Driver))
			cmd.Println("database migrated")
			return nil
		},
	}
}
