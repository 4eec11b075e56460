package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/eion/usersdb/internal/database"
	"github.com/eion/usersdb/internal/users"
)

// InitMigrateCommand registers the table bootstrap command
func InitMigrateCommand(rootCmd *cobra.Command, opts *GlobalOptions) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the users and profiles tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			err = database.WithConnection(cmd.Context(), cfg.Database, logger, func(ctx context.Context, db *bun.DB) error {
				return users.Migrate(ctx, db)
			})
			if err != nil {
				logger.Error("Migration failed", zap.Error(err))
				return err
			}

			logger.Info("Schema is up to date", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	})
}
