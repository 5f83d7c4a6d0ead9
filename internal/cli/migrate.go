package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/app"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/infrastructure/db/sqlite"
	"github.com/HunaidHanfee-MSFT/timesheet-app/internal/pkg/config"
	"github.com/HunaidHanfee-MSFT/timesheet-app/pkg/logger"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the store schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending sqlite migrations or ensure mongodb indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadForMigrate(cmd.Context())
		if err != nil {
			return err
		}
		stores, err := app.OpenStores(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		log.Info().Str("store", stores.Name).Msg("schema up to date")
		return stores.Close(cmd.Context())
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back sqlite migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadForMigrate(cmd.Context())
		if err != nil {
			return err
		}
		if cfg.StoreDriver != config.StoreSQLite {
			return fmt.Errorf("migrate down is only supported for the %s driver", config.StoreSQLite)
		}
		if migrateSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}

		store, err := sqlite.NewStore(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.RollbackMigrations(migrateSteps); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		log.Info().Int("steps", migrateSteps).Msg("migrations rolled back")
		return nil
	},
}

func loadForMigrate(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadWith(ctx, envLookuper)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "timesheet-api"})
	return cfg, log, nil
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
