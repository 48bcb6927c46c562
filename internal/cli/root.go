// Package cli implements trainerctl, the operator command line.
package cli

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"trainerdesk/internal/config"
	"trainerdesk/internal/database"
	"trainerdesk/internal/domain/booking"
	"trainerdesk/internal/domain/ledger"
	"trainerdesk/internal/domain/ot"
	"trainerdesk/internal/domain/settlement"
)

var rootCmd = &cobra.Command{
	Use:   "trainerctl",
	Short: "Operator tools for the trainer desk",
	Long: `trainerctl runs one-shot maintenance against the trainer desk database:
expiry sweeps, monthly settlement reports, salary settings imports and
development tokens. It reads the same environment as the API server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file, using process environment")
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

type app struct {
	cfg        *config.RuntimeConfig
	db         *gorm.DB
	bookings   *booking.Service
	settlement *settlement.Service
}

// openApp wires the services the commands share. Migrations run so a fresh
// database is usable from the CLI alone.
func openApp() (*app, error) {
	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		return nil, err
	}
	policy, err := config.LoadPolicy()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	ledgerService := ledger.NewService(ledger.NewRepository(db))
	otService := ot.NewService(db, ot.NewRepository(db), policy)
	bookingService := booking.NewService(db, booking.NewRepository(db), ledgerService, otService, policy)

	return &app{
		cfg:        cfg,
		db:         db,
		bookings:   bookingService,
		settlement: settlement.NewService(db, settlement.NewRepository(db), bookingService),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
