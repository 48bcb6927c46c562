package database

import (
	"fmt"

	"gorm.io/gorm"

	"trainerdesk/internal/domain"
)

// Partial unique indexes are the store-level guards for concurrent booking.
// Both Postgres and SQLite accept this syntax.
var indexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_schedules_active_slot
		ON schedules (trainer_id, date, start_time) WHERE status <> 'cancelled'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_schedules_active_ot
		ON schedules (ot_assignment_id) WHERE ot_assignment_id IS NOT NULL AND status <> 'cancelled'`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Member{},
		&domain.Booking{},
		&domain.OTAssignment{},
		&domain.OTHistory{},
		&domain.SalarySettingsRow{},
		&domain.TrainerDayoff{},
		&domain.SalaryAdjustment{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
