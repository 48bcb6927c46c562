package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SalarySettingsRow is the single stored override of the settlement parameters.
// Tier tables are JSON arrays of {"threshold":..,"value":..}.
type SalarySettingsRow struct {
	ID                    uint           `gorm:"primaryKey"`
	PolicyVersion         string         `gorm:"size:32;not null"`
	IncentiveTiers        datatypes.JSON `gorm:"not null"`
	LessonFeeTiers        datatypes.JSON `gorm:"not null"`
	ClassBonusTiers       datatypes.JSON `gorm:"not null"`
	LessonFeeFloorPercent int            `gorm:"not null"`
	MasterThreshold       int64          `gorm:"not null"`
	MasterBonus           int64          `gorm:"not null"`
	OtherThreshold        int64          `gorm:"not null"`
	OtherRate             int            `gorm:"not null"`
	ClassBonusMinSales    int64          `gorm:"not null"`
	OTRate                int64          `gorm:"column:ot_rate;not null"`
	OTMinSessions         int            `gorm:"column:ot_min_sessions;not null"`
	DayoffRate            int64          `gorm:"not null"`
	UpdatedBy             *uuid.UUID     `gorm:"type:uuid"`
	UpdatedAt             time.Time
}

func (SalarySettingsRow) TableName() string { return "salary_settings" }

type TrainerDayoff struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TrainerID uuid.UUID `json:"trainer_id" gorm:"type:uuid;not null;uniqueIndex:idx_dayoff_trainer_month,priority:1"`
	Month     string    `json:"month" gorm:"size:7;not null;uniqueIndex:idx_dayoff_trainer_month,priority:2"`
	Days      int       `json:"days" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TrainerDayoff) TableName() string { return "trainer_dayoffs" }

func (d *TrainerDayoff) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type SalaryAdjustment struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TrainerID uuid.UUID  `json:"trainer_id" gorm:"type:uuid;not null;index:idx_adjust_trainer_month,priority:1"`
	Month     string     `json:"month" gorm:"size:7;not null;index:idx_adjust_trainer_month,priority:2"`
	Amount    int64      `json:"amount" gorm:"not null"`
	Memo      string     `json:"memo" gorm:"type:text;not null"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at"`
}

func (SalaryAdjustment) TableName() string { return "salary_adjustments" }

func (a *SalaryAdjustment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
