package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPlanned   BookingStatus = "planned"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPlanned, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

type WorkType string

const (
	WorkInHours    WorkType = "in_hours"
	WorkOutOfHours WorkType = "out_of_hours"
)

func (w WorkType) Valid() bool {
	return w == WorkInHours || w == WorkOutOfHours
}

// Booking is a scheduled session. Date is the business date (YYYY-MM-DD, UTC+9),
// StartTime and EndTime are HH:MM.
type Booking struct {
	ID             uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	MemberID       uuid.UUID     `json:"member_id" gorm:"type:uuid;not null;index"`
	TrainerID      uuid.UUID     `json:"trainer_id" gorm:"type:uuid;not null;index"`
	Date           string        `json:"date" gorm:"type:varchar(10);not null;index"`
	StartTime      string        `json:"start_time" gorm:"type:varchar(5);not null"`
	EndTime        string        `json:"end_time" gorm:"type:varchar(5);not null"`
	Status         BookingStatus `json:"status" gorm:"size:16;not null;index"`
	WorkType       WorkType      `json:"work_type,omitempty" gorm:"size:16"`
	Signature      string        `json:"signature,omitempty" gorm:"type:text"`
	Notes          string        `json:"notes,omitempty" gorm:"type:text"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	OTAssignmentID *uuid.UUID    `json:"ot_assignment_id,omitempty" gorm:"type:uuid;index"`
	CreatedBy      *uuid.UUID    `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Booking) TableName() string { return "schedules" }

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
