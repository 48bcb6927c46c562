package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentScheduled AssignmentStatus = "scheduled"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentReturned  AssignmentStatus = "returned"
)

// OTAssignment is one trial session handed to a trainer until Deadline.
type OTAssignment struct {
	ID            uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	MemberID      uuid.UUID        `json:"member_id" gorm:"type:uuid;not null;uniqueIndex:idx_ot_member_session,priority:1"`
	TrainerID     uuid.UUID        `json:"trainer_id" gorm:"type:uuid;not null;index"`
	SessionNumber int              `json:"session_number" gorm:"not null;uniqueIndex:idx_ot_member_session,priority:2"`
	Status        AssignmentStatus `json:"status" gorm:"size:16;not null;index"`
	AssignedAt    time.Time        `json:"assigned_at" gorm:"not null"`
	Deadline      time.Time        `json:"deadline" gorm:"not null;index"`
	Extended      bool             `json:"extended" gorm:"not null;default:false"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	ReturnedAt    *time.Time       `json:"returned_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (OTAssignment) TableName() string { return "ot_assignments" }

func (a *OTAssignment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type HistoryAction string

const (
	ActionAssigned          HistoryAction = "assigned"
	ActionScheduled         HistoryAction = "scheduled"
	ActionUnscheduled       HistoryAction = "unscheduled"
	ActionCompleted         HistoryAction = "completed"
	ActionAllCompleted      HistoryAction = "all_completed"
	ActionReturned          HistoryAction = "returned"
	ActionReclaimed         HistoryAction = "reclaimed"
	ActionExtended          HistoryAction = "extended"
	ActionSessionsIncreased HistoryAction = "sessions_increased"
)

// OTHistory is append-only.
type OTHistory struct {
	ID           uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	MemberID     uuid.UUID     `json:"member_id" gorm:"type:uuid;not null;index"`
	TrainerID    *uuid.UUID    `json:"trainer_id,omitempty" gorm:"type:uuid;index"`
	AssignmentID *uuid.UUID    `json:"assignment_id,omitempty" gorm:"type:uuid"`
	Action       HistoryAction `json:"action" gorm:"size:32;not null"`
	ActorID      *uuid.UUID    `json:"actor_id,omitempty" gorm:"type:uuid"`
	Note         string        `json:"note,omitempty" gorm:"type:text"`
	CreatedAt    time.Time     `json:"created_at" gorm:"not null;index"`
}

func (OTHistory) TableName() string { return "ot_assignment_history" }

func (h *OTHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
