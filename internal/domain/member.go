package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberType string

const (
	MemberRegular MemberType = "regular"
	MemberTrial   MemberType = "trial"
)

type RefundStatus string

const (
	RefundNone     RefundStatus = "none"
	RefundRefunded RefundStatus = "refunded"
)

type TransferStatus string

const (
	TransferNone        TransferStatus = "none"
	TransferTransferred TransferStatus = "transferred"
	TransferReceived    TransferStatus = "received"
)

// OTStatus is the member-level trial status. It is a cached view over ot_assignments.
type OTStatus string

const (
	OTUnassigned OTStatus = "unassigned"
	OTPartial    OTStatus = "partial"
	OTAssigned   OTStatus = "assigned"
	OTCompleted  OTStatus = "completed"
)

// ChannelWalkIn entries count for half of their revenue.
const ChannelWalkIn = "WI"

// Member is one purchase record (ledger entry). Several members with the same
// trainer, name and phone belong to one person.
type Member struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TrainerID  uuid.UUID  `json:"trainer_id" gorm:"type:uuid;not null;index:idx_members_person,priority:1"`
	Name       string     `json:"name" gorm:"size:100;not null;index:idx_members_person,priority:2"`
	Phone      string     `json:"phone" gorm:"size:32;not null;index:idx_members_person,priority:3"`
	Sessions   int        `json:"sessions" gorm:"not null;default:0"`
	UnitPrice  int64      `json:"unit_price" gorm:"not null;default:0"`
	Channel    string     `json:"channel,omitempty" gorm:"size:16"`
	MemberType MemberType `json:"member_type" gorm:"size:16;not null;default:'regular'"`

	RefundStatus       RefundStatus `json:"refund_status" gorm:"size:16;not null;default:'none'"`
	OriginalSessions   *int         `json:"original_sessions,omitempty"`
	RefundAmount       int64        `json:"refund_amount" gorm:"not null;default:0"`
	RefundSessions     int          `json:"refund_sessions" gorm:"not null;default:0"`
	RefundOriginMonth  string       `json:"refund_origin_month,omitempty" gorm:"size:7"`
	RefundAppliedMonth string       `json:"refund_applied_month,omitempty" gorm:"size:7;index"`
	RefundedAt         *time.Time   `json:"refunded_at,omitempty"`
	RefundedBy         *uuid.UUID   `json:"refunded_by,omitempty" gorm:"type:uuid"`

	TransferStatus      TransferStatus `json:"transfer_status" gorm:"size:16;not null;default:'none'"`
	TransferredTo       *uuid.UUID     `json:"transferred_to,omitempty" gorm:"type:uuid"`
	TransferredFrom     *uuid.UUID     `json:"transferred_from,omitempty" gorm:"type:uuid"`
	TransferredSessions int            `json:"transferred_sessions" gorm:"not null;default:0"`
	TransferredAt       *time.Time     `json:"transferred_at,omitempty"`
	TransferredBy       *uuid.UUID     `json:"transferred_by,omitempty" gorm:"type:uuid"`

	OTStatus            OTStatus `json:"ot_status,omitempty" gorm:"size:16"`
	OTRemainingSessions int      `json:"ot_remaining_sessions" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Member) TableName() string { return "members" }

func (m *Member) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.RefundStatus == "" {
		m.RefundStatus = RefundNone
	}
	if m.TransferStatus == "" {
		m.TransferStatus = TransferNone
	}
	if m.MemberType == "" {
		m.MemberType = MemberRegular
	}
	return nil
}

func (m *Member) IsTrial() bool { return m.MemberType == MemberTrial }

func (m *Member) IsRefunded() bool { return m.RefundStatus == RefundRefunded }

func (m *Member) IsTransferredOut() bool { return m.TransferStatus == TransferTransferred }

// ReadOnly entries keep their history but no longer take new bookings.
func (m *Member) ReadOnly() bool { return m.IsRefunded() || m.IsTransferredOut() }
