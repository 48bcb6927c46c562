package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trainerdesk/internal/domain"
	"trainerdesk/internal/domain/access"
)

type Repository interface {
	Create(ctx context.Context, b *domain.Booking) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	SlotTaken(ctx context.Context, trainerID uuid.UUID, date, start string) (bool, error)
	// Transition applies patch and moves the row to status `to` only while it is still in one of `from`.
	Transition(ctx context.Context, id uuid.UUID, from []domain.BookingStatus, to domain.BookingStatus, patch map[string]any) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListExpired(ctx context.Context, today string) ([]domain.Booking, error)
	ListPlannedForMember(ctx context.Context, memberID uuid.UUID) ([]domain.Booking, error)
	ListRange(ctx context.Context, trainerID uuid.UUID, from, to string) ([]domain.Booking, error)
}

// Ledger resolves entries and picks the FIFO entry a regular booking draws from.
type Ledger interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	Allocate(ctx context.Context, memberID uuid.UUID) (*domain.Member, error)
}

// TrialSessions keeps trial assignments in step with their bookings.
type TrialSessions interface {
	Schedule(ctx context.Context, actor access.Actor, assignmentID uuid.UUID) (*domain.OTAssignment, error)
	Complete(ctx context.Context, actor access.Actor, assignmentID uuid.UUID) error
	Unschedule(ctx context.Context, actor access.Actor, assignmentID uuid.UUID, note string) error
	Force(ctx context.Context, actor access.Actor, assignmentID uuid.UUID, to domain.AssignmentStatus, note string) error
	ExpireSweep(ctx context.Context, now time.Time) (int, error)
	ReleaseOutstanding(ctx context.Context, memberID uuid.UUID, note string) (int, error)
}
