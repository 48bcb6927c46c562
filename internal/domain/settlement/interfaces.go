package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trainerdesk/internal/domain"
)

// CompletedSession is a completed booking in a settlement month, with the price of its entry.
type CompletedSession struct {
	WorkType   domain.WorkType
	UnitPrice  int64
	MemberType domain.MemberType
}

type Repository interface {
	GetMember(ctx context.Context, id uuid.UUID, lock bool) (*domain.Member, error)
	CreateMember(ctx context.Context, m *domain.Member) error
	UpdateMember(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// EntriesCreated lists a trainer's entries with created_at in [from, to).
	EntriesCreated(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]domain.Member, error)
	CountCompleted(ctx context.Context, memberID uuid.UUID) (int, error)
	// CompletedSessions lists completed bookings dated in [fromDate, toDate).
	CompletedSessions(ctx context.Context, trainerID uuid.UUID, fromDate, toDate string) ([]CompletedSession, error)
	RefundDeductions(ctx context.Context, trainerID uuid.UUID, month string) (int64, error)

	GetDayoffs(ctx context.Context, trainerID uuid.UUID, month string) (int, error)
	UpsertDayoffs(ctx context.Context, trainerID uuid.UUID, month string, days int) error
	DeleteDayoffs(ctx context.Context, trainerID uuid.UUID, month string) error

	ListAdjustments(ctx context.Context, trainerID uuid.UUID, month string) ([]domain.SalaryAdjustment, error)
	CreateAdjustment(ctx context.Context, a *domain.SalaryAdjustment) error
	DeleteAdjustment(ctx context.Context, id uuid.UUID) error

	LoadSettings(ctx context.Context) (*domain.SalarySettingsRow, error)
	SaveSettings(ctx context.Context, row *domain.SalarySettingsRow) error
}

// BookingCanceller drops the planned bookings of an entry inside the caller's transaction.
type BookingCanceller interface {
	CancelPlannedForEntry(ctx context.Context, memberID, actorID uuid.UUID) (int, error)
}
