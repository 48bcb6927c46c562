package ot

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trainerdesk/internal/domain"
)

type HistoryFilter struct {
	MemberID  *uuid.UUID
	TrainerID *uuid.UUID
	Actions   []domain.HistoryAction
	Limit     int
}

type Repository interface {
	GetMember(ctx context.Context, id uuid.UUID, lock bool) (*domain.Member, error)
	AddMemberSessions(ctx context.Context, id uuid.UUID, n int) error
	UpdateMemberView(ctx context.Context, id uuid.UUID, status domain.OTStatus, remaining int) error

	Get(ctx context.Context, id uuid.UUID) (*domain.OTAssignment, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]domain.OTAssignment, error)
	ListByTrainer(ctx context.Context, trainerID uuid.UUID, statuses []domain.AssignmentStatus) ([]domain.OTAssignment, error)
	ListExpired(ctx context.Context, now time.Time) ([]domain.OTAssignment, error)
	CreateBatch(ctx context.Context, list []domain.OTAssignment) error
	// Transition moves id from one status to another and applies patch.
	// It reports false when the row was not in the expected status.
	Transition(ctx context.Context, id uuid.UUID, from []domain.AssignmentStatus, to domain.AssignmentStatus, patch map[string]any) (bool, error)
	// Extend moves the deadline of an assigned, never extended row.
	Extend(ctx context.Context, id uuid.UUID, deadline time.Time) (bool, error)
	CountBookings(ctx context.Context, assignmentID uuid.UUID, statuses []domain.BookingStatus) (int64, error)

	AppendHistory(ctx context.Context, h *domain.OTHistory) error
	ListHistory(ctx context.Context, f HistoryFilter) ([]domain.OTHistory, error)
}
