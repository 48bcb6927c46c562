package ledger

import (
	"context"

	"github.com/google/uuid"

	"trainerdesk/internal/domain"
)

// Usage counts the bookings that consume an entry's credits.
type Usage struct {
	Completed int
	Planned   int
}

type Repository interface {
	Create(ctx context.Context, m *domain.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	// ListByPerson returns the person's entries oldest first. lock takes row locks
	// on stores that support them.
	ListByPerson(ctx context.Context, trainerID uuid.UUID, name, phone string, lock bool) ([]domain.Member, error)
	ListByTrainer(ctx context.Context, trainerID uuid.UUID) ([]domain.Member, error)
	Usage(ctx context.Context, memberIDs []uuid.UUID) (map[uuid.UUID]Usage, error)
}
