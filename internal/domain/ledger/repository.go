package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trainerdesk/internal/database"
	"trainerdesk/internal/domain"
)

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, m *domain.Member) error {
	return database.Conn(ctx, r.db).Create(m).Error
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	var m domain.Member
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) ListByPerson(ctx context.Context, trainerID uuid.UUID, name, phone string, lock bool) ([]domain.Member, error) {
	q := database.Conn(ctx, r.db).
		Where("trainer_id = ? AND name = ? AND phone = ?", trainerID, name, phone).
		Order("created_at ASC").Order("id ASC")
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var out []domain.Member
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list person entries: %w", err)
	}
	return out, nil
}

func (r *GormRepository) ListByTrainer(ctx context.Context, trainerID uuid.UUID) ([]domain.Member, error) {
	var out []domain.Member
	err := database.Conn(ctx, r.db).
		Where("trainer_id = ?", trainerID).
		Order("name ASC").Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list trainer entries: %w", err)
	}
	return out, nil
}

type usageRow struct {
	MemberID uuid.UUID
	Status   domain.BookingStatus
	N        int
}

func (r *GormRepository) Usage(ctx context.Context, memberIDs []uuid.UUID) (map[uuid.UUID]Usage, error) {
	out := make(map[uuid.UUID]Usage, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}

	var rows []usageRow
	err := database.Conn(ctx, r.db).
		Model(&domain.Booking{}).
		Select("member_id, status, COUNT(*) AS n").
		Where("member_id IN ? AND status IN ?", memberIDs,
			[]domain.BookingStatus{domain.BookingPlanned, domain.BookingCompleted}).
		Group("member_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	for _, row := range rows {
		u := out[row.MemberID]
		switch row.Status {
		case domain.BookingCompleted:
			u.Completed = row.N
		case domain.BookingPlanned:
			u.Planned = row.N
		}
		out[row.MemberID] = u
	}
	return out, nil
}
