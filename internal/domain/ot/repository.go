package ot

import (
	"context"
	"errors"
	"time"

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

func (r *GormRepository) GetMember(ctx context.Context, id uuid.UUID, lock bool) (*domain.Member, error) {
	q := database.Conn(ctx, r.db).Where("id = ?", id)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m domain.Member
	err := q.First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepository) AddMemberSessions(ctx context.Context, id uuid.UUID, n int) error {
	return database.Conn(ctx, r.db).Model(&domain.Member{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sessions":   gorm.Expr("sessions + ?", n),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *GormRepository) UpdateMemberView(ctx context.Context, id uuid.UUID, status domain.OTStatus, remaining int) error {
	return database.Conn(ctx, r.db).Model(&domain.Member{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ot_status":             status,
			"ot_remaining_sessions": remaining,
			"updated_at":            time.Now().UTC(),
		}).Error
}

func (r *GormRepository) Get(ctx context.Context, id uuid.UUID) (*domain.OTAssignment, error) {
	var a domain.OTAssignment
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]domain.OTAssignment, error) {
	var out []domain.OTAssignment
	err := database.Conn(ctx, r.db).
		Where("member_id = ?", memberID).
		Order("session_number ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) ListByTrainer(ctx context.Context, trainerID uuid.UUID, statuses []domain.AssignmentStatus) ([]domain.OTAssignment, error) {
	q := database.Conn(ctx, r.db).Where("trainer_id = ?", trainerID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var out []domain.OTAssignment
	err := q.Order("deadline ASC").Find(&out).Error
	return out, err
}

func (r *GormRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.OTAssignment, error) {
	var out []domain.OTAssignment
	err := database.Conn(ctx, r.db).
		Where("status = ? AND deadline < ?", domain.AssignmentAssigned, now.UTC()).
		Order("deadline ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) CreateBatch(ctx context.Context, list []domain.OTAssignment) error {
	if len(list) == 0 {
		return nil
	}
	return database.Conn(ctx, r.db).Create(&list).Error
}

func (r *GormRepository) Transition(ctx context.Context, id uuid.UUID, from []domain.AssignmentStatus, to domain.AssignmentStatus, patch map[string]any) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range patch {
		updates[k] = v
	}

	res := database.Conn(ctx, r.db).Model(&domain.OTAssignment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepository) Extend(ctx context.Context, id uuid.UUID, deadline time.Time) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&domain.OTAssignment{}).
		Where("id = ? AND status = ? AND extended = ?", id, domain.AssignmentAssigned, false).
		Updates(map[string]any{
			"deadline":   deadline.UTC(),
			"extended":   true,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepository) CountBookings(ctx context.Context, assignmentID uuid.UUID, statuses []domain.BookingStatus) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&domain.Booking{}).
		Where("ot_assignment_id = ? AND status IN ?", assignmentID, statuses).
		Count(&n).Error
	return n, err
}

func (r *GormRepository) AppendHistory(ctx context.Context, h *domain.OTHistory) error {
	return database.Conn(ctx, r.db).Create(h).Error
}

func (r *GormRepository) ListHistory(ctx context.Context, f HistoryFilter) ([]domain.OTHistory, error) {
	q := database.Conn(ctx, r.db).Model(&domain.OTHistory{})
	if f.MemberID != nil {
		q = q.Where("member_id = ?", *f.MemberID)
	}
	if f.TrainerID != nil {
		q = q.Where("trainer_id = ?", *f.TrainerID)
	}
	if len(f.Actions) > 0 {
		q = q.Where("action IN ?", f.Actions)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var out []domain.OTHistory
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}
