package settlement

import (
	"context"
	"errors"
	"fmt"
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

func (r *GormRepository) CreateMember(ctx context.Context, m *domain.Member) error {
	return database.Conn(ctx, r.db).Create(m).Error
}

func (r *GormRepository) UpdateMember(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	return database.Conn(ctx, r.db).Model(&domain.Member{}).Where("id = ?", id).Updates(updates).Error
}

func (r *GormRepository) EntriesCreated(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]domain.Member, error) {
	var out []domain.Member
	err := database.Conn(ctx, r.db).
		Where("trainer_id = ? AND created_at >= ? AND created_at < ?", trainerID, from.UTC(), to.UTC()).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

func (r *GormRepository) CountCompleted(ctx context.Context, memberID uuid.UUID) (int, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&domain.Booking{}).
		Where("member_id = ? AND status = ?", memberID, domain.BookingCompleted).
		Count(&n).Error
	return int(n), err
}

func (r *GormRepository) CompletedSessions(ctx context.Context, trainerID uuid.UUID, fromDate, toDate string) ([]CompletedSession, error) {
	var out []CompletedSession
	err := database.Conn(ctx, r.db).
		Table("schedules AS s").
		Select("s.work_type AS work_type, m.unit_price AS unit_price, m.member_type AS member_type").
		Joins("JOIN members m ON m.id = s.member_id").
		Where("s.trainer_id = ? AND s.status = ?", trainerID, domain.BookingCompleted).
		Where("s.date >= ? AND s.date < ?", fromDate, toDate).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	return out, nil
}

func (r *GormRepository) RefundDeductions(ctx context.Context, trainerID uuid.UUID, month string) (int64, error) {
	var total int64
	err := database.Conn(ctx, r.db).Model(&domain.Member{}).
		Select("COALESCE(SUM(refund_amount), 0)").
		Where("trainer_id = ? AND refund_applied_month = ?", trainerID, month).
		Scan(&total).Error
	return total, err
}

func (r *GormRepository) GetDayoffs(ctx context.Context, trainerID uuid.UUID, month string) (int, error) {
	var d domain.TrainerDayoff
	err := database.Conn(ctx, r.db).Where("trainer_id = ? AND month = ?", trainerID, month).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return d.Days, err
}

func (r *GormRepository) UpsertDayoffs(ctx context.Context, trainerID uuid.UUID, month string, days int) error {
	d := domain.TrainerDayoff{TrainerID: trainerID, Month: month, Days: days, UpdatedAt: time.Now().UTC()}
	return database.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trainer_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"days", "updated_at"}),
	}).Create(&d).Error
}

func (r *GormRepository) DeleteDayoffs(ctx context.Context, trainerID uuid.UUID, month string) error {
	return database.Conn(ctx, r.db).
		Where("trainer_id = ? AND month = ?", trainerID, month).
		Delete(&domain.TrainerDayoff{}).Error
}

func (r *GormRepository) ListAdjustments(ctx context.Context, trainerID uuid.UUID, month string) ([]domain.SalaryAdjustment, error) {
	var out []domain.SalaryAdjustment
	err := database.Conn(ctx, r.db).
		Where("trainer_id = ? AND month = ?", trainerID, month).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) CreateAdjustment(ctx context.Context, a *domain.SalaryAdjustment) error {
	return database.Conn(ctx, r.db).Create(a).Error
}

func (r *GormRepository) DeleteAdjustment(ctx context.Context, id uuid.UUID) error {
	tx := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&domain.SalaryAdjustment{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrAdjustmentNotFound
	}
	return nil
}

// LoadSettings returns nil when no override was saved.
func (r *GormRepository) LoadSettings(ctx context.Context) (*domain.SalarySettingsRow, error) {
	var row domain.SalarySettingsRow
	err := database.Conn(ctx, r.db).Order("id ASC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepository) SaveSettings(ctx context.Context, row *domain.SalarySettingsRow) error {
	row.UpdatedAt = time.Now().UTC()
	return database.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(row).Error
}
