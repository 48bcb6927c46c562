package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trainerdesk/internal/database"
	"trainerdesk/internal/domain"
)

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, b *domain.Booking) error {
	return database.Conn(ctx, r.db).Create(b).Error
}

func (r *GormRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	var b domain.Booking
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormRepository) SlotTaken(ctx context.Context, trainerID uuid.UUID, date, start string) (bool, error) {
	var cnt int64
	err := database.Conn(ctx, r.db).Model(&domain.Booking{}).
		Where("trainer_id = ? AND date = ? AND start_time = ?", trainerID, date, start).
		Where("status <> ?", domain.BookingCancelled).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *GormRepository) Transition(ctx context.Context, id uuid.UUID, from []domain.BookingStatus, to domain.BookingStatus, patch map[string]any) (bool, error) {
	updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range patch {
		updates[k] = v
	}

	tx := database.Conn(ctx, r.db).Model(&domain.Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&domain.Booking{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExpired returns planned bookings dated before today. Dates are YYYY-MM-DD, so string order is date order.
func (r *GormRepository) ListExpired(ctx context.Context, today string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := database.Conn(ctx, r.db).
		Where("status = ? AND date < ?", domain.BookingPlanned, today).
		Order("date ASC, start_time ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) ListPlannedForMember(ctx context.Context, memberID uuid.UUID) ([]domain.Booking, error) {
	var out []domain.Booking
	err := database.Conn(ctx, r.db).
		Where("member_id = ? AND status = ?", memberID, domain.BookingPlanned).
		Order("date ASC, start_time ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) ListRange(ctx context.Context, trainerID uuid.UUID, from, to string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := database.Conn(ctx, r.db).
		Where("trainer_id = ? AND date >= ? AND date <= ?", trainerID, from, to).
		Order("date ASC, start_time ASC").
		Find(&out).Error
	return out, err
}
