package settlement

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"trainerdesk/internal/domain"
	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/pkg/bizday"
)

func monthKey(month string) (string, error) {
	t, err := bizday.ParseMonth(month)
	if err != nil {
		return "", ErrInvalidMonth
	}
	return bizday.MonthKey(t), nil
}

// SetDayoffs records a trainer's days off for a month. Zero clears the record.
func (s *Service) SetDayoffs(ctx context.Context, actor access.Actor, trainerID uuid.UUID, month string, days int) (int, error) {
	if !actor.Privileged() {
		return 0, ErrAdminOnly
	}
	key, err := monthKey(month)
	if err != nil {
		return 0, err
	}

	days = max(0, days)
	if days == 0 {
		err = s.repo.DeleteDayoffs(ctx, trainerID, key)
	} else {
		err = s.repo.UpsertDayoffs(ctx, trainerID, key, days)
	}
	if err != nil {
		return 0, err
	}
	return days, nil
}

type AdjustmentInput struct {
	TrainerID uuid.UUID `json:"trainer_id" validate:"required"`
	Month     string    `json:"month" validate:"required,month"`
	Amount    int64     `json:"amount" validate:"required"`
	Memo      string    `json:"memo" validate:"required,max=500"`
}

func (s *Service) AddAdjustment(ctx context.Context, actor access.Actor, in AdjustmentInput) (*domain.SalaryAdjustment, error) {
	if !actor.Highest() {
		return nil, ErrMainAdminOnly
	}
	key, err := monthKey(in.Month)
	if err != nil {
		return nil, err
	}
	memo := strings.TrimSpace(in.Memo)
	if in.Amount == 0 || memo == "" || in.TrainerID == uuid.Nil {
		return nil, ErrInvalidAdjustment
	}

	a := &domain.SalaryAdjustment{
		TrainerID: in.TrainerID,
		Month:     key,
		Amount:    in.Amount,
		Memo:      memo,
		CreatedBy: actor.IDPtr(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateAdjustment(ctx, a); err != nil {
		return nil, err
	}
	log.Printf("salary_adjustment_added id=%s trainer_id=%s month=%s amount=%d by=%s", a.ID, a.TrainerID, key, a.Amount, actor.UserID)
	return a, nil
}

func (s *Service) DeleteAdjustment(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if !actor.Highest() {
		return ErrMainAdminOnly
	}
	if err := s.repo.DeleteAdjustment(ctx, id); err != nil {
		return err
	}
	log.Printf("salary_adjustment_deleted id=%s by=%s", id, actor.UserID)
	return nil
}

func (s *Service) ListAdjustments(ctx context.Context, actor access.Actor, trainerID uuid.UUID, month string) ([]domain.SalaryAdjustment, error) {
	if !actor.CanActFor(trainerID) {
		return nil, ErrNotOwner
	}
	key, err := monthKey(month)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAdjustments(ctx, trainerID, key)
}
