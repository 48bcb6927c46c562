package settlement

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trainerdesk/internal/database"
	"trainerdesk/internal/domain"
	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/metrics"
	"trainerdesk/internal/pkg/bizday"
)

type Service struct {
	db       *gorm.DB
	repo     Repository
	bookings BookingCanceller
	now      func() time.Time
}

func NewService(db *gorm.DB, repo Repository, bookings BookingCanceller) *Service {
	return &Service{db: db, repo: repo, bookings: bookings, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Breakdown is one trainer's settlement for one month.
type Breakdown struct {
	TrainerID     uuid.UUID       `json:"trainer_id"`
	Month         string          `json:"month"`
	PolicyVersion string          `json:"policy_version"`
	Sales         decimal.Decimal `json:"sales"`
	SixMonthSales decimal.Decimal `json:"six_month_sales"`

	Incentive   int64 `json:"incentive"`
	MasterBonus int64 `json:"master_bonus"`
	ClassCount  int   `json:"class_count"`
	ClassBonus  int64 `json:"class_bonus"`

	LessonFeeBaseMain  int64 `json:"lesson_fee_base_main"`
	LessonFeeBaseOther int64 `json:"lesson_fee_base_other"`
	LessonFeeRateMain  int64 `json:"lesson_fee_rate_main"`
	LessonFeeRateOther int64 `json:"lesson_fee_rate_other"`
	LessonFeeMain      int64 `json:"lesson_fee_main"`
	LessonFeeOther     int64 `json:"lesson_fee_other"`

	OTSessionCount int   `json:"ot_session_count"`
	OTIncentive    int64 `json:"ot_incentive"`

	Adjustments      []domain.SalaryAdjustment `json:"adjustments"`
	AdjustmentTotal  int64                     `json:"adjustment_total"`
	RefundDeductions int64                     `json:"refund_deductions"`
	DayoffDays       int                       `json:"dayoff_days"`
	DayoffDeduction  int64                     `json:"dayoff_deduction"`

	Total int64 `json:"total"`
}

// MonthlyTotal computes a trainer's pay for month (YYYY-MM, UTC+9). Each component is
// independent apart from the shared sales figure.
func (s *Service) MonthlyTotal(ctx context.Context, actor access.Actor, trainerID uuid.UUID, month string) (*Breakdown, error) {
	if !actor.CanActFor(trainerID) {
		return nil, ErrNotOwner
	}
	start, err := bizday.ParseMonth(month)
	if err != nil {
		return nil, ErrInvalidMonth
	}
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}

	sales, six, err := s.sales(ctx, trainerID, start, nil)
	if err != nil {
		return nil, err
	}
	out := &Breakdown{
		TrainerID:     trainerID,
		Month:         bizday.MonthKey(start),
		PolicyVersion: settings.PolicyVersion,
		Sales:         sales,
		SixMonthSales: six,
		Incentive:     settings.IncentiveFor(sales),
		MasterBonus:   settings.MasterBonusFor(six),
	}

	from, to := bizday.DateRange(start)
	sessions, err := s.repo.CompletedSessions(ctx, trainerID, from, to)
	if err != nil {
		return nil, err
	}
	for _, cs := range sessions {
		if cs.WorkType == domain.WorkInHours {
			out.LessonFeeBaseMain += cs.UnitPrice
		} else {
			out.LessonFeeBaseOther += cs.UnitPrice
		}
		if cs.MemberType == domain.MemberTrial {
			out.OTSessionCount++
		}
	}
	out.ClassCount = len(sessions)
	out.ClassBonus = settings.ClassCountBonus(out.ClassCount, sales)
	out.LessonFeeRateMain = settings.LessonFeeRate(sales)
	out.LessonFeeRateOther = settings.LessonFeeRateOther(sales)
	out.LessonFeeMain = LessonFee(out.LessonFeeBaseMain, out.LessonFeeRateMain)
	out.LessonFeeOther = LessonFee(out.LessonFeeBaseOther, out.LessonFeeRateOther)
	out.OTIncentive = settings.OTIncentive(out.OTSessionCount)

	if out.Adjustments, err = s.repo.ListAdjustments(ctx, trainerID, out.Month); err != nil {
		return nil, err
	}
	for _, a := range out.Adjustments {
		out.AdjustmentTotal += a.Amount
	}
	if out.RefundDeductions, err = s.repo.RefundDeductions(ctx, trainerID, out.Month); err != nil {
		return nil, err
	}
	if out.DayoffDays, err = s.repo.GetDayoffs(ctx, trainerID, out.Month); err != nil {
		return nil, err
	}
	out.DayoffDeduction = settings.DayoffDeduction(out.DayoffDays)

	out.Total = out.Incentive + out.ClassBonus + out.MasterBonus +
		out.LessonFeeMain + out.LessonFeeOther + out.OTIncentive +
		out.AdjustmentTotal - out.RefundDeductions - out.DayoffDeduction
	return out, nil
}

// IncentiveTotal is the sales-driven part of a month (tier incentive plus master bonus),
// optionally computed as if exclude had never been sold.
func (s *Service) IncentiveTotal(ctx context.Context, trainerID uuid.UUID, monthStart time.Time, exclude *domain.Member) (int64, error) {
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		return 0, err
	}
	sales, six, err := s.sales(ctx, trainerID, monthStart, exclude)
	if err != nil {
		return 0, err
	}
	return settings.IncentiveFor(sales) + settings.MasterBonusFor(six), nil
}

// sales returns the month's sales and the sales of the six months ending with it.
func (s *Service) sales(ctx context.Context, trainerID uuid.UUID, monthStart time.Time, exclude *domain.Member) (decimal.Decimal, decimal.Decimal, error) {
	next := bizday.AddMonths(monthStart, 1)
	entries, err := s.repo.EntriesCreated(ctx, trainerID, bizday.AddMonths(monthStart, -5), next)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var month []domain.Member
	for _, m := range entries {
		if !m.CreatedAt.Before(monthStart) {
			month = append(month, m)
		}
	}
	return Sales(month, exclude), Sales(entries, exclude), nil
}

// deduction is what the trainer was overpaid in the entry's origin month. Nothing is
// recorded when the origin month is the current one or no session goes unused.
func (s *Service) deduction(ctx context.Context, m *domain.Member, unused int) (int64, error) {
	origin := bizday.MonthStart(m.CreatedAt)
	if unused <= 0 || bizday.MonthKey(origin) == bizday.MonthKey(s.now()) {
		return 0, nil
	}
	incl, err := s.IncentiveTotal(ctx, m.TrainerID, origin, nil)
	if err != nil {
		return 0, err
	}
	excl, err := s.IncentiveTotal(ctx, m.TrainerID, origin, m)
	if err != nil {
		return 0, err
	}
	return incl - excl, nil
}

// Refund keeps the completed part of an entry and charges the incentive overpaid in its
// origin month to the current month.
func (s *Service) Refund(ctx context.Context, actor access.Actor, memberID uuid.UUID) (*domain.Member, error) {
	var out *domain.Member
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		m, err := s.repo.GetMember(ctx, memberID, true)
		if err != nil {
			return err
		}
		if !actor.CanActFor(m.TrainerID) {
			return ErrNotOwner
		}
		if m.IsRefunded() {
			return ErrAlreadyRefunded
		}
		if m.IsTransferredOut() {
			return ErrTransferred
		}

		completed, err := s.repo.CountCompleted(ctx, m.ID)
		if err != nil {
			return err
		}
		unused := m.Sessions - completed
		deduction, err := s.deduction(ctx, m, unused)
		if err != nil {
			return err
		}

		now := s.now()
		err = s.repo.UpdateMember(ctx, m.ID, map[string]any{
			"refund_status":        domain.RefundRefunded,
			"original_sessions":    m.Sessions,
			"sessions":             completed,
			"refund_amount":        deduction,
			"refund_sessions":      max(0, unused),
			"refund_origin_month":  bizday.MonthKey(m.CreatedAt),
			"refund_applied_month": bizday.MonthKey(now),
			"refunded_at":          now.UTC(),
			"refunded_by":          actor.IDPtr(),
		})
		if err != nil {
			return err
		}
		if _, err := s.bookings.CancelPlannedForEntry(ctx, m.ID, actor.UserID); err != nil {
			return err
		}

		out, err = s.repo.GetMember(ctx, m.ID, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.LedgerCorrections.WithLabelValues("refund").Inc()
	log.Printf("member_refunded member_id=%s trainer_id=%s kept=%d deduction=%d applied=%s by=%s",
		out.ID, out.TrainerID, out.Sessions, out.RefundAmount, out.RefundAppliedMonth, actor.UserID)
	return out, nil
}

// CancelRefund reverts a refund. Bookings cancelled by the refund stay cancelled.
func (s *Service) CancelRefund(ctx context.Context, actor access.Actor, memberID uuid.UUID) (*domain.Member, error) {
	if !actor.Highest() {
		return nil, ErrMainAdminOnly
	}

	var out *domain.Member
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		m, err := s.repo.GetMember(ctx, memberID, true)
		if err != nil {
			return err
		}
		if !m.IsRefunded() {
			return ErrNotRefunded
		}

		updates := map[string]any{
			"refund_status":        domain.RefundNone,
			"original_sessions":    nil,
			"refund_amount":        0,
			"refund_sessions":      0,
			"refund_origin_month":  "",
			"refund_applied_month": "",
			"refunded_at":          nil,
			"refunded_by":          nil,
		}
		if m.OriginalSessions != nil {
			updates["sessions"] = *m.OriginalSessions
		}
		if err := s.repo.UpdateMember(ctx, m.ID, updates); err != nil {
			return err
		}

		out, err = s.repo.GetMember(ctx, m.ID, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.LedgerCorrections.WithLabelValues("refund_cancel").Inc()
	log.Printf("refund_cancelled member_id=%s sessions=%d by=%s", out.ID, out.Sessions, actor.UserID)
	return out, nil
}

type TransferResult struct {
	Source   *domain.Member `json:"source"`
	Received *domain.Member `json:"received"`
}

// Transfer hands the unused sessions of an entry to another trainer as a new entry.
func (s *Service) Transfer(ctx context.Context, actor access.Actor, memberID, toTrainerID uuid.UUID) (*TransferResult, error) {
	var out TransferResult
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		m, err := s.repo.GetMember(ctx, memberID, true)
		if err != nil {
			return err
		}
		if !actor.CanActFor(m.TrainerID) {
			return ErrNotOwner
		}
		switch {
		case m.IsRefunded():
			return ErrRefunded
		case m.IsTransferredOut():
			return ErrTransferred
		case toTrainerID == uuid.Nil || toTrainerID == m.TrainerID:
			return ErrSameTrainer
		}

		completed, err := s.repo.CountCompleted(ctx, m.ID)
		if err != nil {
			return err
		}
		remaining := m.Sessions - completed
		if remaining <= 0 {
			return ErrNothingToTransfer
		}
		deduction, err := s.deduction(ctx, m, remaining)
		if err != nil {
			return err
		}

		now := s.now()
		source := map[string]any{
			"transfer_status":      domain.TransferTransferred,
			"original_sessions":    m.Sessions,
			"sessions":             completed,
			"transferred_to":       toTrainerID,
			"transferred_sessions": remaining,
			"transferred_at":       now.UTC(),
			"transferred_by":       actor.IDPtr(),
		}
		if deduction != 0 {
			source["refund_amount"] = deduction
			source["refund_origin_month"] = bizday.MonthKey(m.CreatedAt)
			source["refund_applied_month"] = bizday.MonthKey(now)
		}
		if err := s.repo.UpdateMember(ctx, m.ID, source); err != nil {
			return err
		}

		received := &domain.Member{
			TrainerID:       toTrainerID,
			Name:            m.Name,
			Phone:           m.Phone,
			Sessions:        remaining,
			UnitPrice:       m.UnitPrice,
			Channel:         m.Channel,
			MemberType:      m.MemberType,
			TransferStatus:  domain.TransferReceived,
			TransferredFrom: &m.ID,
			CreatedAt:       now.UTC(),
		}
		if received.IsTrial() {
			received.OTStatus = domain.OTUnassigned
			received.OTRemainingSessions = remaining
		}
		if err := s.repo.CreateMember(ctx, received); err != nil {
			return err
		}
		if _, err := s.bookings.CancelPlannedForEntry(ctx, m.ID, actor.UserID); err != nil {
			return err
		}

		if out.Source, err = s.repo.GetMember(ctx, m.ID, false); err != nil {
			return err
		}
		out.Received = received
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LedgerCorrections.WithLabelValues("transfer").Inc()
	log.Printf("member_transferred member_id=%s from=%s to=%s sessions=%d deduction=%d by=%s",
		out.Source.ID, out.Source.TrainerID, toTrainerID, out.Received.Sessions, out.Source.RefundAmount, actor.UserID)
	return &out, nil
}

// LoadSettings returns the stored settings, or the defaults when none were saved.
func (s *Service) LoadSettings(ctx context.Context) (Settings, error) {
	row, err := s.repo.LoadSettings(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("load salary settings: %w", err)
	}
	if row == nil {
		return DefaultSettings(), nil
	}
	return settingsFromRow(row)
}

func (s *Service) SaveSettings(ctx context.Context, actor access.Actor, in Settings) (Settings, error) {
	if !actor.Highest() {
		return Settings{}, ErrMainAdminOnly
	}
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return Settings{}, err
	}
	row, err := in.toRow()
	if err != nil {
		return Settings{}, err
	}
	row.UpdatedBy = actor.IDPtr()
	if err := s.repo.SaveSettings(ctx, row); err != nil {
		return Settings{}, err
	}
	log.Printf("salary_settings_saved policy=%s by=%s", in.PolicyVersion, actor.UserID)
	return in, nil
}
