package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trainerdesk/internal/config"
	"trainerdesk/internal/database"
	"trainerdesk/internal/domain"
	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/domain/feed"
	"trainerdesk/internal/metrics"
	"trainerdesk/internal/pkg/apperr"
	"trainerdesk/internal/pkg/bizday"
)

type Service struct {
	db     *gorm.DB
	repo   Repository
	ledger Ledger
	trial  TrialSessions
	policy config.Policy
	events feed.Publisher
	now    func() time.Time
}

func NewService(db *gorm.DB, repo Repository, ledger Ledger, trial TrialSessions, policy config.Policy) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		ledger: ledger,
		trial:  trial,
		policy: policy,
		events: feed.Nop{},
		now:    time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) SetPublisher(p feed.Publisher) { s.events = p }

type BookInput struct {
	MemberID       uuid.UUID  `json:"member_id" validate:"required"`
	TrainerID      uuid.UUID  `json:"trainer_id" validate:"required"`
	Date           string     `json:"date" validate:"required,bizdate"`
	Start          string     `json:"start_time" validate:"required,clock"`
	End            string     `json:"end_time,omitempty" validate:"omitempty,clock"`
	Notes          string     `json:"notes,omitempty" validate:"max=2000"`
	OTAssignmentID *uuid.UUID `json:"ot_assignment_id,omitempty"`
}

type CompleteInput struct {
	WorkType  domain.WorkType `json:"work_type"`
	Signature string          `json:"signature"`
	Notes     string          `json:"notes"`
}

// Book creates a planned booking. Regular bookings draw from the oldest entry of the
// member's person that still has credits, which may not be the entry passed in.
func (s *Service) Book(ctx context.Context, actor access.Actor, in BookInput) (*domain.Booking, error) {
	end, err := s.endTime(in.Start, in.End)
	if err != nil {
		return nil, err
	}
	today := bizday.Today(s.now())

	var created *domain.Booking
	err = database.InTx(ctx, s.db, func(ctx context.Context) error {
		entry, err := s.ledger.Get(ctx, in.MemberID)
		if err != nil {
			return err
		}
		if !actor.CanActFor(in.TrainerID) {
			return ErrForbidden
		}
		if in.Date < today && !actor.Highest() {
			return ErrLocked
		}

		taken, err := s.repo.SlotTaken(ctx, in.TrainerID, in.Date, in.Start)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}

		target := entry
		if in.OTAssignmentID != nil {
			if entry.ReadOnly() {
				return ErrEntryClosed
			}
			a, err := s.trial.Schedule(ctx, actor, *in.OTAssignmentID)
			if err != nil {
				return err
			}
			if a.MemberID != entry.ID || a.TrainerID != in.TrainerID {
				return ErrMismatch
			}
		} else {
			if entry.IsTrial() {
				return ErrTrialNeedsAssignment
			}
			if entry.TrainerID != in.TrainerID {
				return ErrMismatch
			}
			if target, err = s.ledger.Allocate(ctx, entry.ID); err != nil {
				return err
			}
		}

		b := &domain.Booking{
			MemberID:       target.ID,
			TrainerID:      in.TrainerID,
			Date:           in.Date,
			StartTime:      in.Start,
			EndTime:        end,
			Status:         domain.BookingPlanned,
			Notes:          in.Notes,
			OTAssignmentID: in.OTAssignmentID,
			CreatedBy:      actor.IDPtr(),
		}
		if err := s.repo.Create(ctx, b); err != nil {
			if apperr.IsUniqueViolation(err) {
				return ErrSlotTaken
			}
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	s.events.Publish(feed.Event{Type: feed.BookingCreated, TrainerID: created.TrainerID, Payload: created, At: s.now().UTC()})
	return created, nil
}

func (s *Service) endTime(start, end string) (string, error) {
	st, err := bizday.ParseClock(start)
	if err != nil {
		return "", ErrInvalidTime
	}
	if end == "" {
		et := st.Add(s.policy.BookingLength())
		if et.Day() != st.Day() {
			return "", ErrInvalidTime
		}
		return et.Format(bizday.TimeLayout), nil
	}
	et, err := bizday.ParseClock(end)
	if err != nil || !et.After(st) {
		return "", ErrInvalidTime
	}
	return end, nil
}

// authorize applies the mutation rule: the owner trainer or an admin may act on a
// planned future booking, anything closed or past needs a main admin.
func (s *Service) authorize(actor access.Actor, b *domain.Booking) error {
	if !actor.CanActFor(b.TrainerID) {
		return ErrForbidden
	}
	if (b.Status != domain.BookingPlanned || b.Date < bizday.Today(s.now())) && !actor.Highest() {
		return ErrLocked
	}
	return nil
}

// Complete closes a planned booking and consumes its credit.
func (s *Service) Complete(ctx context.Context, actor access.Actor, id uuid.UUID, in CompleteInput) (*domain.Booking, error) {
	if in.WorkType == "" {
		in.WorkType = domain.WorkInHours
	}
	if !in.WorkType.Valid() {
		return nil, ErrInvalidWorkType
	}

	var out *domain.Booking
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		b, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, b); err != nil {
			return err
		}
		if b.Status != domain.BookingPlanned {
			return ErrNotPlanned
		}

		now := s.now().UTC()
		patch := map[string]any{
			"work_type":    in.WorkType,
			"signature":    in.Signature,
			"completed_at": now,
		}
		if in.Notes != "" {
			patch["notes"] = in.Notes
		}
		ok, err := s.repo.Transition(ctx, id, []domain.BookingStatus{domain.BookingPlanned}, domain.BookingCompleted, patch)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotPlanned
		}
		if b.OTAssignmentID != nil {
			if err := s.trial.Complete(ctx, actor, *b.OTAssignmentID); err != nil {
				return err
			}
		}

		out, err = s.repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(domain.BookingCompleted)).Inc()
	s.events.Publish(feed.Event{Type: feed.BookingCompleted, TrainerID: out.TrainerID, Payload: out, At: s.now().UTC()})
	return out, nil
}

// Cancel releases a planned booking. The credit returns to the ledger.
func (s *Service) Cancel(ctx context.Context, actor access.Actor, id uuid.UUID) (*domain.Booking, error) {
	var out *domain.Booking
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		b, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, b); err != nil {
			return err
		}
		if b.Status != domain.BookingPlanned {
			return ErrNotPlanned
		}

		ok, err := s.repo.Transition(ctx, id, []domain.BookingStatus{domain.BookingPlanned}, domain.BookingCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotPlanned
		}
		if err := s.releaseTrial(ctx, actor, b, "booking cancelled"); err != nil {
			return err
		}

		b.Status = domain.BookingCancelled
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(domain.BookingCancelled)).Inc()
	s.events.Publish(feed.Event{Type: feed.BookingCancelled, TrainerID: out.TrainerID, Payload: out, At: s.now().UTC()})
	return out, nil
}

// Delete removes a booking outright.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	var deleted *domain.Booking
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		b, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, b); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		if b.Status == domain.BookingPlanned {
			if err := s.releaseTrial(ctx, actor, b, "booking deleted"); err != nil {
				return err
			}
		}
		deleted = b
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("booking_deleted booking_id=%s trainer_id=%s by=%s", deleted.ID, deleted.TrainerID, actor.UserID)
	s.events.Publish(feed.Event{Type: feed.BookingDeleted, TrainerID: deleted.TrainerID, Payload: deleted, At: s.now().UTC()})
	return nil
}

// EditStatus lets a main admin overwrite a booking status. A linked trial assignment follows.
func (s *Service) EditStatus(ctx context.Context, actor access.Actor, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error) {
	if !actor.Highest() {
		return nil, ErrLocked
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var out *domain.Booking
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		b, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if b.Status == status {
			out = b
			return nil
		}

		patch := map[string]any{}
		switch status {
		case domain.BookingCompleted:
			if b.WorkType == "" {
				patch["work_type"] = domain.WorkInHours
			}
			patch["completed_at"] = s.now().UTC()
		case domain.BookingPlanned:
			patch["work_type"] = ""
			patch["signature"] = ""
			patch["completed_at"] = nil
		}

		ok, err := s.repo.Transition(ctx, id, []domain.BookingStatus{b.Status}, status, patch)
		if err != nil {
			if apperr.IsUniqueViolation(err) {
				return ErrSlotTaken
			}
			return err
		}
		if !ok {
			return fmt.Errorf("%w: booking changed concurrently", apperr.ErrConflict)
		}

		if b.OTAssignmentID != nil {
			to := map[domain.BookingStatus]domain.AssignmentStatus{
				domain.BookingCompleted: domain.AssignmentCompleted,
				domain.BookingPlanned:   domain.AssignmentScheduled,
				domain.BookingCancelled: domain.AssignmentAssigned,
			}[status]
			note := fmt.Sprintf("booking status edited %s -> %s", b.Status, status)
			if err := s.trial.Force(ctx, actor, *b.OTAssignmentID, to, note); err != nil {
				return err
			}
		}

		out, err = s.repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(status)).Inc()
	s.events.Publish(feed.Event{Type: feed.BookingEdited, TrainerID: out.TrainerID, Payload: out, At: s.now().UTC()})
	return out, nil
}

// SweepExpiredBookings cancels planned bookings dated before today. Rows already moved
// by another writer are skipped, so concurrent and repeated sweeps are safe.
func (s *Service) SweepExpiredBookings(ctx context.Context, today string) (int, error) {
	list, err := s.repo.ListExpired(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list expired bookings: %w", err)
	}

	swept := 0
	for i := range list {
		b := list[i]
		done, err := s.expireOne(ctx, &b)
		if err != nil {
			metrics.SweepErrors.WithLabelValues(metrics.SweepBookings).Inc()
			log.Printf("sweep_error kind=%s booking_id=%s error=%v", metrics.SweepBookings, b.ID, err)
			continue
		}
		if !done {
			continue
		}
		swept++
		b.Status = domain.BookingCancelled
		s.events.Publish(feed.Event{Type: feed.BookingCancelled, TrainerID: b.TrainerID, Payload: b, At: s.now().UTC()})
	}

	if swept > 0 {
		metrics.SweptRows.WithLabelValues(metrics.SweepBookings).Add(float64(swept))
		log.Printf("sweep_done kind=%s cancelled=%d today=%s", metrics.SweepBookings, swept, today)
	}
	return swept, nil
}

func (s *Service) expireOne(ctx context.Context, b *domain.Booking) (bool, error) {
	done := false
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		ok, err := s.repo.Transition(ctx, b.ID, []domain.BookingStatus{domain.BookingPlanned}, domain.BookingCancelled, nil)
		if err != nil || !ok {
			return err
		}
		if err := s.releaseTrial(ctx, access.System, b, "booking expired"); err != nil {
			return err
		}
		done = true
		return nil
	})
	return done, err
}

// Schedule lists a trainer's bookings between two dates, inclusive. Expired
// bookings and trial assignments are swept first so the view is never stale.
func (s *Service) Schedule(ctx context.Context, actor access.Actor, trainerID uuid.UUID, from, to string) ([]domain.Booking, error) {
	if !actor.CanActFor(trainerID) {
		return nil, ErrForbidden
	}
	if from > to {
		return nil, ErrInvalidTime
	}

	if _, _, err := s.SweepAll(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListRange(ctx, trainerID, from, to)
}

// SweepAll runs the booking sweep and then the trial expiry sweep against the current clock.
func (s *Service) SweepAll(ctx context.Context) (bookings int, assignments int, err error) {
	now := s.now()
	if bookings, err = s.SweepExpiredBookings(ctx, bizday.Today(now)); err != nil {
		return 0, 0, err
	}
	if assignments, err = s.trial.ExpireSweep(ctx, now); err != nil {
		return bookings, 0, err
	}
	return bookings, assignments, nil
}

// EditNotes replaces a booking's free-text notes. Owners may edit notes in any status.
func (s *Service) EditNotes(ctx context.Context, actor access.Actor, id uuid.UUID, notes string) (*domain.Booking, error) {
	var out *domain.Booking
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		b, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if !actor.CanActFor(b.TrainerID) {
			return ErrForbidden
		}

		ok, err := s.repo.Transition(ctx, id, []domain.BookingStatus{b.Status}, b.Status, map[string]any{"notes": notes})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: booking changed concurrently", apperr.ErrConflict)
		}
		out, err = s.repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(feed.Event{Type: feed.BookingEdited, TrainerID: out.TrainerID, Payload: out, At: s.now().UTC()})
	return out, nil
}

// CancelPlannedForEntry drops every planned booking of an entry and hands back any
// trial session still held by a trainer. It joins the caller's transaction and is
// used when an entry is refunded or transferred.
func (s *Service) CancelPlannedForEntry(ctx context.Context, memberID, actorID uuid.UUID) (int, error) {
	cancelled := 0
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		list, err := s.repo.ListPlannedForMember(ctx, memberID)
		if err != nil {
			return err
		}
		for i := range list {
			b := list[i]
			ok, err := s.repo.Transition(ctx, b.ID, []domain.BookingStatus{domain.BookingPlanned}, domain.BookingCancelled, nil)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := s.releaseTrial(ctx, access.System, &b, "entry closed"); err != nil {
				return err
			}
			cancelled++
		}
		_, err = s.trial.ReleaseOutstanding(ctx, memberID, "released, entry closed")
		return err
	})
	if err != nil {
		return 0, err
	}
	if cancelled > 0 {
		metrics.BookingTransitions.WithLabelValues(string(domain.BookingCancelled)).Add(float64(cancelled))
		log.Printf("bookings_cancelled_for_entry member_id=%s count=%d by=%s", memberID, cancelled, actorID)
	}
	return cancelled, nil
}

// releaseTrial puts a linked trial assignment back to assigned. An assignment an
// admin already moved elsewhere is left alone.
func (s *Service) releaseTrial(ctx context.Context, actor access.Actor, b *domain.Booking, note string) error {
	if b.OTAssignmentID == nil {
		return nil
	}
	err := s.trial.Unschedule(ctx, actor, *b.OTAssignmentID, note)
	if errors.Is(err, apperr.ErrInvalidState) {
		log.Printf("ot_unschedule_skipped booking_id=%s assignment_id=%s error=%v", b.ID, *b.OTAssignmentID, err)
		return nil
	}
	return err
}
