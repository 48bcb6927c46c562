package ot

import (
	"context"
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
)

// Service is the trial assignment state machine:
// assigned -> scheduled -> completed, assigned -> returned, scheduled -> assigned (booking dropped).
type Service struct {
	db     *gorm.DB
	repo   Repository
	policy config.Policy
	events feed.Publisher
	now    func() time.Time
}

func NewService(db *gorm.DB, repo Repository, policy config.Policy) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		policy: policy,
		events: feed.Nop{},
		now:    time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) SetPublisher(p feed.Publisher) { s.events = p }

// Assign hands up to count unassigned trial sessions of memberID to trainerID.
func (s *Service) Assign(ctx context.Context, actor access.Actor, memberID, trainerID uuid.UUID, count int) ([]domain.OTAssignment, error) {
	if !actor.Privileged() {
		return nil, ErrAdminOnly
	}
	if count <= 0 || trainerID == uuid.Nil {
		return nil, ErrInvalidCount
	}
	if _, err := s.ExpireSweep(ctx, s.now()); err != nil {
		return nil, err
	}

	var created []domain.OTAssignment
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		m, err := s.repo.GetMember(ctx, memberID, true)
		if err != nil {
			return err
		}
		if !m.IsTrial() {
			return ErrNotTrial
		}

		list, err := s.repo.ListByMember(ctx, memberID)
		if err != nil {
			return err
		}
		remaining := Remaining(m.Sessions, list)
		if remaining <= 0 {
			return ErrNothingToAssign
		}

		n := min(count, remaining)
		next := nextSessionNumber(list)
		now := s.now().UTC()
		created = make([]domain.OTAssignment, 0, n)
		for i := 0; i < n; i++ {
			created = append(created, domain.OTAssignment{
				ID:            uuid.New(),
				MemberID:      memberID,
				TrainerID:     trainerID,
				SessionNumber: next + i,
				Status:        domain.AssignmentAssigned,
				AssignedAt:    now,
				Deadline:      now.Add(s.policy.OTDeadline()),
			})
		}
		if err := s.repo.CreateBatch(ctx, created); err != nil {
			return apperr.Translate(err, "session number already taken")
		}

		for _, a := range created {
			note := fmt.Sprintf("session %d assigned, deadline %s", a.SessionNumber, a.Deadline.Format(time.RFC3339))
			if err := s.record(ctx, a, domain.ActionAssigned, actor, note); err != nil {
				return err
			}
		}
		_, err = s.refreshMemberView(ctx, memberID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(feed.Event{Type: feed.OTAssigned, TrainerID: trainerID, Payload: created})
	return created, nil
}

// Schedule marks the assignment as booked. Called inside the booking transaction.
func (s *Service) Schedule(ctx context.Context, actor access.Actor, assignmentID uuid.UUID) (*domain.OTAssignment, error) {
	var out *domain.OTAssignment
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		a, err := s.repo.Get(ctx, assignmentID)
		if err != nil {
			return err
		}
		if !actor.CanActFor(a.TrainerID) {
			return ErrNotCustodian
		}
		if a.Status != domain.AssignmentAssigned {
			return ErrNotAssigned
		}

		active, err := s.repo.CountBookings(ctx, a.ID, []domain.BookingStatus{domain.BookingPlanned, domain.BookingCompleted})
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrAlreadyBooked
		}

		if err := s.transition(ctx, a, []domain.AssignmentStatus{domain.AssignmentAssigned}, domain.AssignmentScheduled, nil, ErrNotAssigned); err != nil {
			return err
		}
		if err := s.record(ctx, *a, domain.ActionScheduled, actor, fmt.Sprintf("session %d scheduled", a.SessionNumber)); err != nil {
			return err
		}
		if _, err := s.refreshMemberView(ctx, a.MemberID); err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

// Complete closes a scheduled assignment and writes all_completed once every session is done.
func (s *Service) Complete(ctx context.Context, actor access.Actor, assignmentID uuid.UUID) error {
	return database.InTx(ctx, s.db, func(ctx context.Context) error {
		a, err := s.repo.Get(ctx, assignmentID)
		if err != nil {
			return err
		}
		if !actor.CanActFor(a.TrainerID) {
			return ErrNotCustodian
		}
		if a.Status != domain.AssignmentScheduled {
			return ErrNotScheduled
		}

		now := s.now().UTC()
		if err := s.transition(ctx, a, []domain.AssignmentStatus{domain.AssignmentScheduled}, domain.AssignmentCompleted,
			map[string]any{"completed_at": now}, ErrNotScheduled); err != nil {
			return err
		}
		if err := s.record(ctx, *a, domain.ActionCompleted, actor, fmt.Sprintf("session %d completed", a.SessionNumber)); err != nil {
			return err
		}

		status, err := s.refreshMemberView(ctx, a.MemberID)
		if err != nil {
			return err
		}
		if status == domain.OTCompleted {
			return s.record(ctx, *a, domain.ActionAllCompleted, actor, "all trial sessions completed")
		}
		return nil
	})
}

// Unschedule reverts a scheduled assignment whose booking was cancelled or deleted.
func (s *Service) Unschedule(ctx context.Context, actor access.Actor, assignmentID uuid.UUID, note string) error {
	return database.InTx(ctx, s.db, func(ctx context.Context) error {
		a, err := s.repo.Get(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a.Status != domain.AssignmentScheduled {
			return ErrNotScheduled
		}
		if err := s.transition(ctx, a, []domain.AssignmentStatus{domain.AssignmentScheduled}, domain.AssignmentAssigned, nil, ErrNotScheduled); err != nil {
			return err
		}
		if err := s.record(ctx, *a, domain.ActionUnscheduled, actor, note); err != nil {
			return err
		}
		_, err = s.refreshMemberView(ctx, a.MemberID)
		return err
	})
}

// Force sets the assignment to match a booking status corrected by a main admin.
// Returned assignments cannot be revived.
func (s *Service) Force(ctx context.Context, actor access.Actor, assignmentID uuid.UUID, to domain.AssignmentStatus, note string) error {
	if !actor.Highest() {
		return ErrAdminOnly
	}
	return database.InTx(ctx, s.db, func(ctx context.Context) error {
		a, err := s.repo.Get(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a.Status == domain.AssignmentReturned {
			return ErrReturned
		}
		if a.Status == to {
			return nil
		}

		patch := map[string]any{"completed_at": nil}
		action := domain.ActionUnscheduled
		switch to {
		case domain.AssignmentCompleted:
			patch["completed_at"] = s.now().UTC()
			action = domain.ActionCompleted
		case domain.AssignmentScheduled:
			action = domain.ActionScheduled
		}

		from := []domain.AssignmentStatus{domain.AssignmentAssigned, domain.AssignmentScheduled, domain.AssignmentCompleted}
		if err := s.transition(ctx, a, from, to, patch, ErrReturned); err != nil {
			return err
		}
		if err := s.record(ctx, *a, action, actor, note); err != nil {
			return err
		}
		_, err = s.refreshMemberView(ctx, a.MemberID)
		return err
	})
}

// ExpireSweep returns every assigned session whose deadline passed. Rows already
// handled by a concurrent or earlier sweep are skipped, so repeated runs are safe.
func (s *Service) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	list, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired assignments: %w", err)
	}

	returned := 0
	for i := range list {
		a := list[i]
		done, err := s.expireOne(ctx, a, now)
		if err != nil {
			metrics.SweepErrors.WithLabelValues(metrics.SweepOTExpiry).Inc()
			log.Printf("sweep_error kind=%s assignment_id=%s member_id=%s error=%v", metrics.SweepOTExpiry, a.ID, a.MemberID, err)
			continue
		}
		if !done {
			continue
		}
		returned++
		s.events.Publish(feed.Event{Type: feed.OTReturned, TrainerID: a.TrainerID, Payload: a})
	}

	if returned > 0 {
		metrics.SweptRows.WithLabelValues(metrics.SweepOTExpiry).Add(float64(returned))
		log.Printf("sweep_done kind=%s returned=%d", metrics.SweepOTExpiry, returned)
	}
	return returned, nil
}

func (s *Service) expireOne(ctx context.Context, a domain.OTAssignment, now time.Time) (bool, error) {
	done := false
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		completed, err := s.repo.CountBookings(ctx, a.ID, []domain.BookingStatus{domain.BookingCompleted})
		if err != nil {
			return err
		}
		if completed > 0 {
			return nil
		}

		ok, err := s.repo.Transition(ctx, a.ID, []domain.AssignmentStatus{domain.AssignmentAssigned}, domain.AssignmentReturned,
			map[string]any{"returned_at": now.UTC()})
		if err != nil || !ok {
			return err
		}
		if err := s.record(ctx, a, domain.ActionReturned, access.System,
			fmt.Sprintf("session %d returned, deadline %s passed", a.SessionNumber, a.Deadline.Format(time.RFC3339))); err != nil {
			return err
		}
		if _, err := s.refreshMemberView(ctx, a.MemberID); err != nil {
			return err
		}
		done = true
		return nil
	})
	return done, err
}

// Reclaim returns every assigned session of the member at once.
func (s *Service) Reclaim(ctx context.Context, actor access.Actor, memberID uuid.UUID) (int, error) {
	if !actor.Privileged() {
		return 0, ErrAdminOnly
	}

	var reclaimed []domain.OTAssignment
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		m, err := s.repo.GetMember(ctx, memberID, true)
		if err != nil {
			return err
		}
		if !m.IsTrial() {
			return ErrNotTrial
		}

		list, err := s.repo.ListByMember(ctx, memberID)
		if err != nil {
			return err
		}
		status := DeriveMemberStatus(m.Sessions, list)
		if status != domain.OTAssigned && status != domain.OTPartial {
			return ErrNothingToReclaim
		}

		if reclaimed, err = s.returnAssigned(ctx, actor, list, "reclaimed"); err != nil {
			return err
		}
		if len(reclaimed) == 0 {
			return ErrNothingToReclaim
		}

		_, err = s.refreshMemberView(ctx, memberID)
		return err
	})
	if err != nil {
		return 0, err
	}

	for _, a := range reclaimed {
		s.events.Publish(feed.Event{Type: feed.OTReclaimed, TrainerID: a.TrainerID, Payload: a})
	}
	return len(reclaimed), nil
}

// ReleaseOutstanding returns every assigned session of an entry that is being closed
// by a refund or transfer. It joins the caller's transaction and is a no-op for
// regular entries.
func (s *Service) ReleaseOutstanding(ctx context.Context, memberID uuid.UUID, note string) (int, error) {
	var released []domain.OTAssignment
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		m, err := s.repo.GetMember(ctx, memberID, true)
		if err != nil {
			return err
		}
		if !m.IsTrial() {
			return nil
		}

		list, err := s.repo.ListByMember(ctx, memberID)
		if err != nil {
			return err
		}
		if released, err = s.returnAssigned(ctx, access.System, list, note); err != nil {
			return err
		}
		if len(released) == 0 {
			return nil
		}
		_, err = s.refreshMemberView(ctx, memberID)
		return err
	})
	if err != nil {
		return 0, err
	}

	for _, a := range released {
		s.events.Publish(feed.Event{Type: feed.OTReclaimed, TrainerID: a.TrainerID, Payload: a})
	}
	if len(released) > 0 {
		log.Printf("ot_released member_id=%s count=%d note=%q", memberID, len(released), note)
	}
	return len(released), nil
}

// returnAssigned moves the assigned rows of list to returned and records a reclaim for each.
func (s *Service) returnAssigned(ctx context.Context, actor access.Actor, list []domain.OTAssignment, note string) ([]domain.OTAssignment, error) {
	now := s.now().UTC()
	var out []domain.OTAssignment
	for _, a := range list {
		if a.Status != domain.AssignmentAssigned {
			continue
		}
		ok, err := s.repo.Transition(ctx, a.ID, []domain.AssignmentStatus{domain.AssignmentAssigned}, domain.AssignmentReturned,
			map[string]any{"returned_at": now})
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := s.record(ctx, a, domain.ActionReclaimed, actor, fmt.Sprintf("session %d %s", a.SessionNumber, note)); err != nil {
			return nil, err
		}
		a.Status = domain.AssignmentReturned
		out = append(out, a)
	}
	return out, nil
}

// Extend pushes the deadline back once.
func (s *Service) Extend(ctx context.Context, actor access.Actor, assignmentID uuid.UUID) (*domain.OTAssignment, error) {
	var out *domain.OTAssignment
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		a, err := s.repo.Get(ctx, assignmentID)
		if err != nil {
			return err
		}
		if !actor.CanActFor(a.TrainerID) {
			return ErrNotCustodian
		}
		if a.Extended {
			return ErrAlreadyExtended
		}
		if a.Status != domain.AssignmentAssigned {
			return ErrNotAssigned
		}

		deadline := a.Deadline.Add(s.policy.OTExtension()).UTC()
		ok, err := s.repo.Extend(ctx, a.ID, deadline)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyExtended
		}
		a.Deadline = deadline
		a.Extended = true

		out = a
		return s.record(ctx, *a, domain.ActionExtended, actor, "deadline extended to "+deadline.Format(time.RFC3339))
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(feed.Event{Type: feed.OTExtended, TrainerID: out.TrainerID, Payload: out})
	return out, nil
}

// IncreaseSessions grants n more trial sessions to the member.
func (s *Service) IncreaseSessions(ctx context.Context, actor access.Actor, memberID uuid.UUID, n int) (*domain.Member, error) {
	if !actor.Privileged() {
		return nil, ErrAdminOnly
	}
	if n <= 0 {
		return nil, ErrInvalidCount
	}

	var out *domain.Member
	err := database.InTx(ctx, s.db, func(ctx context.Context) error {
		m, err := s.repo.GetMember(ctx, memberID, true)
		if err != nil {
			return err
		}
		if !m.IsTrial() {
			return ErrNotTrial
		}
		if err := s.repo.AddMemberSessions(ctx, memberID, n); err != nil {
			return err
		}
		if err := s.repo.AppendHistory(ctx, &domain.OTHistory{
			MemberID:  memberID,
			Action:    domain.ActionSessionsIncreased,
			ActorID:   actor.IDPtr(),
			Note:      fmt.Sprintf("%d -> %d sessions", m.Sessions, m.Sessions+n),
			CreatedAt: s.now().UTC(),
		}); err != nil {
			return err
		}
		if _, err := s.refreshMemberView(ctx, memberID); err != nil {
			return err
		}
		out, err = s.repo.GetMember(ctx, memberID, false)
		return err
	})
	return out, err
}

// refreshMemberView rewrites the cached member status from the assignment rows.
// Every transition calls it inside its own transaction.
func (s *Service) refreshMemberView(ctx context.Context, memberID uuid.UUID) (domain.OTStatus, error) {
	m, err := s.repo.GetMember(ctx, memberID, false)
	if err != nil {
		return "", err
	}
	list, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return "", err
	}

	status := DeriveMemberStatus(m.Sessions, list)
	if err := s.repo.UpdateMemberView(ctx, memberID, status, Remaining(m.Sessions, list)); err != nil {
		return "", fmt.Errorf("update member view: %w", err)
	}
	return status, nil
}

func (s *Service) transition(ctx context.Context, a *domain.OTAssignment, from []domain.AssignmentStatus, to domain.AssignmentStatus, patch map[string]any, stale error) error {
	ok, err := s.repo.Transition(ctx, a.ID, from, to, patch)
	if err != nil {
		return err
	}
	if !ok {
		return stale
	}
	a.Status = to
	return nil
}

func (s *Service) record(ctx context.Context, a domain.OTAssignment, action domain.HistoryAction, actor access.Actor, note string) error {
	trainerID := a.TrainerID
	assignmentID := a.ID
	err := s.repo.AppendHistory(ctx, &domain.OTHistory{
		MemberID:     a.MemberID,
		TrainerID:    &trainerID,
		AssignmentID: &assignmentID,
		Action:       action,
		ActorID:      actor.IDPtr(),
		Note:         note,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	metrics.OTTransitions.WithLabelValues(string(action)).Inc()
	return nil
}
