package ot

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trainerdesk/internal/domain"
	"trainerdesk/internal/domain/access"
)

type AssignmentView struct {
	domain.OTAssignment
	DaysRemaining int `json:"days_remaining"`
}

type MemberDetail struct {
	Member      domain.Member      `json:"member"`
	Status      domain.OTStatus    `json:"status"`
	Remaining   int                `json:"remaining"`
	Assignments []AssignmentView   `json:"assignments"`
	History     []domain.OTHistory `json:"history"`
}

// Detail shows a trial member with live status computed from the assignment rows.
// Overdue assignments are returned first.
func (s *Service) Detail(ctx context.Context, actor access.Actor, memberID uuid.UUID) (*MemberDetail, error) {
	if _, err := s.ExpireSweep(ctx, s.now()); err != nil {
		return nil, err
	}
	m, err := s.repo.GetMember(ctx, memberID, false)
	if err != nil {
		return nil, err
	}
	if !m.IsTrial() {
		return nil, ErrNotTrial
	}

	list, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !actor.Privileged() && !holdsAny(actor.UserID, list) {
		return nil, ErrNotCustodian
	}

	history, err := s.repo.ListHistory(ctx, HistoryFilter{MemberID: &memberID, Limit: 200})
	if err != nil {
		return nil, err
	}

	return &MemberDetail{
		Member:      *m,
		Status:      DeriveMemberStatus(m.Sessions, list),
		Remaining:   Remaining(m.Sessions, list),
		Assignments: s.views(list),
		History:     history,
	}, nil
}

// ForTrainer lists the sessions a trainer currently holds.
func (s *Service) ForTrainer(ctx context.Context, actor access.Actor, trainerID uuid.UUID) ([]AssignmentView, error) {
	if !actor.CanActFor(trainerID) {
		return nil, ErrNotCustodian
	}
	if _, err := s.ExpireSweep(ctx, s.now()); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByTrainer(ctx, trainerID, []domain.AssignmentStatus{domain.AssignmentAssigned, domain.AssignmentScheduled})
	if err != nil {
		return nil, err
	}
	return s.views(list), nil
}

// History lists closed-out events (completions and returns) for admins,
// or the caller's own events for trainers.
func (s *Service) History(ctx context.Context, actor access.Actor, f HistoryFilter) ([]domain.OTHistory, error) {
	if !actor.Privileged() {
		id := actor.UserID
		f.TrainerID = &id
	}
	if len(f.Actions) == 0 {
		f.Actions = []domain.HistoryAction{
			domain.ActionCompleted, domain.ActionAllCompleted, domain.ActionReturned, domain.ActionReclaimed,
		}
	}
	return s.repo.ListHistory(ctx, f)
}

func (s *Service) views(list []domain.OTAssignment) []AssignmentView {
	now := s.now()
	out := make([]AssignmentView, 0, len(list))
	for _, a := range list {
		v := AssignmentView{OTAssignment: a}
		if a.Status == domain.AssignmentAssigned {
			v.DaysRemaining = max(0, int(a.Deadline.Sub(now)/(24*time.Hour)))
		}
		out = append(out, v)
	}
	return out
}

func holdsAny(trainerID uuid.UUID, list []domain.OTAssignment) bool {
	for _, a := range list {
		if a.TrainerID == trainerID {
			return true
		}
	}
	return false
}
