package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trainerdesk/internal/domain"
	"trainerdesk/internal/domain/access"
)

// EntryBalance is one entry with its derived usage.
type EntryBalance struct {
	Member    domain.Member `json:"member"`
	Completed int           `json:"completed"`
	Planned   int           `json:"planned"`
	Remaining int           `json:"remaining"`
}

// PersonBalance aggregates every entry of one person.
type PersonBalance struct {
	TotalRemaining   int            `json:"total_remaining"`
	Entries          []EntryBalance `json:"entries"`
	AllocationTarget *EntryBalance  `json:"allocation_target,omitempty"`
}

// MemberView is an entry as shown in listings.
type MemberView struct {
	domain.Member
	DisplayName string `json:"display_name"`
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	return s.repo.GetByID(ctx, id)
}

// RemainingForPerson sums the unused credits of every entry the person holds.
// A person without entries gets an empty balance, not an error.
func (s *Service) RemainingForPerson(ctx context.Context, name, phone string, trainerID uuid.UUID) (*PersonBalance, error) {
	entries, err := s.repo.ListByPerson(ctx, trainerID, name, phone, false)
	if err != nil {
		return nil, err
	}
	return s.balance(ctx, entries)
}

// RemainingForMember resolves the person behind memberID and returns their balance.
func (s *Service) RemainingForMember(ctx context.Context, memberID uuid.UUID) (*PersonBalance, error) {
	m, err := s.repo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return s.RemainingForPerson(ctx, m.Name, m.Phone, m.TrainerID)
}

// Allocate picks the entry a new booking for memberID's person must draw from.
// Person rows are locked for the rest of the caller's transaction.
func (s *Service) Allocate(ctx context.Context, memberID uuid.UUID) (*domain.Member, error) {
	m, err := s.repo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListByPerson(ctx, m.TrainerID, m.Name, m.Phone, true)
	if err != nil {
		return nil, err
	}
	bal, err := s.balance(ctx, entries)
	if err != nil {
		return nil, err
	}
	if bal.AllocationTarget == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRemaining, m.Name)
	}

	target := bal.AllocationTarget.Member
	return &target, nil
}

func (s *Service) balance(ctx context.Context, entries []domain.Member) (*PersonBalance, error) {
	out := &PersonBalance{Entries: []EntryBalance{}}
	if len(entries) == 0 {
		return out, nil
	}
	SortFIFO(entries)

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	usage, err := s.repo.Usage(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		u := usage[e.ID]
		out.Entries = append(out.Entries, EntryBalance{
			Member:    e,
			Completed: u.Completed,
			Planned:   u.Planned,
			Remaining: e.Sessions - u.Completed - u.Planned,
		})
	}

	for i := range out.Entries {
		eb := &out.Entries[i]
		// trial credits are spent only through OT assignments
		if eb.Member.ReadOnly() || eb.Member.IsTrial() || eb.Remaining <= 0 {
			continue
		}
		out.TotalRemaining += eb.Remaining
		if out.AllocationTarget == nil {
			out.AllocationTarget = eb
		}
	}
	return out, nil
}

type RegisterInput struct {
	TrainerID  uuid.UUID         `json:"trainer_id" validate:"required"`
	Name       string            `json:"name" validate:"required,max=100"`
	Phone      string            `json:"phone" validate:"required,max=32"`
	Sessions   int               `json:"sessions" validate:"gte=1"`
	UnitPrice  int64             `json:"unit_price" validate:"gte=0"`
	Channel    string            `json:"channel" validate:"max=16"`
	MemberType domain.MemberType `json:"member_type" validate:"omitempty,oneof=regular trial"`
}

// Register records a purchase. Trainers register their own members only.
func (s *Service) Register(ctx context.Context, actor access.Actor, in RegisterInput) (*domain.Member, error) {
	if !actor.CanActFor(in.TrainerID) {
		return nil, ErrNotOwner
	}

	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	if name == "" || phone == "" || in.Sessions <= 0 || in.UnitPrice < 0 {
		return nil, ErrInvalidMember
	}

	memberType := in.MemberType
	if memberType == "" {
		memberType = domain.MemberRegular
	}

	m := &domain.Member{
		TrainerID:      in.TrainerID,
		Name:           name,
		Phone:          phone,
		Sessions:       in.Sessions,
		UnitPrice:      in.UnitPrice,
		Channel:        strings.ToUpper(strings.TrimSpace(in.Channel)),
		MemberType:     memberType,
		RefundStatus:   domain.RefundNone,
		TransferStatus: domain.TransferNone,
		CreatedAt:      s.now().UTC(),
	}
	if m.IsTrial() {
		m.OTStatus = domain.OTUnassigned
		m.OTRemainingSessions = m.Sessions
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	return m, nil
}

// ListForTrainer returns the trainer's entries with disambiguated names.
func (s *Service) ListForTrainer(ctx context.Context, actor access.Actor, trainerID uuid.UUID) ([]MemberView, error) {
	if !actor.CanActFor(trainerID) {
		return nil, ErrNotOwner
	}
	entries, err := s.repo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	return views(entries, entries), nil
}

// DropdownForTrainer returns one selectable entry per person.
func (s *Service) DropdownForTrainer(ctx context.Context, actor access.Actor, trainerID uuid.UUID) ([]MemberView, error) {
	if !actor.CanActFor(trainerID) {
		return nil, ErrNotOwner
	}
	entries, err := s.repo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	deduped := DeduplicateForDropdown(entries)
	return views(deduped, deduped), nil
}

func views(entries, peers []domain.Member) []MemberView {
	out := make([]MemberView, 0, len(entries))
	for _, e := range entries {
		out = append(out, MemberView{Member: e, DisplayName: DisplayName(e, peers)})
	}
	return out
}
