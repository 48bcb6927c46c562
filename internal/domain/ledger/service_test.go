package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"trainerdesk/internal/database/dbtest"
	"trainerdesk/internal/domain"
	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/pkg/apperr"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return NewService(NewRepository(db)), db
}

func seedMember(t *testing.T, db *gorm.DB, trainer uuid.UUID, name, phone string, sessions int, created time.Time) domain.Member {
	t.Helper()
	m := domain.Member{
		TrainerID: trainer, Name: name, Phone: phone, Sessions: sessions,
		UnitPrice: 50000, CreatedAt: created.UTC(),
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func seedBooking(t *testing.T, db *gorm.DB, m domain.Member, date, start string, status domain.BookingStatus) {
	t.Helper()
	b := domain.Booking{
		MemberID: m.ID, TrainerID: m.TrainerID, Date: date, StartTime: start, EndTime: start,
		Status: status,
	}
	require.NoError(t, db.Create(&b).Error)
}

func TestRemainingForPersonSumsEntriesFIFO(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	trainer := uuid.New()
	t0 := time.Date(2025, 1, 10, 3, 0, 0, 0, time.UTC)

	newer := seedMember(t, db, trainer, "Kim", "010-1234-5678", 2, t0.Add(48*time.Hour))
	older := seedMember(t, db, trainer, "Kim", "010-1234-5678", 3, t0)
	seedMember(t, db, trainer, "Kim", "010-9999-0000", 10, t0)

	seedBooking(t, db, older, "2025-01-11", "09:00", domain.BookingCompleted)
	seedBooking(t, db, older, "2025-01-12", "09:00", domain.BookingPlanned)
	seedBooking(t, db, older, "2025-01-13", "09:00", domain.BookingCancelled)

	bal, err := svc.RemainingForPerson(ctx, "Kim", "010-1234-5678", trainer)
	require.NoError(t, err)

	require.Len(t, bal.Entries, 2)
	assert.Equal(t, older.ID, bal.Entries[0].Member.ID)
	assert.Equal(t, newer.ID, bal.Entries[1].Member.ID)
	assert.Equal(t, 1, bal.Entries[0].Remaining)
	assert.Equal(t, 3, bal.TotalRemaining)
	require.NotNil(t, bal.AllocationTarget)
	assert.Equal(t, older.ID, bal.AllocationTarget.Member.ID)

	for _, e := range bal.Entries {
		assert.Equal(t, e.Member.Sessions, e.Completed+e.Planned+max(0, e.Remaining))
	}
}

func TestRemainingForUnknownPersonIsEmpty(t *testing.T) {
	svc, _ := setupTestService(t)

	bal, err := svc.RemainingForPerson(context.Background(), "Nobody", "000", uuid.New())
	require.NoError(t, err)
	assert.Zero(t, bal.TotalRemaining)
	assert.Empty(t, bal.Entries)
	assert.Nil(t, bal.AllocationTarget)
}

func TestAllocateSkipsFullAndReadOnlyEntries(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	trainer := uuid.New()
	t0 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	full := seedMember(t, db, trainer, "Park", "010-5555-6666", 1, t0)
	seedBooking(t, db, full, "2025-02-02", "10:00", domain.BookingCompleted)

	refunded := seedMember(t, db, trainer, "Park", "010-5555-6666", 4, t0.Add(time.Hour))
	require.NoError(t, db.Model(&domain.Member{}).Where("id = ?", refunded.ID).
		Update("refund_status", domain.RefundRefunded).Error)

	open := seedMember(t, db, trainer, "Park", "010-5555-6666", 2, t0.Add(2*time.Hour))

	target, err := svc.Allocate(ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, open.ID, target.ID)

	seedBooking(t, db, open, "2025-02-03", "10:00", domain.BookingPlanned)
	seedBooking(t, db, open, "2025-02-04", "10:00", domain.BookingPlanned)

	_, err = svc.Allocate(ctx, full.ID)
	assert.ErrorIs(t, err, apperr.ErrExhausted)
}

func TestAllocateUnknownMember(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.Allocate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegister(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	trainer := uuid.New()
	now := time.Date(2025, 3, 5, 1, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	self := access.Actor{UserID: trainer, Role: access.RoleTrainer}
	m, err := svc.Register(ctx, self, RegisterInput{
		TrainerID: trainer, Name: " Choi ", Phone: "010-2222-3333", Sessions: 2,
		MemberType: domain.MemberTrial, Channel: "wi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Choi", m.Name)
	assert.Equal(t, domain.ChannelWalkIn, m.Channel)
	assert.Equal(t, domain.OTUnassigned, m.OTStatus)
	assert.Equal(t, 2, m.OTRemainingSessions)
	assert.True(t, m.CreatedAt.Equal(now))

	other := access.Actor{UserID: uuid.New(), Role: access.RoleTrainer}
	_, err = svc.Register(ctx, other, RegisterInput{TrainerID: trainer, Name: "X", Phone: "1", Sessions: 1})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Register(ctx, self, RegisterInput{TrainerID: trainer, Name: "X", Phone: "1", Sessions: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDropdownCollapsesPersons(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	trainer := uuid.New()
	t0 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	first := seedMember(t, db, trainer, "Han", "010-1111-0001", 5, t0)
	seedMember(t, db, trainer, "Han", "010-1111-0001", 5, t0.Add(time.Hour))
	seedMember(t, db, trainer, "Han", "010-2222-0002", 5, t0)

	list, err := svc.DropdownForTrainer(ctx, access.Actor{UserID: trainer, Role: access.RoleTrainer}, trainer)
	require.NoError(t, err)
	require.Len(t, list, 2)

	var names []string
	for _, v := range list {
		names = append(names, v.DisplayName)
		if v.Phone == "010-1111-0001" {
			assert.Equal(t, first.ID, v.ID)
		}
	}
	assert.ElementsMatch(t, []string{"Han (0001)", "Han (0002)"}, names)
}
