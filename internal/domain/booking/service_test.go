package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"trainerdesk/internal/config"
	"trainerdesk/internal/database/dbtest"
	"trainerdesk/internal/domain"
	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/domain/feed"
	"trainerdesk/internal/domain/ledger"
	"trainerdesk/internal/domain/ot"
	"trainerdesk/internal/pkg/apperr"
)

// 2025-06-02 10:00 in UTC+9.
var now = time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(e feed.Event) {
	m.Called(e)
}

type fixture struct {
	svc     *Service
	ledger  *ledger.Service
	trial   *ot.Service
	db      *gorm.DB
	trainer access.Actor
}

func setupTestService(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	policy := config.DefaultPolicy()
	clock := func() time.Time { return now }

	led := ledger.NewService(ledger.NewRepository(db))
	led.SetClock(clock)
	trial := ot.NewService(db, ot.NewRepository(db), policy)
	trial.SetClock(clock)
	svc := NewService(db, NewRepository(db), led, trial, policy)
	svc.SetClock(clock)

	return &fixture{
		svc:     svc,
		ledger:  led,
		trial:   trial,
		db:      db,
		trainer: access.Actor{UserID: uuid.New(), Role: access.RoleTrainer},
	}
}

func (f *fixture) entry(t *testing.T, name string, sessions int, created time.Time) domain.Member {
	t.Helper()
	m := domain.Member{
		TrainerID: f.trainer.UserID, Name: name, Phone: "010-" + name,
		Sessions: sessions, UnitPrice: 60000, CreatedAt: created.UTC(),
	}
	require.NoError(t, f.db.Create(&m).Error)
	return m
}

func (f *fixture) book(m domain.Member, date, start string) (*domain.Booking, error) {
	return f.svc.Book(context.Background(), f.trainer, BookInput{
		MemberID: m.ID, TrainerID: f.trainer.UserID, Date: date, Start: start,
	})
}

func TestBookDrawsFromOldestEntryFirst(t *testing.T) {
	f := setupTestService(t)
	older := f.entry(t, "Lee", 3, now.Add(-72*time.Hour))
	newer := f.entry(t, "Lee", 2, now.Add(-24*time.Hour))

	var drawn []uuid.UUID
	for i := 0; i < 5; i++ {
		b, err := f.book(newer, "2025-06-03", fmt.Sprintf("%02d:00", 9+i))
		require.NoError(t, err)
		drawn = append(drawn, b.MemberID)
	}
	assert.Equal(t, []uuid.UUID{older.ID, older.ID, older.ID, newer.ID, newer.ID}, drawn)

	_, err := f.book(newer, "2025-06-03", "15:00")
	assert.ErrorIs(t, err, apperr.ErrExhausted)

	bal, err := f.ledger.RemainingForMember(context.Background(), older.ID)
	require.NoError(t, err)
	assert.Zero(t, bal.TotalRemaining)
	for _, e := range bal.Entries {
		assert.Equal(t, e.Member.Sessions, e.Completed+e.Planned+max(0, e.Remaining))
	}
}

func TestBookDefaultsEndAndValidatesTimes(t *testing.T) {
	f := setupTestService(t)
	m := f.entry(t, "Park", 5, now.Add(-time.Hour))

	b, err := f.book(m, "2025-06-03", "09:30")
	require.NoError(t, err)
	assert.Equal(t, "10:30", b.EndTime)
	assert.Equal(t, domain.BookingPlanned, b.Status)

	_, err = f.book(m, "2025-06-03", "23:30")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Book(context.Background(), f.trainer, BookInput{
		MemberID: m.ID, TrainerID: f.trainer.UserID, Date: "2025-06-03", Start: "12:00", End: "11:00",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Book(context.Background(), f.trainer, BookInput{
		MemberID: uuid.New(), TrainerID: f.trainer.UserID, Date: "2025-06-03", Start: "12:00",
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBookSameSlotConcurrently(t *testing.T) {
	f := setupTestService(t)
	a := f.entry(t, "Choi", 5, now.Add(-time.Hour))
	b := f.entry(t, "Jung", 5, now.Add(-time.Hour))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, m := range []domain.Member{a, b} {
		wg.Add(1)
		go func(i int, m domain.Member) {
			defer wg.Done()
			_, errs[i] = f.book(m, "2025-06-04", "10:00")
		}(i, m)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	var cnt int64
	require.NoError(t, f.db.Model(&domain.Booking{}).
		Where("date = ? AND start_time = ?", "2025-06-04", "10:00").Count(&cnt).Error)
	assert.EqualValues(t, 1, cnt)
}

func TestCancelledSlotCanBeRebooked(t *testing.T) {
	f := setupTestService(t)
	m := f.entry(t, "Han", 5, now.Add(-time.Hour))
	ctx := context.Background()

	b, err := f.book(m, "2025-06-05", "08:00")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.trainer, b.ID)
	require.NoError(t, err)

	_, err = f.book(m, "2025-06-05", "08:00")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.trainer, b.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden, "cancelled bookings are locked for trainers")
}

func TestPermissionRule(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.entry(t, "Yoon", 5, now.Add(-time.Hour))
	mainAdmin := access.Actor{UserID: uuid.New(), Role: access.RoleMainAdmin}
	branch := access.Actor{UserID: uuid.New(), Role: access.RoleBranchAdmin}
	stranger := access.Actor{UserID: uuid.New(), Role: access.RoleTrainer}

	b, err := f.book(m, "2025-06-03", "09:00")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, stranger, b.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.Complete(ctx, f.trainer, b.ID, CompleteInput{Signature: "sig"})
	require.NoError(t, err)

	// Closed bookings: permission is checked before state.
	_, err = f.svc.Cancel(ctx, f.trainer, b.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Cancel(ctx, branch, b.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Cancel(ctx, mainAdmin, b.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = f.svc.Book(ctx, f.trainer, BookInput{MemberID: m.ID, TrainerID: f.trainer.UserID, Date: "2025-06-01", Start: "09:00"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	past, err := f.svc.Book(ctx, mainAdmin, BookInput{MemberID: m.ID, TrainerID: f.trainer.UserID, Date: "2025-06-01", Start: "09:00"})
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, f.trainer, past.ID, CompleteInput{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	done, err := f.svc.Complete(ctx, mainAdmin, past.ID, CompleteInput{WorkType: domain.WorkOutOfHours})
	require.NoError(t, err)
	assert.Equal(t, domain.WorkOutOfHours, done.WorkType)
	assert.NotNil(t, done.CompletedAt)
}

func TestCompleteRejectsUnknownWorkType(t *testing.T) {
	f := setupTestService(t)
	m := f.entry(t, "Seo", 1, now.Add(-time.Hour))
	b, err := f.book(m, "2025-06-03", "09:00")
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), f.trainer, b.ID, CompleteInput{WorkType: "overtime"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSweepExpiredBookings(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.entry(t, "Kang", 5, now.Add(-time.Hour))

	stale := domain.Booking{MemberID: m.ID, TrainerID: m.TrainerID, Date: "2025-06-01", StartTime: "09:00", EndTime: "10:00", Status: domain.BookingPlanned}
	done := domain.Booking{MemberID: m.ID, TrainerID: m.TrainerID, Date: "2025-05-30", StartTime: "09:00", EndTime: "10:00", Status: domain.BookingCompleted}
	require.NoError(t, f.db.Create(&stale).Error)
	require.NoError(t, f.db.Create(&done).Error)
	current, err := f.book(m, "2025-06-02", "18:00")
	require.NoError(t, err)

	n, err := f.svc.SweepExpiredBookings(ctx, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.SweepExpiredBookings(ctx, "2025-06-02")
	require.NoError(t, err)
	assert.Zero(t, n)

	for id, want := range map[uuid.UUID]domain.BookingStatus{
		stale.ID:   domain.BookingCancelled,
		done.ID:    domain.BookingCompleted,
		current.ID: domain.BookingPlanned,
	} {
		got, err := f.svc.repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}
}

func TestScheduleSweepsBeforeListing(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.entry(t, "Oh", 5, now.Add(-time.Hour))

	stale := domain.Booking{MemberID: m.ID, TrainerID: m.TrainerID, Date: "2025-06-01", StartTime: "09:00", EndTime: "10:00", Status: domain.BookingPlanned}
	require.NoError(t, f.db.Create(&stale).Error)

	list, err := f.svc.Schedule(ctx, f.trainer, f.trainer.UserID, "2025-06-01", "2025-06-07")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.BookingCancelled, list[0].Status)

	_, err = f.svc.Schedule(ctx, access.Actor{UserID: uuid.New(), Role: access.RoleTrainer}, f.trainer.UserID, "2025-06-01", "2025-06-07")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestTrialBookingDrivesAssignment(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	admin := access.Actor{UserID: uuid.New(), Role: access.RoleBranchAdmin}

	m := domain.Member{
		TrainerID: admin.UserID, Name: "Trial", Phone: "010-trial", Sessions: 2,
		MemberType: domain.MemberTrial, OTStatus: domain.OTUnassigned, OTRemainingSessions: 2, CreatedAt: now,
	}
	require.NoError(t, f.db.Create(&m).Error)

	list, err := f.trial.Assign(ctx, admin, m.ID, f.trainer.UserID, 2)
	require.NoError(t, err)
	aid := list[0].ID

	in := BookInput{MemberID: m.ID, TrainerID: f.trainer.UserID, Date: "2025-06-03", Start: "10:00", OTAssignmentID: &aid}
	b, err := f.svc.Book(ctx, f.trainer, in)
	require.NoError(t, err)
	assert.Equal(t, m.ID, b.MemberID)
	assert.Equal(t, domain.AssignmentScheduled, f.assignment(t, aid).Status)

	in.Start = "11:00"
	_, err = f.svc.Book(ctx, f.trainer, in)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = f.svc.Cancel(ctx, f.trainer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentAssigned, f.assignment(t, aid).Status)

	b, err = f.svc.Book(ctx, f.trainer, in)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, f.trainer, b.ID, CompleteInput{Signature: "ok"})
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentCompleted, f.assignment(t, aid).Status)

	other := list[1].ID
	stranger := access.Actor{UserID: uuid.New(), Role: access.RoleTrainer}
	_, err = f.svc.Book(ctx, stranger, BookInput{MemberID: m.ID, TrainerID: stranger.UserID, Date: "2025-06-03", Start: "12:00", OTAssignmentID: &other})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, domain.AssignmentAssigned, f.assignment(t, other).Status)
}

func (f *fixture) assignment(t *testing.T, id uuid.UUID) domain.OTAssignment {
	t.Helper()
	var a domain.OTAssignment
	require.NoError(t, f.db.First(&a, "id = ?", id).Error)
	return a
}

func TestEditStatusIsMainAdminOnly(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	mainAdmin := access.Actor{UserID: uuid.New(), Role: access.RoleMainAdmin}
	m := f.entry(t, "Shin", 3, now.Add(-time.Hour))

	b, err := f.book(m, "2025-06-03", "09:00")
	require.NoError(t, err)

	_, err = f.svc.EditStatus(ctx, f.trainer, b.ID, domain.BookingCompleted)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.svc.EditStatus(ctx, mainAdmin, b.ID, domain.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkInHours, got.WorkType)
	assert.NotNil(t, got.CompletedAt)

	got, err = f.svc.EditStatus(ctx, mainAdmin, b.ID, domain.BookingPlanned)
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)
	assert.Empty(t, got.WorkType)

	_, err = f.svc.EditStatus(ctx, mainAdmin, b.ID, "lost")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteAndCancelPlannedForEntry(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.entry(t, "Lim", 4, now.Add(-time.Hour))

	first, err := f.book(m, "2025-06-03", "09:00")
	require.NoError(t, err)
	_, err = f.book(m, "2025-06-04", "09:00")
	require.NoError(t, err)
	_, err = f.book(m, "2025-06-05", "09:00")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.trainer, first.ID))
	_, err = f.svc.repo.Get(ctx, first.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	n, err := f.svc.CancelPlannedForEntry(ctx, m.ID, f.trainer.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	bal, err := f.ledger.RemainingForMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, bal.TotalRemaining)
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	f := setupTestService(t)
	pub := new(MockPublisher)
	f.svc.SetPublisher(pub)
	m := f.entry(t, "Bae", 1, now.Add(-time.Hour))

	pub.On("Publish", mock.MatchedBy(func(e feed.Event) bool {
		return e.Type == feed.BookingCreated && e.TrainerID == f.trainer.UserID
	})).Once()

	_, err := f.book(m, "2025-06-03", "09:00")
	require.NoError(t, err)

	_, err = f.book(m, "2025-06-03", "10:00")
	assert.ErrorIs(t, err, apperr.ErrExhausted)

	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestRegularBookingCannotSpendTrialCredits(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	admin := access.Actor{UserID: uuid.New(), Role: access.RoleBranchAdmin}

	m := domain.Member{
		TrainerID: f.trainer.UserID, Name: "Trial", Phone: "010-trial", Sessions: 1,
		MemberType: domain.MemberTrial, OTStatus: domain.OTUnassigned, OTRemainingSessions: 1, CreatedAt: now,
	}
	require.NoError(t, f.db.Create(&m).Error)

	_, err := f.book(m, "2025-06-03", "09:00")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	list, err := f.trial.Assign(ctx, admin, m.ID, f.trainer.UserID, 1)
	require.NoError(t, err)
	aid := list[0].ID
	_, err = f.svc.Book(ctx, f.trainer, BookInput{MemberID: m.ID, TrainerID: f.trainer.UserID, Date: "2025-06-03", Start: "10:00", OTAssignmentID: &aid})
	require.NoError(t, err)

	bal, err := f.ledger.RemainingForMember(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, bal.Entries, 1)
	e := bal.Entries[0]
	assert.Equal(t, 1, e.Planned)
	assert.Equal(t, m.Sessions, e.Completed+e.Planned+e.Remaining)
	assert.Zero(t, bal.TotalRemaining)
	assert.Nil(t, bal.AllocationTarget)
}

func TestClosedTrialEntryGivesSessionsBack(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	admin := access.Actor{UserID: uuid.New(), Role: access.RoleBranchAdmin}

	m := domain.Member{
		TrainerID: f.trainer.UserID, Name: "Trial", Phone: "010-trial", Sessions: 2,
		MemberType: domain.MemberTrial, OTStatus: domain.OTUnassigned, OTRemainingSessions: 2, CreatedAt: now,
	}
	require.NoError(t, f.db.Create(&m).Error)

	list, err := f.trial.Assign(ctx, admin, m.ID, f.trainer.UserID, 2)
	require.NoError(t, err)
	first, second := list[0].ID, list[1].ID

	_, err = f.svc.Book(ctx, f.trainer, BookInput{MemberID: m.ID, TrainerID: f.trainer.UserID, Date: "2025-06-03", Start: "10:00", OTAssignmentID: &first})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&domain.Member{}).Where("id = ?", m.ID).
		Update("refund_status", domain.RefundRefunded).Error)

	_, err = f.svc.Book(ctx, f.trainer, BookInput{MemberID: m.ID, TrainerID: f.trainer.UserID, Date: "2025-06-04", Start: "10:00", OTAssignmentID: &second})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Equal(t, domain.AssignmentAssigned, f.assignment(t, second).Status)

	n, err := f.svc.CancelPlannedForEntry(ctx, m.ID, f.trainer.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.AssignmentReturned, f.assignment(t, first).Status)
	assert.Equal(t, domain.AssignmentReturned, f.assignment(t, second).Status)
}

func TestEditNotesFollowsOwnership(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	m := f.entry(t, "Noh", 2, now.Add(-time.Hour))

	b, err := f.book(m, "2025-06-03", "09:00")
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, f.trainer, b.ID, CompleteInput{Signature: "ok"})
	require.NoError(t, err)

	_, err = f.svc.EditNotes(ctx, access.Actor{UserID: uuid.New(), Role: access.RoleTrainer}, b.ID, "x")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.svc.EditNotes(ctx, f.trainer, b.ID, "stretch first")
	require.NoError(t, err)
	assert.Equal(t, "stretch first", got.Notes)
	assert.Equal(t, domain.BookingCompleted, got.Status)

	admin := access.Actor{UserID: uuid.New(), Role: access.RoleBranchAdmin}
	got, err = f.svc.EditNotes(ctx, admin, b.ID, "")
	require.NoError(t, err)
	assert.Empty(t, got.Notes)

	_, err = f.svc.EditNotes(ctx, f.trainer, uuid.New(), "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
