package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainerdesk/internal/database"
	"trainerdesk/internal/database/dbtest"
	"trainerdesk/internal/domain"
)

func TestInTxRollsBackOnError(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := database.InTx(ctx, db, func(ctx context.Context) error {
		m := &domain.Member{TrainerID: uuid.New(), Name: "Kim", Phone: "010-1111-2222", Sessions: 3}
		require.NoError(t, database.Conn(ctx, db).Create(m).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, db.Model(&domain.Member{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestInTxNestedJoinsOuter(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	err := database.InTx(ctx, db, func(outer context.Context) error {
		return database.InTx(outer, db, func(inner context.Context) error {
			m := &domain.Member{TrainerID: uuid.New(), Name: "Lee", Phone: "010-3333-4444", Sessions: 1}
			return database.Conn(inner, db).Create(m).Error
		})
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&domain.Member{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestActiveSlotIndexIgnoresCancelled(t *testing.T) {
	db := dbtest.Open(t)
	trainer := uuid.New()
	member := uuid.New()

	first := &domain.Booking{MemberID: member, TrainerID: trainer, Date: "2025-05-01", StartTime: "09:00", EndTime: "10:00", Status: domain.BookingCancelled}
	require.NoError(t, db.Create(first).Error)

	second := &domain.Booking{MemberID: member, TrainerID: trainer, Date: "2025-05-01", StartTime: "09:00", EndTime: "10:00", Status: domain.BookingPlanned}
	require.NoError(t, db.Create(second).Error)

	third := &domain.Booking{MemberID: member, TrainerID: trainer, Date: "2025-05-01", StartTime: "09:00", EndTime: "10:00", Status: domain.BookingPlanned}
	assert.Error(t, db.Create(third).Error)
}
