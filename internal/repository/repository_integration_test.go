//go:build integration

package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Freeeeeet/smartclass/internal/app"
	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/Freeeeeet/smartclass/internal/repository"
	"github.com/Freeeeeet/smartclass/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Запуск: TEST_DATABASE_DSN=postgres://... go test -tags integration ./internal/repository/...
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Run(ctx))
	require.NoError(t, migrator.Close())

	_, err = pool.Exec(ctx, `TRUNCATE delivery_log, class_qr_codes, class_schedules, professors, classrooms`)
	require.NoError(t, err)
	return pool
}

func TestCatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)

	classrooms := repository.NewClassroomRepository(pool)
	professors := repository.NewProfessorRepository(pool)
	schedules := repository.NewClassScheduleRepository(pool)

	room := &model.Classroom{ID: uuid.NewString(), Name: "Room 101", Capacity: 30}
	require.NoError(t, classrooms.Create(ctx, room))
	assert.False(t, room.CreatedAt.IsZero())

	prof := &model.Professor{ID: uuid.NewString(), Name: "Dr. Smith", Email: "smith@example.com", Department: "Math", HoursPerWeek: 12}
	require.NoError(t, professors.Create(ctx, prof))

	s := &model.ClassSchedule{
		ID:          uuid.NewString(),
		Day:         "Monday",
		StartTime:   "10:00",
		EndTime:     "11:00",
		ClassroomID: room.ID,
		ProfessorID: prof.ID,
		Subject:     "Algebra",
	}
	require.NoError(t, schedules.Create(ctx, s))

	got, err := schedules.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "10:00", got.StartTime)

	s.StartTime = "10:30"
	require.NoError(t, schedules.Update(ctx, s))

	snap, err := service.NewRepositorySnapshotSource(schedules, professors, classrooms).Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Schedules, 1)
	assert.Equal(t, "10:30", snap.Schedules[0].StartTime)
	assert.Equal(t, "smith@example.com", snap.Professors[prof.ID].Email)

	require.NoError(t, schedules.Delete(ctx, s.ID))
	got, err = schedules.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = schedules.Update(ctx, s)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestQRCodesAndDeliveryLog(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)

	codes := repository.NewClassQRCodeRepository(pool)
	journal := repository.NewDeliveryLogRepository(pool)

	issuer := service.NewQRCodeIssuer(codes, time.Hour, zap.NewNop())
	first, err := issuer.Issue(ctx, "s1")
	require.NoError(t, err)
	second, err := issuer.Issue(ctx, "s1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Payload, second.Payload)

	stored, err := codes.GetByPayload(ctx, first.Payload)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.Used)
	assert.WithinDuration(t, first.ExpiresAt, stored.ExpiresAt, time.Millisecond)

	list, err := codes.ListBySchedule(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	credentialID := first.ID
	require.NoError(t, journal.Append(ctx, &model.DeliveryAttempt{
		ScheduleID:    "s1",
		CredentialID:  &credentialID,
		Recipient:     "smith@example.com",
		Outcome:       model.OutcomeDeliveryFailed,
		Error:         "smtp unavailable",
		OccurrenceKey: "s1|Monday|10:00|2026-10-19",
		AttemptedAt:   time.Now(),
	}))
	require.NoError(t, journal.Append(ctx, &model.DeliveryAttempt{
		ScheduleID:  "s1",
		Recipient:   "smith@example.com",
		Outcome:     model.OutcomeSent,
		AttemptedAt: time.Now(),
	}))

	undelivered, err := journal.ListUndelivered(ctx, 10)
	require.NoError(t, err)
	require.Len(t, undelivered, 1)
	require.NotNil(t, undelivered[0].CredentialID)
	assert.Equal(t, first.ID, *undelivered[0].CredentialID)
	assert.Equal(t, model.OutcomeDeliveryFailed, undelivered[0].Outcome)
}
