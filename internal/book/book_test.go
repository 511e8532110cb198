package book

import (
	"context"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carebook/internal/errors"
	"carebook/internal/model"
	"carebook/internal/notify"
	"carebook/internal/plan"
	"carebook/internal/storage"
)

// fixture wires a book against an in-memory database with a frozen clock.
// One enabled channel is registered so saves have somewhere to deliver.
type fixture struct {
	book     *Book
	repo     *storage.SnapshotRepo
	alerts   *storage.AlertRepo
	channels *storage.ChannelRepo
	clk      clock.FakeClock
	now      time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFake()
	clk.Set(now)

	repo := storage.NewSnapshotRepo(db)
	alerts := storage.NewAlertRepo(db)
	channels := storage.NewChannelRepo(db)
	port := notify.NewQueuePort(alerts, channels).WithClock(clk.Now)
	planner := plan.NewPlanner(plan.DefaultOptions())

	require.NoError(t, channels.Create(
		model.NewChannel("phone", model.ChannelTypeGeneric, "https://example.com/hook")))

	return &fixture{
		book:     New(repo, alerts, planner, port, clk),
		repo:     repo,
		alerts:   alerts,
		channels: channels,
		clk:      clk,
		now:      now,
	}
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r1, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)
	r2, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)

	// Identical titles and dates still get distinct identities
	assert.NotEqual(t, r1.Appointment.ID, r2.Appointment.ID)
	assert.NotEmpty(t, r1.Appointment.ID)

	count, err := f.book.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCreateBlankTitleRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := f.book.Create(ctx, title, f.now.Add(time.Hour))
		require.Error(t, err)
		assert.True(t, errors.IsUserError(err))
	}

	// Nothing was appended, persisted, or scheduled
	count, err := f.book.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	persisted, err := f.repo.Load()
	require.NoError(t, err)
	assert.Empty(t, persisted)

	recorded, err := f.alerts.List()
	require.NoError(t, err)
	assert.Empty(t, recorded)
}

func TestCreateSchedulesBothAlerts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, result.Handles, 2)
	assert.Empty(t, result.Notice)
	assert.Empty(t, result.Warnings)

	recorded, err := f.alerts.ListByAppointment(result.Appointment.ID)
	require.NoError(t, err)
	require.Len(t, recorded, 2)

	// Sorted by fire time: reminder first, at-time second
	assert.Equal(t, model.AlertReminder, recorded[0].Kind)
	assert.True(t, recorded[0].FireAt.Equal(f.now.Add(55*time.Minute)))
	assert.Equal(t, model.AlertAtTime, recorded[1].Kind)
	assert.True(t, recorded[1].FireAt.Equal(f.now.Add(time.Hour)))
}

func TestCreateWarnsWithoutChannels(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.channels.Delete("phone"))

	result, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)

	// The save and its alerts stand; the missing channel is only a warning
	require.Len(t, result.Handles, 2)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "No delivery channels configured")
	assert.Contains(t, result.Warnings[0], "carebook channel add")

	count, err := f.book.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateInsideReminderWindow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.book.Create(ctx, "Blood test", f.now.Add(2*time.Minute))
	require.NoError(t, err)

	// The save succeeds; only the reminder is skipped
	require.Len(t, result.Handles, 1)
	assert.Equal(t, "The appointment time must be in the future to set a reminder.", result.Notice)

	recorded, err := f.alerts.ListByAppointment(result.Appointment.ID)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, model.AlertAtTime, recorded[0].Kind)
}

func TestEditReplacesInPlace(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r1, err := f.book.Create(ctx, "First", f.now.Add(time.Hour))
	require.NoError(t, err)
	_, err = f.book.Create(ctx, "Second", f.now.Add(2*time.Hour))
	require.NoError(t, err)

	edited, err := f.book.Edit(ctx, r1.Appointment.ID, "First Updated", f.now.Add(3*time.Hour))
	require.NoError(t, err)

	// Identity survives the edit
	assert.Equal(t, r1.Appointment.ID, edited.Appointment.ID)
	assert.Equal(t, "First Updated", edited.Appointment.Title)

	// Position in the collection is preserved
	appts, err := f.book.List()
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "First Updated", appts[0].Title)
	assert.Equal(t, "Second", appts[1].Title)
}

func TestEditMissingID(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.book.Edit(ctx, "no-such-id", "Title", f.now.Add(time.Hour))
	assert.ErrorIs(t, err, errors.ErrAppointmentNotFound)
}

func TestEditCancelsOldAlerts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r1, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, r1.Handles, 2)

	edited, err := f.book.Edit(ctx, r1.Appointment.ID, "Dentist", f.now.Add(4*time.Hour))
	require.NoError(t, err)
	require.Len(t, edited.Handles, 2)

	// Only the new plan's alerts remain recorded
	recorded, err := f.alerts.ListByAppointment(r1.Appointment.ID)
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	for _, a := range recorded {
		assert.True(t, a.FireAt.After(f.now.Add(3*time.Hour)))
	}

	for _, old := range r1.Handles {
		exists, err := f.alerts.Exists(old)
		require.NoError(t, err)
		assert.False(t, exists)
	}
}

func TestEditBlankTitleLeavesAppointmentUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r1, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)

	_, err = f.book.Edit(ctx, r1.Appointment.ID, "  ", f.now.Add(2*time.Hour))
	require.Error(t, err)
	assert.True(t, errors.IsUserError(err))

	got, err := f.book.Get(r1.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dentist", got.Title)
	assert.True(t, got.Date.Equal(f.now.Add(time.Hour)))

	// The original alerts were not cancelled
	recorded, err := f.alerts.ListByAppointment(r1.Appointment.ID)
	require.NoError(t, err)
	assert.Len(t, recorded, 2)
}

func TestDeleteRemovesAndCancels(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r1, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)
	_, err = f.book.Create(ctx, "Physio", f.now.Add(2*time.Hour))
	require.NoError(t, err)

	_, err = f.book.Delete(ctx, r1.Appointment.ID)
	require.NoError(t, err)

	appts, err := f.book.List()
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "Physio", appts[0].Title)

	recorded, err := f.alerts.ListByAppointment(r1.Appointment.ID)
	require.NoError(t, err)
	assert.Empty(t, recorded)
}

func TestDeleteMissingIDIsNoOp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)

	result, err := f.book.Delete(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	count, err := f.book.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteSkipsDeliveredAlerts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r1, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, r1.Handles, 2)

	// Simulate the daemon having delivered the reminder already
	require.NoError(t, f.alerts.MarkDelivered(r1.Handles[0], f.now))

	_, err = f.book.Delete(ctx, r1.Appointment.ID)
	require.NoError(t, err)

	// The delivered record stays for the acknowledge flow
	delivered, err := f.alerts.Get(r1.Handles[0])
	require.NoError(t, err)
	assert.True(t, delivered.Delivered)

	exists, err := f.alerts.Exists(r1.Handles[1])
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReloadMatchesPersistedState(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r1, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)
	r2, err := f.book.Create(ctx, "Physio", f.now.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = f.book.Delete(ctx, r1.Appointment.ID)
	require.NoError(t, err)

	// A fresh book over the same snapshot sees exactly the surviving state
	reloaded := New(f.repo, f.alerts, plan.NewPlanner(plan.DefaultOptions()), nil, f.clk)
	require.NoError(t, reloaded.Load())

	appts, err := reloaded.List()
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, r2.Appointment.ID, appts[0].ID)
	assert.Equal(t, "Physio", appts[0].Title)
}

func TestGetByShortID(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	r1, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)

	t.Run("prefix_match", func(t *testing.T) {
		got, err := f.book.GetByShortID(r1.Appointment.ID[:6])
		require.NoError(t, err)
		assert.Equal(t, r1.Appointment.ID, got.ID)
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := f.book.GetByShortID("zzzzzz")
		assert.ErrorIs(t, err, errors.ErrAppointmentNotFound)
	})
}

func TestListReturnsClones(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.book.Create(ctx, "Dentist", f.now.Add(time.Hour))
	require.NoError(t, err)

	appts, err := f.book.List()
	require.NoError(t, err)
	appts[0].Title = "Mutated"

	again, err := f.book.List()
	require.NoError(t, err)
	assert.Equal(t, "Dentist", again[0].Title)
}

func TestPastDateSavesWithNotice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// The store accepts past appointments; the planner reports the notice
	result, err := f.book.Create(ctx, "Missed", f.now.Add(-time.Hour))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Notice)
	require.Len(t, result.Handles, 1)

	count, err := f.book.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
