package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	Repository
	windows []*Unavailability
	err     error
}

func (s *stubRepo) ListForStaffDay(ctx context.Context, staffID string, date time.Time) ([]*Unavailability, error) {
	return s.windows, s.err
}

type stubAppointments struct {
	slots        []BookedSlot
	err          error
	gotExcludeID string
	gotStaffID   string
}

func (s *stubAppointments) ListBookedSlots(ctx context.Context, staffID string, date time.Time, excludeID string) ([]BookedSlot, error) {
	s.gotStaffID = staffID
	s.gotExcludeID = excludeID
	return s.slots, s.err
}

var testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestCheckReportsUnavailabilityConflict(t *testing.T) {
	repo := &stubRepo{windows: []*Unavailability{
		{ID: "u1", StaffID: "staff-1", StartTime: "12:00", EndTime: "13:00", Reason: "Lunch"},
	}}
	checker := NewChecker(repo, &stubAppointments{})

	result, err := checker.Check(context.Background(), "staff-1", testDay, "12:30", "13:30", "")
	require.NoError(t, err)

	assert.False(t, result.Available)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, ConflictUnavailable, result.Conflicts[0].Type)
	assert.Equal(t, "Lunch", result.Conflicts[0].Reason)
	assert.Equal(t, "12:00", result.Conflicts[0].Details.StartTime)
	assert.Equal(t, "13:00", result.Conflicts[0].Details.EndTime)
}

func TestCheckTouchingWindowIsAvailable(t *testing.T) {
	repo := &stubRepo{windows: []*Unavailability{
		{ID: "u1", StartTime: "12:00", EndTime: "13:00", Reason: "Lunch"},
	}}
	checker := NewChecker(repo, &stubAppointments{})

	// Ends exactly where the window starts.
	result, err := checker.Check(context.Background(), "staff-1", testDay, "11:00", "12:00", "")
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.Conflicts)

	// Starts exactly where the window ends.
	result, err = checker.Check(context.Background(), "staff-1", testDay, "13:00", "14:00", "")
	require.NoError(t, err)
	assert.True(t, result.Available)
}

func TestCheckReportsDoubleBooking(t *testing.T) {
	appts := &stubAppointments{slots: []BookedSlot{
		{AppointmentID: "a1", StartTime: "09:00", EndTime: "10:00", CustomerName: "Somchai", ServiceName: "Password Reset"},
	}}
	checker := NewChecker(&stubRepo{}, appts)

	result, err := checker.Check(context.Background(), "staff-1", testDay, "09:30", "10:30", "")
	require.NoError(t, err)

	assert.False(t, result.Available)
	require.Len(t, result.Conflicts, 1)
	c := result.Conflicts[0]
	assert.Equal(t, ConflictDoubleBooked, c.Type)
	assert.Equal(t, "Already assigned to Password Reset", c.Reason)
	assert.Equal(t, "a1", c.Details.AppointmentID)
	assert.Equal(t, "Somchai", c.Details.CustomerName)
}

func TestCheckSeesSlotEndingAtMidnight(t *testing.T) {
	appts := &stubAppointments{slots: []BookedSlot{
		{AppointmentID: "a1", StartTime: "23:30", EndTime: "24:00", CustomerName: "Somchai", ServiceName: "Hardware Repair"},
	}}
	checker := NewChecker(&stubRepo{}, appts)

	result, err := checker.Check(context.Background(), "staff-1", testDay, "23:00", "23:45", "")
	require.NoError(t, err)

	assert.False(t, result.Available, "a booking running to midnight must still conflict")
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, ConflictDoubleBooked, result.Conflicts[0].Type)
	assert.Equal(t, "a1", result.Conflicts[0].Details.AppointmentID)
}

func TestCheckReportsAllConflicts(t *testing.T) {
	repo := &stubRepo{windows: []*Unavailability{
		{ID: "u1", StartTime: "09:00", EndTime: "12:00", Reason: "Training"},
	}}
	appts := &stubAppointments{slots: []BookedSlot{
		{AppointmentID: "a1", StartTime: "10:00", EndTime: "11:00", ServiceName: "VPN Setup"},
	}}
	checker := NewChecker(repo, appts)

	result, err := checker.Check(context.Background(), "staff-1", testDay, "10:30", "11:30", "")
	require.NoError(t, err)

	assert.False(t, result.Available)
	assert.Len(t, result.Conflicts, 2, "both the window and the booking must be reported")
}

func TestCheckPassesExcludeID(t *testing.T) {
	appts := &stubAppointments{}
	checker := NewChecker(&stubRepo{}, appts)

	_, err := checker.Check(context.Background(), "staff-1", testDay, "09:00", "10:00", "a-self")
	require.NoError(t, err)
	assert.Equal(t, "a-self", appts.gotExcludeID)
	assert.Equal(t, "staff-1", appts.gotStaffID)
}

func TestCheckFailsOpenOnDataErrors(t *testing.T) {
	t.Run("unavailability read fails", func(t *testing.T) {
		checker := NewChecker(&stubRepo{err: errors.New("db down")}, &stubAppointments{})

		result, err := checker.Check(context.Background(), "staff-1", testDay, "09:00", "10:00", "")
		require.NoError(t, err)
		assert.True(t, result.Available)
	})

	t.Run("appointment read fails", func(t *testing.T) {
		checker := NewChecker(&stubRepo{}, &stubAppointments{err: errors.New("db down")})

		result, err := checker.Check(context.Background(), "staff-1", testDay, "09:00", "10:00", "")
		require.NoError(t, err)
		assert.True(t, result.Available)
	})
}

func TestCheckRejectsInvalidRange(t *testing.T) {
	checker := NewChecker(&stubRepo{}, &stubAppointments{})

	_, err := checker.Check(context.Background(), "staff-1", testDay, "10:00", "09:00", "")
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = checker.Check(context.Background(), "staff-1", testDay, "10:00", "10:00", "")
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = checker.Check(context.Background(), "staff-1", testDay, "banana", "10:00", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckSkipsMalformedRecords(t *testing.T) {
	repo := &stubRepo{windows: []*Unavailability{
		{ID: "bad", StartTime: "oops", EndTime: "13:00"},
		{ID: "good", StartTime: "09:00", EndTime: "10:00", Reason: "Meeting"},
	}}
	checker := NewChecker(repo, &stubAppointments{})

	result, err := checker.Check(context.Background(), "staff-1", testDay, "09:30", "10:30", "")
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "Meeting", result.Conflicts[0].Reason)
}
