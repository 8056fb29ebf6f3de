package appointment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/audit"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/availability"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/catalog"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/notify"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/user"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type fakeRepo struct {
	appointments map[string]*Appointment
	nextID       int
	createErr    error
	updateErr    error
	startTimes   []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{appointments: make(map[string]*Appointment)}
}

func (f *fakeRepo) Create(ctx context.Context, a *Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	a.ID = fmt.Sprintf("apt-%d", f.nextID)
	c := *a
	f.appointments[a.ID] = &c
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeRepo) List(ctx context.Context, filter Filter) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range f.appointments {
		c := *a
		out = append(out, &c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateStaff(ctx context.Context, a *Appointment) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.appointments[a.ID]; !ok {
		return ErrNotFound
	}
	c := *a
	f.appointments[a.ID] = &c
	return nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, a *Appointment) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.appointments[a.ID]; !ok {
		return ErrNotFound
	}
	c := *a
	f.appointments[a.ID] = &c
	return nil
}

func (f *fakeRepo) ListBookedSlots(ctx context.Context, staffID string, date time.Time, excludeID string) ([]availability.BookedSlot, error) {
	return nil, nil
}

func (f *fakeRepo) ListStartTimesForDay(ctx context.Context, date time.Time) ([]string, error) {
	return f.startTimes, nil
}

type fakeCatalog struct {
	services map[string]*catalog.Service
}

func (f *fakeCatalog) List(ctx context.Context) ([]*catalog.Service, error) {
	var out []*catalog.Service
	for _, s := range f.services {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeCatalog) GetByID(ctx context.Context, id string) (*catalog.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return s, nil
}

type fakeUsers struct {
	users map[string]*user.User
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*user.User, error) {
	return nil, user.ErrInvalidCredentials
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListStaff(ctx context.Context) ([]*user.User, error) {
	var out []*user.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) GetAssignable(ctx context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok || !u.Role.Assignable() {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type fakeChecker struct {
	result availability.CheckResult
	err    error
	calls  int
}

func (f *fakeChecker) Check(ctx context.Context, staffID string, date time.Time, startTime, endTime string, excludeAppointmentID string) (availability.CheckResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeRecorder struct {
	logs    []audit.Log
	history []audit.HistoryEntry
}

func (f *fakeRecorder) Audit(ctx context.Context, entry audit.Log) {
	f.logs = append(f.logs, entry)
}

func (f *fakeRecorder) History(ctx context.Context, entry audit.HistoryEntry) {
	f.history = append(f.history, entry)
}

func (f *fakeRecorder) ListHistory(ctx context.Context, appointmentID string) ([]*audit.HistoryEntry, error) {
	var out []*audit.HistoryEntry
	for i := len(f.history) - 1; i >= 0; i-- {
		if f.history[i].AppointmentID == appointmentID {
			e := f.history[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

type fakeHub struct {
	events []notify.Event
}

func (f *fakeHub) Broadcast(event notify.Event) int {
	f.events = append(f.events, event)
	return 1
}

type fixture struct {
	repo     *fakeRepo
	checker  *fakeChecker
	recorder *fakeRecorder
	hub      *fakeHub
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newFakeRepo(),
		checker:  &fakeChecker{result: availability.CheckResult{Available: true}},
		recorder: &fakeRecorder{},
		hub:      &fakeHub{},
	}

	cat := &fakeCatalog{services: map[string]*catalog.Service{
		"svc-1": {ID: "svc-1", Name: "Password Reset", NameTH: "รีเซ็ตรหัสผ่าน", DurationMin: 30},
		"svc-2": {ID: "svc-2", Name: "VPN Setup", NameTH: "ตั้งค่า VPN", DurationMin: 60},
	}}
	users := &fakeUsers{users: map[string]*user.User{
		"staff-1": {ID: "staff-1", Name: "Alice", Role: user.RoleStaff},
		"staff-2": {ID: "staff-2", Name: "Bob", Role: user.RoleStaff},
		"admin-1": {ID: "admin-1", Name: "Carol", Role: user.RoleAdmin},
	}}

	f.svc = NewService(f.repo, cat, users, f.checker, f.recorder, f.hub)
	return f
}

var admin = Actor{ID: "admin-1", Name: "Carol"}

func createRequest() CreateRequest {
	return CreateRequest{
		ServiceID:     "svc-1",
		Date:          day,
		StartTime:     "09:00",
		CustomerName:  "Somchai",
		CustomerPhone: "0812345678",
		Description:   "Forgot password",
	}
}

func TestCreate(t *testing.T) {
	f := newFixture()

	a, err := f.svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, a.Status)
	assert.Empty(t, a.StaffID)
	assert.Equal(t, "09:30", a.EndTime, "end time derives from the service duration")
	assert.Equal(t, "รีเซ็ตรหัสผ่าน", a.ServiceName)

	require.Len(t, f.hub.events, 1)
	assert.Equal(t, notify.EventCreated, f.hub.events[0].Type)
	assert.Equal(t, string(user.RoleStaff), f.hub.events[0].TargetRole)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()

	req := createRequest()
	req.CustomerName = "  "
	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = createRequest()
	req.ServiceID = "svc-unknown"
	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	req = createRequest()
	req.StartTime = "25:00"
	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestStaffCreate(t *testing.T) {
	f := newFixture()

	a, err := f.svc.StaffCreate(context.Background(), StaffCreateRequest{
		CreateRequest: createRequest(),
		StaffID:       "staff-1",
	}, Actor{ID: "staff-1", Name: "Alice"})
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, a.Status)
	assert.Equal(t, "staff-1", a.StaffID)
	assert.Equal(t, 1, f.checker.calls)

	require.Len(t, f.recorder.logs, 1)
	assert.Equal(t, audit.ActionCreate, f.recorder.logs[0].Action)
	require.Len(t, f.recorder.history, 1)
	assert.Equal(t, audit.HistoryCreated, f.recorder.history[0].Action)
}

func TestStaffCreateConflict(t *testing.T) {
	f := newFixture()
	f.checker.result = availability.CheckResult{
		Available: false,
		Conflicts: []availability.Conflict{{Type: availability.ConflictUnavailable, Reason: "Lunch"}},
	}

	_, err := f.svc.StaffCreate(context.Background(), StaffCreateRequest{
		CreateRequest: createRequest(),
		StaffID:       "staff-1",
	}, Actor{ID: "staff-1", Name: "Alice"})
	assert.ErrorIs(t, err, ErrNotAvailable)

	// Force books anyway and skips the check entirely.
	f.checker.calls = 0
	a, err := f.svc.StaffCreate(context.Background(), StaffCreateRequest{
		CreateRequest: createRequest(),
		StaffID:       "staff-1",
		Force:         true,
	}, Actor{ID: "staff-1", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "staff-1", a.StaffID)
	assert.Equal(t, 0, f.checker.calls)
}

func mustCreate(t *testing.T, f *fixture) *Appointment {
	t.Helper()
	a, err := f.svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	f.hub.events = nil
	return a
}

func TestAssignStaff(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)

	got, err := f.svc.AssignStaff(context.Background(), a.ID, "staff-1", admin, false)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", got.StaffID)
	assert.Equal(t, "Alice", got.StaffName)

	require.Len(t, f.recorder.logs, 1)
	assert.Equal(t, audit.ActionAssign, f.recorder.logs[0].Action)
	assert.Equal(t, "staff_id", f.recorder.logs[0].FieldChanged)
	assert.Equal(t, "", f.recorder.logs[0].OldValue)
	assert.Equal(t, "staff-1", f.recorder.logs[0].NewValue)

	require.Len(t, f.recorder.history, 1)
	assert.Equal(t, audit.HistoryAssigned, f.recorder.history[0].Action)
	assert.Equal(t, "Assigned to Alice", f.recorder.history[0].Notes)

	require.Len(t, f.hub.events, 1)
	assert.Equal(t, notify.EventAssigned, f.hub.events[0].Type)
}

func TestReassignStaff(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)

	_, err := f.svc.AssignStaff(context.Background(), a.ID, "staff-1", admin, false)
	require.NoError(t, err)

	got, err := f.svc.AssignStaff(context.Background(), a.ID, "staff-2", admin, false)
	require.NoError(t, err)
	assert.Equal(t, "staff-2", got.StaffID)

	require.Len(t, f.recorder.logs, 2)
	assert.Equal(t, audit.ActionReassign, f.recorder.logs[1].Action)
	assert.Equal(t, "staff-1", f.recorder.logs[1].OldValue)
	assert.Equal(t, "staff-2", f.recorder.logs[1].NewValue)

	require.Len(t, f.recorder.history, 2)
	assert.Equal(t, audit.HistoryReassigned, f.recorder.history[1].Action)
	assert.Equal(t, "Reassigned from Alice to Bob", f.recorder.history[1].Notes)
}

func TestAssignSameStaffIsNoOp(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)

	_, err := f.svc.AssignStaff(context.Background(), a.ID, "staff-1", admin, false)
	require.NoError(t, err)

	f.hub.events = nil
	got, err := f.svc.AssignStaff(context.Background(), a.ID, "staff-1", admin, false)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", got.StaffID)

	assert.Len(t, f.recorder.logs, 1, "no second audit entry for an unchanged assignment")
	assert.Len(t, f.recorder.history, 1)
	assert.Empty(t, f.hub.events)
}

func TestUnassignStaff(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)

	_, err := f.svc.AssignStaff(context.Background(), a.ID, "staff-1", admin, false)
	require.NoError(t, err)

	got, err := f.svc.AssignStaff(context.Background(), a.ID, "", admin, false)
	require.NoError(t, err)
	assert.Empty(t, got.StaffID)
	assert.Empty(t, got.StaffName)

	require.Len(t, f.recorder.history, 2)
	assert.Equal(t, audit.HistoryUnassigned, f.recorder.history[1].Action)
	assert.Equal(t, "Unassigned from Alice", f.recorder.history[1].Notes)

	// Unassigning an already unassigned appointment records nothing.
	_, err = f.svc.AssignStaff(context.Background(), a.ID, "", admin, false)
	require.NoError(t, err)
	assert.Len(t, f.recorder.history, 2)
}

func TestAssignStaffConflict(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)

	conflicts := []availability.Conflict{{Type: availability.ConflictDoubleBooked, Reason: "Already assigned to VPN Setup"}}
	f.checker.result = availability.CheckResult{Available: false, Conflicts: conflicts}

	_, err := f.svc.AssignStaff(context.Background(), a.ID, "staff-1", admin, false)
	require.ErrorIs(t, err, ErrNotAvailable)
	assert.Empty(t, f.recorder.logs)

	// Force overrides the conflicts.
	got, err := f.svc.AssignStaff(context.Background(), a.ID, "staff-1", admin, true)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", got.StaffID)
}

func TestAssignStaffValidation(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)

	_, err := f.svc.AssignStaff(context.Background(), a.ID, "nobody", admin, false)
	assert.ErrorIs(t, err, ErrInvalidStaff)

	_, err = f.svc.AssignStaff(context.Background(), "apt-missing", "staff-1", admin, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)

	got, err := f.svc.UpdateStatus(context.Background(), a.ID, StatusConfirmed, admin)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)

	require.Len(t, f.recorder.logs, 1)
	assert.Equal(t, audit.ActionStatusChange, f.recorder.logs[0].Action)
	assert.Equal(t, "PENDING", f.recorder.logs[0].OldValue)
	assert.Equal(t, "CONFIRMED", f.recorder.logs[0].NewValue)

	require.Len(t, f.recorder.history, 1)
	assert.Equal(t, audit.HistoryStatusChanged, f.recorder.history[0].Action)

	require.Len(t, f.hub.events, 1)
	assert.Equal(t, notify.EventStatus, f.hub.events[0].Type)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)

	// Backwards move is rejected.
	_, err := f.svc.UpdateStatus(context.Background(), a.ID, StatusConfirmed, admin)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), a.ID, StatusPending, admin)
	assert.ErrorIs(t, err, ErrStatusTransition)

	// Terminal states are frozen.
	_, err = f.svc.UpdateStatus(context.Background(), a.ID, StatusCompleted, admin)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), a.ID, StatusCancelled, admin)
	assert.ErrorIs(t, err, ErrStatusTransition)

	// Same status is a silent no-op.
	f.recorder.logs = nil
	got, err := f.svc.UpdateStatus(context.Background(), a.ID, StatusCompleted, admin)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Empty(t, f.recorder.logs)

	_, err = f.svc.UpdateStatus(context.Background(), a.ID, Status("DONE"), admin)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestBulkAssignPartialFailure(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)

	result, err := f.svc.BulkApply(context.Background(), BulkAssign,
		[]string{a.ID, "apt-missing"}, BulkParams{StaffID: "staff-1"}, admin)
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID}, result.Success)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "apt-missing", result.Failed[0].ID)
	assert.Equal(t, "Appointment not found", result.Failed[0].Reason)

	require.NotEmpty(t, f.hub.events)
	last := f.hub.events[len(f.hub.events)-1]
	assert.Equal(t, notify.EventBulkUpdate, last.Type)
	assert.Equal(t, 1, last.Data["count"])
}

func TestBulkAssignUnavailableStaff(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)
	f.checker.result = availability.CheckResult{Available: false}

	result, err := f.svc.BulkApply(context.Background(), BulkAssign,
		[]string{a.ID}, BulkParams{StaffID: "staff-1"}, admin)
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "Staff not available", result.Failed[0].Reason)
	assert.Empty(t, result.Success)
}

func TestBulkCancel(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)
	b := mustCreate(t, f)

	result, err := f.svc.BulkApply(context.Background(), BulkCancel,
		[]string{a.ID, b.ID}, BulkParams{}, admin)
	require.NoError(t, err)
	assert.Len(t, result.Success, 2)

	require.Len(t, f.recorder.history, 2)
	for _, e := range f.recorder.history {
		assert.Equal(t, audit.HistoryCancelled, e.Action)
		assert.Equal(t, "Bulk cancellation", e.Notes)
	}

	got, err := f.svc.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestBulkChangeStatusSkipsInvalidTransitions(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)
	b := mustCreate(t, f)

	_, err := f.svc.UpdateStatus(context.Background(), b.ID, StatusCancelled, admin)
	require.NoError(t, err)

	result, err := f.svc.BulkApply(context.Background(), BulkChangeStatus,
		[]string{a.ID, b.ID}, BulkParams{Status: StatusConfirmed}, admin)
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID}, result.Success)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "Invalid status transition", result.Failed[0].Reason)
}

func TestBulkValidation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.BulkApply(context.Background(), BulkAssign, nil, BulkParams{StaffID: "staff-1"}, admin)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.BulkApply(context.Background(), BulkAssign, []string{"x"}, BulkParams{}, admin)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.BulkApply(context.Background(), BulkChangeStatus, []string{"x"}, BulkParams{}, admin)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.BulkApply(context.Background(), BulkAction("explode"), []string{"x"}, BulkParams{}, admin)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.BulkApply(context.Background(), BulkAssign, []string{"x"}, BulkParams{StaffID: "nobody"}, admin)
	assert.ErrorIs(t, err, ErrInvalidStaff)
}

func TestHistory(t *testing.T) {
	f := newFixture()
	a := mustCreate(t, f)

	_, err := f.svc.AssignStaff(context.Background(), a.ID, "staff-1", admin, false)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), a.ID, StatusConfirmed, admin)
	require.NoError(t, err)

	entries, err := f.svc.History(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, audit.HistoryStatusChanged, entries[0].Action)
	assert.Equal(t, audit.HistoryAssigned, entries[1].Action)

	_, err = f.svc.History(context.Background(), "apt-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSlots(t *testing.T) {
	f := newFixture()
	f.repo.startTimes = []string{"09:00", "13:30"}

	slots, err := f.svc.Slots(context.Background(), day, "svc-1")
	require.NoError(t, err)
	require.Len(t, slots, 16, "08:30 through 16:00 in 30-minute steps")

	assert.Equal(t, "08:30", slots[0].Time)
	assert.Equal(t, "16:00", slots[len(slots)-1].Time)

	byTime := make(map[string]bool, len(slots))
	for _, s := range slots {
		byTime[s.Time] = s.Available
	}
	assert.False(t, byTime["09:00"])
	assert.False(t, byTime["13:30"])
	assert.True(t, byTime["08:30"])
	assert.True(t, byTime["16:00"])

	_, err = f.svc.Slots(context.Background(), day, "svc-unknown")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}
