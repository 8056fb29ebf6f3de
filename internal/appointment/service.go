package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/audit"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/availability"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/catalog"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/notify"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/keymutex"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/timeslot"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/user"
)

// Public slot grid: 08:30 to 16:30 in 30-minute steps.
const (
	workDayStartMin = 8*60 + 30
	workDayEndMin   = 16*60 + 30
	slotIntervalMin = 30
)

type CreateRequest struct {
	ServiceID     string
	Date          time.Time
	StartTime     string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Description   string
}

type StaffCreateRequest struct {
	CreateRequest
	StaffID string

	// Force skips the availability check (caller saw the conflicts and
	// decided to book anyway).
	Force bool
}

type BulkAction string

const (
	BulkAssign       BulkAction = "assign"
	BulkChangeStatus BulkAction = "change_status"
	BulkCancel       BulkAction = "cancel"
)

// BulkParams carries the action-specific parameters of a bulk operation.
type BulkParams struct {
	StaffID string
	Status  Status
}

type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports per-item outcomes of a bulk operation.
type BulkResult struct {
	Success []string      `json:"success"`
	Failed  []BulkFailure `json:"failed"`
}

// AvailabilityChecker decides whether a staff member can take a time range.
type AvailabilityChecker interface {
	Check(ctx context.Context, staffID string, date time.Time, startTime, endTime string, excludeAppointmentID string) (availability.CheckResult, error)
}

// Broadcaster pushes events to live subscribers. Delivery is best-effort;
// the return value is only the number of subscribers reached.
type Broadcaster interface {
	Broadcast(event notify.Event) int
}

// Service governs the appointment lifecycle: booking, staff assignment,
// status changes, bulk operations and the history timeline.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Appointment, error)
	StaffCreate(ctx context.Context, req StaffCreateRequest, actor Actor) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, filter Filter) ([]*Appointment, int, error)
	AssignStaff(ctx context.Context, id, staffID string, actor Actor, force bool) (*Appointment, error)
	UpdateStatus(ctx context.Context, id string, status Status, actor Actor) (*Appointment, error)
	BulkApply(ctx context.Context, action BulkAction, ids []string, params BulkParams, actor Actor) (*BulkResult, error)
	History(ctx context.Context, id string) ([]*audit.HistoryEntry, error)
	Slots(ctx context.Context, date time.Time, serviceID string) ([]Slot, error)
}

type service struct {
	repo     Repository
	catalog  catalog.Catalog
	users    user.Service
	checker  AvailabilityChecker
	recorder audit.Recorder
	hub      Broadcaster

	// locks serializes the check-then-write sequence per staff member and
	// day, so two concurrent assignments cannot both pass the availability
	// check before either commits.
	locks *keymutex.KeyMutex
}

func NewService(
	repo Repository,
	cat catalog.Catalog,
	users user.Service,
	checker AvailabilityChecker,
	recorder audit.Recorder,
	hub Broadcaster,
) Service {
	return &service{
		repo:     repo,
		catalog:  cat,
		users:    users,
		checker:  checker,
		recorder: recorder,
		hub:      hub,
		locks:    keymutex.New(),
	}
}

func staffDayKey(staffID string, date time.Time) string {
	return staffID + "@" + date.Format("2006-01-02")
}

// Create books a public self-service appointment. The slot length comes from
// the service duration; the appointment starts life PENDING and unassigned.
func (s *service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if req.ServiceID == "" || req.Date.IsZero() || req.StartTime == "" ||
		strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerPhone) == "" ||
		strings.TrimSpace(req.Description) == "" {
		return nil, ErrInvalidRequest
	}

	svc, err := s.catalog.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	endTime, err := timeslot.EndOfSlot(req.StartTime, svc.DurationMin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	a := &Appointment{
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       endTime,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Description:   strings.TrimSpace(req.Description),
		Status:        StatusPending,
		ServiceID:     svc.ID,
		ServiceName:   svc.NameTH,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.hub.Broadcast(notify.Event{
		Type: notify.EventCreated,
		Data: map[string]any{
			"appointment_id": a.ID,
			"date":           a.Date.Format("2006-01-02"),
			"start_time":     a.StartTime,
			"service":        a.ServiceName,
		},
		TargetRole: string(user.RoleStaff),
	})

	return a, nil
}

// StaffCreate books a pre-confirmed appointment for a staff member,
// availability-checked unless forced.
func (s *service) StaffCreate(ctx context.Context, req StaffCreateRequest, actor Actor) (*Appointment, error) {
	if req.StaffID == "" {
		return nil, ErrInvalidRequest
	}
	if req.ServiceID == "" || req.Date.IsZero() || req.StartTime == "" ||
		strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerPhone) == "" ||
		strings.TrimSpace(req.Description) == "" {
		return nil, ErrInvalidRequest
	}

	staff, err := s.users.GetAssignable(ctx, req.StaffID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidStaff
		}
		return nil, err
	}

	svc, err := s.catalog.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	endTime, err := timeslot.EndOfSlot(req.StartTime, svc.DurationMin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	unlock := s.locks.Lock(staffDayKey(staff.ID, req.Date))
	defer unlock()

	if !req.Force {
		result, err := s.checker.Check(ctx, staff.ID, req.Date, req.StartTime, endTime, "")
		if err != nil {
			return nil, err
		}
		if !result.Available {
			return nil, ErrNotAvailable.WithDetails(result.Conflicts)
		}
	}

	a := &Appointment{
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       endTime,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Description:   strings.TrimSpace(req.Description),
		Status:        StatusConfirmed,
		ServiceID:     svc.ID,
		ServiceName:   svc.NameTH,
		StaffID:       staff.ID,
		StaffName:     staff.Name,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.recorder.Audit(ctx, audit.Log{
		EntityType: audit.EntityAppointment,
		EntityID:   a.ID,
		Action:     audit.ActionCreate,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	s.recorder.History(ctx, audit.HistoryEntry{
		AppointmentID: a.ID,
		Action:        audit.HistoryCreated,
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		NewStaffID:    staff.ID,
		NewStaffName:  staff.Name,
		Notes:         fmt.Sprintf("Staff %s created appointment for themselves", actor.Name),
	})

	s.hub.Broadcast(notify.Event{
		Type: notify.EventCreated,
		Data: map[string]any{
			"appointment_id": a.ID,
			"date":           a.Date.Format("2006-01-02"),
			"start_time":     a.StartTime,
			"service":        a.ServiceName,
			"staff_name":     a.StaffName,
		},
		TargetRole: string(user.RoleStaff),
	})

	return a, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Appointment, int, error) {
	return s.repo.List(ctx, filter)
}

// AssignStaff mutates an appointment's staff assignment. The action label is
// computed at the moment of mutation: no prior staff means ASSIGNED, a
// different prior staff means REASSIGNED, clearing the staff means
// UNASSIGNED. Re-assigning the same staff member is a no-op.
//
// The assignment persists first; the audit log, history entry and
// notification are best-effort afterwards and never roll it back.
func (s *service) AssignStaff(ctx context.Context, id, staffID string, actor Actor, force bool) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if staffID == "" {
		return s.unassign(ctx, a, actor)
	}

	staff, err := s.users.GetAssignable(ctx, staffID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidStaff
		}
		return nil, err
	}

	if a.StaffID == staff.ID {
		// Same staff again: nothing changed, record nothing.
		return a, nil
	}

	unlock := s.locks.Lock(staffDayKey(staff.ID, a.Date))
	defer unlock()

	if !force {
		result, err := s.checker.Check(ctx, staff.ID, a.Date, a.StartTime, a.EndTime, a.ID)
		if err != nil {
			return nil, err
		}
		if !result.Available {
			return nil, ErrNotAvailable.WithDetails(result.Conflicts)
		}
	}

	oldStaffID, oldStaffName := a.StaffID, a.StaffName
	a.StaffID = staff.ID
	a.StaffName = staff.Name

	if err := s.repo.UpdateStaff(ctx, a); err != nil {
		return nil, err
	}

	if oldStaffID == "" {
		s.recordAssignment(ctx, a, actor, audit.ActionAssign, oldStaffID, oldStaffName,
			fmt.Sprintf("Assigned to %s", staff.Name))
	} else {
		s.recordAssignment(ctx, a, actor, audit.ActionReassign, oldStaffID, oldStaffName,
			fmt.Sprintf("Reassigned from %s to %s", oldStaffName, staff.Name))
	}

	return a, nil
}

func (s *service) unassign(ctx context.Context, a *Appointment, actor Actor) (*Appointment, error) {
	if a.StaffID == "" {
		return a, nil
	}

	oldStaffID, oldStaffName := a.StaffID, a.StaffName
	a.StaffID = ""
	a.StaffName = ""

	if err := s.repo.UpdateStaff(ctx, a); err != nil {
		return nil, err
	}

	s.recordAssignment(ctx, a, actor, audit.ActionUnassign, oldStaffID, oldStaffName,
		fmt.Sprintf("Unassigned from %s", oldStaffName))

	return a, nil
}

// recordAssignment emits the audit log entry, the history entry and the
// fan-out event for a completed staff-assignment mutation. All three are
// best-effort: their failure never propagates to the caller.
func (s *service) recordAssignment(ctx context.Context, a *Appointment, actor Actor, action string, oldStaffID, oldStaffName, notes string) {
	s.recorder.Audit(ctx, audit.Log{
		EntityType:   audit.EntityAppointment,
		EntityID:     a.ID,
		Action:       action,
		ActorID:      actor.ID,
		ActorName:    actor.Name,
		FieldChanged: "staff_id",
		OldValue:     oldStaffID,
		NewValue:     a.StaffID,
	})

	s.recorder.History(ctx, audit.HistoryEntry{
		AppointmentID: a.ID,
		Action:        action,
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		OldStaffID:    oldStaffID,
		OldStaffName:  oldStaffName,
		NewStaffID:    a.StaffID,
		NewStaffName:  a.StaffName,
		Notes:         notes,
	})

	s.hub.Broadcast(notify.Event{
		Type: notify.EventAssigned,
		Data: map[string]any{
			"appointment_id":    a.ID,
			"action":            action,
			"old_staff_name":    oldStaffName,
			"new_staff_name":    a.StaffName,
			"performed_by_name": actor.Name,
		},
		TargetRole: string(user.RoleStaff),
	})
}

// UpdateStatus advances an appointment's status. Transitions are validated:
// the status only moves forward, or diverges to CANCELLED.
func (s *service) UpdateStatus(ctx context.Context, id string, status Status, actor Actor) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.Status == status {
		return a, nil
	}
	if !CanTransition(a.Status, status) {
		return nil, ErrStatusTransition
	}

	oldStatus := a.Status
	a.Status = status

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, err
	}

	s.recordStatusChange(ctx, a, actor, oldStatus, audit.HistoryStatusChanged,
		fmt.Sprintf("Status changed: %s → %s", oldStatus, status))

	return a, nil
}

func (s *service) recordStatusChange(ctx context.Context, a *Appointment, actor Actor, oldStatus Status, historyAction, notes string) {
	s.recorder.Audit(ctx, audit.Log{
		EntityType:   audit.EntityAppointment,
		EntityID:     a.ID,
		Action:       audit.ActionStatusChange,
		ActorID:      actor.ID,
		ActorName:    actor.Name,
		FieldChanged: "status",
		OldValue:     string(oldStatus),
		NewValue:     string(a.Status),
	})

	s.recorder.History(ctx, audit.HistoryEntry{
		AppointmentID: a.ID,
		Action:        historyAction,
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		OldStatus:     string(oldStatus),
		NewStatus:     string(a.Status),
		Notes:         notes,
	})

	s.hub.Broadcast(notify.Event{
		Type: notify.EventStatus,
		Data: map[string]any{
			"appointment_id":    a.ID,
			"old_status":        string(oldStatus),
			"new_status":        string(a.Status),
			"performed_by_name": actor.Name,
		},
		TargetRole: string(user.RoleStaff),
	})
}

// BulkApply runs one action across a set of appointment ids. Each id is
// processed independently: a missing appointment or a per-item persistence
// error lands in the failed list and never aborts the batch. One aggregate
// event with the success count is broadcast at the end.
func (s *service) BulkApply(ctx context.Context, action BulkAction, ids []string, params BulkParams, actor Actor) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, ErrInvalidRequest.WithDetails("at least one appointment ID is required")
	}

	result := &BulkResult{
		Success: make([]string, 0, len(ids)),
		Failed:  make([]BulkFailure, 0),
	}

	switch action {
	case BulkAssign:
		if params.StaffID == "" {
			return nil, ErrInvalidRequest.WithDetails("staffId is required for assign action")
		}
		// Validate the target staff once up front.
		staff, err := s.users.GetAssignable(ctx, params.StaffID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return nil, ErrInvalidStaff
			}
			return nil, err
		}
		for _, id := range ids {
			if reason := s.bulkAssignOne(ctx, id, staff, actor); reason != "" {
				result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: reason})
			} else {
				result.Success = append(result.Success, id)
			}
		}

	case BulkChangeStatus:
		if params.Status == "" {
			return nil, ErrInvalidRequest.WithDetails("status is required for change_status action")
		}
		if !ValidStatus(params.Status) {
			return nil, ErrInvalidStatus
		}
		for _, id := range ids {
			if reason := s.bulkStatusOne(ctx, id, params.Status, actor, false); reason != "" {
				result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: reason})
			} else {
				result.Success = append(result.Success, id)
			}
		}

	case BulkCancel:
		for _, id := range ids {
			if reason := s.bulkStatusOne(ctx, id, StatusCancelled, actor, true); reason != "" {
				result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: reason})
			} else {
				result.Success = append(result.Success, id)
			}
		}

	default:
		return nil, ErrInvalidRequest.WithDetails("invalid action, use: assign, change_status, or cancel")
	}

	s.hub.Broadcast(notify.Event{
		Type: notify.EventBulkUpdate,
		Data: map[string]any{
			"action":            string(action),
			"count":             len(result.Success),
			"performed_by_name": actor.Name,
		},
		TargetRole: string(user.RoleStaff),
	})

	return result, nil
}

// bulkAssignOne assigns one appointment within a bulk run. Returns an empty
// string on success, or the failure reason.
func (s *service) bulkAssignOne(ctx context.Context, id string, staff *user.User, actor Actor) string {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "Appointment not found"
		}
		return "Update failed"
	}

	if a.StaffID == staff.ID {
		return ""
	}

	unlock := s.locks.Lock(staffDayKey(staff.ID, a.Date))
	defer unlock()

	check, err := s.checker.Check(ctx, staff.ID, a.Date, a.StartTime, a.EndTime, a.ID)
	if err != nil {
		return "Update failed"
	}
	if !check.Available {
		return "Staff not available"
	}

	oldStaffID, oldStaffName := a.StaffID, a.StaffName
	a.StaffID = staff.ID
	a.StaffName = staff.Name

	if err := s.repo.UpdateStaff(ctx, a); err != nil {
		return "Update failed"
	}

	if oldStaffID == "" {
		s.recordAssignment(ctx, a, actor, audit.ActionAssign, oldStaffID, oldStaffName,
			fmt.Sprintf("Bulk assigned to %s", staff.Name))
	} else {
		s.recordAssignment(ctx, a, actor, audit.ActionReassign, oldStaffID, oldStaffName,
			fmt.Sprintf("Bulk reassigned from %s to %s", oldStaffName, staff.Name))
	}

	return ""
}

// bulkStatusOne changes one appointment's status within a bulk run. Returns
// an empty string on success, or the failure reason.
func (s *service) bulkStatusOne(ctx context.Context, id string, status Status, actor Actor, cancel bool) string {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "Appointment not found"
		}
		return "Update failed"
	}

	if a.Status == status {
		return ""
	}
	if !CanTransition(a.Status, status) {
		return "Invalid status transition"
	}

	oldStatus := a.Status
	a.Status = status

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return "Update failed"
	}

	if cancel {
		s.recordStatusChange(ctx, a, actor, oldStatus, audit.HistoryCancelled, "Bulk cancellation")
	} else {
		s.recordStatusChange(ctx, a, actor, oldStatus, audit.HistoryStatusChanged,
			fmt.Sprintf("Bulk status change: %s → %s", oldStatus, status))
	}

	return ""
}

// History returns the appointment's timeline, newest first.
func (s *service) History(ctx context.Context, id string) ([]*audit.HistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.recorder.ListHistory(ctx, id)
}

// Slots returns the public booking grid for a day: every interval between
// opening and closing, flagged unavailable when a non-cancelled appointment
// already starts there.
func (s *service) Slots(ctx context.Context, date time.Time, serviceID string) ([]Slot, error) {
	if date.IsZero() || serviceID == "" {
		return nil, ErrInvalidRequest
	}

	if _, err := s.catalog.GetByID(ctx, serviceID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	startTimes, err := s.repo.ListStartTimesForDay(ctx, date)
	if err != nil {
		return nil, err
	}

	booked := make(map[string]struct{}, len(startTimes))
	for _, t := range startTimes {
		booked[t] = struct{}{}
	}

	var slots []Slot
	for m := workDayStartMin; m < workDayEndMin; m += slotIntervalMin {
		t := timeslot.FormatClock(m)
		_, taken := booked[t]
		slots = append(slots, Slot{Time: t, Available: !taken})
	}

	return slots, nil
}
