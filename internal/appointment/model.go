package appointment

import (
	"net/http"
	"time"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "appointment not found")
	ErrServiceNotFound  = apperror.New(http.StatusNotFound, "service not found")
	ErrInvalidStaff     = apperror.New(http.StatusBadRequest, "invalid staff member")
	ErrInvalidRequest   = apperror.New(http.StatusBadRequest, "invalid request parameters")
	ErrInvalidStatus    = apperror.New(http.StatusBadRequest, "invalid appointment status")
	ErrStatusTransition = apperror.New(http.StatusBadRequest, "invalid status transition")

	// ErrNotAvailable is returned when the target staff member has conflicts
	// in the requested window and the caller did not force the operation.
	// Details carry the conflict list so the caller can force or abort.
	ErrNotAvailable = apperror.New(http.StatusConflict, "staff is not available at this time")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ValidStatus reports whether s is one of the defined appointment statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an appointment may move from one status to
// another. Status advances monotonically toward COMPLETED, or diverges to
// CANCELLED from any non-terminal state.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCompleted || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		// COMPLETED and CANCELLED are terminal.
		return false
	}
}

// Appointment is a booked help-desk service slot. StartTime and EndTime are
// same-day HH:MM wall-clock values; EndTime is derived from StartTime plus
// the service duration. Appointments are never physically deleted.
type Appointment struct {
	ID            string
	Date          time.Time // calendar date, midnight
	StartTime     string    // HH:MM
	EndTime       string    // HH:MM
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Description   string
	Status        Status
	ServiceID     string
	ServiceName   string
	StaffID       string // empty when unassigned
	StaffName     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Actor identifies who performed a mutation, for the audit trail.
type Actor struct {
	ID   string
	Name string
}

// Filter defines parameters for listing appointments.
type Filter struct {
	StaffID  string
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// Slot is one bookable interval in the public slot grid.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}
