package availability

import (
	"net/http"
	"time"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "unavailability record not found")
	ErrInvalidTimeRange = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrInvalidInput     = apperror.New(http.StatusBadRequest, "invalid input parameters")

	// ErrAppointmentOverlap is returned when an unavailability window would
	// cover existing appointments and the caller did not force creation.
	// Details carry the conflicting appointments so the caller can decide.
	ErrAppointmentOverlap = apperror.New(http.StatusConflict, "appointments overlap the requested window")
)

// Unavailability is a declared block during which a staff member cannot be
// assigned. Each record covers exactly one calendar date; Recurring is a
// display hint only and no weekly expansion is computed from it.
type Unavailability struct {
	ID        string
	StaffID   string
	Date      time.Time // calendar date, midnight
	StartTime string    // HH:MM
	EndTime   string    // HH:MM
	Reason    string
	Recurring bool
	CreatedAt time.Time
}

// ConflictType discriminates why a time range is not bookable.
type ConflictType string

const (
	// ConflictUnavailable means the range collides with a declared
	// unavailability window.
	ConflictUnavailable ConflictType = "unavailable"
	// ConflictDoubleBooked means the range collides with an existing
	// non-cancelled appointment.
	ConflictDoubleBooked ConflictType = "double_booked"
)

// Conflict is a transient value produced during availability checking.
// It is never persisted.
type Conflict struct {
	Type    ConflictType    `json:"type"`
	Reason  string          `json:"reason"`
	Details ConflictDetails `json:"details"`
}

// ConflictDetails describes the colliding record.
type ConflictDetails struct {
	AppointmentID string `json:"appointment_id,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	CustomerName  string `json:"customer_name,omitempty"`
	Service       string `json:"service,omitempty"`
	Recurring     bool   `json:"recurring,omitempty"`
}

// CheckResult is the outcome of an availability check.
type CheckResult struct {
	Available bool       `json:"available"`
	Conflicts []Conflict `json:"conflicts"`
}
