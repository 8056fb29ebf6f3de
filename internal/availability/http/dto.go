package http

import (
	"time"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/availability"
)

const dateLayout = "2006-01-02"

// CreateUnavailabilityRequest defines the payload for declaring a window.
type CreateUnavailabilityRequest struct {
	StaffID   string `json:"staff_id" binding:"required,uuid"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
	Recurring bool   `json:"recurring"`
	Force     bool   `json:"force"`
}

// UpdateUnavailabilityRequest defines the payload for editing a window.
type UpdateUnavailabilityRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Reason    *string `json:"reason"`
	Recurring *bool   `json:"recurring"`
}

// ListUnavailabilityRequest defines query parameters for listing windows.
type ListUnavailabilityRequest struct {
	StaffID string `form:"staff_id" binding:"omitempty,uuid"`
	From    string `form:"from"`
	To      string `form:"to"`
}

// CheckRequest defines the payload for an availability check.
type CheckRequest struct {
	StaffID              string `json:"staff_id" binding:"required,uuid"`
	Date                 string `json:"date" binding:"required"`
	StartTime            string `json:"start_time" binding:"required"`
	EndTime              string `json:"end_time" binding:"required"`
	ExcludeAppointmentID string `json:"exclude_appointment_id" binding:"omitempty,uuid"`
}

// UnavailabilityResponse is the API shape of an unavailability window.
type UnavailabilityResponse struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staff_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Reason    string    `json:"reason"`
	Recurring bool      `json:"recurring"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUnavailabilityResponse(u *availability.Unavailability) UnavailabilityResponse {
	return UnavailabilityResponse{
		ID:        u.ID,
		StaffID:   u.StaffID,
		Date:      u.Date.Format(dateLayout),
		StartTime: u.StartTime,
		EndTime:   u.EndTime,
		Reason:    u.Reason,
		Recurring: u.Recurring,
		CreatedAt: u.CreatedAt,
	}
}
