package http

import (
	"time"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/appointment"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/audit"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/request"
)

const dateLayout = "2006-01-02"

// CreateAppointmentRequest defines the public booking payload.
type CreateAppointmentRequest struct {
	ServiceID     string `json:"service_id" binding:"required,uuid"`
	Date          string `json:"date" binding:"required"`
	StartTime     string `json:"start_time" binding:"required"`
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email"`
	Description   string `json:"description" binding:"required"`
}

// StaffCreateAppointmentRequest defines the staff self-booking payload.
type StaffCreateAppointmentRequest struct {
	CreateAppointmentRequest
	Force bool `json:"force"`
}

// ListAppointmentsRequest defines query parameters for listing appointments.
type ListAppointmentsRequest struct {
	StaffID string `form:"staff_id" binding:"omitempty,uuid"`
	Status  string `form:"status"`
	From    string `form:"from"`
	To      string `form:"to"`
	request.ListParams
}

// AssignStaffRequest defines the assignment payload. An empty staff_id
// clears the current assignment.
type AssignStaffRequest struct {
	StaffID string `json:"staff_id" binding:"omitempty,uuid"`
	Force   bool   `json:"force"`
}

// UpdateStatusRequest defines the status-change payload.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BulkRequest defines the payload for a bulk operation across appointments.
type BulkRequest struct {
	Action         string   `json:"action" binding:"required"`
	AppointmentIDs []string `json:"appointment_ids" binding:"required"`
	StaffID        string   `json:"staff_id" binding:"omitempty,uuid"`
	Status         string   `json:"status"`
}

// SlotsRequest defines query parameters for the public slot grid.
type SlotsRequest struct {
	Date      string `form:"date" binding:"required"`
	ServiceID string `form:"service_id" binding:"required,uuid"`
}

// AppointmentResponse is the API shape of an appointment.
type AppointmentResponse struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	ServiceID     string    `json:"service_id"`
	ServiceName   string    `json:"service_name"`
	StaffID       string    `json:"staff_id,omitempty"`
	StaffName     string    `json:"staff_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		Date:          a.Date.Format(dateLayout),
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		CustomerName:  a.CustomerName,
		CustomerPhone: a.CustomerPhone,
		CustomerEmail: a.CustomerEmail,
		Description:   a.Description,
		Status:        string(a.Status),
		ServiceID:     a.ServiceID,
		ServiceName:   a.ServiceName,
		StaffID:       a.StaffID,
		StaffName:     a.StaffName,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// HistoryEntryResponse is the API shape of one timeline entry.
type HistoryEntryResponse struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	ActorID      string    `json:"actor_id,omitempty"`
	ActorName    string    `json:"actor_name,omitempty"`
	OldStaffID   string    `json:"old_staff_id,omitempty"`
	OldStaffName string    `json:"old_staff_name,omitempty"`
	NewStaffID   string    `json:"new_staff_id,omitempty"`
	NewStaffName string    `json:"new_staff_name,omitempty"`
	OldStatus    string    `json:"old_status,omitempty"`
	NewStatus    string    `json:"new_status,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewHistoryEntryResponse(e *audit.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:           e.ID,
		Action:       e.Action,
		ActorID:      e.ActorID,
		ActorName:    e.ActorName,
		OldStaffID:   e.OldStaffID,
		OldStaffName: e.OldStaffName,
		NewStaffID:   e.NewStaffID,
		NewStaffName: e.NewStaffName,
		OldStatus:    e.OldStatus,
		NewStatus:    e.NewStatus,
		Notes:        e.Notes,
		CreatedAt:    e.CreatedAt,
	}
}
