package audit

import (
	"time"
)

// EntityType identifies the kind of entity an audit entry refers to.
type EntityType string

const (
	EntityAppointment EntityType = "APPOINTMENT"
	EntityUser        EntityType = "USER"
	EntityService     EntityType = "SERVICE"
)

// Action labels for audit log entries.
const (
	ActionCreate       = "CREATE"
	ActionUpdate       = "UPDATE"
	ActionAssign       = "ASSIGNED"
	ActionReassign     = "REASSIGNED"
	ActionUnassign     = "UNASSIGNED"
	ActionStatusChange = "STATUS_CHANGE"
)

// Action labels for appointment history entries.
const (
	HistoryCreated       = "CREATED"
	HistoryAssigned      = "ASSIGNED"
	HistoryReassigned    = "REASSIGNED"
	HistoryUnassigned    = "UNASSIGNED"
	HistoryStatusChanged = "STATUS_CHANGED"
	HistoryCancelled     = "CANCELLED"
)

// Log is an immutable record of a single field mutation on an entity.
// Rows are append-only and never updated.
type Log struct {
	ID           string
	EntityType   EntityType
	EntityID     string
	Action       string
	ActorID      string
	ActorName    string
	FieldChanged string
	OldValue     string
	NewValue     string
	CreatedAt    time.Time
}

// HistoryEntry is a human-readable timeline entry scoped to one appointment,
// richer than Log: it carries resolved staff names and free-text notes.
type HistoryEntry struct {
	ID            string
	AppointmentID string
	Action        string
	ActorID       string
	ActorName     string
	OldStaffID    string
	OldStaffName  string
	NewStaffID    string
	NewStaffName  string
	OldStatus     string
	NewStatus     string
	Notes         string
	CreatedAt     time.Time
}
