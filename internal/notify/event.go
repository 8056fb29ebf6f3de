package notify

// Event types broadcast by the appointment workflows.
const (
	EventAssigned   = "appointment:assigned"
	EventStatus     = "appointment:status"
	EventBulkUpdate = "appointment:bulk_update"
	EventCreated    = "appointment:created"
)

// Event is a state-change notification pushed to live subscribers.
// TargetUserID and TargetRole narrow delivery; when both are empty the
// event goes to every subscriber.
type Event struct {
	Type         string         `json:"type"`
	Data         map[string]any `json:"data"`
	TargetUserID string         `json:"target_user_id,omitempty"`
	TargetRole   string         `json:"target_role,omitempty"`
}
