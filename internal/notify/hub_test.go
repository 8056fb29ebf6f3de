package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainWelcome(t *testing.T, sub *Subscriber) {
	t.Helper()
	frame := <-sub.C
	assert.Contains(t, string(frame), `"type":"connected"`)
}

func TestSubscribeSendsWelcomeFrame(t *testing.T) {
	hub := NewHub(0)

	sub := hub.Subscribe("staff-1", "STAFF")
	require.NotEmpty(t, sub.ID)
	assert.Equal(t, 1, hub.Count())

	drainWelcome(t, sub)
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub(0)

	a := hub.Subscribe("staff-1", "STAFF")
	b := hub.Subscribe("staff-2", "STAFF")
	drainWelcome(t, a)
	drainWelcome(t, b)

	sent := hub.Broadcast(Event{
		Type: EventAssigned,
		Data: map[string]any{"appointment_id": "apt-1"},
	})
	assert.Equal(t, 2, sent)

	for _, sub := range []*Subscriber{a, b} {
		frame := string(<-sub.C)
		assert.Contains(t, frame, "data: ")
		assert.Contains(t, frame, `"appointment_id":"apt-1"`)
		assert.Contains(t, frame, EventAssigned)
	}
}

func TestBroadcastTargetsUser(t *testing.T) {
	hub := NewHub(0)

	a := hub.Subscribe("staff-1", "STAFF")
	b := hub.Subscribe("staff-2", "STAFF")
	drainWelcome(t, a)
	drainWelcome(t, b)

	sent := hub.Broadcast(Event{Type: EventStatus, TargetUserID: "staff-2"})
	assert.Equal(t, 1, sent)

	select {
	case frame := <-a.C:
		t.Fatalf("untargeted subscriber received frame: %s", frame)
	default:
	}

	frame := string(<-b.C)
	assert.Contains(t, frame, EventStatus)
}

func TestBroadcastTargetsRole(t *testing.T) {
	hub := NewHub(0)

	staff := hub.Subscribe("staff-1", "STAFF")
	admin := hub.Subscribe("admin-1", "ADMIN")
	drainWelcome(t, staff)
	drainWelcome(t, admin)

	sent := hub.Broadcast(Event{Type: EventBulkUpdate, TargetRole: "STAFF"})
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, hub.CountByRole("STAFF"))
	assert.Equal(t, 1, hub.CountByRole("ADMIN"))
}

func TestBroadcastPrunesBlockedSubscriber(t *testing.T) {
	hub := NewHub(0)

	sub := hub.Subscribe("staff-1", "STAFF")
	// Never drained: the welcome frame plus these fill the buffer.
	for i := 0; i < subscriberBuffer-1; i++ {
		hub.Broadcast(Event{Type: EventCreated})
	}
	require.Equal(t, 1, hub.Count())

	sent := hub.Broadcast(Event{Type: EventCreated})
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, hub.Count(), "blocked subscriber must be pruned")

	// Channel was closed during pruning; draining it must terminate.
	for range sub.C {
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(0)

	sub := hub.Subscribe("staff-1", "STAFF")
	hub.Unsubscribe(sub.ID)
	hub.Unsubscribe(sub.ID)
	assert.Equal(t, 0, hub.Count())
}
