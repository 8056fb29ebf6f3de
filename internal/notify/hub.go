package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

// Subscriber is one live connection. Messages arrive on C as pre-serialized
// SSE frames; the channel is closed when the subscriber is pruned or
// unsubscribed.
type Subscriber struct {
	ID     string
	UserID string
	Role   string
	C      chan []byte
}

// Hub is the registry of live subscriber channels. It is safe for concurrent
// use: register, broadcast and the heartbeat all run on different goroutines.
//
// Delivery is best-effort per channel. A subscriber that cannot accept a
// message (buffer full or connection gone) is pruned; the broadcast continues
// to the remaining subscribers and the caller only learns how many were
// reached.
type Hub struct {
	mu        sync.Mutex
	subs      map[string]*Subscriber
	heartbeat time.Duration
}

// NewHub creates a Hub. heartbeat is the interval between keep-alive frames
// used to detect and prune dead connections; zero disables the heartbeat.
func NewHub(heartbeat time.Duration) *Hub {
	return &Hub{
		subs:      make(map[string]*Subscriber),
		heartbeat: heartbeat,
	}
}

// Subscribe registers a new connection for the given user and role and
// returns the subscriber whose channel the transport should drain.
func (h *Hub) Subscribe(userID, role string) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		C:      make(chan []byte, subscriberBuffer),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	// Initial frame so the client knows the stream is live.
	welcome, _ := json.Marshal(map[string]string{"type": "connected", "connection_id": sub.ID})
	sub.C <- sseFrame(welcome)

	log.Printf("[sse] connection added: %s (%s)", sub.ID, role)
	return sub
}

// Unsubscribe removes a connection and closes its channel. Safe to call more
// than once.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

func (h *Hub) removeLocked(id string) {
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.C)
		log.Printf("[sse] connection removed: %s", sub.ID)
	}
}

// Broadcast delivers the event to every subscriber matching the event's
// target filters and returns the number of subscribers reached. It never
// blocks on a slow subscriber and never reports partial failure upward.
func (h *Hub) Broadcast(event Event) int {
	payload := map[string]any{"type": event.Type}
	for k, v := range event.Data {
		payload[k] = v
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[sse] failed to encode event %s: %v", event.Type, err)
		return 0
	}
	frame := sseFrame(encoded)

	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for id, sub := range h.subs {
		if event.TargetUserID != "" && sub.UserID != event.TargetUserID {
			continue
		}
		if event.TargetRole != "" && sub.Role != event.TargetRole {
			continue
		}

		select {
		case sub.C <- frame:
			sent++
		default:
			// Subscriber is not draining; drop it rather than block.
			log.Printf("[sse] failed to send to %s, pruning", id)
			h.removeLocked(id)
		}
	}

	log.Printf("[sse] broadcast %s: sent to %d connections", event.Type, sent)
	return sent
}

// Run sends periodic heartbeat frames until ctx is cancelled, pruning
// subscribers that cannot accept them.
func (h *Hub) Run(ctx context.Context) {
	if h.heartbeat <= 0 {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.sendHeartbeat()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) sendHeartbeat() {
	frame := []byte(": heartbeat\n\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		select {
		case sub.C <- frame:
		default:
			log.Printf("[sse] heartbeat failed for %s, pruning", id)
			h.removeLocked(id)
		}
	}
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// CountByRole returns the number of live connections held by a role.
func (h *Hub) CountByRole(role string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, sub := range h.subs {
		if sub.Role == role {
			n++
		}
	}
	return n
}

func sseFrame(data []byte) []byte {
	return fmt.Appendf(nil, "data: %s\n\n", data)
}
