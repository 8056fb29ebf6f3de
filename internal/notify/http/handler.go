package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/auth"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/notify"
)

type Handler struct {
	hub *notify.Hub
}

func NewHandler(hub *notify.Hub) *Handler {
	return &Handler{hub: hub}
}

// PublishRequest re-broadcasts an event to live subscribers.
type PublishRequest struct {
	Type         string         `json:"type" binding:"required"`
	Data         map[string]any `json:"data" binding:"required"`
	TargetUserID string         `json:"target_user_id"`
	TargetRole   string         `json:"target_role"`
}

// Stream opens a Server-Sent Events stream for the authenticated user.
// The connection stays registered with the hub until the client disconnects.
func (h *Handler) Stream(c *gin.Context) {
	userID := auth.GetUserID(c)
	role := auth.GetUserRole(c)

	sub := h.hub.Subscribe(userID, role)
	defer h.hub.Unsubscribe(sub.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case frame, ok := <-sub.C:
			if !ok {
				return false
			}
			_, err := w.Write(frame)
			return err == nil
		}
	})
}

// Publish broadcasts an event to connected clients (admin only).
func (h *Handler) Publish(c *gin.Context) {
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	sent := h.hub.Broadcast(notify.Event{
		Type:         req.Type,
		Data:         req.Data,
		TargetUserID: req.TargetUserID,
		TargetRole:   req.TargetRole,
	})

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"sent":             sent,
		"connection_count": h.hub.Count(),
	})
}
