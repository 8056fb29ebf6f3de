package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/appointment"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/auth"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/request"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/response"
)

type Handler struct {
	service appointment.Service
}

func NewHandler(service appointment.Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(c *gin.Context) appointment.Actor {
	return appointment.Actor{
		ID:   auth.GetUserID(c),
		Name: auth.GetUserName(c),
	}
}

// Create books a public self-service appointment. No authentication.
func (h *Handler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	a, err := h.service.Create(c.Request.Context(), appointment.CreateRequest{
		ServiceID:     req.ServiceID,
		Date:          date,
		StartTime:     req.StartTime,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Description:   req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewAppointmentResponse(a))
}

// StaffCreate books a pre-confirmed appointment assigned to the caller.
func (h *Handler) StaffCreate(c *gin.Context) {
	var req StaffCreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	a, err := h.service.StaffCreate(c.Request.Context(), appointment.StaffCreateRequest{
		CreateRequest: appointment.CreateRequest{
			ServiceID:     req.ServiceID,
			Date:          date,
			StartTime:     req.StartTime,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			CustomerEmail: req.CustomerEmail,
			Description:   req.Description,
		},
		StaffID: auth.GetUserID(c),
		Force:   req.Force,
	}, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewAppointmentResponse(a))
}

func (h *Handler) GetByID(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

func (h *Handler) List(c *gin.Context) {
	var req ListAppointmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	filter := appointment.Filter{
		StaffID:  req.StaffID,
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.From != "" {
		t, err := time.Parse(dateLayout, req.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		filter.DateFrom = &t
	}
	if req.To != "" {
		t, err := time.Parse(dateLayout, req.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		filter.DateTo = &t
	}

	appointments, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]AppointmentResponse, 0, len(appointments))
	for _, a := range appointments {
		items = append(items, NewAppointmentResponse(a))
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

// AssignStaff assigns, reassigns or unassigns an appointment's staff member.
func (h *Handler) AssignStaff(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	a, err := h.service.AssignStaff(c.Request.Context(), uri.ID, req.StaffID, actorFrom(c), req.Force)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// UpdateStatus moves an appointment through its status lifecycle.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	a, err := h.service.UpdateStatus(c.Request.Context(), uri.ID, appointment.Status(req.Status), actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// Bulk applies one action to a set of appointments, reporting per-item outcomes.
func (h *Handler) Bulk(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	result, err := h.service.BulkApply(
		c.Request.Context(),
		appointment.BulkAction(req.Action),
		req.AppointmentIDs,
		appointment.BulkParams{
			StaffID: req.StaffID,
			Status:  appointment.Status(req.Status),
		},
		actorFrom(c),
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// History returns an appointment's timeline, newest first.
func (h *Handler) History(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	entries, err := h.service.History(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, NewHistoryEntryResponse(e))
	}

	c.JSON(http.StatusOK, gin.H{"history": items})
}

// Slots returns the public booking grid for a day. No authentication.
func (h *Handler) Slots(c *gin.Context) {
	var req SlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	slots, err := h.service.Slots(c.Request.Context(), date, req.ServiceID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": req.Date, "slots": slots})
}
