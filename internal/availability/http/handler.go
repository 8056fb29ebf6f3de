package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/availability"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/request"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/response"
)

type Handler struct {
	service availability.Service
	checker *availability.Checker
}

func NewHandler(service availability.Service, checker *availability.Checker) *Handler {
	return &Handler{
		service: service,
		checker: checker,
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateUnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	u, err := h.service.Create(c.Request.Context(), availability.CreateRequest{
		StaffID:   req.StaffID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
		Recurring: req.Recurring,
		Force:     req.Force,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewUnavailabilityResponse(u))
}

func (h *Handler) List(c *gin.Context) {
	var req ListUnavailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	filter := availability.Filter{StaffID: req.StaffID}
	if req.From != "" {
		t, err := time.Parse(dateLayout, req.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		filter.From = &t
	}
	if req.To != "" {
		t, err := time.Parse(dateLayout, req.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		filter.To = &t
	}

	records, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]UnavailabilityResponse, 0, len(records))
	for _, u := range records {
		items = append(items, NewUnavailabilityResponse(u))
	}

	c.JSON(http.StatusOK, gin.H{"unavailability": items})
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req UpdateUnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	u, err := h.service.Update(c.Request.Context(), uri.ID, availability.UpdateRequest{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
		Recurring: req.Recurring,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewUnavailabilityResponse(u))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Check validates whether a staff member can take a time range on a day.
func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	result, err := h.checker.Check(c.Request.Context(), req.StaffID, date, req.StartTime, req.EndTime, req.ExcludeAppointmentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Conflicts == nil {
		result.Conflicts = make([]availability.Conflict, 0)
	}
	c.JSON(http.StatusOK, result)
}
