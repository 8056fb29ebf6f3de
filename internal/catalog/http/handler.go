package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/catalog"
	"github.com/itsc-helpdesk/helpdesk-backend/internal/pkg/response"
)

type Handler struct {
	catalog catalog.Catalog
}

func NewHandler(c catalog.Catalog) *Handler {
	return &Handler{catalog: c}
}

// List returns all service offerings.
func (h *Handler) List(c *gin.Context) {
	services, err := h.catalog.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ServiceResponse, 0, len(services))
	for _, s := range services {
		items = append(items, NewServiceResponse(s))
	}

	c.JSON(http.StatusOK, gin.H{"services": items})
}
