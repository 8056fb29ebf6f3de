package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, rateLimitMiddleware, cacheMiddleware gin.HandlerFunc) {
	// Public booking surface.
	g.POST("/appointments", rateLimitMiddleware, h.Create)
	g.GET("/slots", rateLimitMiddleware, cacheMiddleware, h.Slots)

	group := g.Group("/appointments")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("/staff", h.StaffCreate)
		group.POST("/bulk", h.Bulk)
		group.GET("/:id", h.GetByID)
		group.GET("/:id/history", h.History)
		group.PATCH("/:id/assign", h.AssignStaff)
		group.PATCH("/:id/status", h.UpdateStatus)
	}
}
