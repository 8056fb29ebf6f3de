package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/events")

	group.Use(authMiddleware)
	{
		group.GET("", h.Stream)
		group.POST("/publish", adminMiddleware, h.Publish)
	}
}
