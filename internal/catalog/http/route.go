package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, cacheMiddleware gin.HandlerFunc) {
	group := g.Group("/services")

	// Public, read-only catalog. Responses are cached.
	group.GET("", cacheMiddleware, h.List)
}
