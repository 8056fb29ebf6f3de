package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	g.POST("/auth/login", h.Login)

	staff := g.Group("/staff")
	staff.Use(authMiddleware)
	{
		staff.GET("", h.ListStaff)
	}
}
