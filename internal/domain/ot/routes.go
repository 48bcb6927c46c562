package ot

import (
	"github.com/gin-gonic/gin"

	"trainerdesk/internal/middleware"
)

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	ot := rg.Group("/ot")
	{
		ot.GET("/members/:id", h.Detail)
		ot.POST("/members/:id/assign", h.Assign)
		ot.POST("/members/:id/reclaim", h.Reclaim)
		ot.POST("/members/:id/sessions", h.IncreaseSessions)
		ot.POST("/assignments/:id/extend", h.Extend)
		ot.POST("/sweep", middleware.AdminOnly(), h.Sweep)
		ot.GET("/history", h.History)
	}

	rg.GET("/trainers/:id/ot", h.ForTrainer)
}
