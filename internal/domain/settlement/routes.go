package settlement

import (
	"github.com/gin-gonic/gin"

	"trainerdesk/internal/middleware"
)

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/members/:id/refund", h.Refund)
	rg.POST("/members/:id/refund/cancel", h.CancelRefund)
	rg.POST("/members/:id/transfer", h.Transfer)

	s := rg.Group("/settlement")
	{
		s.GET("/trainers/:id/months/:month", h.GetMonth)
		s.GET("/trainers/:id/months/:month/adjustments", h.ListAdjustments)
		s.PUT("/dayoffs", h.SetDayoffs)
		s.POST("/adjustments", h.AddAdjustment)
		s.DELETE("/adjustments/:id", h.DeleteAdjustment)
		s.GET("/settings", middleware.AdminOnly(), h.GetSettings)
		s.PUT("/settings", h.PutSettings)
	}
}
