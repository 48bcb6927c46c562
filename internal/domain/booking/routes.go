package booking

import (
	"github.com/gin-gonic/gin"

	"trainerdesk/internal/middleware"
)

// RegisterRoutes mounts the booking endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.POST("/sweep", middleware.AdminOnly(), h.Sweep)
		bookings.POST("/:id/complete", h.CompleteBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.PATCH("/:id/status", h.UpdateBookingStatus)
		bookings.PATCH("/:id/notes", h.UpdateBookingNotes)
		bookings.DELETE("/:id", h.DeleteBooking)
	}
	rg.GET("/trainers/:id/schedule", h.GetSchedule)
}
