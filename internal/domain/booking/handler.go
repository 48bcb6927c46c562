package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trainerdesk/internal/domain"
	"trainerdesk/internal/pkg/bizday"
	"trainerdesk/internal/pkg/response"
	"trainerdesk/internal/pkg/utils"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateBooking handles POST /api/v1/bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	var req BookInput
	if !utils.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Book(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

// CompleteBooking handles POST /api/v1/bookings/:id/complete
func (h *Handler) CompleteBooking(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req CompleteInput
	if c.Request.ContentLength > 0 && !utils.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Complete(c.Request.Context(), actor, id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// DeleteBooking handles DELETE /api/v1/bookings/:id
func (h *Handler) DeleteBooking(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

type editStatusRequest struct {
	Status domain.BookingStatus `json:"status" validate:"required,oneof=planned completed cancelled"`
}

// UpdateBookingStatus handles PATCH /api/v1/bookings/:id/status
func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req editStatusRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	b, err := h.service.EditStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

type editNotesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// UpdateBookingNotes handles PATCH /api/v1/bookings/:id/notes
func (h *Handler) UpdateBookingNotes(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req editNotesRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	b, err := h.service.EditNotes(c.Request.Context(), actor, id, req.Notes)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// GetSchedule handles GET /api/v1/trainers/:id/schedule?from=&to=
// Both bounds default to today.
func (h *Handler) GetSchedule(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	trainerID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	today := bizday.Today(h.service.now())
	from := c.DefaultQuery("from", today)
	to := c.DefaultQuery("to", from)
	for _, d := range []string{from, to} {
		if _, err := bizday.ParseDate(d); err != nil {
			response.CustomError(c, http.StatusBadRequest, "INVALID_DATE", "Dates must be YYYY-MM-DD")
			return
		}
	}

	list, err := h.service.Schedule(c.Request.Context(), actor, trainerID, from, to)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list, "from": from, "to": to})
}

// Sweep handles POST /api/v1/bookings/sweep
func (h *Handler) Sweep(c *gin.Context) {
	n, err := h.service.SweepExpiredBookings(c.Request.Context(), bizday.Today(h.service.now()))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cancelled": n})
}
