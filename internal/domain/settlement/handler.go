package settlement

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trainerdesk/internal/pkg/response"
	"trainerdesk/internal/pkg/utils"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetMonth handles GET /api/v1/settlement/trainers/:id/months/:month
func (h *Handler) GetMonth(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	trainerID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.MonthlyTotal(c.Request.Context(), actor, trainerID, c.Param("month"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// Refund handles POST /api/v1/members/:id/refund
func (h *Handler) Refund(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.Refund(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, m)
}

// CancelRefund handles POST /api/v1/members/:id/refund/cancel
func (h *Handler) CancelRefund(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.CancelRefund(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, m)
}

type TransferRequest struct {
	ToTrainerID uuid.UUID `json:"to_trainer_id" validate:"required"`
}

// Transfer handles POST /api/v1/members/:id/transfer
func (h *Handler) Transfer(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req TransferRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Transfer(c.Request.Context(), actor, id, req.ToTrainerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

type DayoffRequest struct {
	TrainerID uuid.UUID `json:"trainer_id" validate:"required"`
	Month     string    `json:"month" validate:"required,month"`
	Days      int       `json:"days" validate:"min=0,max=31"`
}

// SetDayoffs handles PUT /api/v1/settlement/dayoffs
func (h *Handler) SetDayoffs(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	var req DayoffRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	days, err := h.service.SetDayoffs(c.Request.Context(), actor, req.TrainerID, req.Month, req.Days)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"trainer_id": req.TrainerID, "month": req.Month, "days": days})
}

// AddAdjustment handles POST /api/v1/settlement/adjustments
func (h *Handler) AddAdjustment(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	var req AdjustmentInput
	if !utils.BindJSON(c, &req) {
		return
	}

	a, err := h.service.AddAdjustment(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, a)
}

// ListAdjustments handles GET /api/v1/settlement/trainers/:id/months/:month/adjustments
func (h *Handler) ListAdjustments(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	trainerID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.service.ListAdjustments(c.Request.Context(), actor, trainerID, c.Param("month"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"adjustments": list})
}

// DeleteAdjustment handles DELETE /api/v1/settlement/adjustments/:id
func (h *Handler) DeleteAdjustment(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteAdjustment(c.Request.Context(), actor, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

// GetSettings handles GET /api/v1/settlement/settings
func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.service.LoadSettings(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, s)
}

// PutSettings handles PUT /api/v1/settlement/settings
func (h *Handler) PutSettings(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	var req Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	s, err := h.service.SaveSettings(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, s)
}
