package ot

import (
	"net/http"
	"strconv"

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

type AssignRequest struct {
	TrainerID uuid.UUID `json:"trainer_id" validate:"required"`
	Count     int       `json:"count" validate:"gte=1,lte=100"`
}

type IncreaseRequest struct {
	Count int `json:"count" validate:"gte=1,lte=100"`
}

// Assign handles POST /api/v1/ot/members/:id/assign
func (h *Handler) Assign(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	memberID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req AssignRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	created, err := h.service.Assign(c.Request.Context(), actor, memberID, req.TrainerID, req.Count)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"assignments": created})
}

// Reclaim handles POST /api/v1/ot/members/:id/reclaim
func (h *Handler) Reclaim(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	memberID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	n, err := h.service.Reclaim(c.Request.Context(), actor, memberID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reclaimed": n})
}

// IncreaseSessions handles POST /api/v1/ot/members/:id/sessions
func (h *Handler) IncreaseSessions(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	memberID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req IncreaseRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	m, err := h.service.IncreaseSessions(c.Request.Context(), actor, memberID, req.Count)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, m)
}

// Detail handles GET /api/v1/ot/members/:id
func (h *Handler) Detail(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	memberID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.service.Detail(c.Request.Context(), actor, memberID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

// Extend handles POST /api/v1/ot/assignments/:id/extend
func (h *Handler) Extend(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.service.Extend(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}

// Sweep handles POST /api/v1/ot/sweep
func (h *Handler) Sweep(c *gin.Context) {
	n, err := h.service.ExpireSweep(c.Request.Context(), h.service.now())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"returned": n})
}

// History handles GET /api/v1/ot/history?member_id=&trainer_id=&limit=
func (h *Handler) History(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}

	var f HistoryFilter
	if v := c.Query("member_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid member_id")
			return
		}
		f.MemberID = &id
	}
	if v := c.Query("trainer_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid trainer_id")
			return
		}
		f.TrainerID = &id
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		f.Limit = v
	}

	list, err := h.service.History(c.Request.Context(), actor, f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": list})
}

// ForTrainer handles GET /api/v1/trainers/:id/ot
func (h *Handler) ForTrainer(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	trainerID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.service.ForTrainer(c.Request.Context(), actor, trainerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assignments": list})
}
