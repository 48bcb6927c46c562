package ledger

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trainerdesk/internal/pkg/response"
	"trainerdesk/internal/pkg/utils"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /api/v1/members
func (h *Handler) Register(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	var req RegisterInput
	if !utils.BindJSON(c, &req) {
		return
	}

	m, err := h.service.Register(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, m)
}

// GetMember handles GET /api/v1/members/:id
func (h *Handler) GetMember(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !actor.CanActFor(m.TrainerID) {
		response.FromError(c, ErrNotOwner)
		return
	}
	response.Success(c, http.StatusOK, m)
}

// Remaining handles GET /api/v1/members/:id/remaining
func (h *Handler) Remaining(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !actor.CanActFor(m.TrainerID) {
		response.FromError(c, ErrNotOwner)
		return
	}

	bal, err := h.service.RemainingForPerson(c.Request.Context(), m.Name, m.Phone, m.TrainerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, bal)
}

// ListForTrainer handles GET /api/v1/trainers/:id/members
func (h *Handler) ListForTrainer(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	trainerID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.service.ListForTrainer(c.Request.Context(), actor, trainerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"members": list})
}

// Dropdown handles GET /api/v1/trainers/:id/members/dropdown
func (h *Handler) Dropdown(c *gin.Context) {
	actor, ok := utils.Actor(c)
	if !ok {
		return
	}
	trainerID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.service.DropdownForTrainer(c.Request.Context(), actor, trainerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"members": list})
}
