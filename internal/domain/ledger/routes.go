package ledger

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	members := rg.Group("/members")
	{
		members.POST("", h.Register)
		members.GET("/:id", h.GetMember)
		members.GET("/:id/remaining", h.Remaining)
	}

	trainers := rg.Group("/trainers/:id/members")
	{
		trainers.GET("", h.ListForTrainer)
		trainers.GET("/dropdown", h.Dropdown)
	}
}
