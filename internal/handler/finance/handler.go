package finance

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openclinic-br/consultorio-api/internal/handler"
	"github.com/openclinic-br/consultorio-api/internal/model"
	"github.com/openclinic-br/consultorio-api/internal/service/finance"
)

type Handler struct {
	service *finance.Service
}

func NewHandler(service *finance.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/finance/overview", h.GetOverview)
}

func (h *Handler) GetOverview(c *gin.Context) {
	var params model.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		handler.RespondBindingError(c, err)
		return
	}

	overview, err := h.service.Overview(c.Request.Context(), &params)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(overview))
}
