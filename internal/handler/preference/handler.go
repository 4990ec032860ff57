package preference

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/service/preference"
)

type Handler struct {
	service *preference.Service
}

func NewHandler(service *preference.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	columns := r.Group("/preferences/columns/:module")
	{
		columns.GET("", h.Get)
		columns.POST("/toggle", h.Toggle)
		columns.DELETE("", h.Reset)
	}
}

type toggleRequest struct {
	Column string `json:"column" binding:"required"`
}

func (h *Handler) Get(c *gin.Context) {
	cols, err := h.service.Get(handler.StaffID(c), c.Param("module"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, cols)
}

func (h *Handler) Toggle(c *gin.Context) {
	var req toggleRequest
	if !handler.Bind(c, &req) {
		return
	}

	cols, err := h.service.Toggle(handler.StaffID(c), c.Param("module"), req.Column)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, cols)
}

func (h *Handler) Reset(c *gin.Context) {
	cols, err := h.service.Reset(handler.StaffID(c), c.Param("module"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, cols)
}
