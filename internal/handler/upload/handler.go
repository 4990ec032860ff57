package upload

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/service/upload"
)

type Handler struct {
	service *upload.Service
}

func NewHandler(service *upload.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	excel := r.Group("/excel")
	{
		excel.GET("", h.Entities)
		excel.GET("/:entity/config", h.Config)
	}
}

func (h *Handler) Entities(c *gin.Context) {
	handler.OK(c, h.service.Entities())
}

func (h *Handler) Config(c *gin.Context) {
	cfg, err := h.service.Config(c.Param("entity"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, cfg)
}
