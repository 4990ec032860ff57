package organization

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/organization"
)

type Handler struct {
	service *organization.Service
}

func NewHandler(service *organization.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orgs := r.Group("/organizations")
	{
		orgs.POST("", h.Create)
		orgs.GET("", h.List)
		orgs.GET("/:id", h.Get)
		orgs.PUT("/:id", h.Update)
		orgs.DELETE("/:id", h.Delete)
	}

	clinic := r.Group("/clinic")
	{
		clinic.GET("", h.GetClinic)
		clinic.PUT("", h.UpdateClinic)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateOrganizationRequest
	if !handler.Bind(c, &req) {
		return
	}

	org, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, org)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	org, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, org)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateOrganizationRequest
	if !handler.Bind(c, &req) {
		return
	}

	org, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, org)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "organization deleted")
}

func (h *Handler) List(c *gin.Context) {
	filter := handler.ListFilter(c)
	orgs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Page(c, orgs, filter, total)
}

// GetClinic returns the caller's own organization.
func (h *Handler) GetClinic(c *gin.Context) {
	org, err := h.service.Get(c.Request.Context(), handler.OrgID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, org)
}

func (h *Handler) UpdateClinic(c *gin.Context) {
	var req model.UpdateOrganizationRequest
	if !handler.Bind(c, &req) {
		return
	}

	org, err := h.service.Update(c.Request.Context(), handler.OrgID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, org)
}
