package employee

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/employee"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

type Handler struct {
	service *employee.Service
}

func NewHandler(service *employee.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	employees := r.Group("/employees")
	{
		employees.POST("", h.Create)
		employees.GET("", h.List)
		employees.GET("/:id", h.Get)
		employees.PUT("/:id", h.Update)
		employees.DELETE("/:id", h.Delete)
		employees.POST("/:id/restore", h.Restore)
	}

	r.GET("/specializations", h.Specializations)
	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.UpdateProfile)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateStaffRequest
	if !handler.Bind(c, &req) {
		return
	}

	staff, err := h.service.Create(c.Request.Context(), handler.OrgID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, staff)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	staff, err := h.service.Get(c.Request.Context(), handler.OrgID(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, staff)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	h.update(c, id)
}

func (h *Handler) update(c *gin.Context, id uuid.UUID) {
	var req model.UpdateStaffRequest
	if !handler.Bind(c, &req) {
		return
	}

	staff, err := h.service.Update(c.Request.Context(), handler.OrgID(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, staff)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), handler.OrgID(c), id); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "employee deleted")
}

func (h *Handler) Restore(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Restore(c.Request.Context(), handler.OrgID(c), id); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "employee restored")
}

func (h *Handler) List(c *gin.Context) {
	filter := model.StaffFilter{
		ListFilter:  handler.ListFilter(c),
		DoctorsOnly: httputil.BoolQuery(c, "doctors_only"),
	}

	staff, total, err := h.service.List(c.Request.Context(), handler.OrgID(c), filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Page(c, staff, filter.ListFilter, total)
}

func (h *Handler) Specializations(c *gin.Context) {
	specs, err := h.service.Specializations(c.Request.Context(), handler.OrgID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, specs)
}

// GetProfile returns the caller's own staff row.
func (h *Handler) GetProfile(c *gin.Context) {
	staff, err := h.service.Get(c.Request.Context(), handler.OrgID(c), handler.StaffID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, staff)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	h.update(c, handler.StaffID(c))
}
