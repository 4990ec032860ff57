package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/patient"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", h.UpdatePatient)
		patients.DELETE("/:id", h.DeletePatient)
		patients.POST("/:id/restore", h.RestorePatient)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if !handler.Bind(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), handler.OrgID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, p)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), handler.OrgID(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, p)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdatePatientRequest
	if !handler.Bind(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), handler.OrgID(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, p)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), handler.OrgID(c), id); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "patient deleted")
}

func (h *Handler) RestorePatient(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Restore(c.Request.Context(), handler.OrgID(c), id); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "patient restored")
}

func (h *Handler) ListPatients(c *gin.Context) {
	filter := handler.ListFilter(c)
	patients, total, err := h.service.List(c.Request.Context(), handler.OrgID(c), filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Page(c, patients, filter, total)
}
