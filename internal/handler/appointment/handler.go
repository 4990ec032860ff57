package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/appointment"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Create)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id", h.Update)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if !handler.Bind(c, &req) {
		return
	}

	a, err := h.service.Create(c.Request.Context(), handler.OrgID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, a)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	a, err := h.service.Get(c.Request.Context(), handler.OrgID(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, a)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateAppointmentRequest
	if !handler.Bind(c, &req) {
		return
	}

	a, err := h.service.Update(c.Request.Context(), handler.OrgID(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, a)
}

// List filters by patient_id, doctor_id, status and an RFC 3339 from/to range.
func (h *Handler) List(c *gin.Context) {
	page, pageSize := httputil.PageParams(c)
	filter := model.AppointmentFilter{Status: c.Query("status"), Page: page, PageSize: pageSize}

	for param, dst := range map[string]**uuid.UUID{"patient_id": &filter.PatientID, "doctor_id": &filter.DoctorID} {
		if v := c.Query(param); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid "+param))
				return
			}
			*dst = &id
		}
	}
	for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if v := c.Query(param); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid "+param))
				return
			}
			*dst = &t
		}
	}

	items, total, err := h.service.List(c.Request.Context(), handler.OrgID(c), filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, httputil.NewPaginatedResponse(items, page, pageSize, total))
}
