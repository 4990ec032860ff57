package ipd

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/ipd"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

type Handler struct {
	service *ipd.Service
}

func NewHandler(service *ipd.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admissions := r.Group("/ipd/admissions")
	{
		admissions.POST("", h.Admit)
		admissions.GET("", h.List)
		admissions.GET("/:id", h.Get)
		admissions.PUT("/:id", h.Update)
		admissions.PUT("/:id/bill", h.UpdateBill)
		admissions.PUT("/:id/discharge", h.Discharge)
		admissions.GET("/:id/capabilities", h.Capabilities)
		admissions.GET("/:id/receipt", h.Receipt)

		admissions.POST("/:id/payments", h.RecordPayment)
		admissions.GET("/:id/payments", h.ListPayments)
		admissions.PUT("/:id/payments/:paymentId", h.EditPayment)
		admissions.DELETE("/:id/payments/:paymentId", h.DeletePayment)

		admissions.POST("/:id/consultants", h.AddConsultant)
		admissions.GET("/:id/consultants", h.ListConsultants)
		admissions.GET("/:id/consultants/:entryId", h.GetConsultant)
		admissions.PUT("/:id/consultants/:entryId", h.UpdateConsultant)
		admissions.DELETE("/:id/consultants/:entryId", h.DeleteConsultant)
		admissions.POST("/:id/consultants/:entryId/restore", h.RestoreConsultant)
		admissions.DELETE("/:id/consultants/:entryId/permanent", h.PurgeConsultant)

		admissions.POST("/:id/operations", h.AddOperation)
		admissions.GET("/:id/operations", h.ListOperations)
		admissions.GET("/:id/operations/:operationId", h.GetOperation)
		admissions.PUT("/:id/operations/:operationId", h.UpdateOperation)
		admissions.DELETE("/:id/operations/:operationId", h.DeleteOperation)
		admissions.POST("/:id/operations/:operationId/restore", h.RestoreOperation)
		admissions.DELETE("/:id/operations/:operationId/permanent", h.PurgeOperation)
	}
}

// ids parses the admission id and, when child is set, the child id.
func ids(c *gin.Context, child string) (admissionID, childID uuid.UUID, ok bool) {
	if admissionID, ok = handler.ParseID(c, "id"); !ok {
		return
	}
	if child == "" {
		return admissionID, uuid.Nil, true
	}
	childID, ok = handler.ParseID(c, child)
	return
}

func (h *Handler) Admit(c *gin.Context) {
	var req model.CreateAdmissionRequest
	if !handler.Bind(c, &req) {
		return
	}

	d, err := h.service.Admit(c.Request.Context(), handler.OrgID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, d)
}

func (h *Handler) List(c *gin.Context) {
	var filter model.AdmissionFilter
	if !handler.BindQuery(c, &filter) {
		return
	}
	filter.ListFilter = handler.ListFilter(c)

	items, total, err := h.service.List(c.Request.Context(), handler.OrgID(c), filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Page(c, items, filter.ListFilter, total)
}

func (h *Handler) Get(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}

	d, err := h.service.Get(c.Request.Context(), handler.OrgID(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, d)
}

func (h *Handler) Update(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}
	var req model.UpdateAdmissionRequest
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

func (h *Handler) UpdateBill(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}
	var req model.UpdateBillRequest
	if !handler.Bind(c, &req) {
		return
	}

	d, err := h.service.UpdateBill(c.Request.Context(), handler.OrgID(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, d)
}

func (h *Handler) Discharge(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}
	var req model.DischargeRequest
	if !handler.Bind(c, &req) {
		return
	}

	d, err := h.service.Discharge(c.Request.Context(), handler.OrgID(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, d)
}

func (h *Handler) Capabilities(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}

	caps, err := h.service.Capabilities(c.Request.Context(), handler.OrgID(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, caps)
}

func (h *Handler) Receipt(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}

	r, err := h.service.Receipt(c.Request.Context(), handler.OrgID(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, r)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}
	var req model.RecordPaymentRequest
	if !handler.Bind(c, &req) {
		return
	}

	res, err := h.service.RecordPayment(c.Request.Context(), handler.OrgID(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, res)
}

func (h *Handler) ListPayments(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), handler.OrgID(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, payments)
}

func (h *Handler) DeletePayment(c *gin.Context) {
	id, paymentID, ok := ids(c, "paymentId")
	if !ok {
		return
	}

	res, err := h.service.DeletePayment(c.Request.Context(), handler.OrgID(c), id, paymentID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, res)
}

func (h *Handler) EditPayment(c *gin.Context) {
	if _, _, ok := ids(c, "paymentId"); !ok {
		return
	}
	handler.Error(c, h.service.EditPayment())
}

func (h *Handler) AddConsultant(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}
	var req model.ConsultantEntryRequest
	if !handler.Bind(c, &req) {
		return
	}

	e, err := h.service.AddConsultant(c.Request.Context(), handler.OrgID(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, e)
}

func (h *Handler) ListConsultants(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}

	entries, err := h.service.ListConsultants(c.Request.Context(), handler.OrgID(c), id, httputil.BoolQuery(c, "include_deleted"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, entries)
}

func (h *Handler) GetConsultant(c *gin.Context) {
	id, entryID, ok := ids(c, "entryId")
	if !ok {
		return
	}

	e, err := h.service.GetConsultant(c.Request.Context(), handler.OrgID(c), id, entryID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, e)
}

func (h *Handler) UpdateConsultant(c *gin.Context) {
	id, entryID, ok := ids(c, "entryId")
	if !ok {
		return
	}
	var req model.UpdateConsultantEntryRequest
	if !handler.Bind(c, &req) {
		return
	}

	e, err := h.service.UpdateConsultant(c.Request.Context(), handler.OrgID(c), id, entryID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, e)
}

func (h *Handler) DeleteConsultant(c *gin.Context) {
	id, entryID, ok := ids(c, "entryId")
	if !ok {
		return
	}

	if err := h.service.DeleteConsultant(c.Request.Context(), handler.OrgID(c), id, entryID); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "consultant entry deleted")
}

func (h *Handler) RestoreConsultant(c *gin.Context) {
	id, entryID, ok := ids(c, "entryId")
	if !ok {
		return
	}

	if err := h.service.RestoreConsultant(c.Request.Context(), handler.OrgID(c), id, entryID); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "consultant entry restored")
}

func (h *Handler) PurgeConsultant(c *gin.Context) {
	id, entryID, ok := ids(c, "entryId")
	if !ok {
		return
	}

	if err := h.service.PurgeConsultant(c.Request.Context(), handler.OrgID(c), id, entryID, handler.Confirmed(c)); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "consultant entry permanently deleted")
}

func (h *Handler) AddOperation(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}
	var req model.OperationRequest
	if !handler.Bind(c, &req) {
		return
	}

	o, err := h.service.AddOperation(c.Request.Context(), handler.OrgID(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, o)
}

func (h *Handler) ListOperations(c *gin.Context) {
	id, _, ok := ids(c, "")
	if !ok {
		return
	}

	ops, err := h.service.ListOperations(c.Request.Context(), handler.OrgID(c), id, httputil.BoolQuery(c, "include_deleted"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, ops)
}

func (h *Handler) GetOperation(c *gin.Context) {
	id, opID, ok := ids(c, "operationId")
	if !ok {
		return
	}

	o, err := h.service.GetOperation(c.Request.Context(), handler.OrgID(c), id, opID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, o)
}

func (h *Handler) UpdateOperation(c *gin.Context) {
	id, opID, ok := ids(c, "operationId")
	if !ok {
		return
	}
	var req model.UpdateOperationRequest
	if !handler.Bind(c, &req) {
		return
	}

	o, err := h.service.UpdateOperation(c.Request.Context(), handler.OrgID(c), id, opID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, o)
}

func (h *Handler) DeleteOperation(c *gin.Context) {
	id, opID, ok := ids(c, "operationId")
	if !ok {
		return
	}

	if err := h.service.DeleteOperation(c.Request.Context(), handler.OrgID(c), id, opID); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "operation deleted")
}

func (h *Handler) RestoreOperation(c *gin.Context) {
	id, opID, ok := ids(c, "operationId")
	if !ok {
		return
	}

	if err := h.service.RestoreOperation(c.Request.Context(), handler.OrgID(c), id, opID); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "operation restored")
}

func (h *Handler) PurgeOperation(c *gin.Context) {
	id, opID, ok := ids(c, "operationId")
	if !ok {
		return
	}

	if err := h.service.PurgeOperation(c.Request.Context(), handler.OrgID(c), id, opID, handler.Confirmed(c)); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "operation permanently deleted")
}
