// Package bill serves the ambulance, pathology and radiology bill endpoints.
// One Handler is mounted per bill kind.
package bill

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/bill"
)

type Handler struct {
	service *bill.Service
	kind    model.BillKind
}

func NewHandler(service *bill.Service, kind model.BillKind) *Handler {
	return &Handler{service: service, kind: kind}
}

// RegisterRoutes mounts the bill routes under path, e.g. /pathology/bills.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, path string) {
	bills := r.Group(path)
	{
		bills.POST("", h.Create)
		bills.GET("", h.List)
		bills.GET("/:id", h.Get)
		bills.PUT("/:id", h.Update)
		bills.DELETE("/:id", h.Delete)
		bills.GET("/:id/receipt", h.Receipt)

		bills.POST("/:id/payments", h.RecordPayment)
		bills.GET("/:id/payments", h.ListPayments)
		bills.PUT("/:id/payments/:paymentId", h.EditPayment)
		bills.DELETE("/:id/payments/:paymentId", h.DeletePayment)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateBillRequest
	if !handler.Bind(c, &req) {
		return
	}

	d, err := h.service.Create(c.Request.Context(), handler.OrgID(c), h.kind, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, d)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	d, err := h.service.Get(c.Request.Context(), handler.OrgID(c), h.kind, id, bill.Open)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, d)
}

func (h *Handler) List(c *gin.Context) {
	var filter model.BillFilter
	if !handler.BindQuery(c, &filter) {
		return
	}
	filter.ListFilter = handler.ListFilter(c)

	bills, total, err := h.service.List(c.Request.Context(), handler.OrgID(c), h.kind, filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Page(c, bills, filter.ListFilter, total)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateBillRequest
	if !handler.Bind(c, &req) {
		return
	}

	d, err := h.service.Update(c.Request.Context(), handler.OrgID(c), h.kind, id, &req, bill.Open)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, d)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), handler.OrgID(c), h.kind, id, bill.Open); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "bill deleted")
}

func (h *Handler) Receipt(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	r, err := h.service.Receipt(c.Request.Context(), handler.OrgID(c), h.kind, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, r)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.RecordPaymentRequest
	if !handler.Bind(c, &req) {
		return
	}

	res, err := h.service.RecordPayment(c.Request.Context(), handler.OrgID(c), h.kind, id, &req, bill.Open)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, res)
}

func (h *Handler) ListPayments(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), handler.OrgID(c), h.kind, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, payments)
}

func (h *Handler) DeletePayment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	paymentID, ok := handler.ParseID(c, "paymentId")
	if !ok {
		return
	}

	res, err := h.service.DeletePayment(c.Request.Context(), handler.OrgID(c), h.kind, id, paymentID, bill.Open)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, res)
}

func (h *Handler) EditPayment(c *gin.Context) {
	handler.Error(c, h.service.EditPayment())
}
