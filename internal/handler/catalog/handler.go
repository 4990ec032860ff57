package catalog

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/catalog"
)

type Handler struct {
	service *catalog.Service
}

func NewHandler(service *catalog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cat := r.Group("/catalog")
	{
		cat.GET("/tax-categories", h.ListTaxCategories)
		cat.POST("/tax-categories", h.CreateTaxCategory)

		cat.POST("/charges", h.CreateCharge)
		cat.GET("/charges", h.ListCharges)
		cat.GET("/charges/:id", h.GetCharge)
		cat.PUT("/charges/:id", h.UpdateCharge)
		cat.DELETE("/charges/:id", h.DeleteCharge)

		// charge_categories, charge_types, units
		cat.GET("/items/:kind", h.ListItems)
		cat.POST("/items/:kind", h.CreateItem)
	}
}

func (h *Handler) CreateItem(c *gin.Context) {
	var req model.CatalogItemRequest
	if !handler.Bind(c, &req) {
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), handler.OrgID(c), model.CatalogKind(c.Param("kind")), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, item)
}

func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.service.ListItems(c.Request.Context(), handler.OrgID(c), model.CatalogKind(c.Param("kind")))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, items)
}

func (h *Handler) CreateTaxCategory(c *gin.Context) {
	var req model.TaxCategoryRequest
	if !handler.Bind(c, &req) {
		return
	}

	tax, err := h.service.CreateTaxCategory(c.Request.Context(), handler.OrgID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, tax)
}

func (h *Handler) ListTaxCategories(c *gin.Context) {
	taxes, err := h.service.ListTaxCategories(c.Request.Context(), handler.OrgID(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, taxes)
}

func (h *Handler) CreateCharge(c *gin.Context) {
	var req model.ChargeRequest
	if !handler.Bind(c, &req) {
		return
	}

	charge, err := h.service.CreateCharge(c.Request.Context(), handler.OrgID(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Created(c, charge)
}

func (h *Handler) GetCharge(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	charge, err := h.service.GetCharge(c.Request.Context(), handler.OrgID(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, charge)
}

func (h *Handler) UpdateCharge(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.ChargeRequest
	if !handler.Bind(c, &req) {
		return
	}

	charge, err := h.service.UpdateCharge(c.Request.Context(), handler.OrgID(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.OK(c, charge)
}

func (h *Handler) DeleteCharge(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCharge(c.Request.Context(), handler.OrgID(c), id); err != nil {
		handler.Error(c, err)
		return
	}
	handler.Message(c, "charge deleted")
}

func (h *Handler) ListCharges(c *gin.Context) {
	filter := handler.ListFilter(c)
	charges, total, err := h.service.ListCharges(c.Request.Context(), handler.OrgID(c), filter)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Page(c, charges, filter, total)
}
