package handler

import (
	appcatalog "github.com/assetflow/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// defaultCalibrationWindowDays is how far ahead the calibration due list looks
const defaultCalibrationWindowDays = 30

// ProductHandler handles the product catalog and its stock ledger
type ProductHandler struct {
	BaseHandler
	productService *appcatalog.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *appcatalog.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// Create adds a product with its opening quantity.
// POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req appcatalog.CreateProductInput
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// List returns catalog entries.
// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var filter appcatalog.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.productService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}

// GetByID returns one product.
// GET /products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Update replaces the editable fields of a product. Quantity is changed
// through Restock and Adjust only.
// PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req appcatalog.ProductInput
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Delete retires a product that nobody holds.
// DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Categories returns the distinct product categories.
// GET /products/categories
func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, categories)
}

// Restock adds units to a product.
// POST /products/:id/restock
func (h *ProductHandler) Restock(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req appcatalog.RestockInput
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.Restock(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Adjust corrects the on-hand quantity by a signed amount.
// POST /products/:id/adjust
func (h *ProductHandler) Adjust(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req appcatalog.AdjustInput
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.Adjust(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// RecordCalibration stamps a calibration and rolls the due date forward.
// POST /products/:id/calibration
func (h *ProductHandler) RecordCalibration(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req appcatalog.CalibrationInput
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.RecordCalibration(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// CalibrationDue lists products whose calibration falls due within ?days=.
// GET /products/calibration-due
func (h *ProductHandler) CalibrationDue(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	days, err := queryInt(c, "days", defaultCalibrationWindowDays)
	if err != nil || days < 0 {
		h.BadRequest(c, "days must be a non-negative integer")
		return
	}

	products, err := h.productService.CalibrationDue(c.Request.Context(), actor, days)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, products)
}

// StockHistory pages through a product's stock ledger.
// GET /products/:id/history
func (h *ProductHandler) StockHistory(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var filter appcatalog.HistoryListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.productService.StockHistory(c.Request.Context(), actor, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Page(&h.BaseHandler, c, page)
}
