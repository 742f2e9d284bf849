package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	appcatalog "github.com/assetflow/backend/internal/application/catalog"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/persistence"
	"github.com/assetflow/backend/internal/infrastructure/storage"
	"github.com/assetflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (e *testEnv) routeProducts() {
	h := NewProductHandler(e.products)
	g := e.engine.Group("/products")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/categories", h.Categories)
	g.GET("/calibration-due", h.CalibrationDue)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/restock", h.Restock)
	g.POST("/:id/adjust", h.Adjust)
	g.POST("/:id/calibration", h.RecordCalibration)
	g.GET("/:id/history", h.StockHistory)
}

func TestProductHandler_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.routeProducts()

	w := env.do(t, "alice", http.MethodPost, "/products", gin.H{"name": "Spectrum Analyzer", "category": "Instruments"})
	requireError(t, w, http.StatusForbidden, dto.ErrCodePermissionDenied)

	w = env.do(t, "monitor", http.MethodPost, "/products", gin.H{"category": "Instruments"})
	requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeValidation)

	w = env.do(t, "monitor", http.MethodPost, "/products", gin.H{
		"name":          "Spectrum Analyzer",
		"category":      "Instruments",
		"asset_type":    "instrument",
		"serial_number": "SA-0001",
		"unit_cost":     "2500.00",
		"quantity":      2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decodeData[appcatalog.ProductResponse](t, w)
	assert.Equal(t, 2, p.Quantity)
	assert.Equal(t, "5000", p.OnHandValue.String())

	w = env.do(t, "monitor", http.MethodPost, "/products", gin.H{"name": "Clone", "category": "Instruments", "serial_number": "SA-0001"})
	requireError(t, w, http.StatusConflict, shared.CodeAlreadyExists)

	w = env.do(t, "admin", http.MethodPut, idPath("/products", p.ID, ""), gin.H{
		"name":          "Spectrum Analyzer Pro",
		"category":      "Instruments",
		"serial_number": "SA-0001",
		"unit_cost":     "2600",
	})
	updated := decodeData[appcatalog.ProductResponse](t, w)
	assert.Equal(t, "Spectrum Analyzer Pro", updated.Name)
	assert.Equal(t, 2, updated.Quantity, "updates leave quantity alone")

	w = env.do(t, "alice", http.MethodGet, idPath("/products", p.ID, ""), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "alice", http.MethodGet, "/products/categories", nil)
	assert.Contains(t, decodeData[[]string](t, w), "Instruments")

	w = env.do(t, "monitor", http.MethodDelete, idPath("/products", p.ID, ""), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, "alice", http.MethodGet, idPath("/products", p.ID, ""), nil)
	requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = env.do(t, "monitor", http.MethodGet, idPath("/products", p.ID, ""), nil)
	assert.False(t, decodeData[appcatalog.ProductResponse](t, w).Active)
}

func TestProductHandler_DeleteWithOutstandingAssignments(t *testing.T) {
	env := newTestEnv(t)
	env.routeProducts()
	p := env.f.AddProduct(t, "Soldering Station", 2)
	env.f.AddAssignment(t, p, env.f.Bob, 1)

	w := env.do(t, "monitor", http.MethodDelete, idPath("/products", p.ID, ""), nil)
	requireError(t, w, http.StatusConflict, dto.ErrCodeInvalidState)
}

func TestProductHandler_Stock(t *testing.T) {
	env := newTestEnv(t)
	env.routeProducts()
	p := env.f.AddProduct(t, "Cable Tester", 1)

	w := env.do(t, "monitor", http.MethodPost, idPath("/products", p.ID, "/restock"), gin.H{"quantity": 4, "note": "delivery"})
	assert.Equal(t, 5, decodeData[appcatalog.ProductResponse](t, w).Quantity)

	w = env.do(t, "monitor", http.MethodPost, idPath("/products", p.ID, "/restock"), gin.H{"quantity": 0})
	requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeValidation)

	w = env.do(t, "monitor", http.MethodPost, idPath("/products", p.ID, "/adjust"), gin.H{"delta": -2, "note": "broken"})
	assert.Equal(t, 3, decodeData[appcatalog.ProductResponse](t, w).Quantity)

	w = env.do(t, "monitor", http.MethodPost, idPath("/products", p.ID, "/adjust"), gin.H{"delta": -10})
	requireError(t, w, http.StatusConflict, dto.ErrCodeInsufficientStock)
	assert.Equal(t, 3, env.f.Quantity(t, p.ID))

	w = env.do(t, "alice", http.MethodPost, idPath("/products", p.ID, "/restock"), gin.H{"quantity": 1})
	requireError(t, w, http.StatusForbidden, dto.ErrCodePermissionDenied)

	w = env.do(t, "monitor", http.MethodGet, idPath("/products", p.ID, "/history"), nil)
	history := decodeData[[]appcatalog.StockHistoryResponse](t, w)
	require.Len(t, history, 2)
	assert.Equal(t, -2, history[0].QuantityDelta)
	assert.Equal(t, 3, history[0].QuantityAfter)

	w = env.do(t, "monitor", http.MethodGet, idPath("/products", uuid.New(), "/history"), nil)
	requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestProductHandler_Calibration(t *testing.T) {
	env := newTestEnv(t)
	env.routeProducts()

	w := env.do(t, "monitor", http.MethodPost, "/products", gin.H{
		"name":                       "Torque Wrench",
		"category":                   "Tools",
		"asset_type":                 "tool",
		"calibration_required":       true,
		"calibration_frequency_days": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decodeData[appcatalog.ProductResponse](t, w)

	w = env.do(t, "monitor", http.MethodPost, idPath("/products", p.ID, "/calibration"), nil)
	calibrated := decodeData[appcatalog.ProductResponse](t, w)
	require.NotNil(t, calibrated.CalibrationDueDate)

	w = env.do(t, "monitor", http.MethodGet, "/products/calibration-due?days=30", nil)
	due := decodeData[[]appcatalog.ProductResponse](t, w)
	require.Len(t, due, 1)
	assert.Equal(t, p.ID, due[0].ID)

	w = env.do(t, "monitor", http.MethodGet, "/products/calibration-due?days=-1", nil)
	requireError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)

	w = env.do(t, "monitor", http.MethodGet, "/products/calibration-due?days=soon", nil)
	requireError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
}

func TestProductHandler_List(t *testing.T) {
	env := newTestEnv(t)
	env.routeProducts()
	env.f.AddProduct(t, "Alpha Meter", 1)
	env.f.AddProduct(t, "Beta Meter", 0)
	env.f.AddProduct(t, "Gamma Probe", 3)

	w := env.do(t, "alice", http.MethodGet, "/products?search=meter", nil)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Meta)
	assert.EqualValues(t, 2, resp.Meta.Total)

	w = env.do(t, "alice", http.MethodGet, "/products?in_stock=true", nil)
	items := decodeData[[]appcatalog.ProductResponse](t, w)
	require.Len(t, items, 2)
	assert.Equal(t, "Alpha Meter", items[0].Name)

	w = env.do(t, "alice", http.MethodGet, "/products?asset_type=spaceship", nil)
	requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeValidation)
}

func newAttachmentRoutes(t *testing.T, env *testEnv, maxUpload int64) *storage.MemoryObjectStorage {
	t.Helper()

	store := storage.NewMemoryObjectStorage()
	svc := appcatalog.NewAttachmentService(
		persistence.NewGormProductRepository(env.f.DB),
		persistence.NewGormProductAttachmentRepository(env.f.DB),
		store,
		appcatalog.DefaultAttachmentServiceConfig(),
		zap.NewNop(),
	)
	h := NewAttachmentHandler(svc, maxUpload)
	g := env.engine.Group("/products/:id/attachments")
	g.POST("", h.Upload)
	g.GET("", h.List)
	g.GET("/:attachment_id/url", h.DownloadURL)
	g.DELETE("/:attachment_id", h.Delete)
	return store
}

func (e *testEnv) upload(t *testing.T, as string, productID uuid.UUID, field, name, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, idPath("/products", productID, "/attachments"), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(actorHeader, as)
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestAttachmentHandler(t *testing.T) {
	env := newTestEnv(t)
	store := newAttachmentRoutes(t, env, 64)
	p := env.f.AddProduct(t, "Centrifuge", 1)
	manual := []byte("%PDF-1.4 user manual")

	w := env.upload(t, "alice", p.ID, "file", "manual.pdf", "application/pdf", manual)
	requireError(t, w, http.StatusForbidden, dto.ErrCodePermissionDenied)

	w = env.upload(t, "monitor", p.ID, "document", "manual.pdf", "application/pdf", manual)
	requireError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)

	w = env.upload(t, "monitor", p.ID, "file", "huge.bin", "", bytes.Repeat([]byte("x"), 65))
	requireError(t, w, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge)

	w = env.upload(t, "monitor", uuid.New(), "file", "manual.pdf", "application/pdf", manual)
	requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = env.upload(t, "monitor", p.ID, "file", "manual.pdf", "application/pdf", manual)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	att := decodeData[appcatalog.AttachmentResponse](t, w)
	assert.Equal(t, "manual.pdf", att.FileName)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.EqualValues(t, len(manual), att.FileSize)

	w = env.do(t, "alice", http.MethodGet, idPath("/products", p.ID, "/attachments"), nil)
	listed := decodeData[[]appcatalog.AttachmentResponse](t, w)
	require.Len(t, listed, 1)

	w = env.do(t, "alice", http.MethodGet, idPath("/products", p.ID, "/attachments/"+att.ID.String()+"/url"), nil)
	link := decodeData[appcatalog.DownloadURLResponse](t, w)
	assert.True(t, strings.HasPrefix(link.URL, store.BaseURL), link.URL)
	assert.Equal(t, "manual.pdf", link.FileName)

	w = env.do(t, "alice", http.MethodGet, idPath("/products", uuid.New(), "/attachments/"+att.ID.String()+"/url"), nil)
	requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = env.do(t, "monitor", http.MethodDelete, idPath("/products", p.ID, "/attachments/"+att.ID.String()), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, "alice", http.MethodGet, idPath("/products", p.ID, "/attachments"), nil)
	assert.Empty(t, decodeData[[]appcatalog.AttachmentResponse](t, w))
}

func TestNewAttachmentHandler_DefaultLimit(t *testing.T) {
	h := NewAttachmentHandler(nil, 0)
	assert.EqualValues(t, DefaultMaxUploadSize, h.maxUploadSize)
}
