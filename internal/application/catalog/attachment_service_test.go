package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ============================================================================
// Mocks
// ============================================================================

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	args := m.Called(ctx, id, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) FindCalibrationDue(ctx context.Context, before time.Time) ([]catalog.Product, error) {
	args := m.Called(ctx, before)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) ExistsBySerialNumber(ctx context.Context, serial string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, serial, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type MockAttachmentRepository struct {
	mock.Mock
}

func (m *MockAttachmentRepository) Create(ctx context.Context, a *catalog.Attachment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Attachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Attachment, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	return m.Called(ctx, key, contentType, body, size).Error(0)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, key, fileName string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, fileName, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// ============================================================================
// Helpers
// ============================================================================

type attachmentHarness struct {
	svc         *AttachmentService
	products    *MockProductRepository
	attachments *MockAttachmentRepository
	storage     *MockObjectStorage
	product     *catalog.Product
	monitor     shared.Actor
}

func newAttachmentHarness(t *testing.T, cfg AttachmentServiceConfig) *attachmentHarness {
	t.Helper()

	p, err := catalog.NewProduct(catalog.ProductDetails{
		Name:     "Spectrum Analyzer",
		Category: "Instruments",
		UnitCost: decimal.NewFromInt(8000),
	}, 1, uuid.New())
	require.NoError(t, err)

	h := &attachmentHarness{
		products:    new(MockProductRepository),
		attachments: new(MockAttachmentRepository),
		storage:     new(MockObjectStorage),
		product:     p,
		monitor:     shared.Actor{UserID: uuid.New(), Role: shared.RoleMonitor},
	}
	h.svc = NewAttachmentService(h.products, h.attachments, h.storage, cfg, zap.NewNop())
	return h
}

func pdfUpload() UploadInput {
	body := []byte("%PDF-1.7 calibration certificate")
	return UploadInput{
		FileName:    "certificate.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	}
}

// ============================================================================
// Tests
// ============================================================================

func TestAttachmentService_Upload_Success(t *testing.T) {
	h := newAttachmentHarness(t, AttachmentServiceConfig{})
	ctx := context.Background()

	h.products.On("FindByID", ctx, h.product.ID).Return(h.product, nil)
	h.attachments.On("FindByProduct", ctx, h.product.ID).Return([]catalog.Attachment{}, nil)
	h.storage.On("PutObject", ctx, mock.MatchedBy(func(key string) bool {
		return len(key) > 0 && key[len(key)-4:] == ".pdf"
	}), "application/pdf", mock.Anything, int64(32)).Return(nil)
	h.attachments.On("Create", ctx, mock.AnythingOfType("*catalog.Attachment")).Return(nil)

	resp, err := h.svc.Upload(ctx, h.monitor, h.product.ID, pdfUpload())
	require.NoError(t, err)
	assert.Equal(t, "certificate.pdf", resp.FileName)
	assert.Equal(t, h.monitor.UserID, resp.UploadedBy)
	h.storage.AssertExpectations(t)
	h.attachments.AssertExpectations(t)
}

func TestAttachmentService_Upload_Rejected(t *testing.T) {
	ctx := context.Background()

	t.Run("employee", func(t *testing.T) {
		h := newAttachmentHarness(t, AttachmentServiceConfig{})
		_, err := h.svc.Upload(ctx, shared.Actor{UserID: uuid.New(), Role: shared.RoleEmployee}, h.product.ID, pdfUpload())
		assert.ErrorIs(t, err, shared.ErrPermission)
		h.storage.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("disallowed content type", func(t *testing.T) {
		h := newAttachmentHarness(t, AttachmentServiceConfig{})
		h.products.On("FindByID", ctx, h.product.ID).Return(h.product, nil)
		h.attachments.On("FindByProduct", ctx, h.product.ID).Return([]catalog.Attachment{}, nil)

		in := pdfUpload()
		in.FileName = "run.sh"
		in.ContentType = "application/x-sh"
		_, err := h.svc.Upload(ctx, h.monitor, h.product.ID, in)
		assert.ErrorIs(t, err, shared.ErrValidation)
		h.storage.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("limit reached", func(t *testing.T) {
		h := newAttachmentHarness(t, AttachmentServiceConfig{MaxAttachmentsPerProduct: 1})
		h.products.On("FindByID", ctx, h.product.ID).Return(h.product, nil)
		h.attachments.On("FindByProduct", ctx, h.product.ID).Return([]catalog.Attachment{{ProductID: h.product.ID}}, nil)

		_, err := h.svc.Upload(ctx, h.monitor, h.product.ID, pdfUpload())
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown product", func(t *testing.T) {
		h := newAttachmentHarness(t, AttachmentServiceConfig{})
		missing := uuid.New()
		h.products.On("FindByID", ctx, missing).Return(nil, shared.NewNotFoundError("product"))

		_, err := h.svc.Upload(ctx, h.monitor, missing, pdfUpload())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestAttachmentService_Upload_MetadataFailureRemovesObject(t *testing.T) {
	h := newAttachmentHarness(t, AttachmentServiceConfig{})
	ctx := context.Background()
	dbErr := errors.New("connection reset")

	var storedKey string
	h.products.On("FindByID", ctx, h.product.ID).Return(h.product, nil)
	h.attachments.On("FindByProduct", ctx, h.product.ID).Return([]catalog.Attachment{}, nil)
	h.storage.On("PutObject", ctx, mock.Anything, "application/pdf", mock.Anything, int64(32)).
		Run(func(args mock.Arguments) { storedKey = args.String(1) }).
		Return(nil)
	h.attachments.On("Create", ctx, mock.Anything).Return(dbErr)
	h.storage.On("DeleteObject", ctx, mock.Anything).Return(nil)

	_, err := h.svc.Upload(ctx, h.monitor, h.product.ID, pdfUpload())
	assert.ErrorIs(t, err, dbErr)
	h.storage.AssertCalled(t, "DeleteObject", ctx, storedKey)
}

func TestAttachmentService_DownloadURL(t *testing.T) {
	h := newAttachmentHarness(t, AttachmentServiceConfig{DownloadURLExpiry: 5 * time.Minute})
	ctx := context.Background()

	a, err := catalog.NewAttachment(h.product.ID, "manual.pdf", "application/pdf", 100, h.monitor.UserID)
	require.NoError(t, err)
	expires := time.Now().Add(5 * time.Minute)

	h.attachments.On("FindByID", ctx, a.ID).Return(a, nil)
	h.storage.On("GenerateDownloadURL", ctx, a.StorageKey, "manual.pdf", 5*time.Minute).
		Return("https://objects.example/manual.pdf?sig=abc", expires, nil)

	resp, err := h.svc.DownloadURL(ctx, h.product.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://objects.example/manual.pdf?sig=abc", resp.URL)
	assert.Equal(t, expires, resp.ExpiresAt)

	_, err = h.svc.DownloadURL(ctx, uuid.New(), a.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAttachmentService_Delete(t *testing.T) {
	h := newAttachmentHarness(t, AttachmentServiceConfig{})
	ctx := context.Background()

	a, err := catalog.NewAttachment(h.product.ID, "photo.png", "image/png", 2048, h.monitor.UserID)
	require.NoError(t, err)

	h.attachments.On("FindByID", ctx, a.ID).Return(a, nil)
	h.attachments.On("Delete", ctx, a.ID).Return(nil)
	h.storage.On("DeleteObject", ctx, a.StorageKey).Return(errors.New("bucket unavailable"))

	require.NoError(t, h.svc.Delete(ctx, h.monitor, h.product.ID, a.ID))
	h.attachments.AssertExpectations(t)
	h.storage.AssertExpectations(t)
}
