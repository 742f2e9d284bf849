package catalog

import (
	"context"
	"io"
	"time"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorage is the blob store behind product attachments.
// Implemented by the infrastructure layer (S3 or the in-memory stub).
type ObjectStorage interface {
	// PutObject uploads size bytes read from body under key
	PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) error

	// GenerateDownloadURL returns a presigned GET URL and its expiry
	GenerateDownloadURL(ctx context.Context, key, fileName string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject removes an object. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, key string) error
}

// AttachmentServiceConfig holds configuration for the attachment service
type AttachmentServiceConfig struct {
	DownloadURLExpiry        time.Duration
	MaxAttachmentsPerProduct int
}

// DefaultAttachmentServiceConfig returns the default configuration
func DefaultAttachmentServiceConfig() AttachmentServiceConfig {
	return AttachmentServiceConfig{
		DownloadURLExpiry:        15 * time.Minute,
		MaxAttachmentsPerProduct: 50,
	}
}

// AttachmentService stores documents against products. It is independent of
// the request and assignment workflow.
type AttachmentService struct {
	products    catalog.ProductRepository
	attachments catalog.AttachmentRepository
	storage     ObjectStorage
	config      AttachmentServiceConfig
	logger      *zap.Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(
	products catalog.ProductRepository,
	attachments catalog.AttachmentRepository,
	storage ObjectStorage,
	config AttachmentServiceConfig,
	logger *zap.Logger,
) *AttachmentService {
	defaults := DefaultAttachmentServiceConfig()
	if config.DownloadURLExpiry <= 0 {
		config.DownloadURLExpiry = defaults.DownloadURLExpiry
	}
	if config.MaxAttachmentsPerProduct <= 0 {
		config.MaxAttachmentsPerProduct = defaults.MaxAttachmentsPerProduct
	}
	return &AttachmentService{
		products:    products,
		attachments: attachments,
		storage:     storage,
		config:      config,
		logger:      logger,
	}
}

// Upload streams a file to object storage and records its metadata.
// If the metadata write fails the stored object is removed again.
func (s *AttachmentService) Upload(ctx context.Context, actor shared.Actor, productID uuid.UUID, input UploadInput) (*AttachmentResponse, error) {
	if err := requireCatalogWriter(actor); err != nil {
		return nil, err
	}
	if input.Body == nil {
		return nil, shared.NewValidationError("file is empty")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, shared.NewInvalidStateError("product has been removed from the catalog")
	}

	existing, err := s.attachments.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= s.config.MaxAttachmentsPerProduct {
		return nil, shared.NewValidationError("product already has the maximum of %d attachments", s.config.MaxAttachmentsPerProduct)
	}

	attachment, err := catalog.NewAttachment(productID, input.FileName, input.ContentType, input.Size, actor.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.storage.PutObject(ctx, attachment.StorageKey, attachment.ContentType, input.Body, attachment.FileSize); err != nil {
		return nil, err
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		if delErr := s.storage.DeleteObject(ctx, attachment.StorageKey); delErr != nil {
			s.logger.Warn("Failed to remove orphaned object",
				zap.String("storage_key", attachment.StorageKey),
				zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("Attachment uploaded",
		zap.String("attachment_id", attachment.ID.String()),
		zap.String("product_id", productID.String()),
		zap.Int64("size", attachment.FileSize))
	resp := ToAttachmentResponse(attachment)
	return &resp, nil
}

// List returns a product's attachments, oldest first
func (s *AttachmentService) List(ctx context.Context, productID uuid.UUID) ([]AttachmentResponse, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	attachments, err := s.attachments.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		out[i] = ToAttachmentResponse(&attachments[i])
	}
	return out, nil
}

// DownloadURL returns a short-lived presigned link to an attachment
func (s *AttachmentService) DownloadURL(ctx context.Context, productID, attachmentID uuid.UUID) (*DownloadURLResponse, error) {
	attachment, err := s.find(ctx, productID, attachmentID)
	if err != nil {
		return nil, err
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, attachment.StorageKey, attachment.FileName, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, err
	}
	return &DownloadURLResponse{URL: url, FileName: attachment.FileName, ExpiresAt: expiresAt}, nil
}

// Delete removes an attachment's metadata and then its object. A storage
// failure after the row is gone is logged, not returned.
func (s *AttachmentService) Delete(ctx context.Context, actor shared.Actor, productID, attachmentID uuid.UUID) error {
	if err := requireCatalogWriter(actor); err != nil {
		return err
	}
	attachment, err := s.find(ctx, productID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.attachments.Delete(ctx, attachment.ID); err != nil {
		return err
	}
	if err := s.storage.DeleteObject(ctx, attachment.StorageKey); err != nil {
		s.logger.Warn("Failed to delete attachment object",
			zap.String("storage_key", attachment.StorageKey),
			zap.Error(err))
	}
	return nil
}

func (s *AttachmentService) find(ctx context.Context, productID, attachmentID uuid.UUID) (*catalog.Attachment, error) {
	attachment, err := s.attachments.FindByID(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if attachment.ProductID != productID {
		return nil, shared.NewNotFoundError("attachment")
	}
	return attachment, nil
}
