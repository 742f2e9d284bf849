package catalog

import (
	"path/filepath"
	"strings"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxAttachmentFileSize is the largest accepted upload (25MB)
const MaxAttachmentFileSize = 25 << 20

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"text/plain":      true,
	"text/csv":        true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Attachment is a document stored alongside a product (manual, certificate, photo)
type Attachment struct {
	shared.BaseEntity
	ProductID   uuid.UUID
	FileName    string
	ContentType string
	FileSize    int64
	StorageKey  string
	UploadedBy  uuid.UUID
}

// NewAttachment validates upload metadata and derives the storage key
func NewAttachment(productID uuid.UUID, fileName, contentType string, size int64, uploadedBy uuid.UUID) (*Attachment, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, shared.NewValidationError("file name cannot be empty")
	}
	if len(fileName) > 255 {
		return nil, shared.NewValidationError("file name cannot exceed 255 characters")
	}
	if size <= 0 {
		return nil, shared.NewValidationError("file is empty")
	}
	if size > MaxAttachmentFileSize {
		return nil, shared.NewValidationError("file exceeds the %d MB limit", MaxAttachmentFileSize>>20)
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedContentTypes[contentType] {
		return nil, shared.NewValidationError("content type %q is not allowed", contentType)
	}

	a := &Attachment{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		FileName:    fileName,
		ContentType: contentType,
		FileSize:    size,
		UploadedBy:  uploadedBy,
	}
	a.StorageKey = "products/" + productID.String() + "/" + a.ID.String() + strings.ToLower(filepath.Ext(fileName))
	return a, nil
}
