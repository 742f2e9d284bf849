package handler

import (
	"fmt"
	"net/http"

	appcatalog "github.com/assetflow/backend/internal/application/catalog"
	"github.com/assetflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadSize caps attachment uploads when no limit is configured
const DefaultMaxUploadSize int64 = 10 << 20

// AttachmentHandler handles documents stored against products
type AttachmentHandler struct {
	BaseHandler
	attachmentService *appcatalog.AttachmentService
	maxUploadSize     int64
}

// NewAttachmentHandler creates a new AttachmentHandler. maxUploadSize <= 0
// selects DefaultMaxUploadSize.
func NewAttachmentHandler(attachmentService *appcatalog.AttachmentService, maxUploadSize int64) *AttachmentHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &AttachmentHandler{
		attachmentService: attachmentService,
		maxUploadSize:     maxUploadSize,
	}
}

// Upload stores the multipart "file" field against a product.
// POST /products/:id/attachments
func (h *AttachmentHandler) Upload(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	// multipart overhead on top of the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+(1<<20))

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
			fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxUploadSize))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.attachmentService.Upload(c.Request.Context(), actor, productID, appcatalog.UploadInput{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, attachment)
}

// List returns a product's attachments.
// GET /products/:id/attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	attachments, err := h.attachmentService.List(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, attachments)
}

// DownloadURL returns a short-lived link to the stored file.
// GET /products/:id/attachments/:attachment_id/url
func (h *AttachmentHandler) DownloadURL(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := h.ParamID(c, "attachment_id")
	if !ok {
		return
	}

	link, err := h.attachmentService.DownloadURL(c.Request.Context(), productID, attachmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, link)
}

// Delete removes an attachment and its stored file.
// DELETE /products/:id/attachments/:attachment_id
func (h *AttachmentHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := h.ParamID(c, "attachment_id")
	if !ok {
		return
	}

	if err := h.attachmentService.Delete(c.Request.Context(), actor, productID, attachmentID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
