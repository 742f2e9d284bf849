package catalog

import (
	"io"
	"time"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInput holds the editable product fields
type ProductInput struct {
	Name                     string          `json:"name" binding:"required,max=200"`
	Category                 string          `json:"category" binding:"required,max=100"`
	AssetType                string          `json:"asset_type" binding:"omitempty,oneof=equipment instrument consumable tool other"`
	SerialNumber             string          `json:"serial_number" binding:"max=100"`
	ModelNumber              string          `json:"model_number" binding:"max=100"`
	Description              string          `json:"description" binding:"max=2000"`
	UnitCost                 decimal.Decimal `json:"unit_cost"`
	CalibrationRequired      bool            `json:"calibration_required"`
	CalibrationFrequencyDays int             `json:"calibration_frequency_days" binding:"min=0"`
	CalibrationDueDate       *time.Time      `json:"calibration_due_date"`
}

func (in ProductInput) details() catalog.ProductDetails {
	return catalog.ProductDetails{
		Name:         in.Name,
		Category:     in.Category,
		AssetType:    catalog.AssetType(in.AssetType),
		SerialNumber: in.SerialNumber,
		ModelNumber:  in.ModelNumber,
		Description:  in.Description,
		UnitCost:     in.UnitCost,
		Calibration: catalog.Calibration{
			Required:      in.CalibrationRequired,
			FrequencyDays: in.CalibrationFrequencyDays,
			DueDate:       in.CalibrationDueDate,
		},
	}
}

// CreateProductInput is the payload for adding a product
type CreateProductInput struct {
	ProductInput
	Quantity int `json:"quantity" binding:"min=0,max=1000000"`
}

// RestockInput adds units to a product
type RestockInput struct {
	Quantity int    `json:"quantity" binding:"required,min=1,max=1000000"`
	Note     string `json:"note" binding:"max=500"`
}

// AdjustInput corrects a product's quantity by a signed amount
type AdjustInput struct {
	Delta int    `json:"delta" binding:"required"`
	Note  string `json:"note" binding:"max=500"`
}

// CalibrationInput records a calibration performed at a point in time
type CalibrationInput struct {
	PerformedAt *time.Time `json:"performed_at"`
}

// ProductListFilter narrows catalog listings
type ProductListFilter struct {
	Search          string `form:"search"`
	Category        string `form:"category"`
	AssetType       string `form:"asset_type" binding:"omitempty,oneof=equipment instrument consumable tool other"`
	IncludeInactive bool   `form:"include_inactive"`
	InStockOnly     bool   `form:"in_stock"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string `form:"order_by"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// HistoryListFilter pages through a product's stock ledger
type HistoryListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProductResponse is a product in API responses
type ProductResponse struct {
	ID                       uuid.UUID       `json:"id"`
	Name                     string          `json:"name"`
	Category                 string          `json:"category"`
	AssetType                string          `json:"asset_type"`
	SerialNumber             string          `json:"serial_number,omitempty"`
	ModelNumber              string          `json:"model_number,omitempty"`
	Description              string          `json:"description,omitempty"`
	UnitCost                 decimal.Decimal `json:"unit_cost"`
	Quantity                 int             `json:"quantity"`
	OnHandValue              decimal.Decimal `json:"on_hand_value"`
	CalibrationRequired      bool            `json:"calibration_required"`
	CalibrationFrequencyDays int             `json:"calibration_frequency_days,omitempty"`
	CalibrationDueDate       *time.Time      `json:"calibration_due_date,omitempty"`
	Active                   bool            `json:"active"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
	Version                  int             `json:"version"`
}

// ToProductResponse converts a domain product to its response form
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                       p.ID,
		Name:                     p.Name,
		Category:                 p.Category,
		AssetType:                string(p.AssetType),
		SerialNumber:             p.SerialNumber,
		ModelNumber:              p.ModelNumber,
		Description:              p.Description,
		UnitCost:                 p.UnitCost,
		Quantity:                 p.Quantity,
		OnHandValue:              p.OnHandValue(),
		CalibrationRequired:      p.Calibration.Required,
		CalibrationFrequencyDays: p.Calibration.FrequencyDays,
		CalibrationDueDate:       p.Calibration.DueDate,
		Active:                   p.Active,
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
		Version:                  p.Version,
	}
}

// StockHistoryResponse is one ledger line
type StockHistoryResponse struct {
	ID            uuid.UUID  `json:"id"`
	ProductID     uuid.UUID  `json:"product_id"`
	Action        string     `json:"action"`
	QuantityDelta int        `json:"quantity_delta"`
	QuantityAfter int        `json:"quantity_after"`
	ActorID       uuid.UUID  `json:"actor_id"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty"`
	Note          string     `json:"note,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToStockHistoryResponse converts a ledger line to its response form
func ToStockHistoryResponse(h *catalog.StockHistory) StockHistoryResponse {
	return StockHistoryResponse{
		ID:            h.ID,
		ProductID:     h.ProductID,
		Action:        string(h.Action),
		QuantityDelta: h.QuantityDelta,
		QuantityAfter: h.QuantityAfter,
		ActorID:       h.ActorID,
		ReferenceID:   h.ReferenceID,
		Note:          h.Note,
		CreatedAt:     h.CreatedAt,
	}
}

// UploadInput carries one uploaded file
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachmentResponse is attachment metadata in API responses
type AttachmentResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToAttachmentResponse converts a domain attachment to its response form
func ToAttachmentResponse(a *catalog.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		ProductID:   a.ProductID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		FileSize:    a.FileSize,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt,
	}
}

// DownloadURLResponse is a presigned download link
type DownloadURLResponse struct {
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	ExpiresAt time.Time `json:"expires_at"`
}
