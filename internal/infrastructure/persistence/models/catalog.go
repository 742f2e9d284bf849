package models

import (
	"time"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for catalog.Product
type ProductModel struct {
	AggregateModel
	Name                 string          `gorm:"type:varchar(200);not null;index"`
	Category             string          `gorm:"type:varchar(100);not null;index"`
	AssetType            string          `gorm:"type:varchar(20);not null;default:'equipment'"`
	SerialNumber         string          `gorm:"type:varchar(100);index"`
	ModelNumber          string          `gorm:"type:varchar(100)"`
	Description          string          `gorm:"type:text"`
	UnitCost             decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Quantity             int             `gorm:"not null;default:0;check:quantity >= 0"`
	Active               bool            `gorm:"not null;default:true;index"`
	CalibrationRequired  bool            `gorm:"not null;default:false"`
	CalibrationFrequency int             `gorm:"not null;default:0"`
	CalibrationDueDate   *time.Time
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ProductDetails: catalog.ProductDetails{
			Name:         m.Name,
			Category:     m.Category,
			AssetType:    catalog.AssetType(m.AssetType),
			SerialNumber: m.SerialNumber,
			ModelNumber:  m.ModelNumber,
			Description:  m.Description,
			UnitCost:     m.UnitCost,
			Calibration: catalog.Calibration{
				Required:      m.CalibrationRequired,
				FrequencyDays: m.CalibrationFrequency,
				DueDate:       m.CalibrationDueDate,
			},
		},
		Quantity: m.Quantity,
		Active:   m.Active,
	}
}

// ProductModelFromDomain creates a new model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Name:                 p.Name,
		Category:             p.Category,
		AssetType:            string(p.AssetType),
		SerialNumber:         p.SerialNumber,
		ModelNumber:          p.ModelNumber,
		Description:          p.Description,
		UnitCost:             p.UnitCost,
		Quantity:             p.Quantity,
		Active:               p.Active,
		CalibrationRequired:  p.Calibration.Required,
		CalibrationFrequency: p.Calibration.FrequencyDays,
		CalibrationDueDate:   p.Calibration.DueDate,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// StockHistoryModel is one append-only ledger line
type StockHistoryModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Action        string     `gorm:"type:varchar(20);not null"`
	QuantityDelta int        `gorm:"not null"`
	QuantityAfter int        `gorm:"not null"`
	ActorID       uuid.UUID  `gorm:"type:uuid;not null"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid"`
	Note          string     `gorm:"type:text"`
	CreatedAt     time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockHistoryModel) TableName() string {
	return "stock_history"
}

// ToDomain converts the persistence model to a domain StockHistory
func (m *StockHistoryModel) ToDomain() *catalog.StockHistory {
	return &catalog.StockHistory{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Action:        catalog.StockAction(m.Action),
		QuantityDelta: m.QuantityDelta,
		QuantityAfter: m.QuantityAfter,
		ActorID:       m.ActorID,
		ReferenceID:   m.ReferenceID,
		Note:          m.Note,
		CreatedAt:     m.CreatedAt,
	}
}

// StockHistoryModelFromDomain creates a new model from a domain StockHistory
func StockHistoryModelFromDomain(h *catalog.StockHistory) *StockHistoryModel {
	return &StockHistoryModel{
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

// ProductAttachmentModel is the persistence model for catalog.Attachment
type ProductAttachmentModel struct {
	BaseModel
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(100);not null"`
	FileSize    int64     `gorm:"not null"`
	StorageKey  string    `gorm:"type:varchar(500);not null;uniqueIndex"`
	UploadedBy  uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (ProductAttachmentModel) TableName() string {
	return "product_attachments"
}

// ToDomain converts the persistence model to a domain Attachment
func (m *ProductAttachmentModel) ToDomain() *catalog.Attachment {
	return &catalog.Attachment{
		BaseEntity:  m.BaseModel.ToDomain(),
		ProductID:   m.ProductID,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		FileSize:    m.FileSize,
		StorageKey:  m.StorageKey,
		UploadedBy:  m.UploadedBy,
	}
}

// ProductAttachmentModelFromDomain creates a new model from a domain Attachment
func ProductAttachmentModelFromDomain(a *catalog.Attachment) *ProductAttachmentModel {
	m := &ProductAttachmentModel{
		ProductID:   a.ProductID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		FileSize:    a.FileSize,
		StorageKey:  a.StorageKey,
		UploadedBy:  a.UploadedBy,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
