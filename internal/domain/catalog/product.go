package catalog

import (
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType classifies how a product is tracked
type AssetType string

const (
	AssetTypeEquipment  AssetType = "equipment"
	AssetTypeInstrument AssetType = "instrument"
	AssetTypeConsumable AssetType = "consumable"
	AssetTypeTool       AssetType = "tool"
	AssetTypeOther      AssetType = "other"
)

// IsValid checks if the asset type is known
func (t AssetType) IsValid() bool {
	switch t {
	case AssetTypeEquipment, AssetTypeInstrument, AssetTypeConsumable, AssetTypeTool, AssetTypeOther:
		return true
	}
	return false
}

// Calibration holds optional calibration metadata
type Calibration struct {
	Required      bool
	FrequencyDays int
	DueDate       *time.Time
}

// Validate checks calibration consistency
func (c Calibration) Validate() error {
	if !c.Required {
		return nil
	}
	if c.FrequencyDays <= 0 {
		return shared.NewValidationError("calibration frequency must be positive when calibration is required")
	}
	return nil
}

// ProductDetails is the editable descriptive part of a product
type ProductDetails struct {
	Name         string
	Category     string
	AssetType    AssetType
	SerialNumber string
	ModelNumber  string
	Description  string
	UnitCost     decimal.Decimal
	Calibration  Calibration
}

func (d *ProductDetails) normalize() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Category = strings.TrimSpace(d.Category)
	d.SerialNumber = strings.TrimSpace(d.SerialNumber)
	d.ModelNumber = strings.TrimSpace(d.ModelNumber)
	d.Description = strings.TrimSpace(d.Description)
	if d.AssetType == "" {
		d.AssetType = AssetTypeEquipment
	}

	if d.Name == "" {
		return shared.NewValidationError("product name cannot be empty")
	}
	if len(d.Name) > 200 {
		return shared.NewValidationError("product name cannot exceed 200 characters")
	}
	if d.Category == "" {
		return shared.NewValidationError("product category cannot be empty")
	}
	if !d.AssetType.IsValid() {
		return shared.NewValidationError("unknown asset type %q", d.AssetType)
	}
	if d.UnitCost.IsNegative() {
		return shared.NewValidationError("unit cost cannot be negative")
	}
	return d.Calibration.Validate()
}

// Product is a catalog item. Quantity is the on-hand count; it only changes
// through the repository's atomic adjustment, never by read-modify-write.
type Product struct {
	shared.BaseAggregateRoot
	ProductDetails
	Quantity int
	Active   bool
}

// NewProduct creates an active product with an initial on-hand quantity
func NewProduct(details ProductDetails, quantity int, actorID uuid.UUID) (*Product, error) {
	if err := details.normalize(); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, shared.NewValidationError("quantity cannot be negative")
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductDetails:    details,
		Quantity:          quantity,
		Active:            true,
	}
	p.AddDomainEvent(newProductEvent(EventProductCreated, p, actorID, quantity))
	return p, nil
}

// Update replaces the descriptive fields
func (p *Product) Update(details ProductDetails, actorID uuid.UUID) error {
	if !p.Active {
		return shared.NewInvalidStateError("product has been removed from the catalog")
	}
	if err := details.normalize(); err != nil {
		return err
	}
	p.ProductDetails = details
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(newProductEvent(EventProductUpdated, p, actorID, 0))
	return nil
}

// Remove takes the product out of the catalog. Callers must ensure no
// assignment for it is outstanding.
func (p *Product) Remove(actorID uuid.UUID) error {
	if !p.Active {
		return shared.NewInvalidStateError("product has already been removed")
	}
	p.Active = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(newProductEvent(EventProductRemoved, p, actorID, 0))
	return nil
}

// RecordCalibration stamps a calibration performed at the given time and
// schedules the next due date.
func (p *Product) RecordCalibration(at time.Time) error {
	if !p.Calibration.Required {
		return shared.NewInvalidStateError("product does not require calibration")
	}
	next := at.AddDate(0, 0, p.Calibration.FrequencyDays)
	p.Calibration.DueDate = &next
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// CalibrationDueBy reports whether calibration is required and due on or before t
func (p *Product) CalibrationDueBy(t time.Time) bool {
	return p.Calibration.Required && p.Calibration.DueDate != nil && !p.Calibration.DueDate.After(t)
}

// OnHandValue is quantity times unit cost
func (p *Product) OnHandValue() decimal.Decimal {
	return p.UnitCost.Mul(decimal.NewFromInt(int64(p.Quantity)))
}
