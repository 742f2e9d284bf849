package catalog

import (
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeProduct is the aggregate type for products
const AggregateTypeProduct = "Product"

// Product event types
const (
	EventProductCreated   = "product_created"
	EventProductUpdated   = "product_updated"
	EventProductRemoved   = "product_removed"
	EventProductRestocked = "product_restocked"
)

// ProductEvent is raised on product catalog changes
type ProductEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Delta     int       `json:"delta,omitempty"`
}

func newProductEvent(eventType string, p *Product, actorID uuid.UUID, delta int) *ProductEvent {
	return &ProductEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProduct, p.ID, actorID),
		ProductID:       p.ID,
		Name:            p.Name,
		Quantity:        p.Quantity,
		Delta:           delta,
	}
}

// NewRestockedEvent reports a stock level change outside the workflow
func NewRestockedEvent(p *Product, actorID uuid.UUID, delta int) *ProductEvent {
	return newProductEvent(EventProductRestocked, p, actorID, delta)
}
