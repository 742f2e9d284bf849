package catalog

import (
	"time"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockAction names what changed a product's quantity
type StockAction string

const (
	StockActionAdd    StockAction = "add"
	StockActionRemove StockAction = "remove"
	StockActionAdjust StockAction = "adjust"
	StockActionAssign StockAction = "assign"
	StockActionReturn StockAction = "return"
)

// IsValid checks if the action is known
func (a StockAction) IsValid() bool {
	switch a {
	case StockActionAdd, StockActionRemove, StockActionAdjust, StockActionAssign, StockActionReturn:
		return true
	}
	return false
}

// ChangesTotal reports whether the action changes the total ever stocked,
// as opposed to moving units between the shelf and an employee.
func (a StockAction) ChangesTotal() bool {
	return a == StockActionAdd || a == StockActionRemove || a == StockActionAdjust
}

// StockHistory is an append-only ledger line written in the same transaction
// as the quantity change it records.
type StockHistory struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	Action        StockAction
	QuantityDelta int
	QuantityAfter int
	ActorID       uuid.UUID
	ReferenceID   *uuid.UUID // request or assignment that caused the change
	Note          string
	CreatedAt     time.Time
}

// NewStockHistory creates a ledger line
func NewStockHistory(productID uuid.UUID, action StockAction, delta, after int, actorID uuid.UUID, referenceID *uuid.UUID, note string) (*StockHistory, error) {
	if !action.IsValid() {
		return nil, shared.NewValidationError("unknown stock action %q", action)
	}
	if delta == 0 {
		return nil, shared.NewValidationError("stock change cannot be zero")
	}
	if after < 0 {
		return nil, shared.ErrInsufficientStock
	}
	return &StockHistory{
		ID:            uuid.New(),
		ProductID:     productID,
		Action:        action,
		QuantityDelta: delta,
		QuantityAfter: after,
		ActorID:       actorID,
		ReferenceID:   referenceID,
		Note:          note,
		CreatedAt:     time.Now(),
	}, nil
}
