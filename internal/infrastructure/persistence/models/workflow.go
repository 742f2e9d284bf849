package models

import (
	"time"

	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/google/uuid"
)

// ProductRequestModel is the persistence model for workflow.ProductRequest
type ProductRequestModel struct {
	AggregateModel
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index"`
	RequestedBy uuid.UUID `gorm:"type:uuid;not null"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity    int       `gorm:"not null;default:1"`
	Purpose     string    `gorm:"type:text"`
	ReturnDate  *time.Time
	Status      string     `gorm:"type:varchar(20);not null;index"`
	ProcessedBy *uuid.UUID `gorm:"type:uuid"`
	ProcessedAt *time.Time
	Remarks     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProductRequestModel) TableName() string {
	return "product_requests"
}

// ToDomain converts the persistence model to a domain ProductRequest
func (m *ProductRequestModel) ToDomain() *workflow.ProductRequest {
	return &workflow.ProductRequest{
		BaseAggregateRoot: m.ToAggregateRoot(),
		EmployeeID:        m.EmployeeID,
		RequestedBy:       m.RequestedBy,
		ProductID:         m.ProductID,
		Quantity:          m.Quantity,
		Purpose:           m.Purpose,
		ReturnDate:        m.ReturnDate,
		Status:            workflow.RequestStatus(m.Status),
		ProcessedBy:       m.ProcessedBy,
		ProcessedAt:       m.ProcessedAt,
		Remarks:           m.Remarks,
	}
}

// ProductRequestModelFromDomain creates a new model from a domain ProductRequest
func ProductRequestModelFromDomain(r *workflow.ProductRequest) *ProductRequestModel {
	m := &ProductRequestModel{
		EmployeeID:  r.EmployeeID,
		RequestedBy: r.RequestedBy,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		Purpose:     r.Purpose,
		ReturnDate:  r.ReturnDate,
		Status:      string(r.Status),
		ProcessedBy: r.ProcessedBy,
		ProcessedAt: r.ProcessedAt,
		Remarks:     r.Remarks,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// ProductAssignmentModel is the persistence model for workflow.Assignment
type ProductAssignmentModel struct {
	AggregateModel
	ProductID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID  `gorm:"type:uuid;not null;index"`
	MonitorID  uuid.UUID  `gorm:"type:uuid;not null"`
	RequestID  *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Quantity   int        `gorm:"not null;default:1"`
	AssignedAt time.Time  `gorm:"not null"`
	DueDate    *time.Time `gorm:"index"`
	IsReturned bool       `gorm:"not null;default:false;index"`

	ReturnStatus      string     `gorm:"type:varchar(20);not null;default:'none'"`
	ReturnRequestedBy *uuid.UUID `gorm:"type:uuid"`
	ReturnRequestedAt *time.Time
	ReturnRemarks     string `gorm:"type:text"`
	ReturnedAt        *time.Time
	ReturnedTo        *uuid.UUID `gorm:"type:uuid"`

	ExtensionStatus      string `gorm:"type:varchar(20);not null;default:'none'"`
	ExtensionReason      string `gorm:"type:text"`
	NewReturnDate        *time.Time
	ExtensionRequestedBy *uuid.UUID `gorm:"type:uuid"`
	ExtensionProcessedBy *uuid.UUID `gorm:"type:uuid"`
	ExtensionProcessedAt *time.Time
	ExtensionRemarks     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProductAssignmentModel) TableName() string {
	return "product_assignments"
}

// ToDomain converts the persistence model to a domain Assignment
func (m *ProductAssignmentModel) ToDomain() *workflow.Assignment {
	return &workflow.Assignment{
		BaseAggregateRoot:    m.ToAggregateRoot(),
		ProductID:            m.ProductID,
		EmployeeID:           m.EmployeeID,
		MonitorID:            m.MonitorID,
		RequestID:            m.RequestID,
		Quantity:             m.Quantity,
		AssignedAt:           m.AssignedAt,
		DueDate:              m.DueDate,
		IsReturned:           m.IsReturned,
		ReturnStatus:         workflow.LifecycleStatus(m.ReturnStatus),
		ReturnRequestedBy:    m.ReturnRequestedBy,
		ReturnRequestedAt:    m.ReturnRequestedAt,
		ReturnRemarks:        m.ReturnRemarks,
		ReturnedAt:           m.ReturnedAt,
		ReturnedTo:           m.ReturnedTo,
		ExtensionStatus:      workflow.LifecycleStatus(m.ExtensionStatus),
		ExtensionReason:      m.ExtensionReason,
		NewReturnDate:        m.NewReturnDate,
		ExtensionRequestedBy: m.ExtensionRequestedBy,
		ExtensionProcessedBy: m.ExtensionProcessedBy,
		ExtensionProcessedAt: m.ExtensionProcessedAt,
		ExtensionRemarks:     m.ExtensionRemarks,
	}
}

// ProductAssignmentModelFromDomain creates a new model from a domain Assignment
func ProductAssignmentModelFromDomain(a *workflow.Assignment) *ProductAssignmentModel {
	m := &ProductAssignmentModel{
		ProductID:            a.ProductID,
		EmployeeID:           a.EmployeeID,
		MonitorID:            a.MonitorID,
		RequestID:            a.RequestID,
		Quantity:             a.Quantity,
		AssignedAt:           a.AssignedAt,
		DueDate:              a.DueDate,
		IsReturned:           a.IsReturned,
		ReturnStatus:         string(a.ReturnStatus),
		ReturnRequestedBy:    a.ReturnRequestedBy,
		ReturnRequestedAt:    a.ReturnRequestedAt,
		ReturnRemarks:        a.ReturnRemarks,
		ReturnedAt:           a.ReturnedAt,
		ReturnedTo:           a.ReturnedTo,
		ExtensionStatus:      string(a.ExtensionStatus),
		ExtensionReason:      a.ExtensionReason,
		NewReturnDate:        a.NewReturnDate,
		ExtensionRequestedBy: a.ExtensionRequestedBy,
		ExtensionProcessedBy: a.ExtensionProcessedBy,
		ExtensionProcessedAt: a.ExtensionProcessedAt,
		ExtensionRemarks:     a.ExtensionRemarks,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}
