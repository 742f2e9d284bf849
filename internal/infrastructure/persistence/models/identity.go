package models

import (
	"time"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserModel is the persistence model for identity.User
type UserModel struct {
	AggregateModel
	Username     string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email        string `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	Role         string `gorm:"type:varchar(20);not null;index"`
	Active       bool   `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Username:          m.Username,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Role:              shared.Role(m.Role),
		Active:            m.Active,
		LastLoginAt:       m.LastLoginAt,
	}
}

// FromDomain populates the model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.Role = string(u.Role)
	m.Active = u.Active
	m.LastLoginAt = u.LastLoginAt
}

// UserModelFromDomain creates a new model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// DepartmentModel is the persistence model for identity.Department
type DepartmentModel struct {
	BaseModel
	Code        string `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DepartmentModel) TableName() string {
	return "departments"
}

// ToDomain converts the persistence model to a domain Department
func (m *DepartmentModel) ToDomain() *identity.Department {
	return &identity.Department{
		BaseEntity:  m.BaseModel.ToDomain(),
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
	}
}

// DepartmentModelFromDomain creates a new model from a domain Department
func DepartmentModelFromDomain(d *identity.Department) *DepartmentModel {
	m := &DepartmentModel{Code: d.Code, Name: d.Name, Description: d.Description}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}

// EmployeeModel is the persistence model for identity.Employee
type EmployeeModel struct {
	BaseModel
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	FullName     string    `gorm:"type:varchar(200);not null"`
	Phone        string    `gorm:"type:varchar(50)"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (EmployeeModel) TableName() string {
	return "employees"
}

// ToDomain converts the persistence model to a domain Employee
func (m *EmployeeModel) ToDomain() *identity.Employee {
	return &identity.Employee{
		BaseEntity:   m.BaseModel.ToDomain(),
		UserID:       m.UserID,
		FullName:     m.FullName,
		Phone:        m.Phone,
		DepartmentID: m.DepartmentID,
	}
}

// EmployeeModelFromDomain creates a new model from a domain Employee
func EmployeeModelFromDomain(e *identity.Employee) *EmployeeModel {
	m := &EmployeeModel{
		UserID:       e.UserID,
		FullName:     e.FullName,
		Phone:        e.Phone,
		DepartmentID: e.DepartmentID,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}

// EmployeeProfileRow is the scan target for the employees-users join
type EmployeeProfileRow struct {
	EmployeeModel
	Username string
	Email    string
	Role     string
	Active   bool
}

// ToDomain converts the joined row to a domain EmployeeProfile
func (r *EmployeeProfileRow) ToDomain() *identity.EmployeeProfile {
	return &identity.EmployeeProfile{
		Employee: *r.EmployeeModel.ToDomain(),
		Username: r.Username,
		Email:    r.Email,
		Role:     shared.Role(r.Role),
		Active:   r.Active,
	}
}

// MonitorAssignmentModel links a monitor to a department
type MonitorAssignmentModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	MonitorID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_monitor_department"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_monitor_department;index"`
	AssignedBy   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MonitorAssignmentModel) TableName() string {
	return "monitor_assignments"
}

// ToDomain converts the persistence model to a domain MonitorAssignment
func (m *MonitorAssignmentModel) ToDomain() *identity.MonitorAssignment {
	return &identity.MonitorAssignment{
		ID:           m.ID,
		MonitorID:    m.MonitorID,
		DepartmentID: m.DepartmentID,
		AssignedBy:   m.AssignedBy,
		CreatedAt:    m.CreatedAt,
	}
}

// MonitorAssignmentModelFromDomain creates a new model from a domain MonitorAssignment
func MonitorAssignmentModelFromDomain(a *identity.MonitorAssignment) *MonitorAssignmentModel {
	return &MonitorAssignmentModel{
		ID:           a.ID,
		MonitorID:    a.MonitorID,
		DepartmentID: a.DepartmentID,
		AssignedBy:   a.AssignedBy,
		CreatedAt:    a.CreatedAt,
	}
}

// RegistrationRequestModel is the persistence model for identity.RegistrationRequest
type RegistrationRequestModel struct {
	AggregateModel
	Username     string     `gorm:"type:varchar(100);not null;index"`
	Email        string     `gorm:"type:varchar(200);not null;index"`
	FullName     string     `gorm:"type:varchar(200);not null"`
	Phone        string     `gorm:"type:varchar(50)"`
	DepartmentID uuid.UUID  `gorm:"type:uuid;not null"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Status       string     `gorm:"type:varchar(20);not null;index"`
	ProcessedBy  *uuid.UUID `gorm:"type:uuid"`
	ProcessedAt  *time.Time
	Remarks      string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RegistrationRequestModel) TableName() string {
	return "registration_requests"
}

// ToDomain converts the persistence model to a domain RegistrationRequest
func (m *RegistrationRequestModel) ToDomain() *identity.RegistrationRequest {
	return &identity.RegistrationRequest{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Username:          m.Username,
		Email:             m.Email,
		FullName:          m.FullName,
		Phone:             m.Phone,
		DepartmentID:      m.DepartmentID,
		PasswordHash:      m.PasswordHash,
		Status:            identity.RegistrationStatus(m.Status),
		ProcessedBy:       m.ProcessedBy,
		ProcessedAt:       m.ProcessedAt,
		Remarks:           m.Remarks,
	}
}

// RegistrationRequestModelFromDomain creates a new model from a domain RegistrationRequest
func RegistrationRequestModelFromDomain(r *identity.RegistrationRequest) *RegistrationRequestModel {
	m := &RegistrationRequestModel{
		Username:     r.Username,
		Email:        r.Email,
		FullName:     r.FullName,
		Phone:        r.Phone,
		DepartmentID: r.DepartmentID,
		PasswordHash: r.PasswordHash,
		Status:       string(r.Status),
		ProcessedBy:  r.ProcessedBy,
		ProcessedAt:  r.ProcessedAt,
		Remarks:      r.Remarks,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}
