package identity

import (
	"time"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// LoginInput carries credentials
type LoginInput struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginResult is returned after a successful login
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// ChangePasswordInput is the payload for a password change
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// ChangeRoleInput is the payload for moving a user between employee and monitor
type ChangeRoleInput struct {
	Role string `json:"role" binding:"required,oneof=employee monitor"`
}

// UserListFilter narrows user listings
type UserListFilter struct {
	Role         string `form:"role" binding:"omitempty,oneof=employee monitor admin"`
	Active       *bool  `form:"active"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Search       string `form:"search" binding:"max=100"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// EmployeeResponse is the employee part of a user
type EmployeeResponse struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	DepartmentID uuid.UUID `json:"department_id"`
}

// UserResponse is a user in API responses
type UserResponse struct {
	ID          uuid.UUID         `json:"id"`
	Username    string            `json:"username"`
	Email       string            `json:"email"`
	Role        string            `json:"role"`
	Active      bool              `json:"active"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Employee    *EmployeeResponse `json:"employee,omitempty"`
}

// ToUserResponse converts a user and its optional employee record
func ToUserResponse(u *identity.User, e *identity.Employee) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if e != nil {
		resp.Employee = &EmployeeResponse{
			ID:           e.ID,
			FullName:     e.FullName,
			Phone:        e.Phone,
			DepartmentID: e.DepartmentID,
		}
	}
	return resp
}

// RegistrationInput is the public sign-up payload
type RegistrationInput struct {
	Username     string    `json:"username" binding:"required,min=3,max=100"`
	Email        string    `json:"email" binding:"required,email"`
	Password     string    `json:"password" binding:"required,min=8,max=72"`
	FullName     string    `json:"full_name" binding:"required,max=200"`
	Phone        string    `json:"phone" binding:"max=50"`
	DepartmentID uuid.UUID `json:"department_id" binding:"required"`
}

// RegistrationDecisionInput is the admin's verdict on a sign-up
type RegistrationDecisionInput struct {
	Action  string `json:"action" binding:"required,oneof=approved rejected"`
	Remarks string `json:"remarks" binding:"max=1000"`
}

// RegistrationListFilter narrows registration listings
type RegistrationListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// RegistrationResponse is a sign-up in API responses. The password hash never leaves the service.
type RegistrationResponse struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Phone        string     `json:"phone,omitempty"`
	DepartmentID uuid.UUID  `json:"department_id"`
	Status       string     `json:"status"`
	ProcessedBy  *uuid.UUID `json:"processed_by,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	Remarks      string     `json:"remarks,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToRegistrationResponse converts a registration request
func ToRegistrationResponse(r *identity.RegistrationRequest) RegistrationResponse {
	return RegistrationResponse{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		FullName:     r.FullName,
		Phone:        r.Phone,
		DepartmentID: r.DepartmentID,
		Status:       string(r.Status),
		ProcessedBy:  r.ProcessedBy,
		ProcessedAt:  r.ProcessedAt,
		Remarks:      r.Remarks,
		CreatedAt:    r.CreatedAt,
	}
}

// DepartmentInput is the payload for creating a department
type DepartmentInput struct {
	Code        string `json:"code" binding:"required,max=20"`
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// DepartmentResponse is a department in API responses
type DepartmentResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// ToDepartmentResponse converts a department
func ToDepartmentResponse(d *identity.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Code: d.Code, Name: d.Name, Description: d.Description}
}

// MonitorLinkInput links a monitor to a department
type MonitorLinkInput struct {
	MonitorID    uuid.UUID `json:"monitor_id" binding:"required"`
	DepartmentID uuid.UUID `json:"department_id" binding:"required"`
}

// MonitorLinkResponse is a monitor to department link
type MonitorLinkResponse struct {
	ID           uuid.UUID `json:"id"`
	MonitorID    uuid.UUID `json:"monitor_id"`
	DepartmentID uuid.UUID `json:"department_id"`
	AssignedBy   uuid.UUID `json:"assigned_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToMonitorLinkResponse converts a monitor assignment
func ToMonitorLinkResponse(m *identity.MonitorAssignment) MonitorLinkResponse {
	return MonitorLinkResponse{
		ID:           m.ID,
		MonitorID:    m.MonitorID,
		DepartmentID: m.DepartmentID,
		AssignedBy:   m.AssignedBy,
		CreatedAt:    m.CreatedAt,
	}
}
