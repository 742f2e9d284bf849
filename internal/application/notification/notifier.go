// Package notification turns committed workflow events and reminder digests
// into email messages for employees and the monitors responsible for them.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Message is one outgoing email
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Notifier delivers messages. Implementations are best-effort; callers log
// failures and never roll back on them.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Directory resolves who should hear about a workflow change
type Directory struct {
	users     identity.UserRepository
	employees identity.EmployeeRepository
	monitors  identity.MonitorAssignmentRepository
}

// NewDirectory creates a new Directory
func NewDirectory(
	users identity.UserRepository,
	employees identity.EmployeeRepository,
	monitors identity.MonitorAssignmentRepository,
) *Directory {
	return &Directory{users: users, employees: employees, monitors: monitors}
}

// Employee returns the profile of an employee, including the account email
func (d *Directory) Employee(ctx context.Context, employeeID uuid.UUID) (*identity.EmployeeProfile, error) {
	return d.employees.FindProfile(ctx, employeeID)
}

// Responsible returns the email addresses of the active monitors linked to a
// department, or of every active admin when the department has none.
func (d *Directory) Responsible(ctx context.Context, departmentID uuid.UUID) ([]string, error) {
	links, err := d.monitors.FindByDepartment(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("find department monitors: %w", err)
	}

	var emails []string
	for _, link := range links {
		u, err := d.users.FindByID(ctx, link.MonitorID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if u.Active && u.Role == shared.RoleMonitor && u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	if len(emails) > 0 {
		return emails, nil
	}

	admins, err := d.users.FindByRole(ctx, shared.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("find admins: %w", err)
	}
	for _, u := range admins {
		if u.Active && u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	return emails, nil
}
