// Package reminder sends periodic digests of work waiting on monitors.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/assetflow/backend/internal/application/notification"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Digest is the pending work of one department
type Digest struct {
	DepartmentID      uuid.UUID
	DepartmentName    string
	PendingRequests   int64
	PendingReturns    int64
	PendingExtensions int64
	Overdue           int64
	DueSoon           int64
}

// Empty reports whether there is nothing to remind about
func (d Digest) Empty() bool {
	return d.PendingRequests+d.PendingReturns+d.PendingExtensions+d.Overdue+d.DueSoon == 0
}

// RunResult summarises one reminder pass
type RunResult struct {
	Departments int
	Sent        int
	Failed      int
}

// Service scans workflow state per department and emails the responsible
// monitors. It never modifies workflow state.
type Service struct {
	departments identity.DepartmentRepository
	requests    workflow.RequestRepository
	assignments workflow.AssignmentRepository
	directory   *notification.Directory
	notifier    notification.Notifier
	dueSoon     time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new reminder Service. Assignments due within dueSoon
// are reported as due soon.
func NewService(
	departments identity.DepartmentRepository,
	requests workflow.RequestRepository,
	assignments workflow.AssignmentRepository,
	directory *notification.Directory,
	notifier notification.Notifier,
	dueSoon time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		departments: departments,
		requests:    requests,
		assignments: assignments,
		directory:   directory,
		notifier:    notifier,
		dueSoon:     dueSoon,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Run builds a digest for every department and sends the non-empty ones.
// A failed department does not stop the others.
func (s *Service) Run(ctx context.Context) (RunResult, error) {
	var result RunResult
	departments, err := s.departments.FindAll(ctx)
	if err != nil {
		return result, fmt.Errorf("list departments: %w", err)
	}

	now := s.now()
	for _, dept := range departments {
		digest, err := s.Collect(ctx, dept, now)
		if err != nil {
			result.Failed++
			s.logger.Error("Failed to collect reminder digest", zap.String("department", dept.Code), zap.Error(err))
			continue
		}
		if digest.Empty() {
			continue
		}
		result.Departments++

		recipients, err := s.directory.Responsible(ctx, dept.ID)
		if err != nil {
			result.Failed++
			s.logger.Error("Failed to resolve reminder recipients", zap.String("department", dept.Code), zap.Error(err))
			continue
		}
		if len(recipients) == 0 {
			s.logger.Warn("No one to remind", zap.String("department", dept.Code))
			continue
		}
		if err := s.notifier.Send(ctx, digestMessage(digest, recipients)); err != nil {
			result.Failed++
			s.logger.Warn("Failed to send reminder", zap.String("department", dept.Code), zap.Error(err))
			continue
		}
		result.Sent++
	}

	s.logger.Info("Reminder pass finished",
		zap.Int("departments", result.Departments),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// Collect counts the pending work of one department at now
func (s *Service) Collect(ctx context.Context, dept identity.Department, now time.Time) (Digest, error) {
	d := Digest{DepartmentID: dept.ID, DepartmentName: dept.Name}
	deptID := dept.ID

	reqFilter := workflow.RequestFilter{Filter: countFilter(), DepartmentID: &deptID, Status: workflow.RequestStatusPending}
	_, pending, err := s.requests.FindAll(ctx, reqFilter)
	if err != nil {
		return d, err
	}
	d.PendingRequests = pending

	outstanding := true
	base := workflow.AssignmentFilter{Filter: countFilter(), DepartmentID: &deptID, Outstanding: &outstanding}

	count := func(f workflow.AssignmentFilter) (int64, error) {
		_, n, err := s.assignments.FindAll(ctx, f)
		return n, err
	}

	returns := base
	returns.ReturnStatus = workflow.LifecycleRequested
	if d.PendingReturns, err = count(returns); err != nil {
		return d, err
	}

	extensions := base
	extensions.ExtensionStatus = workflow.LifecycleRequested
	if d.PendingExtensions, err = count(extensions); err != nil {
		return d, err
	}

	overdue := base
	overdue.DueBefore = &now
	if d.Overdue, err = count(overdue); err != nil {
		return d, err
	}

	if s.dueSoon > 0 {
		horizon := now.Add(s.dueSoon)
		soon := base
		soon.DueBefore = &horizon
		n, err := count(soon)
		if err != nil {
			return d, err
		}
		d.DueSoon = n - d.Overdue
	}
	return d, nil
}

func countFilter() shared.Filter {
	f := shared.DefaultFilter()
	f.PageSize = 1
	return f
}

func digestMessage(d Digest, to []string) notification.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Pending work for %s:\n\n", d.DepartmentName)
	lines := []struct {
		label string
		n     int64
	}{
		{"Requests waiting for approval", d.PendingRequests},
		{"Returns waiting for confirmation", d.PendingReturns},
		{"Extensions waiting for a decision", d.PendingExtensions},
		{"Overdue assignments", d.Overdue},
		{"Assignments due soon", d.DueSoon},
	}
	for _, l := range lines {
		if l.n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", l.label, l.n)
		}
	}
	return notification.Message{
		To:      to,
		Subject: "Pending work for " + d.DepartmentName,
		Body:    b.String(),
	}
}
