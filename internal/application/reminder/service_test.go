package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/assetflow/backend/internal/application/notification"
	"github.com/assetflow/backend/internal/application/reminder"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/assetflow/backend/internal/infrastructure/persistence"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/assetflow/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type outbox struct {
	sent []notification.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg notification.Message) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

var now = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func newService(f *testutil.Fixture, box *outbox) *reminder.Service {
	directory := notification.NewDirectory(
		persistence.NewGormUserRepository(f.DB),
		persistence.NewGormEmployeeRepository(f.DB),
		persistence.NewGormMonitorAssignmentRepository(f.DB),
	)
	svc := reminder.NewService(
		persistence.NewGormDepartmentRepository(f.DB),
		persistence.NewGormRequestRepository(f.DB),
		persistence.NewGormAssignmentRepository(f.DB),
		directory,
		box,
		48*time.Hour,
		zap.NewNop(),
	)
	svc.SetClock(func() time.Time { return now })
	return svc
}

func seed(t *testing.T, f *testutil.Fixture) {
	t.Helper()

	laptop := f.AddProduct(t, "ThinkPad", 10)
	overdue := f.AddAssignment(t, laptop, f.Alice, 1)
	soon := f.AddAssignment(t, laptop, f.Bob, 1)
	f.AddAssignment(t, laptop, f.Bob, 1)

	require.NoError(t, f.DB.Model(&models.ProductAssignmentModel{}).Where("id = ?", overdue.ID).
		Updates(map[string]any{"due_date": now.Add(-24 * time.Hour), "return_status": "requested"}).Error)
	require.NoError(t, f.DB.Model(&models.ProductAssignmentModel{}).Where("id = ?", soon.ID).
		Update("due_date", now.Add(24*time.Hour)).Error)

	req, err := workflow.NewProductRequest(f.Alice.Employee.ID, f.Alice.User.ID, laptop.ID, 1, "", nil, now)
	require.NoError(t, err)
	require.NoError(t, f.DB.Create(models.ProductRequestModelFromDomain(req)).Error)

	link, err := identity.NewMonitorAssignment(f.Monitor.User, f.Department.ID, f.Admin.User.ID)
	require.NoError(t, err)
	require.NoError(t, f.DB.Create(models.MonitorAssignmentModelFromDomain(link)).Error)
}

func TestCollect(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(t, f)

	d, err := newService(f, &outbox{}).Collect(context.Background(), *f.Department, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.PendingRequests)
	assert.Equal(t, int64(1), d.PendingReturns)
	assert.Equal(t, int64(0), d.PendingExtensions)
	assert.Equal(t, int64(1), d.Overdue)
	assert.Equal(t, int64(1), d.DueSoon)
	assert.False(t, d.Empty())
}

func TestRun(t *testing.T) {
	t.Run("sends one digest per busy department", func(t *testing.T) {
		f := testutil.NewFixture(t)
		seed(t, f)
		idle, err := identity.NewDepartment("OPS", "Operations", "")
		require.NoError(t, err)
		require.NoError(t, f.DB.Create(models.DepartmentModelFromDomain(idle)).Error)

		box := &outbox{}
		result, err := newService(f, box).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, reminder.RunResult{Departments: 1, Sent: 1}, result)

		require.Len(t, box.sent, 1)
		msg := box.sent[0]
		assert.Equal(t, []string{"monitor@example.com"}, msg.To)
		assert.Equal(t, "Pending work for Engineering", msg.Subject)
		assert.Contains(t, msg.Body, "- Requests waiting for approval: 1")
		assert.Contains(t, msg.Body, "- Overdue assignments: 1")
		assert.NotContains(t, msg.Body, "Extensions")
	})

	t.Run("nothing pending sends nothing", func(t *testing.T) {
		f := testutil.NewFixture(t)
		box := &outbox{}
		result, err := newService(f, box).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, reminder.RunResult{}, result)
		assert.Empty(t, box.sent)
	})

	t.Run("delivery failure is counted", func(t *testing.T) {
		f := testutil.NewFixture(t)
		seed(t, f)
		result, err := newService(f, &outbox{err: errors.New("relay down")}).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 0, result.Sent)
	})
}
