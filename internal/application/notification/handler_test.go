package notification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/assetflow/backend/internal/application/notification"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/assetflow/backend/internal/infrastructure/persistence"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/assetflow/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type outbox struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg notification.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

func newDirectory(f *testutil.Fixture) *notification.Directory {
	return notification.NewDirectory(
		persistence.NewGormUserRepository(f.DB),
		persistence.NewGormEmployeeRepository(f.DB),
		persistence.NewGormMonitorAssignmentRepository(f.DB),
	)
}

func linkMonitor(t *testing.T, f *testutil.Fixture) {
	t.Helper()
	link, err := identity.NewMonitorAssignment(f.Monitor.User, f.Department.ID, f.Admin.User.ID)
	require.NoError(t, err)
	require.NoError(t, f.DB.Create(models.MonitorAssignmentModelFromDomain(link)).Error)
}

func requestEvent(eventType string, employeeID, productID uuid.UUID) *workflow.RequestEvent {
	id := uuid.New()
	return &workflow.RequestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, workflow.AggregateTypeRequest, id, uuid.New()),
		RequestID:       id,
		EmployeeID:      employeeID,
		ProductID:       productID,
		Quantity:        1,
	}
}

func assignmentEvent(eventType string, employeeID, productID uuid.UUID) *workflow.AssignmentEvent {
	id := uuid.New()
	return &workflow.AssignmentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, workflow.AggregateTypeAssignment, id, uuid.New()),
		AssignmentID:    id,
		EmployeeID:      employeeID,
		ProductID:       productID,
		Quantity:        2,
	}
}

func TestEventNotifier(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	laptop := f.AddProduct(t, "ThinkPad", 3)

	box := &outbox{}
	h := notification.NewEventNotifier(box, newDirectory(f), persistence.NewGormProductRepository(f.DB), zap.NewNop())

	t.Run("submission goes to admins when the department has no monitor", func(t *testing.T) {
		box.sent = nil
		require.NoError(t, h.Handle(ctx, requestEvent(workflow.EventRequestSubmitted, f.Alice.Employee.ID, laptop.ID)))
		require.Len(t, box.sent, 1)
		assert.Equal(t, []string{"admin@example.com"}, box.sent[0].To)
		assert.Equal(t, "Request Submitted: ThinkPad", box.sent[0].Subject)
		assert.Contains(t, box.sent[0].Body, "alice Tester requested 1 x ThinkPad")
	})

	linkMonitor(t, f)

	t.Run("submission goes to the department monitor", func(t *testing.T) {
		box.sent = nil
		require.NoError(t, h.Handle(ctx, requestEvent(workflow.EventRequestSubmitted, f.Alice.Employee.ID, laptop.ID)))
		require.Len(t, box.sent, 1)
		assert.Equal(t, []string{"monitor@example.com"}, box.sent[0].To)
	})

	t.Run("decision goes to the employee", func(t *testing.T) {
		box.sent = nil
		e := requestEvent(workflow.EventRequestRejected, f.Alice.Employee.ID, laptop.ID)
		e.Remarks = "out of budget"
		require.NoError(t, h.Handle(ctx, e))
		require.Len(t, box.sent, 1)
		assert.Equal(t, []string{"alice@example.com"}, box.sent[0].To)
		assert.Equal(t, "Request Rejected: ThinkPad", box.sent[0].Subject)
		assert.Contains(t, box.sent[0].Body, "Remarks: out of budget")
	})

	t.Run("assignment from an approved request is not announced twice", func(t *testing.T) {
		box.sent = nil
		e := assignmentEvent(workflow.EventProductAssigned, f.Bob.Employee.ID, laptop.ID)
		requestID := uuid.New()
		e.RequestID = &requestID
		require.NoError(t, h.Handle(ctx, e))
		assert.Empty(t, box.sent)
	})

	t.Run("direct assignment mentions the due date", func(t *testing.T) {
		box.sent = nil
		e := assignmentEvent(workflow.EventProductAssigned, f.Bob.Employee.ID, laptop.ID)
		due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		e.DueDate = &due
		require.NoError(t, h.Handle(ctx, e))
		require.Len(t, box.sent, 1)
		assert.Equal(t, []string{"bob@example.com"}, box.sent[0].To)
		assert.Contains(t, box.sent[0].Body, "Please return it by 2026-04-01.")
	})

	t.Run("extension request goes to the monitor", func(t *testing.T) {
		box.sent = nil
		require.NoError(t, h.Handle(ctx, assignmentEvent(workflow.EventExtensionRequested, f.Bob.Employee.ID, laptop.ID)))
		require.Len(t, box.sent, 1)
		assert.Equal(t, []string{"monitor@example.com"}, box.sent[0].To)
		assert.Contains(t, box.sent[0].Body, "asked for an extension")
	})

	t.Run("registration", func(t *testing.T) {
		box.sent = nil
		e := &identity.RegistrationEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(identity.EventRegistrationApproved, identity.AggregateTypeRegistration, uuid.New(), f.Admin.User.ID),
			Username:        "carol",
			Email:           "carol@example.com",
			FullName:        "Carol Tester",
		}
		require.NoError(t, h.Handle(ctx, e))
		require.Len(t, box.sent, 1)
		assert.Equal(t, "Registration Approved", box.sent[0].Subject)
		assert.Equal(t, []string{"carol@example.com"}, box.sent[0].To)
	})

	t.Run("delivery failure is returned to the bus", func(t *testing.T) {
		failing := &outbox{err: errors.New("smtp down")}
		h := notification.NewEventNotifier(failing, newDirectory(f), persistence.NewGormProductRepository(f.DB), zap.NewNop())
		err := h.Handle(ctx, requestEvent(workflow.EventRequestApproved, f.Alice.Employee.ID, laptop.ID))
		assert.ErrorContains(t, err, "smtp down")
	})

	t.Run("unrelated events are ignored", func(t *testing.T) {
		box.sent = nil
		require.NoError(t, h.Handle(ctx, testutil.NewTestEvent("something_else")))
		assert.Empty(t, box.sent)
	})
}
