package assistant_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/assetflow/backend/internal/application/assistant"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/assetflow/backend/internal/infrastructure/persistence"
	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/assetflow/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeResponder struct {
	reply string
	err   error
	calls int
}

func (f *fakeResponder) Reply(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newService(f *testutil.Fixture, responder assistant.Responder) *assistant.Service {
	return assistant.NewService(
		persistence.NewGormRequestRepository(f.DB),
		persistence.NewGormAssignmentRepository(f.DB),
		persistence.NewGormProductRepository(f.DB),
		responder,
		zap.NewNop(),
	)
}

func TestAskRules(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	laptop := f.AddProduct(t, "ThinkPad", 5)
	f.AddProduct(t, "Drill", 2)
	loan := f.AddAssignment(t, laptop, f.Alice, 1)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, f.DB.Model(&models.ProductAssignmentModel{}).Where("id = ?", loan.ID).
		Updates(map[string]any{"due_date": past, "return_status": "requested"}).Error)

	req, err := workflow.NewProductRequest(f.Alice.Employee.ID, f.Alice.User.ID, laptop.ID, 1, "", nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.DB.Create(models.ProductRequestModelFromDomain(req)).Error)

	svc := newService(f, nil)

	t.Run("my requests", func(t *testing.T) {
		resp, err := svc.Ask(ctx, f.Alice.Actor(), assistant.AskInput{Message: "show my requests"})
		require.NoError(t, err)
		assert.Equal(t, assistant.IntentMyRequests, resp.Intent)
		assert.Equal(t, assistant.SourceRules, resp.Source)
		assert.Equal(t, "You have 1 pending, 0 approved and 0 rejected request(s).", resp.Reply)

		resp, err = svc.Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "my requests"})
		require.NoError(t, err)
		assert.Equal(t, "You have not made any requests yet.", resp.Reply)
	})

	t.Run("my assignments", func(t *testing.T) {
		resp, err := svc.Ask(ctx, f.Alice.Actor(), assistant.AskInput{Message: "list my assignments"})
		require.NoError(t, err)
		assert.Contains(t, resp.Reply, "You currently hold 1 assignment(s).")
		assert.Contains(t, resp.Reply, "1 of them are overdue")

		resp, err = svc.Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "list my assignments"})
		require.NoError(t, err)
		assert.Equal(t, "You have no items assigned to you right now.", resp.Reply)
	})

	t.Run("pending approvals", func(t *testing.T) {
		resp, err := svc.Ask(ctx, f.Monitor.Actor(), assistant.AskInput{Message: "pending approvals"})
		require.NoError(t, err)
		assert.Equal(t, "Waiting for review: 1 request(s), 1 return(s) and 0 extension(s).", resp.Reply)

		resp, err = svc.Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "pending approvals"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resp.Reply, "Only monitors and admins"))
	})

	t.Run("stock lookup", func(t *testing.T) {
		resp, err := svc.Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "Is the ThinkPad available?"})
		require.NoError(t, err)
		assert.Equal(t, assistant.IntentStockLookup, resp.Intent)
		assert.Equal(t, "ThinkPad: 4 available.", resp.Reply)

		resp, err = svc.Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "how many drills are in stock"})
		require.NoError(t, err)
		assert.Equal(t, "Drill: 2 available.", resp.Reply)

		resp, err = svc.Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "is the oscilloscope available"})
		require.NoError(t, err)
		assert.Equal(t, `I couldn't find a product matching "oscilloscope".`, resp.Reply)
	})

	t.Run("how to", func(t *testing.T) {
		resp, err := svc.Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "How do I return my laptop?"})
		require.NoError(t, err)
		assert.Equal(t, assistant.IntentHowToReturn, resp.Intent)
		assert.Contains(t, resp.Reply, "Return")
	})
}

func TestAskFallback(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()

	t.Run("model reply", func(t *testing.T) {
		responder := &fakeResponder{reply: "  Try the catalog.  "}
		resp, err := newService(f, responder).Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "tell me a joke"})
		require.NoError(t, err)
		assert.Equal(t, assistant.SourceModel, resp.Source)
		assert.Equal(t, "Try the catalog.", resp.Reply)
		assert.Equal(t, 1, responder.calls)
	})

	t.Run("model failure", func(t *testing.T) {
		responder := &fakeResponder{err: errors.New("quota exceeded")}
		resp, err := newService(f, responder).Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "tell me a joke"})
		require.NoError(t, err)
		assert.Equal(t, assistant.SourceFallback, resp.Source)
		assert.Equal(t, assistant.IntentUnknown, resp.Intent)
	})

	t.Run("no model configured", func(t *testing.T) {
		resp, err := newService(f, nil).Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "tell me a joke"})
		require.NoError(t, err)
		assert.Equal(t, assistant.SourceFallback, resp.Source)
	})

	t.Run("rules win over the model", func(t *testing.T) {
		responder := &fakeResponder{reply: "model"}
		resp, err := newService(f, responder).Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "hello"})
		require.NoError(t, err)
		assert.Equal(t, assistant.SourceRules, resp.Source)
		assert.Zero(t, responder.calls)
	})

	t.Run("validation", func(t *testing.T) {
		svc := newService(f, nil)
		_, err := svc.Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: "   "})
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = svc.Ask(ctx, f.Bob.Actor(), assistant.AskInput{Message: strings.Repeat("a", assistant.MaxMessageLength+1)})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}
