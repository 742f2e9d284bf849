package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/assetflow/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	assert.NotNil(t, mockDB.DB)
	mockDB.ExpectationsWereMet(t)
}

func TestNewFixture(t *testing.T) {
	f := NewFixture(t)

	assert.Equal(t, int64(4), f.Count(t, &models.UserModel{}))
	assert.Equal(t, int64(4), f.Count(t, &models.EmployeeModel{}))

	p := f.AddProduct(t, "ThinkPad", 5)
	assert.Equal(t, 5, f.Quantity(t, p.ID))

	actor := f.Alice.Actor()
	require.NotNil(t, actor.EmployeeID)
	assert.Equal(t, f.Alice.Employee.ID, *actor.EmployeeID)
}

func TestNewTestUUID_Deterministic(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
}

func TestWaitForCondition(t *testing.T) {
	calls := 0
	ok := WaitForCondition(t, func() bool {
		calls++
		return calls >= 3
	}, time.Second, time.Millisecond)
	assert.True(t, ok)

	assert.False(t, WaitForCondition(t, func() bool { return false }, 5*time.Millisecond, time.Millisecond))
}

func TestRecordingPublisher(t *testing.T) {
	var p RecordingPublisher
	require.NoError(t, p.Publish(context.Background(), NewTestEvent("a"), NewTestEvent("b")))
	assert.Equal(t, []string{"a", "b"}, p.Types())
}
