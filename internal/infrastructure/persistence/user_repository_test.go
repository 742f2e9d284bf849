package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormUserRepository_FindByIDForUpdate(t *testing.T) {
	t.Run("locks the row", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := NewGormUserRepository(mockDB.DB)

		id := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "username", "email", "role", "active", "version"}).
			AddRow(id, "alice", "alice@example.com", "employee", false, 2)
		mockDB.Mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnRows(rows)

		u, err := repo.FindByIDForUpdate(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
		assert.False(t, u.Active)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("missing user is not found", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := NewGormUserRepository(mockDB.DB)

		id := uuid.New()
		mockDB.Mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByIDForUpdate(context.Background(), id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		mockDB.ExpectationsWereMet(t)
	})
}
