package persistence

import (
	"errors"

	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// translateError maps driver errors onto domain errors. Unknown errors pass through.
func translateError(err error, kind string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(kind)
	}
	if isUniqueViolation(err) {
		return shared.NewDomainError(shared.CodeAlreadyExists, kind+" already exists")
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// conflictError reports a lost optimistic-lock race as an invalid state, since
// the loser's transition was computed from a state that no longer exists.
func conflictError(kind string) error {
	return shared.NewInvalidStateError("%s was processed concurrently, reload and retry", kind)
}
