package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// MapError turns constraint violations into application errors. op names
// the failing statement in the wrapped error.
func MapError(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperror.NewDuplicate(entity, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
		case codeForeignKeyViolation:
			return apperror.NewConflict(entity+" is referenced or references a missing row").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case codeCheckViolation:
			return apperror.NewValidation(entity + " violates " + pgErr.ConstraintName).WithCause(err)
		}
	}
	return fmt.Errorf("%s %s: %w", op, entity, err)
}
