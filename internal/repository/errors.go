package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/branch-workshop/service-booking/internal/common/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgLockNotAvailable    = "55P03"
	pgSerializationFail   = "40001"
	pgDeadlockDetected    = "40P01"
)

// translateError maps driver errors onto the service's error kinds.
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewUnavailableError(op+": store did not answer in time", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFail, pgDeadlockDetected, pgLockNotAvailable:
			return domain.NewConflictError(op + ": concurrent modification")
		case pgForeignKeyViolation:
			return domain.NewNotFoundError("Booking", pgErr.Detail)
		}
	}
	return domain.NewStorageError(op, err)
}
