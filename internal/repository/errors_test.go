package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/branch-workshop/service-booking/internal/common/domain"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil, "op"))

	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation})
	assert.Equal(t, domain.KindConflict, domain.KindOf(translateError(unique, "append")))

	fk := &pgconn.PgError{Code: pgForeignKeyViolation, Detail: "Key (booking_id) is not present"}
	assert.Equal(t, domain.KindNotFound, domain.KindOf(translateError(fk, "append")))

	timeout := fmt.Errorf("query: %w", context.DeadlineExceeded)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(translateError(timeout, "find")))

	boom := errors.New("connection reset")
	translated := translateError(boom, "find")
	assert.Equal(t, domain.KindStorage, domain.KindOf(translated))
	assert.ErrorIs(t, translated, boom)

	existing := domain.NewNotFoundError("Booking", "x")
	assert.Same(t, existing, translateError(existing, "find"))
}
