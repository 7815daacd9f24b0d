package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"not found", NewNotFoundError("Booking", "42"), KindNotFound},
		{"validation", NewValidationError("missing job start/end time"), KindValidation},
		{"wrapped conflict", fmt.Errorf("update: %w", NewConflictError("stale")), KindConflict},
		{"storage", NewStorageError("failed to save", errors.New("connection reset")), KindStorage},
		{"plain error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestAppError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStorageError("failed to append process event", cause)

	assert.Equal(t, "failed to append process event: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Bay not found with id: 7", NewNotFoundError("Bay", "7").Error())
}

func TestAppError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewConflictError("booking was modified by another transaction"))

	assert.ErrorIs(t, err, &AppError{Kind: KindConflict})
	assert.NotErrorIs(t, err, &AppError{Kind: KindValidation})
	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))
	assert.False(t, IsValidation(nil))
}

func TestNewPaginatedResult(t *testing.T) {
	res := NewPaginatedResult([]int{1, 2}, 21, 1, 10)
	assert.Equal(t, 3, res.TotalPages)

	empty := NewPaginatedResult[int](nil, 0, 1, 20)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}
