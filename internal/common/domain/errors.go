package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-checkable category of an AppError.
type ErrorKind string

const (
	KindNotFound    ErrorKind = "NOT_FOUND"
	KindValidation  ErrorKind = "VALIDATION"
	KindConflict    ErrorKind = "CONFLICT"
	KindStorage     ErrorKind = "STORAGE"
	KindUnavailable ErrorKind = "UNAVAILABLE"
	KindForbidden   ErrorKind = "FORBIDDEN"
	KindInternal    ErrorKind = "INTERNAL"
)

// AppError is the error value returned across service boundaries.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches another *AppError of the same kind, so errors.Is(err, &AppError{Kind: KindConflict}) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// NewNotFoundError reports that an entity with the given identifier does not exist.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found with id: %s", entity, id)}
}

// NewValidationError reports a rejected precondition. The reason is surfaced to the caller verbatim.
func NewValidationError(reason string) *AppError {
	return &AppError{Kind: KindValidation, Message: reason}
}

// NewConflictError reports a concurrent modification detected by the store.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewStorageError wraps a failure of the durable store.
func NewStorageError(message string, err error) *AppError {
	return &AppError{Kind: KindStorage, Message: message, Err: err}
}

// NewUnavailableError reports that a collaborator did not answer in time.
func NewUnavailableError(message string, err error) *AppError {
	return &AppError{Kind: KindUnavailable, Message: message, Err: err}
}

// NewForbiddenError reports that the caller may not perform the operation.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a NOT_FOUND AppError.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsValidation reports whether err is a VALIDATION AppError.
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

// IsConflict reports whether err is a CONFLICT AppError.
func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }
