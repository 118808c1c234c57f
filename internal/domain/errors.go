package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound          = errors.New("domain: not found")
	ErrInvalidTransition = errors.New("domain: invalid transition")
	ErrValidation        = errors.New("domain: validation failed")
	ErrConflict          = errors.New("domain: conflict")
	ErrAlreadyExists     = errors.New("domain: already exists")
	ErrAlreadyRemoved    = errors.New("domain: already removed")
	ErrInternal          = errors.New("domain: internal error")
	ErrUnauthorized      = errors.New("domain: unauthorized")
	ErrForbidden         = errors.New("domain: forbidden")
)

// ConflictError reports every commitment that overlaps a proposed assignment.
// It unwraps to ErrConflict.
type ConflictError struct {
	WorkerID  uuid.UUID
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("domain: worker %s unavailable: %s", e.WorkerID, strings.Join(parts, "; "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Validationf builds an ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsKnown reports whether err carries one of the domain sentinels.
func IsKnown(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidTransition, ErrValidation, ErrConflict,
		ErrAlreadyExists, ErrAlreadyRemoved, ErrInternal, ErrUnauthorized, ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
