package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/repositories"
)

// Error taxonomy shared by every service. Handlers match these with
// errors.Is and map them to HTTP status codes.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInternal          = errors.New("internal error")
)

// GatingError is returned when a blacklisted seller attempts a product
// mutation. It carries the stored reason and expiry for display.
type GatingError struct {
	Reason    string
	ExpiresAt *time.Time
}

func (e *GatingError) Error() string {
	if e.ExpiresAt == nil {
		return fmt.Sprintf("seller is blacklisted: %s", e.Reason)
	}
	return fmt.Sprintf("seller is blacklisted until %s: %s", e.ExpiresAt.Format(time.RFC3339), e.Reason)
}

func (e *GatingError) Unwrap() error { return ErrForbidden }

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

// translate maps repository sentinels onto the service taxonomy. Any other
// store failure is reported as ErrInternal.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%s %w", what, ErrNotFound)
	case errors.Is(err, repositories.ErrPreconditionFailed):
		return fmt.Errorf("%s: %w", what, ErrInvalidTransition)
	default:
		return fmt.Errorf("%w: %s: %v", ErrInternal, what, err)
	}
}
