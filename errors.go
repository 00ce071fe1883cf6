package numtree

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/numtree/internal/resource"
)

var (
	// ErrClosed is returned by operations on a closed Index.
	ErrClosed = errors.New("index closed")

	// ErrInvalidValue is returned for values that cannot be ordered (NaN).
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidFilter is returned for nil filters or filters with NaN bounds.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrFieldNotFound is returned when a field has never been indexed.
	ErrFieldNotFound = errors.New("field not found")

	// ErrMemoryLimitExceeded is returned when posting memory reached the
	// configured limit.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
)

// InvalidValueError reports a rejected value.
//
// It matches ErrInvalidValue via errors.Is.
type InvalidValueError struct {
	Field string
	Value float64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %v for field %q", e.Value, e.Field)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

// FieldNotFoundError reports a lookup of an unknown field.
//
// It matches ErrFieldNotFound via errors.Is.
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field not found: %q", e.Field)
}

func (e *FieldNotFoundError) Unwrap() error { return ErrFieldNotFound }

func validateValue(field string, v float64) error {
	if math.IsNaN(v) {
		return &InvalidValueError{Field: field, Value: v}
	}
	return nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}
	return err
}
