package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrFeatureNotFound = fmt.Errorf("%w: feature", ErrNotFound)
	ErrGroupNotFound   = fmt.Errorf("%w: group", ErrNotFound)
	ErrUnknownMetric   = fmt.Errorf("%w: metric", ErrNotFound)

	// Contract errors
	ErrKindMismatch      = errors.New("feature or metric kind does not match the data")
	ErrInvalidThresholds = errors.New("thresholds are not strictly increasing inside the extent")
	ErrInvalidFeature    = errors.New("invalid feature definition")
	ErrInvalidDataset    = errors.New("invalid dataset")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

func NewKindMismatchError(subject string, want, got string) error {
	return fmt.Errorf("%w: %s is %s, expected %s", ErrKindMismatch, subject, got, want)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsContractError(err error) bool {
	return errors.Is(err, ErrKindMismatch) ||
		errors.Is(err, ErrInvalidThresholds) ||
		errors.Is(err, ErrInvalidFeature) ||
		errors.Is(err, ErrInvalidDataset)
}
