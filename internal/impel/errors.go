package impel

import (
	"errors"
	"fmt"
)

// Domain errors for processor and registry operations.
var (
	// ErrUnknownModel indicates no factory is registered for a model tag.
	ErrUnknownModel = errors.New("impel: unknown model type")

	// ErrDuplicateModel indicates a second factory for an already registered tag.
	ErrDuplicateModel = errors.New("impel: model type already registered")

	// ErrRegistrySealed indicates registration after the registry went live.
	ErrRegistrySealed = errors.New("impel: registry sealed")

	// ErrInvalidInit indicates tuning parameters outside their valid range.
	ErrInvalidInit = errors.New("impel: invalid init parameters")

	// ErrModelMismatch indicates an init record of another model type.
	ErrModelMismatch = errors.New("impel: init does not match processor model")

	// ErrInvalidHandle indicates a handle not live in this processor.
	ErrInvalidHandle = errors.New("impel: invalid handle")

	// ErrUninitialized indicates an instance used before Initialize.
	ErrUninitialized = errors.New("impel: instance not initialized")
)

// InitError reports which tuning field failed validation.
type InitError struct {
	Tag     Tag
	Field   string
	Value   float64
	Wrapped error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s init: %s=%g: %v", e.Tag, e.Field, e.Value, e.Wrapped)
}

func (e *InitError) Unwrap() error {
	return e.Wrapped
}

// InvalidField builds an InitError wrapping ErrInvalidInit.
func InvalidField(tag Tag, field string, value float64, reason string) error {
	return &InitError{
		Tag:     tag,
		Field:   field,
		Value:   value,
		Wrapped: fmt.Errorf("%w: %s", ErrInvalidInit, reason),
	}
}
