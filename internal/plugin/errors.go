package plugin

import (
	"errors"
	"fmt"
)

// Plugin registry errors.
var (
	// ErrAlreadyRegistered is returned when a plugin id is registered twice.
	ErrAlreadyRegistered = errors.New("plugin already registered")

	// ErrNotFound is returned when no plugin has the requested id.
	ErrNotFound = errors.New("plugin not found")

	// ErrInvalidInfo is returned when plugin identity fails validation.
	ErrInvalidInfo = errors.New("invalid plugin info")
)

// ActivationError reports a failure while loading settings or registering
// hook handlers during activation.
type ActivationError struct {
	Plugin string
	Err    error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("activate %s: %v", e.Plugin, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }
