package circuit

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation names a component, port or
	// wire that does not exist. The document is left untouched.
	ErrNotFound = errors.New("circuit: not found")

	// ErrInvalidConnection is returned when a wire would join a component
	// to itself or when no connection is pending.
	ErrInvalidConnection = errors.New("circuit: invalid connection")

	// ErrUnknownType is returned for component types missing from the registry.
	ErrUnknownType = errors.New("circuit: unknown component type")

	// ErrNoState is returned by ToggleState for types without a switchable state.
	ErrNoState = errors.New("circuit: component has no switchable state")

	// ErrMalformedFile is wrapped by every MalformedFileError.
	ErrMalformedFile = errors.New("circuit: malformed file")
)

// MalformedFileError describes why a circuit file was rejected.
type MalformedFileError struct {
	Reason string
	Err    error // underlying decode error, may be nil
}

func (e *MalformedFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("circuit: malformed file: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("circuit: malformed file: %s", e.Reason)
}

// Unwrap exposes both ErrMalformedFile and the decode error to errors.Is/As.
func (e *MalformedFileError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedFile}
	}
	return []error{ErrMalformedFile, e.Err}
}

func malformed(reason string, err error) error {
	return &MalformedFileError{Reason: reason, Err: err}
}

func componentNotFound(id string) error {
	return fmt.Errorf("circuit: component %q: %w", id, ErrNotFound)
}

func portNotFound(componentID, portID string) error {
	return fmt.Errorf("circuit: port %q on %q: %w", portID, componentID, ErrNotFound)
}

func wireNotFound(id string) error {
	return fmt.Errorf("circuit: wire %q: %w", id, ErrNotFound)
}
