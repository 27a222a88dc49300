package export

import (
	"errors"
	"fmt"
)

// ErrExportFailure is wrapped by every ExportError.
var ErrExportFailure = errors.New("export: failed")

// ExportError reports which stage of an export failed.
type ExportError struct {
	Stage string // "diagram", "pdf" or "fallback"
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export: %s: %v", e.Stage, e.Err)
}

// Unwrap exposes both ErrExportFailure and the cause.
func (e *ExportError) Unwrap() []error {
	return []error{ErrExportFailure, e.Err}
}
