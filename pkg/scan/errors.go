package scan

import (
	"errors"
	"fmt"

	"github.com/folioscan/folio/pkg/drive"
)

// ErrNoRoot is returned when a scan is requested without a root folder
// and none is saved in persistence from an earlier run.
var ErrNoRoot = errors.New("no root folder given and none saved from a previous scan")

// ValidationError reports a malformed scan parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrorCode maps an error onto a stable machine-readable code for
// structured output.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoRoot):
		return "NO_ROOT"
	case drive.IsNotFound(err):
		return "NOT_FOUND"
	case drive.IsAccess(err):
		return "ACCESS_DENIED"
	case IsValidation(err) || drive.IsInvalidInput(err):
		return "INVALID_INPUT"
	default:
		return "SCAN_FAILED"
	}
}
