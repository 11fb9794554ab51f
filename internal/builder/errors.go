package builder

import (
	"errors"
	"fmt"
)

var (
	ErrDraftNotFound     = errors.New("draft not found")
	ErrPageNotFound      = errors.New("page not found")
	ErrSectionNotFound   = errors.New("section not found")
	ErrInvalidStep       = errors.New("invalid step")
	ErrInvalidDirection  = errors.New("invalid move direction")
	ErrBlueprintNotFound = errors.New("blueprint not found")
	ErrInvalidToken      = errors.New("confirmation token invalid or expired")
)

// ValidationError carries the user-facing message a failed guard produces.
// The message text is what the editor shows as a toast.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation failure rather than an
// infrastructure error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
