package services

import (
	"errors"
	"fmt"
)

// ErrValidation marks caller mistakes (empty body, missing party ids).
// It is the only error class the services surface; transport failures
// are absorbed behind the fallback path.
var ErrValidation = errors.New("validation")

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
