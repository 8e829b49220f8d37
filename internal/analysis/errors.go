package analysis

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no competencies are stored for a session.
var ErrNotFound = errors.New("no stored competencies")

// ErrPersistenceDisabled is returned by reads when no result store is wired.
var ErrPersistenceDisabled = errors.New("result persistence is disabled")

// ValidationError reports a caller mistake in a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
