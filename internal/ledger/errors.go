package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound covers every way an id can fail to resolve for a caller:
// it does not exist, it belongs to another scope, or it is not even a
// well-formed id. Callers get no hint which of these happened.
var ErrNotFound = errors.New("record not found")

// ErrEmptyUpdate is returned when an update carries no fields.
var ErrEmptyUpdate = errors.New("no updatable fields provided")

// UnsupportedFieldError rejects an update containing keys outside the
// allow-listed set. Nothing is mutated.
type UnsupportedFieldError struct {
	Fields []string
}

func (e *UnsupportedFieldError) Error() string {
	return fmt.Sprintf("unsupported update fields: %s", strings.Join(e.Fields, ", "))
}

// ValidationError marks a field value that failed normalization rules,
// such as a time string outside the strict "YYYY-MM-DD HH:MM" format.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
