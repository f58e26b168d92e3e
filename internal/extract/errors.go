package extract

import (
	"errors"
	"fmt"
)

// ErrNoAmount is returned by the text flow when normalization yields a
// zero amount, which is treated as "no amount recognized". The image
// flow deliberately has no such guard.
var ErrNoAmount = errors.New("no amount recognized")

// ErrNoJSON means no JSON object could be located in the recognizer
// output.
var ErrNoJSON = errors.New("no JSON object in recognizer output")

// ExtractionError wraps a failure of the recognition step: the service
// was unreachable, timed out, or returned output with no parseable
// JSON. The record is never inserted when this surfaces.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
