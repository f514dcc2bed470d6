package merge

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a merge is requested with no sources.
var ErrEmptyInput = errors.New("no files to merge")

// LoadError reports a source that could not be read or parsed. The whole
// merge is abandoned when one occurs.
type LoadError struct {
	Index int // zero-based position in the merge order
	Name  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load file %d (%s): %v", e.Index+1, e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EncodeError reports a failure to serialise the assembled document.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode merged document: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
