package storage

import (
	"fmt"

	"github.com/dmitrijs2005/jobhub/internal/common"
)

// ValidationError means the file broke its category policy. Nothing was sent
// to the backend.
type ValidationError struct {
	Category Category
	File     string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %q (category %q): %s", e.File, e.Category, e.Reason)
}

func (e *ValidationError) Unwrap() error { return common.ErrValidation }

// TransportError means the backend was unreachable or rejected the call.
type TransportError struct {
	Op  string
	Key string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{common.ErrTransport, e.Err} }
