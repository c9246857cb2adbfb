package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by mutation paths when a referenced entity
	// does not resolve. Read paths return empty results instead.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleVersion is returned when an optimistic-concurrency guarded
	// update lost the race. The caller re-reads and retries.
	ErrStaleVersion = errors.New("stale version, reload and retry")
)

// InvariantError reports one or more violated domain invariants. Mutations
// that raise it are never partially applied.
type InvariantError struct {
	Reasons []string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + strings.Join(e.Reasons, "; ")
}

func invariantf(format string, args ...interface{}) *InvariantError {
	return &InvariantError{Reasons: []string{fmt.Sprintf(format, args...)}}
}

// IsInvariant reports whether err is (or wraps) an InvariantError.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
