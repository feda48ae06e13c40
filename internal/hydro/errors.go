package hydro

import "errors"

// Error kinds reported by the engine. All are recoverable; wrap with context
// and test with errors.Is.
var (
	// ErrInvalidInput is returned for non-positive volumes or weights,
	// malformed times of day and other out-of-range values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when an entry id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrConfigurationConflict reports settings that contradict each other.
	// The engine resolves these deterministically; the error is informational.
	ErrConfigurationConflict = errors.New("configuration conflict")
)
