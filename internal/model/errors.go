package model

import (
	"errors"
	"fmt"
	"strings"
)

// LineageError indicates that a source pointer could not be walked back to a
// readable context artifact. Non-fatal: the row is kept with empty evidence
// fields.
type LineageError struct {
	SourcePointer string
	Reason        string
}

func (e *LineageError) Error() string {
	return fmt.Sprintf("lineage unresolved for %q: %s", e.SourcePointer, e.Reason)
}

// RateLimitError indicates a collaborator call kept failing transiently until
// the retry budget was exhausted. The owning group is marked failed; sibling
// groups proceed.
type RateLimitError struct {
	Operation string
	Attempts  int
	Last      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retries exhausted after %d attempts: %v", e.Operation, e.Attempts, e.Last)
}

func (e *RateLimitError) Unwrap() error {
	return e.Last
}

// PivotCollision records two input rows mapping to the same (index, variable)
// cell with different values. Fatal for the affected aggregation group only.
type PivotCollision struct {
	IndexKey string
	Variable string
	Values   []string
}

func (e *PivotCollision) Error() string {
	return fmt.Sprintf("pivot collision at index %q, variable %q: values %s",
		e.IndexKey, e.Variable, strings.Join(e.Values, " | "))
}

// ConfigError is the only error class that aborts a whole run, e.g. missing
// required group-by keys.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// IsTransient reports whether err should be retried with backoff. Timeouts
// are transient by policy; only exhausted retries become permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return false // already exhausted
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "deadline exceeded") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "429") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "too many requests")
}
