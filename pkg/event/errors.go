package event

import (
	"fmt"
	"strings"
)

// IncompatibleArgumentsError reports that an event was constructed from both
// an attribute mapping and individual field options. The two input shapes are
// mutually exclusive to keep the construction API unambiguous.
type IncompatibleArgumentsError struct {
	Reason string
}

func (e *IncompatibleArgumentsError) Error() string {
	return "incompatible arguments: " + e.Reason
}

// NotFoundError reports deletion of an attribute that does not exist, or of
// "data", which is not addressable through the attribute namespace.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("attribute %q not found", e.Key)
}

// FieldViolation describes a single invalid or missing attribute.
type FieldViolation struct {
	Field  string
	Reason string
}

// ValidationError aggregates every attribute violation found during event
// construction into one failure, so callers see the full set of problems
// rather than the first one encountered.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Field, v.Reason)
	}
	return "invalid event: " + strings.Join(parts, "; ")
}
