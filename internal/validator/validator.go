// Package validator provides CloudEvents validation for the ingest pipeline.
package validator

import (
	"fmt"

	"github.com/ceworks/cevent/pkg/event"
)

// CloudEventsValidator validates CloudEvents according to the specification.
//
// Events are validated once at construction, but attribute mutation can
// invalidate them afterwards, so the pipeline re-checks every event before
// it enters a buffer.
type CloudEventsValidator struct{}

// NewCloudEventsValidator creates a new CloudEvents validator.
func NewCloudEventsValidator() *CloudEventsValidator {
	return &CloudEventsValidator{}
}

// Compile-time interface check.
var _ event.Validator = (*CloudEventsValidator)(nil)

// Validate checks the required context attributes and the specification
// version. Every violation is reported, not just the first one found.
func (v *CloudEventsValidator) Validate(e *event.Event) error {
	var violations []event.FieldViolation
	missing := func(field, value string) {
		if value == "" {
			violations = append(violations, event.FieldViolation{
				Field:  field,
				Reason: "required attribute is missing",
			})
		}
	}

	missing("id", e.ID())
	missing("source", e.Source())
	missing("specversion", e.SpecVersion())
	missing("type", e.Type())

	if sv := e.SpecVersion(); sv != "" && sv != event.DefaultSpecVersion {
		violations = append(violations, event.FieldViolation{
			Field:  "specversion",
			Reason: fmt.Sprintf("unsupported version: %s (supported: %s)", sv, event.DefaultSpecVersion),
		})
	}

	if len(violations) > 0 {
		return &event.ValidationError{Violations: violations}
	}
	return nil
}
