package event

import (
	"fmt"
	"sort"
	"time"

	"github.com/ceworks/cevent/pkg/conversion"
)

// DefaultSpecVersion is the CloudEvents specification version applied when
// construction input omits the specversion attribute.
const DefaultSpecVersion = "1.0"

// Event is an in-memory CloudEvents 1.0 event: the required and optional
// context attributes, an open set of extension attributes, and an opaque
// payload. The attribute set is validated once at construction; afterwards
// the event behaves as a plain value object with no internal locking, so a
// single instance must not be mutated from multiple goroutines.
//
// See https://github.com/cloudevents/spec/blob/v1.0/spec.md
type Event struct {
	id          string
	source      string
	eventType   string
	specVersion string

	time            *time.Time
	subject         string
	dataContentType string
	dataSchema      string

	data       any
	extensions map[string]any
}

// construct builds an event from a merged candidate attribute mapping whose
// keys are already lowercase. It runs the base64 payload hook ahead of field
// assignment, fills defaults for absent id/time/specversion, and validates
// required attributes, reporting every violation in a single error.
func construct(candidate map[string]any, data any, defaults Defaults) (*Event, error) {
	normalized, err := conversion.DecodeBase64Payload(candidate)
	if err != nil {
		return nil, err
	}
	candidate = normalized.(map[string]any)

	if raw, present := candidate["data"]; present {
		if raw != nil && data != nil {
			return nil, &IncompatibleArgumentsError{
				Reason: "payload supplied both as data attribute and data argument",
			}
		}
		if raw != nil {
			data = raw
		}
		delete(candidate, "data")
	}

	e := &Event{extensions: make(map[string]any)}

	var violations []FieldViolation
	failed := make(map[string]bool)
	for key, value := range candidate {
		if err := e.applyAttribute(key, value); err != nil {
			violations = append(violations, FieldViolation{Field: key, Reason: err.Error()})
			failed[key] = true
		}
	}

	defaults = defaults.withFallbacks()
	if _, present := candidate["id"]; !present {
		e.id = defaults.IDFunc()
	}
	if _, present := candidate["time"]; !present {
		t := defaults.TimeFunc()
		e.time = &t
	}
	if _, present := candidate["specversion"]; !present {
		e.specVersion = defaults.SpecVersion
	}

	// Legacy producers still emit 0.1 events; normalize before validation.
	if e.specVersion == "0.1" {
		e.specVersion = DefaultSpecVersion
	}

	violations = append(violations, e.requiredViolations(failed)...)
	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool {
			return violations[i].Field < violations[j].Field
		})
		return nil, &ValidationError{Violations: violations}
	}

	e.data = data
	return e, nil
}

// applyAttribute assigns a single lowercase-keyed attribute, coercing the
// value to the attribute's type. Unrecognized keys become extensions.
func (e *Event) applyAttribute(key string, value any) error {
	switch key {
	case "id":
		return assignRequiredString(&e.id, value)
	case "source":
		return assignRequiredString(&e.source, value)
	case "type":
		return assignRequiredString(&e.eventType, value)
	case "specversion":
		return assignRequiredString(&e.specVersion, value)
	case "time":
		t, err := coerceTime(value)
		if err != nil {
			return err
		}
		e.time = t
		return nil
	case "subject":
		return assignOptionalString(&e.subject, value)
	case "datacontenttype":
		return assignOptionalString(&e.dataContentType, value)
	case "dataschema":
		return assignOptionalString(&e.dataSchema, value)
	default:
		e.extensions[key] = value
		return nil
	}
}

func (e *Event) requiredViolations(failed map[string]bool) []FieldViolation {
	var violations []FieldViolation
	missing := func(field, value string) {
		if value == "" && !failed[field] {
			violations = append(violations, FieldViolation{
				Field:  field,
				Reason: "required attribute is missing",
			})
		}
	}
	missing("id", e.id)
	missing("source", e.source)
	missing("type", e.eventType)
	missing("specversion", e.specVersion)
	if e.specVersion != "" && e.specVersion != DefaultSpecVersion {
		violations = append(violations, FieldViolation{
			Field:  "specversion",
			Reason: fmt.Sprintf("unsupported version: %s (supported: %s)", e.specVersion, DefaultSpecVersion),
		})
	}
	return violations
}

func assignRequiredString(target *string, value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("must be a string, got %T", value)
	}
	*target = s
	return nil
}

func assignOptionalString(target *string, value any) error {
	if value == nil {
		*target = ""
		return nil
	}
	return assignRequiredString(target, value)
}

func coerceTime(value any) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t := v
		return &t, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		t := *v
		return &t, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("invalid RFC 3339 timestamp: %q", v)
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("must be a timestamp, got %T", value)
	}
}

// Attributes returns a fresh mapping of every context attribute except the
// payload, with each value passed through the wire-safe attribute encoder.
// Mutating the returned map does not affect the event.
func (e *Event) Attributes() map[string]any {
	attrs := make(map[string]any, len(e.extensions)+8)
	put := func(key, value string) {
		if value != "" {
			attrs[key] = value
		}
	}
	put("id", e.id)
	put("source", e.source)
	put("type", e.eventType)
	put("specversion", e.specVersion)
	put("subject", e.subject)
	put("datacontenttype", e.dataContentType)
	put("dataschema", e.dataSchema)
	if e.time != nil {
		attrs["time"] = conversion.BestEffortEncodeAttributeValue(e.time)
	}
	for key, value := range e.extensions {
		attrs[key] = conversion.BestEffortEncodeAttributeValue(value)
	}
	return attrs
}

// Attribute returns the wire-safe value of a single context attribute and
// whether it is set. The payload is not addressable through this method.
func (e *Event) Attribute(key string) (any, bool) {
	value, ok := e.Attributes()[key]
	return value, ok
}

// Data returns the payload exactly as stored: raw bytes, a structured value,
// or nil. No encoding is applied.
func (e *Event) Data() any {
	return e.data
}

// SetData replaces the payload. This is the only mutation channel for the
// payload; SetAttribute ignores the "data" key.
func (e *Event) SetData(data any) {
	e.data = data
}

// SetAttribute sets a context attribute. The key "data" is silently ignored
// so that the payload can only change through SetData, mirroring the
// behavior of the map-based event representation this type interchanges
// with. Setting "data_base64" after construction stores a plain extension;
// the base64 decode hook runs only at construction time. Values that cannot
// be coerced to a recognized attribute's type leave the event unchanged.
func (e *Event) SetAttribute(key string, value any) {
	if key == "data" {
		return
	}
	if e.extensions == nil {
		e.extensions = make(map[string]any)
	}
	_ = e.applyAttribute(key, value)
}

// DeleteAttribute removes a context attribute. Deleting "data" or an absent
// key fails with a NotFoundError; the payload is not deletable through the
// attribute namespace.
func (e *Event) DeleteAttribute(key string) error {
	switch key {
	case "data":
		return &NotFoundError{Key: key}
	case "id":
		return clearString(&e.id, key)
	case "source":
		return clearString(&e.source, key)
	case "type":
		return clearString(&e.eventType, key)
	case "specversion":
		return clearString(&e.specVersion, key)
	case "subject":
		return clearString(&e.subject, key)
	case "datacontenttype":
		return clearString(&e.dataContentType, key)
	case "dataschema":
		return clearString(&e.dataSchema, key)
	case "time":
		if e.time == nil {
			return &NotFoundError{Key: key}
		}
		e.time = nil
		return nil
	default:
		if _, ok := e.extensions[key]; !ok {
			return &NotFoundError{Key: key}
		}
		delete(e.extensions, key)
		return nil
	}
}

func clearString(target *string, key string) error {
	if *target == "" {
		return &NotFoundError{Key: key}
	}
	*target = ""
	return nil
}

// ID returns the event identifier.
func (e *Event) ID() string { return e.id }

// Source returns the URI-reference identifying the event producer.
func (e *Event) Source() string { return e.source }

// Type returns the event type.
func (e *Event) Type() string { return e.eventType }

// SpecVersion returns the CloudEvents specification version.
func (e *Event) SpecVersion() string { return e.specVersion }

// Time returns the event timestamp, or nil if unset.
func (e *Event) Time() *time.Time {
	if e.time == nil {
		return nil
	}
	t := *e.time
	return &t
}

// Subject returns the subject attribute, or "" if unset.
func (e *Event) Subject() string { return e.subject }

// DataContentType returns the payload content type, or "" if unset.
func (e *Event) DataContentType() string { return e.dataContentType }

// DataSchema returns the payload schema URI, or "" if unset.
func (e *Event) DataSchema() string { return e.dataSchema }

// Extensions returns a copy of the extension attributes with raw values.
func (e *Event) Extensions() map[string]any {
	out := make(map[string]any, len(e.extensions))
	for k, v := range e.extensions {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of the event. Byte-slice payloads are copied;
// other payload kinds are shared, consistent with their treatment as opaque
// immutable values.
func (e *Event) Clone() *Event {
	clone := *e
	if e.time != nil {
		t := *e.time
		clone.time = &t
	}
	clone.extensions = make(map[string]any, len(e.extensions))
	for k, v := range e.extensions {
		clone.extensions[k] = v
	}
	if b, ok := e.data.([]byte); ok {
		dataCopy := make([]byte, len(b))
		copy(dataCopy, b)
		clone.data = dataCopy
	}
	return &clone
}

// MarshalJSON serializes the event by delegating to the shared structured-
// mode encoder. The event never dumps its fields ad hoc: conversion.ToJSON
// is the single source of truth for wire formatting across every event
// representation this module offers.
func (e *Event) MarshalJSON() ([]byte, error) {
	return conversion.ToJSON(e)
}

// UnmarshalJSON parses structured-mode JSON through the canonical
// construction path, including data_base64 aliasing and default filling.
func (e *Event) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*e = *parsed
	return nil
}
