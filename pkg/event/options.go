package event

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ceworks/cevent/pkg/conversion"
)

// Defaults supplies the generation algorithms used to fill attributes that
// construction input omits. The zero value falls back to DefaultID,
// DefaultTime, and DefaultSpecVersion. Defaults are injected per
// construction call; there is no mutable package-level state.
type Defaults struct {
	IDFunc      func() string
	TimeFunc    func() time.Time
	SpecVersion string
}

// DefaultID is the stock id-selection algorithm: a random UUID.
func DefaultID() string {
	return uuid.NewString()
}

// DefaultTime is the stock time-selection algorithm: the current UTC time.
func DefaultTime() time.Time {
	return time.Now().UTC()
}

func (d Defaults) withFallbacks() Defaults {
	if d.IDFunc == nil {
		d.IDFunc = DefaultID
	}
	if d.TimeFunc == nil {
		d.TimeFunc = DefaultTime
	}
	if d.SpecVersion == "" {
		d.SpecVersion = DefaultSpecVersion
	}
	return d
}

// Option configures event construction.
type Option func(*settings)

type settings struct {
	attrs    map[string]any
	data     any
	defaults Defaults

	// fieldOptions counts options that carry attribute or payload values,
	// for the mutual-exclusivity check against an attribute mapping.
	fieldOptions int
}

func (s *settings) setAttr(key string, value any) {
	if s.attrs == nil {
		s.attrs = make(map[string]any)
	}
	s.attrs[key] = value
	s.fieldOptions++
}

// WithID sets the id attribute.
func WithID(id string) Option {
	return func(s *settings) { s.setAttr("id", id) }
}

// WithSource sets the source attribute.
func WithSource(source string) Option {
	return func(s *settings) { s.setAttr("source", source) }
}

// WithType sets the type attribute.
func WithType(eventType string) Option {
	return func(s *settings) { s.setAttr("type", eventType) }
}

// WithSpecVersion sets the specversion attribute.
func WithSpecVersion(version string) Option {
	return func(s *settings) { s.setAttr("specversion", version) }
}

// WithTime sets the time attribute.
func WithTime(t time.Time) Option {
	return func(s *settings) { s.setAttr("time", t) }
}

// WithSubject sets the subject attribute.
func WithSubject(subject string) Option {
	return func(s *settings) { s.setAttr("subject", subject) }
}

// WithDataContentType sets the datacontenttype attribute.
func WithDataContentType(contentType string) Option {
	return func(s *settings) { s.setAttr("datacontenttype", contentType) }
}

// WithDataSchema sets the dataschema attribute.
func WithDataSchema(schema string) Option {
	return func(s *settings) { s.setAttr("dataschema", schema) }
}

// WithExtension sets an extension attribute. The name is lowercased, as the
// CloudEvents specification defines attribute names as lowercase.
func WithExtension(name string, value any) Option {
	return func(s *settings) { s.setAttr(strings.ToLower(name), value) }
}

// WithData sets the payload.
func WithData(data any) Option {
	return func(s *settings) {
		s.data = data
		s.fieldOptions++
	}
}

// WithDefaults injects the default-generation algorithms. Unlike the field
// options, WithDefaults may be combined with an attribute mapping.
func WithDefaults(defaults Defaults) Option {
	return func(s *settings) { s.defaults = defaults }
}

// New constructs an event from field options:
//
//	evt, err := event.New(
//	    event.WithSource("user-service"),
//	    event.WithType("com.example.user.created"),
//	    event.WithData(payload),
//	)
//
// Absent id, time, and specversion attributes are filled eagerly from the
// injected (or stock) default algorithms, and required attributes are
// validated before the event is returned.
func New(opts ...Option) (*Event, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	candidate := s.attrs
	if candidate == nil {
		candidate = make(map[string]any)
	}
	return construct(candidate, s.data, s.defaults)
}

// FromAttributes constructs an event from a flat attribute mapping plus an
// optional payload. Mapping keys are lowercased before merging, a non-nil
// data_base64 entry is decoded into the payload, and defaults are applied
// for absent id/time/specversion.
//
// A non-empty mapping is mutually exclusive with field options: combining
// the two fails with IncompatibleArgumentsError. WithDefaults is exempt.
// The mapping may carry the payload under "data"; supplying a payload both
// there and as the data argument is likewise rejected.
func FromAttributes(attrs map[string]any, data any, opts ...Option) (*Event, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	if len(attrs) > 0 && s.fieldOptions > 0 {
		return nil, &IncompatibleArgumentsError{
			Reason: "attribute mapping and field options are incompatible",
		}
	}

	candidate := make(map[string]any, len(attrs)+len(s.attrs))
	for key, value := range attrs {
		candidate[strings.ToLower(key)] = value
	}
	for key, value := range s.attrs {
		candidate[key] = value
	}
	if s.data != nil {
		if data != nil {
			return nil, &IncompatibleArgumentsError{
				Reason: "payload supplied both as argument and option",
			}
		}
		data = s.data
	}

	return construct(candidate, data, s.defaults)
}

// FromJSON constructs an event from a structured-mode JSON document. The
// document may carry the payload as "data" or as base64 text under
// "data_base64"; both enter the single canonical construction path.
func FromJSON(data []byte, opts ...Option) (*Event, error) {
	attrs, err := conversion.DecodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	return FromAttributes(attrs, nil, opts...)
}
