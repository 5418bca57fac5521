// Package conversion implements the canonical CloudEvents structured-mode
// JSON codec and attribute value encoding.
//
// Every event representation in this module serializes through ToJSON so
// that there is exactly one place that produces wire-format JSON.
package conversion

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Event is the minimal surface the codec needs from an event representation.
type Event interface {
	// Attributes returns every context attribute except the payload.
	Attributes() map[string]any

	// Data returns the event payload, or nil if the event carries none.
	Data() any
}

// BestEffortEncodeAttributeValue converts an attribute value into a
// transport-safe scalar. Strings and nil pass through unchanged, timestamps
// render as RFC 3339, binary values render as base64 text, and JSON-native
// scalars (bool, numbers) are kept as-is. Anything else falls back to its
// string representation.
func BestEffortEncodeAttributeValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	case bool:
		return v
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return v
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.Format(time.RFC3339Nano)
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToJSON serializes an event into canonical structured-mode JSON:
// a single object holding all context attributes plus the payload under
// "data" (or "data_base64" for binary payloads). A nil payload is omitted.
//
// Output is deterministic: serializing the same unchanged event twice
// produces byte-identical JSON.
func ToJSON(e Event) ([]byte, error) {
	envelope := make(map[string]any)
	for key, value := range e.Attributes() {
		envelope[key] = BestEffortEncodeAttributeValue(value)
	}

	switch data := e.Data().(type) {
	case nil:
		// Omitted entirely.
	case []byte:
		envelope["data_base64"] = base64.StdEncoding.EncodeToString(data)
	default:
		envelope["data"] = data
	}

	// encoding/json sorts map keys, which gives us the determinism the
	// idempotent-serialization contract requires.
	return json.Marshal(envelope)
}

// DecodeEnvelope parses structured-mode JSON into a flat attribute mapping.
// The payload stays in the mapping under "data" or "data_base64"; callers
// hand the result to the event constructor, which owns payload extraction
// and base64 aliasing. Numbers are preserved as json.Number so re-encoding
// reproduces the original literals.
func DecodeEnvelope(data []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var attrs map[string]any
	if err := decoder.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("failed to decode structured-mode envelope: %w", err)
	}
	return attrs, nil
}

// DecodeBase64Payload rewrites a non-nil "data_base64" entry of an attribute
// mapping into raw bytes stored under "data", removing the alias key. It runs
// on raw untyped input ahead of any field validation: non-mapping input is
// passed through unchanged, and base64 decode failures propagate unmodified
// from encoding/base64.
func DecodeBase64Payload(input any) (any, error) {
	attrs, ok := input.(map[string]any)
	if !ok {
		return input, nil
	}

	encoded, present := attrs["data_base64"]
	if !present {
		return attrs, nil
	}
	if encoded == nil {
		// A null alias carries no payload; drop the transient key.
		delete(attrs, "data_base64")
		return attrs, nil
	}

	var text string
	switch v := encoded.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return nil, fmt.Errorf("data_base64 must be base64 text, got %T", encoded)
	}

	decoded, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, err
	}

	attrs["data"] = decoded
	delete(attrs, "data_base64")
	return attrs, nil
}
