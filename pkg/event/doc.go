// Package event defines the CloudEvents event model and the pipeline types
// built around it.
//
// This package provides the public API for constructing, inspecting, and
// mutating CloudEvents 1.0 events, along with Kafka metadata for event
// streaming.
//
// # Constructing Events
//
// Events are built either from field options or from a flat attribute
// mapping; the two input shapes are mutually exclusive:
//
//	evt, err := event.New(
//	    event.WithSource("user-service"),
//	    event.WithType("com.example.user.created"),
//	    event.WithData(map[string]any{"name": "jane"}),
//	)
//
//	evt, err := event.FromAttributes(map[string]any{
//	    "source": "user-service",
//	    "type":   "com.example.user.created",
//	}, payload)
//
// Absent id, time, and specversion attributes are filled at construction
// time from injectable default algorithms (random UUID, UTC now, "1.0").
// Unrecognized attribute keys are retained as extension attributes and
// round-trip through serialization unchanged.
//
// # Binary Payloads
//
// Construction input may carry the payload as base64 text under
// "data_base64" instead of "data"; it is decoded transparently:
//
//	evt, _ := event.FromAttributes(map[string]any{
//	    "source":      "scanner",
//	    "type":        "com.example.blob",
//	    "data_base64": "eHl6",
//	}, nil)
//	evt.Data() // []byte("xyz")
//
// # Serialization
//
// Events marshal to structured-mode JSON through the single canonical
// encoder in the conversion package; FromJSON is the inverse:
//
//	raw, _ := json.Marshal(evt)
//	back, _ := event.FromJSON(raw)
//
// # Attribute Access
//
// Attributes returns every context attribute except the payload, with
// values in wire-safe form. The payload is read with Data and changed only
// with SetData; SetAttribute("data", ...) is a documented no-op and
// DeleteAttribute("data") fails with NotFoundError.
//
// # Pipeline Types
//
// Record combines a decoded event with Kafka metadata for archival,
// PartitionID identifies a topic partition, and FileFormat names the
// supported archival formats (parquet, avro).
package event
