package encoder

import (
	"encoding/json"
	"fmt"

	"github.com/ceworks/cevent/pkg/conversion"
	"github.com/ceworks/cevent/pkg/event"
)

// payloadJSON renders the event payload as a JSON text column value.
// Raw JSON payloads pass through unchanged; binary payloads become a base64
// JSON string, matching their structured-mode wire form.
func payloadJSON(e *event.Event) (string, error) {
	if raw, ok := e.Data().(json.RawMessage); ok {
		return string(raw), nil
	}
	data, err := json.Marshal(e.Data())
	if err != nil {
		return "", fmt.Errorf("failed to marshal data: %w", err)
	}
	return string(data), nil
}

// extensionsJSON renders the extension attributes as a JSON object column
// value, or "" when the event carries no extensions. Values go through the
// wire-safe attribute encoder so timestamps and binary values are queryable.
func extensionsJSON(e *event.Event) (string, error) {
	extensions := e.Extensions()
	if len(extensions) == 0 {
		return "", nil
	}
	encoded := make(map[string]any, len(extensions))
	for key, value := range extensions {
		encoded[key] = conversion.BestEffortEncodeAttributeValue(value)
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to marshal extensions: %w", err)
	}
	return string(data), nil
}
