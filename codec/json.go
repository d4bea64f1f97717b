package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Useful for debugging artifacts by eye. Go's shortest-representation
// float encoding round-trips exactly, but descriptor bytes inflate via
// base64, so the binary default is preferred for real caches.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }
