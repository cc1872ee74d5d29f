package codec

import (
	"encoding/json"
	"fmt"
)

// JSON encodes segment payloads with encoding/json. Segments whose header
// names it decode with it; any JSON codec reads them back the same way.
type JSON struct{}

// Marshal encodes a segment payload.
func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec %s: encode payload: %w", nameJSON, err)
	}
	return data, nil
}

// Unmarshal decodes a segment payload into v.
func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec %s: decode %d-byte payload: %w", nameJSON, len(data), err)
	}
	return nil
}

// Name implements Codec.
func (JSON) Name() string { return nameJSON }

// Default is the codec used for newly written segments.
var Default Codec = GoJSON{}
