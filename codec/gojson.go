package codec

import (
	"fmt"

	gojson "github.com/goccy/go-json"
)

// GoJSON encodes segment payloads with github.com/goccy/go-json. Its output
// is plain JSON, so segments it writes also decode with JSON.
type GoJSON struct{}

// Marshal encodes a segment payload.
func (GoJSON) Marshal(v any) ([]byte, error) {
	data, err := gojson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec %s: encode payload: %w", nameGoJSON, err)
	}
	return data, nil
}

// Unmarshal decodes a segment payload into v.
func (GoJSON) Unmarshal(data []byte, v any) error {
	if err := gojson.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec %s: decode %d-byte payload: %w", nameGoJSON, len(data), err)
	}
	return nil
}

// Name implements Codec.
func (GoJSON) Name() string { return nameGoJSON }
