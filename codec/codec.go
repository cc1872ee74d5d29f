// Package codec centralizes segment payload encoding and block compression.
//
// Persisted segments record both the codec and the compression in their
// header, so a reader always decodes with what the writer used.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Stable on-disk identifiers for the built-in codecs.
const (
	IDJSON   uint8 = 1
	IDGoJSON uint8 = 2
)

// Stable names, as used in configuration.
const (
	nameJSON   = "json"
	nameGoJSON = "go-json"
)

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case nameJSON:
		return JSON{}, true
	case nameGoJSON:
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// ByID returns a built-in codec by its on-disk identifier.
func ByID(id uint8) (Codec, bool) {
	switch id {
	case IDJSON:
		return JSON{}, true
	case IDGoJSON:
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// IDOf returns the on-disk identifier of a built-in codec.
func IDOf(c Codec) (uint8, error) {
	switch c.Name() {
	case nameJSON:
		return IDJSON, nil
	case nameGoJSON:
		return IDGoJSON, nil
	default:
		return 0, fmt.Errorf("codec %q cannot be persisted", c.Name())
	}
}
