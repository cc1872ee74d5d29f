package model

import (
	"encoding/json"
	"fmt"
)

// SegmentID is the unique identifier for a segment within an index.
type SegmentID uint64

// RowID is a dense, segment-local document identifier.
// It is only meaningful together with its SegmentID.
type RowID uint32

// Location identifies a document by (segment, local row).
type Location struct {
	SegmentID SegmentID
	RowID     RowID
}

// String returns a string representation of the Location.
func (l Location) String() string {
	return fmt.Sprintf("Loc(%d:%d)", l.SegmentID, l.RowID)
}

// FacetResult is the terminal, immutable outcome of a facet collection:
// the facet name and the number of matching documents that also
// satisfied the facet's filter.
type FacetResult struct {
	name  string
	count uint64
}

// NewFacetResult creates a FacetResult.
func NewFacetResult(name string, count uint64) FacetResult {
	return FacetResult{name: name, count: count}
}

// Name returns the facet name.
func (r FacetResult) Name() string { return r.name }

// Count returns the facet count.
func (r FacetResult) Count() uint64 { return r.count }

// String returns a string representation of the result.
func (r FacetResult) String() string {
	return fmt.Sprintf("%s=%d", r.name, r.count)
}

// MarshalJSON implements json.Marshaler.
func (r FacetResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string `json:"name"`
		Count uint64 `json:"count"`
	}{r.name, r.count})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *FacetResult) UnmarshalJSON(data []byte) error {
	var v struct {
		Name  string `json:"name"`
		Count uint64 `json:"count"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.name, r.count = v.Name, v.Count
	return nil
}
