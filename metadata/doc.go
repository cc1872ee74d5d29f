// Package metadata provides the typed document model and field filters.
//
// # Values
//
// Document fields are typed Values:
//
//   - String: metadata.String("tech")
//   - Int: metadata.Int(2024)
//   - Float: metadata.Float(3.14)
//   - Bool: metadata.Bool(true)
//   - Array: metadata.Array([]metadata.Value{...})
//
// Example:
//
//	doc := metadata.Document{
//	    "category":  metadata.String("tech"),
//	    "year":      metadata.Int(2024),
//	    "published": metadata.Bool(true),
//	}
//
// # Field Filters
//
// A Filter is a single (key, operator, value) condition; a FilterSet is the
// conjunction of several:
//
//	fs := metadata.NewFilterSet(
//	    metadata.Filter{Key: "category", Operator: metadata.OpEqual, Value: metadata.String("tech")},
//	    metadata.Filter{Key: "year", Operator: metadata.OpGreaterEqual, Value: metadata.Int(2023)},
//	)
//
// Segments index equality postings by Value.Key; the remaining operators are
// evaluated against stored documents.
package metadata
