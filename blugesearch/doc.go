// Package blugesearch implements whole-index counting on top of a bluge
// index that mirrors the segment documents.
//
// Only filters with an exact bluge translation are counted here; CanCount
// reports false for the rest (CEL expressions, substring and inequality
// conditions), which makes facet collection fall back to segment scanning.
package blugesearch
