// Package index provides the segment layer that facet collection runs over.
//
// A Reader enumerates Segments in a stable order. Each Segment owns a local
// row id space [0, MaxDoc), an inverted posting list per (field, value), and
// a Tombstones set. LiveDocs is an immutable snapshot of the tombstones; its
// Generation changes with every effective delete, so anything derived from a
// snapshot (for example a cached filter bitmap) can be keyed by it.
//
// Segments are persisted to a blobstore.BlobStore with WriteSegment and
// loaded back in parallel with OpenReader. Every storage failure surfaces as
// an *AccessError, which matches ErrIndexAccess.
package index
