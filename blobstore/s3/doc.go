// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("facets/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	eng, err := facetcount.Open(ctx, store, "segments/")
//
// # Features
//
//   - Range reads for partial fetches
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
