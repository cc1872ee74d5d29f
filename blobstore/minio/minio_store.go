package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/facetcount/blobstore"
)

// Store keeps persisted segments as objects in a MinIO bucket. Every object
// lives below the store's root prefix.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore returns a Store over bucket. rootPrefix (e.g. "facets/") is
// joined in front of every segment name.
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// name maps an object key back to the segment name it was stored under.
func (s *Store) name(key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Open stats the segment object so reads can be bounded by its size.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", blobstore.ErrNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("minio: stat %s/%s: %w", s.bucket, key, err)
	}

	return &segmentObject{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   info.Size,
	}, nil
}

// Put uploads an encoded segment in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("minio: put %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Delete removes a segment object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("minio: remove %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// List returns the sorted segment names below prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	full := s.key(prefix)
	if strings.HasSuffix(prefix, "/") && !strings.HasSuffix(full, "/") {
		full += "/"
	}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    full,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio: list %s/%s: %w", s.bucket, full, obj.Err)
		}
		if n := s.name(obj.Key); n != "" {
			names = append(names, n)
		}
	}

	sort.Strings(names)
	return names, nil
}

// segmentObject reads byte ranges of one segment object.
type segmentObject struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (o *segmentObject) Size() int64 {
	return o.size
}

// ReadAt issues one ranged GET clipped to the object size.
func (o *segmentObject) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off >= o.size {
		return 0, io.EOF
	}

	last := min(off+int64(len(p)), o.size) - 1

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, last); err != nil {
		return 0, fmt.Errorf("minio: range %s [%d,%d]: %w", o.key, off, last, err)
	}

	obj, err := o.client.GetObject(ctx, o.bucket, o.key, opts)
	if err != nil {
		return 0, fmt.Errorf("minio: get %s/%s: %w", o.bucket, o.key, err)
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, p[:last-off+1])
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, err
	}
	if err != nil {
		return n, fmt.Errorf("minio: read %s/%s at %d: %w", o.bucket, o.key, off, err)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (o *segmentObject) Close() error {
	return nil
}
