package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"path"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/facetcount/blobstore"
	"github.com/hupe1980/facetcount/codec"
	"github.com/hupe1980/facetcount/internal/resource"
	"github.com/hupe1980/facetcount/metadata"
	"github.com/hupe1980/facetcount/model"
)

// Segment file layout:
//
//	[0:4]   magic "FCSG"
//	[4]     format version
//	[5]     codec id
//	[6]     compression of the stored payload
//	[7]     reserved
//	[8:16]  segment id (little endian)
//	[16:20] uncompressed payload length
//	[20:24] CRC32-C of the stored payload
//	[24:]   payload
const (
	segmentMagic   = "FCSG"
	segmentVersion = 1
	headerSize     = 24

	// SegmentExt is the file extension of persisted segments.
	SegmentExt = ".fcs"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// segmentFile is the encoded payload of a persisted segment.
type segmentFile struct {
	Docs    []metadata.Document `json:"docs"`
	Deleted []uint32            `json:"deleted,omitempty"`
}

// SegmentName returns the blob name of segment id below prefix.
func SegmentName(prefix string, id model.SegmentID) string {
	return path.Join(prefix, fmt.Sprintf("seg-%020d%s", uint64(id), SegmentExt))
}

// ParseSegmentName extracts the segment id from a blob name produced by SegmentName.
func ParseSegmentName(name string) (model.SegmentID, bool) {
	base := path.Base(name)
	if !strings.HasPrefix(base, "seg-") || !strings.HasSuffix(base, SegmentExt) {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(base, "seg-"), SegmentExt), 10, 64)
	if err != nil {
		return 0, false
	}
	return model.SegmentID(n), true
}

// WriteOptions configures EncodeSegment and WriteSegment.
type WriteOptions struct {
	Codec       codec.Codec
	Compression codec.Compression
}

// EncodeSegment serializes seg, including its tombstones, into the segment file format.
func EncodeSegment(ctx context.Context, seg *MemSegment, opts WriteOptions) ([]byte, error) {
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}
	codecID, err := codec.IDOf(c)
	if err != nil {
		return nil, err
	}

	file := segmentFile{
		Docs:    seg.docs,
		Deleted: seg.tombstones.Rows(),
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := c.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("segment %d: encode: %w", seg.ID(), err)
	}

	payload, compressed, err := codec.Compress(raw, opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("segment %d: compress: %w", seg.ID(), err)
	}
	stored := codec.CompressionNone
	if compressed {
		stored = opts.Compression
	}

	buf := make([]byte, headerSize+len(payload))
	copy(buf[0:4], segmentMagic)
	buf[4] = segmentVersion
	buf[5] = codecID
	buf[6] = byte(stored)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(seg.ID()))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(raw)))
	binary.LittleEndian.PutUint32(buf[20:24], crc32.Checksum(payload, crc32cTable))
	copy(buf[headerSize:], payload)

	return buf, nil
}

// DecodeSegment parses a segment file.
func DecodeSegment(data []byte) (*MemSegment, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", ErrCorrupt, len(data))
	}
	if string(data[0:4]) != segmentMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if data[4] != segmentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, data[4])
	}
	c, ok := codec.ByID(data[5])
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %d", ErrCorrupt, data[5])
	}
	compression := codec.Compression(data[6])
	id := model.SegmentID(binary.LittleEndian.Uint64(data[8:16]))
	rawLen := int(binary.LittleEndian.Uint32(data[16:20]))
	sum := binary.LittleEndian.Uint32(data[20:24])

	payload := data[headerSize:]
	if crc32.Checksum(payload, crc32cTable) != sum {
		return nil, fmt.Errorf("%w: segment %d: checksum mismatch", ErrCorrupt, id)
	}

	raw, err := codec.Decompress(payload, compression, rawLen)
	if err != nil {
		return nil, fmt.Errorf("%w: segment %d: %v", ErrCorrupt, id, err)
	}

	var file segmentFile
	if err := c.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: segment %d: %v", ErrCorrupt, id, err)
	}
	for _, r := range file.Deleted {
		if int(r) >= len(file.Docs) {
			return nil, fmt.Errorf("%w: segment %d: deleted row %d beyond %d docs", ErrCorrupt, id, r, len(file.Docs))
		}
	}

	return newMemSegment(id, file.Docs, NewTombstonesFrom(file.Deleted)), nil
}

// WriteSegment persists seg to store below prefix and returns the blob name.
func WriteSegment(ctx context.Context, store blobstore.BlobStore, prefix string, seg *MemSegment, opts WriteOptions) (string, error) {
	data, err := EncodeSegment(ctx, seg, opts)
	if err != nil {
		return "", err
	}
	name := SegmentName(prefix, seg.ID())
	if err := store.Put(ctx, name, data); err != nil {
		return "", NewAccessError(seg.ID(), "write", err)
	}
	return name, nil
}

// LoadSegment reads and decodes one segment blob. IO is throttled by rc (may be nil).
func LoadSegment(ctx context.Context, store blobstore.BlobStore, name string, rc *resource.Controller) (*MemSegment, error) {
	id, _ := ParseSegmentName(name)

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, NewAccessError(id, "open", err)
	}
	defer blob.Close()

	if err := rc.AcquireIO(ctx, int(blob.Size())); err != nil {
		return nil, err
	}

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, NewAccessError(id, "read", err)
	}

	seg, err := DecodeSegment(data)
	if err != nil {
		return nil, NewAccessError(id, "decode", err)
	}
	return seg, nil
}

// OpenOptions configures OpenReader.
type OpenOptions struct {
	// Resource bounds load concurrency and read throughput. May be nil.
	Resource *resource.Controller
}

// OpenReader loads every segment below prefix in parallel and returns a
// reader ordered by segment id. Any storage failure yields an *AccessError.
func OpenReader(ctx context.Context, store blobstore.BlobStore, prefix string, opts OpenOptions) (*Reader, error) {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return nil, NewAccessError(0, "list", err)
	}

	var segNames []string
	for _, n := range names {
		if _, ok := ParseSegmentName(n); ok {
			segNames = append(segNames, n)
		}
	}

	segments := make([]*MemSegment, len(segNames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Resource.MaxLoadWorkers())

	for i, name := range segNames {
		g.Go(func() error {
			if err := opts.Resource.AcquireWorker(gctx); err != nil {
				return err
			}
			defer opts.Resource.ReleaseWorker()

			seg, err := LoadSegment(gctx, store, name, opts.Resource)
			if err != nil {
				return err
			}
			segments[i] = seg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var ae *AccessError
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, NewAccessError(0, "load", err)
	}

	sort.Slice(segments, func(a, b int) bool { return segments[a].ID() < segments[b].ID() })

	out := make([]Segment, len(segments))
	for i, s := range segments {
		out[i] = s
	}
	return NewReader(out...)
}
