package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hupe1980/facetcount/blobstore"
	"github.com/hupe1980/facetcount/codec"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/internal/config"
	"github.com/hupe1980/facetcount/metadata"
	"github.com/hupe1980/facetcount/model"
)

const maxLineSize = 16 << 20

// buildSegments reads one JSON object per line from r and writes them as
// segments of cfg.Segment.RowsPerSegment documents. New segments are
// numbered after the ones already stored. It returns the number of segments written.
func buildSegments(ctx context.Context, store blobstore.BlobStore, cfg config.Config, r io.Reader, logger *zap.Logger) (int, error) {
	compression, err := codec.ParseCompression(cfg.Segment.Compression)
	if err != nil {
		return 0, err
	}
	c, ok := codec.ByName(cfg.Segment.Codec)
	if !ok {
		return 0, fmt.Errorf("unknown codec %q", cfg.Segment.Codec)
	}
	opts := index.WriteOptions{Codec: c, Compression: compression}

	next, err := nextSegmentID(ctx, store, cfg.Storage.Prefix)
	if err != nil {
		return 0, err
	}

	written := 0
	docs := make([]metadata.Document, 0, cfg.Segment.RowsPerSegment)
	flush := func() error {
		if len(docs) == 0 {
			return nil
		}
		seg := index.NewMemSegment(next, docs)
		name, err := index.WriteSegment(ctx, store, cfg.Storage.Prefix, seg, opts)
		if err != nil {
			return err
		}
		logger.Info("Segment written",
			zap.String("name", name),
			zap.Uint64("segment", uint64(next)),
			zap.Int("docs", len(docs)),
			zap.String("compression", compression.String()),
		)
		next++
		written++
		docs = make([]metadata.Document, 0, cfg.Segment.RowsPerSegment)
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return written, fmt.Errorf("line %d: %w", line, err)
		}
		doc, err := metadata.DocumentFromAny(m)
		if err != nil {
			return written, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, doc)

		if len(docs) == cfg.Segment.RowsPerSegment {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return written, err
	}
	if err := flush(); err != nil {
		return written, err
	}

	logger.Info("Build finished", zap.Int("segments", written), zap.Int("lines", line))
	return written, nil
}

func nextSegmentID(ctx context.Context, store blobstore.BlobStore, prefix string) (model.SegmentID, error) {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return 0, index.NewAccessError(0, "list", err)
	}
	var next model.SegmentID
	for _, n := range names {
		if id, ok := index.ParseSegmentName(n); ok && id >= next {
			next = id + 1
		}
	}
	return next, nil
}
