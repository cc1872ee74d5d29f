package blugesearch

import (
	"context"
	"strconv"
	"strings"

	"github.com/blugelabs/bluge"

	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/metadata"
	"github.com/hupe1980/facetcount/model"
)

// DocID returns the bluge identifier of a segment row.
func DocID(loc model.Location) bluge.Identifier {
	return bluge.Identifier(strconv.FormatUint(uint64(loc.SegmentID), 10) + "/" + strconv.FormatUint(uint64(loc.RowID), 10))
}

// ParseDocID is the inverse of DocID.
func ParseDocID(id string) (model.Location, bool) {
	seg, row, ok := strings.Cut(id, "/")
	if !ok {
		return model.Location{}, false
	}
	s, err := strconv.ParseUint(seg, 10, 64)
	if err != nil {
		return model.Location{}, false
	}
	r, err := strconv.ParseUint(row, 10, 32)
	if err != nil {
		return model.Location{}, false
	}
	return model.Location{SegmentID: model.SegmentID(s), RowID: model.RowID(r)}, true
}

// Document maps md onto a bluge document. Strings become keyword fields,
// numbers numeric fields and bools the keywords "T" and "F", each under a
// field name tagged with the value kind. Null and array values are not
// indexed.
func Document(id bluge.Identifier, md metadata.Document) *bluge.Document {
	doc := bluge.NewDocumentWithIdentifier(id)
	for field, v := range md {
		switch v.Kind {
		case metadata.KindString:
			doc.AddField(bluge.NewKeywordField(fieldName(field, kindString), v.StringValue()))
		case metadata.KindBool:
			doc.AddField(bluge.NewKeywordField(fieldName(field, kindBool), encodeBool(v.B)))
		case metadata.KindInt, metadata.KindFloat:
			x, _ := v.AsFloat64()
			doc.AddField(bluge.NewNumericField(fieldName(field, kindNumber), x))
		}
	}
	return doc
}

// Index mirrors segment documents into a bluge index.
type Index struct {
	writer *bluge.Writer
}

// NewIndex opens a bluge writer with cfg.
func NewIndex(cfg bluge.Config) (*Index, error) {
	w, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, err
	}
	return &Index{writer: w}, nil
}

// NewInMemoryIndex opens an index that lives only in memory.
func NewInMemoryIndex() (*Index, error) {
	return NewIndex(bluge.InMemoryOnlyConfig())
}

// Add indexes the live documents of seg in one batch. Rows already present are replaced.
func (x *Index) Add(ctx context.Context, seg index.Segment) error {
	live := seg.LiveDocs()
	batch := bluge.NewBatch()
	n := 0
	err := seg.Scan(ctx, func(row uint32, md metadata.Document) bool {
		if live.IsLive(row) {
			id := DocID(model.Location{SegmentID: seg.ID(), RowID: model.RowID(row)})
			batch.Update(id, Document(id, md))
			n++
		}
		return true
	})
	if err != nil || n == 0 {
		return err
	}
	return x.writer.Batch(batch)
}

// AddReader indexes every segment of r.
func (x *Index) AddReader(ctx context.Context, r *index.Reader) error {
	for _, seg := range r.Segments() {
		if err := x.Add(ctx, seg); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes rows of segment id.
func (x *Index) Delete(id model.SegmentID, rows ...uint32) error {
	if len(rows) == 0 {
		return nil
	}
	batch := bluge.NewBatch()
	for _, r := range rows {
		batch.Delete(DocID(model.Location{SegmentID: id, RowID: model.RowID(r)}))
	}
	return x.writer.Batch(batch)
}

// Searcher returns a searcher over a near-real-time snapshot of the index.
// The caller must Close it.
func (x *Index) Searcher() (*Searcher, error) {
	r, err := x.writer.Reader()
	if err != nil {
		return nil, err
	}
	return NewSearcher(r), nil
}

// Close closes the writer.
func (x *Index) Close() error {
	return x.writer.Close()
}
