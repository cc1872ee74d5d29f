package filter

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/facetcount/docset"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/metadata"
)

// Filter is a stateless predicate over documents, reusable across segments
// and queries.
type Filter interface {
	// Key returns a canonical string identifying the predicate. Two filters
	// with the same Key must match the same documents, so implementations
	// quote every caller-supplied part.
	Key() string

	// Match returns the rows of seg that satisfy the predicate. Deleted rows
	// may be included; Compile removes them. The bitmap is owned by the caller.
	Match(ctx context.Context, seg index.Segment) (*roaring.Bitmap, error)
}

// Compile evaluates f against the current live-document view of seg.
func Compile(ctx context.Context, f Filter, seg index.Segment) (*docset.Bitmap, error) {
	return CompileLive(ctx, f, seg, seg.LiveDocs())
}

// CompileLive evaluates f against seg and restricts the result to live.
// The result never contains a deleted row or a row outside [0, MaxDoc).
// Storage failures are reported as *index.AccessError.
func CompileLive(ctx context.Context, f Filter, seg index.Segment, live index.LiveDocs) (*docset.Bitmap, error) {
	rb, err := f.Match(ctx, seg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		var ae *index.AccessError
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, index.NewAccessError(seg.ID(), "compile "+f.Key(), err)
	}
	live.Restrict(rb)
	return docset.FromRoaring(rb), nil
}

// Term matches documents whose field holds exactly Value, via postings.
type Term struct {
	Field string
	Value metadata.Value
}

// NewTerm creates a Term filter.
func NewTerm(field string, value metadata.Value) *Term {
	return &Term{Field: field, Value: value}
}

// Key implements Filter.
func (t *Term) Key() string {
	return "term(" + strconv.Quote(t.Field) + "=" + strconv.Quote(t.Value.Key()) + ")"
}

// Match implements Filter.
func (t *Term) Match(ctx context.Context, seg index.Segment) (*roaring.Bitmap, error) {
	return seg.Terms(ctx, t.Field, t.Value)
}

// Field evaluates a metadata.Filter condition. Equality and membership on
// values with an exact posting key use postings; everything else scans.
type Field struct {
	Cond metadata.Filter
}

// NewField creates a Field filter.
func NewField(key string, op metadata.Operator, value metadata.Value) *Field {
	return &Field{Cond: metadata.Filter{Key: key, Operator: op, Value: value}}
}

// Key implements Filter.
func (f *Field) Key() string {
	return "field(" + strconv.Quote(f.Cond.Key) + " " + strconv.Quote(string(f.Cond.Operator)) + " " + strconv.Quote(f.Cond.Value.Key()) + ")"
}

// Match implements Filter.
func (f *Field) Match(ctx context.Context, seg index.Segment) (*roaring.Bitmap, error) {
	switch f.Cond.Operator {
	case metadata.OpEqual:
		if postable(f.Cond.Value) {
			return seg.Terms(ctx, f.Cond.Key, f.Cond.Value)
		}
	case metadata.OpIn:
		if items, ok := f.Cond.Value.AsArray(); ok && allPostable(items) {
			out := roaring.New()
			for _, item := range items {
				rb, err := seg.Terms(ctx, f.Cond.Key, item)
				if err != nil {
					return nil, err
				}
				out.Or(rb)
			}
			return out, nil
		}
	}
	return scan(ctx, seg, f.Cond.Matches)
}

// postable reports whether postings keyed by v.Key() find exactly the values
// equal to v. Large numbers are excluded because int and float keys diverge there.
func postable(v metadata.Value) bool {
	switch v.Kind {
	case metadata.KindString, metadata.KindBool, metadata.KindNull:
		return true
	case metadata.KindInt:
		return v.I64 > -(1<<53) && v.I64 < 1<<53
	case metadata.KindFloat:
		return v.F64 == math.Trunc(v.F64) && math.Abs(v.F64) < 1<<53
	default:
		return false
	}
}

func allPostable(items []metadata.Value) bool {
	for _, v := range items {
		if !postable(v) {
			return false
		}
	}
	return true
}

func scan(ctx context.Context, seg index.Segment, pred func(metadata.Document) bool) (*roaring.Bitmap, error) {
	out := roaring.New()
	err := seg.Scan(ctx, func(row uint32, doc metadata.Document) bool {
		if pred(doc) {
			out.Add(row)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FromFilterSet converts a metadata.FilterSet into a conjunction of Field filters.
// A nil or empty set matches everything.
func FromFilterSet(fs *metadata.FilterSet) Filter {
	if fs == nil || len(fs.Filters) == 0 {
		return MatchAll()
	}
	parts := make([]Filter, len(fs.Filters))
	for i, c := range fs.Filters {
		parts[i] = &Field{Cond: c}
	}
	return And(parts...)
}

// AndFilter is a conjunction. Build it with And.
type AndFilter struct{ parts []Filter }

// And matches documents satisfying every part. And() matches everything.
func And(parts ...Filter) Filter {
	parts = compact(parts)
	kept := parts[:0]
	for _, p := range parts {
		if !IsMatchAll(p) {
			kept = append(kept, p)
		}
	}
	parts = kept
	switch len(parts) {
	case 0:
		return MatchAll()
	case 1:
		return parts[0]
	}
	return &AndFilter{parts: parts}
}

func (a *AndFilter) Key() string { return joinKeys("and", a.parts) }

func (a *AndFilter) Match(ctx context.Context, seg index.Segment) (*roaring.Bitmap, error) {
	var out *roaring.Bitmap
	for _, p := range a.parts {
		rb, err := p.Match(ctx, seg)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = rb
		} else {
			out.And(rb)
		}
		if out.IsEmpty() {
			break
		}
	}
	return out, nil
}

// Parts returns the conjuncts.
func (a *AndFilter) Parts() []Filter { return a.parts }

// OrFilter is a disjunction. Build it with Or.
type OrFilter struct{ parts []Filter }

// Or matches documents satisfying at least one part. Or() matches nothing.
func Or(parts ...Filter) Filter {
	parts = compact(parts)
	if len(parts) == 1 {
		return parts[0]
	}
	return &OrFilter{parts: parts}
}

func (o *OrFilter) Key() string { return joinKeys("or", o.parts) }

func (o *OrFilter) Match(ctx context.Context, seg index.Segment) (*roaring.Bitmap, error) {
	out := roaring.New()
	for _, p := range o.parts {
		rb, err := p.Match(ctx, seg)
		if err != nil {
			return nil, err
		}
		out.Or(rb)
	}
	return out, nil
}

// Parts returns the disjuncts.
func (o *OrFilter) Parts() []Filter { return o.parts }

// NotFilter is a negation. Build it with Not.
type NotFilter struct{ inner Filter }

// Not matches documents that do not satisfy inner.
func Not(inner Filter) Filter {
	return &NotFilter{inner: inner}
}

func (n *NotFilter) Key() string { return "not(" + n.inner.Key() + ")" }

func (n *NotFilter) Match(ctx context.Context, seg index.Segment) (*roaring.Bitmap, error) {
	rb, err := n.inner.Match(ctx, seg)
	if err != nil {
		return nil, err
	}
	all := roaring.New()
	all.AddRange(0, uint64(seg.MaxDoc()))
	all.AndNot(rb)
	return all, nil
}

// Inner returns the negated filter.
func (n *NotFilter) Inner() Filter { return n.inner }

type matchAll struct{}

var all Filter = matchAll{}

// MatchAll matches every document.
func MatchAll() Filter { return all }

func (matchAll) Key() string { return "*" }

func (matchAll) Match(_ context.Context, seg index.Segment) (*roaring.Bitmap, error) {
	rb := roaring.New()
	rb.AddRange(0, uint64(seg.MaxDoc()))
	return rb, nil
}

// IsMatchAll reports whether f is the MatchAll filter.
func IsMatchAll(f Filter) bool {
	_, ok := f.(matchAll)
	return ok
}

func compact(parts []Filter) []Filter {
	out := make([]Filter, 0, len(parts))
	for _, p := range parts {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func joinKeys(op string, parts []Filter) string {
	var sb strings.Builder
	sb.WriteString(op)
	sb.WriteByte('(')
	for i, p := range parts {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Key())
	}
	sb.WriteByte(')')
	return sb.String()
}
