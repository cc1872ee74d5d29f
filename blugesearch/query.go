package blugesearch

import (
	"errors"
	"fmt"
	"math"

	"github.com/blugelabs/bluge"

	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/metadata"
)

// ErrUnsupported is returned by ToQuery for filters with no exact bluge equivalent.
var ErrUnsupported = errors.New("filter not supported by bluge searcher")

// Encoded bool values, as stored by Document.
const (
	boolTrue  = "T"
	boolFalse = "F"
)

// Values of different kinds are indexed under separate bluge fields, so
// they never share terms, as with the kind-tagged posting keys of segments.
const (
	kindString = 's'
	kindBool   = 'b'
	kindNumber = 'n'
)

func fieldName(field string, kind byte) string {
	return field + "\x00" + string(kind)
}

// maxExactNumeric bounds the integers bluge's float64 numeric fields hold exactly.
const maxExactNumeric = 1 << 53

// ToQuery translates f into an equivalent bluge query.
//
// Supported: MatchAll, Term and Field equality or membership on strings,
// bools and numbers, Field numeric ranges, and And/Or/Not of supported
// filters. Everything else yields ErrUnsupported.
func ToQuery(f filter.Filter) (bluge.Query, error) {
	if f == nil || filter.IsMatchAll(f) {
		return bluge.NewMatchAllQuery(), nil
	}

	switch t := f.(type) {
	case *filter.Term:
		return eqQuery(t.Field, t.Value)
	case *filter.Field:
		return fieldQuery(t.Cond)
	case *filter.AndFilter:
		q := bluge.NewBooleanQuery()
		for _, p := range t.Parts() {
			sub, err := ToQuery(p)
			if err != nil {
				return nil, err
			}
			q.AddMust(sub)
		}
		return q, nil
	case *filter.OrFilter:
		parts := t.Parts()
		if len(parts) == 0 {
			return bluge.NewMatchNoneQuery(), nil
		}
		return anyOf(parts, ToQuery)
	case *filter.NotFilter:
		sub, err := ToQuery(t.Inner())
		if err != nil {
			return nil, err
		}
		// The explicit match-all keeps the query correct when sub resolves to
		// a match-none searcher, which a boolean query silently drops.
		return bluge.NewBooleanQuery().AddMust(bluge.NewMatchAllQuery()).AddMustNot(sub), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, f.Key())
	}
}

func fieldQuery(c metadata.Filter) (bluge.Query, error) {
	switch c.Operator {
	case metadata.OpEqual:
		return eqQuery(c.Key, c.Value)
	case metadata.OpIn:
		if c.Value.Kind != metadata.KindArray {
			return bluge.NewMatchNoneQuery(), nil
		}
		if len(c.Value.A) == 0 {
			return bluge.NewMatchNoneQuery(), nil
		}
		return anyOf(c.Value.A, func(v metadata.Value) (bluge.Query, error) {
			return eqQuery(c.Key, v)
		})
	case metadata.OpGreaterThan, metadata.OpGreaterEqual, metadata.OpLessThan, metadata.OpLessEqual:
		x, ok := c.Value.AsFloat64()
		if !ok || math.IsNaN(x) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, c)
		}
		var q *bluge.NumericRangeQuery
		switch c.Operator {
		case metadata.OpGreaterThan:
			q = bluge.NewNumericRangeInclusiveQuery(x, bluge.MaxNumeric, false, false)
		case metadata.OpGreaterEqual:
			q = bluge.NewNumericRangeInclusiveQuery(x, bluge.MaxNumeric, true, false)
		case metadata.OpLessThan:
			q = bluge.NewNumericRangeInclusiveQuery(bluge.MinNumeric, x, false, false)
		default:
			q = bluge.NewNumericRangeInclusiveQuery(bluge.MinNumeric, x, false, true)
		}
		return q.SetField(fieldName(c.Key, kindNumber)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, c)
	}
}

func eqQuery(field string, v metadata.Value) (bluge.Query, error) {
	switch v.Kind {
	case metadata.KindString:
		return bluge.NewTermQuery(v.StringValue()).SetField(fieldName(field, kindString)), nil
	case metadata.KindBool:
		return bluge.NewTermQuery(encodeBool(v.B)).SetField(fieldName(field, kindBool)), nil
	case metadata.KindInt, metadata.KindFloat:
		x, ok := exactNumber(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s=%s", ErrUnsupported, field, v)
		}
		return bluge.NewNumericRangeInclusiveQuery(x, x, true, true).SetField(fieldName(field, kindNumber)), nil
	default:
		return nil, fmt.Errorf("%w: %s=%s", ErrUnsupported, field, v)
	}
}

func anyOf[T any](items []T, build func(T) (bluge.Query, error)) (bluge.Query, error) {
	q := bluge.NewBooleanQuery().SetMinShould(1)
	for _, it := range items {
		sub, err := build(it)
		if err != nil {
			return nil, err
		}
		q.AddShould(sub)
	}
	return q, nil
}

func exactNumber(v metadata.Value) (float64, bool) {
	switch v.Kind {
	case metadata.KindInt:
		if v.I64 >= maxExactNumeric || v.I64 <= -maxExactNumeric {
			return 0, false
		}
		return float64(v.I64), true
	case metadata.KindFloat:
		// Segments key floats at or beyond the bound apart from ints of the
		// same magnitude, which a numeric range cannot tell apart.
		if math.IsNaN(v.F64) || math.Abs(v.F64) >= maxExactNumeric {
			return 0, false
		}
		return v.F64, true
	default:
		return 0, false
	}
}

func encodeBool(b bool) string {
	if b {
		return boolTrue
	}
	return boolFalse
}
