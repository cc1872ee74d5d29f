package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/facetcount/filter"
	"github.com/hupe1980/facetcount/index"
	"github.com/hupe1980/facetcount/metadata"
)

func doc(typ, color string) metadata.Document {
	return metadata.Document{
		DefaultTypeField: metadata.String(typ),
		"color":          metadata.String(color),
	}
}

func newReader(t *testing.T) (*index.Reader, *index.MemSegment, *index.MemSegment) {
	t.Helper()
	s1 := index.NewMemSegment(1, []metadata.Document{
		doc("item", "red"),
		doc("item", "blue"),
		doc("user", "red"),
	})
	s2 := index.NewMemSegment(2, []metadata.Document{
		doc("item", "red"),
		doc("order", "red"),
	})
	r, err := index.NewReader(s1, s2)
	require.NoError(t, err)
	return r, s1, s2
}

func red() filter.Filter { return filter.NewTerm("color", metadata.String("red")) }

func TestIndexSearcher_Count(t *testing.T) {
	r, s1, _ := newReader(t)
	s := NewIndexSearcher(r)
	ctx := context.Background()

	n, err := s.Count(ctx, Compile(red()))
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	n, err = s.Count(ctx, And(Compile(red()), Compile(TypeFilter(DefaultTypeField, "item"))))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s1.Delete(0)
	require.NoError(t, err)

	n, err = s.Count(ctx, Compile(red()))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestIndexSearcher_Canceled(t *testing.T) {
	r, _, _ := newReader(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIndexSearcher(r).Count(ctx, Compile(red()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnd(t *testing.T) {
	assert.True(t, filter.IsMatchAll(And().Filter()))
	assert.True(t, filter.IsMatchAll(And(nil, nil).Filter()))

	p := Compile(red())
	assert.Equal(t, p, And(nil, p))

	conj, ok := And(p, Compile(filter.MatchAll())).(*Conjunction)
	require.True(t, ok)
	assert.Len(t, conj.Parts(), 2)
	assert.Equal(t, red().Key(), conj.Filter().Key())
}

func TestCanCount(t *testing.T) {
	r, _, _ := newReader(t)
	assert.False(t, CanCount(nil, Compile(red())))
	assert.True(t, CanCount(NewIndexSearcher(r), Compile(red())))
}

func TestContext_Defaults(t *testing.T) {
	r, _, _ := newReader(t)
	c := NewContext(r)

	assert.Same(t, r, c.Reader())
	assert.NotNil(t, c.Searcher())
	assert.Equal(t, NoCache{}, c.FilterCache())
	assert.True(t, filter.IsMatchAll(c.Query()))
	assert.True(t, c.Global())
	assert.Nil(t, c.ContextFilter())
	assert.Nil(t, c.TypeFilter())
	assert.Nil(t, c.SearchFilter())
	assert.False(t, c.Scoring())
	assert.False(t, c.Interleaved())
}

func TestContext_Options(t *testing.T) {
	r, _, _ := newReader(t)
	alias := filter.NewTerm("color", metadata.String("blue"))

	c := NewContext(r,
		WithSearcher(nil),
		WithFilterCache(nil),
		WithQuery(red()),
		WithContextFilter(alias),
		WithTypes("item", "user"),
		WithScoring(true),
		WithInterleaved(true),
	)

	assert.Nil(t, c.Searcher())
	assert.Nil(t, c.FilterCache())
	assert.False(t, c.Global())
	assert.True(t, c.Scoring())
	assert.True(t, c.Interleaved())
	assert.Equal(t, []string{"item", "user"}, c.Types())
	assert.Equal(t, `or(term("_type"="s:item"),term("_type"="s:user"))`, c.TypeFilter().Key())
	assert.Equal(t, filter.And(alias, c.TypeFilter()).Key(), c.SearchFilter().Key())
}

func TestContext_Matches(t *testing.T) {
	r, s1, s2 := newReader(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		opts   []ContextOption
		s1, s2 []uint32
	}{
		{"match all", nil, []uint32{0, 1, 2}, []uint32{0, 1}},
		{"query", []ContextOption{WithQuery(red())}, []uint32{0, 2}, []uint32{0, 1}},
		{"types", []ContextOption{WithTypes("item")}, []uint32{0, 1}, []uint32{0}},
		{"query and types without cache", []ContextOption{WithQuery(red()), WithTypes("item"), WithFilterCache(nil)}, []uint32{0}, []uint32{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(r, tt.opts...)

			got, err := c.Matches(ctx, s1)
			require.NoError(t, err)
			assert.Equal(t, tt.s1, got.ToArray())

			got, err = c.Matches(ctx, s2)
			require.NoError(t, err)
			assert.Equal(t, tt.s2, got.ToArray())
		})
	}
}

func TestTypeFilter(t *testing.T) {
	assert.Nil(t, TypeFilter("t"))
	assert.Equal(t, `term("t"="s:a")`, TypeFilter("t", "a").Key())
}
