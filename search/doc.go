// Package search provides the query-execution collaborators facet collectors
// depend on: the per-query Context, whole-index Predicates, the FilterCache
// contract and count-only Searchers.
//
// The outer match stream of a query (Context.Matches) and the composite
// predicate of an optimized facet are both built from the same Context
// accessors, so both collection paths see the same filters.
package search
