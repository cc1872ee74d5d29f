package cache

import (
	"encoding/binary"
	"hash/maphash"

	"github.com/hupe1980/facetcount/docset"
	"github.com/hupe1980/facetcount/internal/resource"
)

const numShards = 16

// ShardedLRU is a sharded LRU cache for concurrent queries.
// It distributes entries across shards to reduce lock contention.
type ShardedLRU struct {
	shards [numShards]*LRU
	seed   maphash.Seed
}

// NewShardedLRU creates a new sharded LRU cache.
// The capacity is divided evenly across all shards.
func NewShardedLRU(capacity int64, rc *resource.Controller) *ShardedLRU {
	shardCapacity := capacity / numShards
	if shardCapacity < 1 {
		shardCapacity = 1
	}

	s := &ShardedLRU{
		seed: maphash.MakeSeed(),
	}

	for i := range numShards {
		s.shards[i] = NewLRU(shardCapacity, rc)
	}

	return s
}

func (s *ShardedLRU) shard(key Key) *LRU {
	var h maphash.Hash
	h.SetSeed(s.seed)

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key.SegmentID))
	_, _ = h.Write(buf[:])
	_, _ = h.WriteString(key.Filter)

	return s.shards[h.Sum64()%numShards]
}

// Get returns a cached bitmap.
func (s *ShardedLRU) Get(key Key) (*docset.Bitmap, bool) {
	return s.shard(key).Get(key)
}

// Set caches a bitmap.
func (s *ShardedLRU) Set(key Key, b *docset.Bitmap) {
	s.shard(key).Set(key, b)
}

// Invalidate removes entries matching the predicate across all shards.
func (s *ShardedLRU) Invalidate(predicate func(key Key) bool) {
	for _, sh := range s.shards {
		sh.Invalidate(predicate)
	}
}

// Close closes all shards.
func (s *ShardedLRU) Close() error {
	for _, sh := range s.shards {
		if err := sh.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns aggregated hit/miss statistics.
func (s *ShardedLRU) Stats() (hits, misses int64) {
	for _, sh := range s.shards {
		h, m := sh.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the total size across all shards.
func (s *ShardedLRU) Size() int64 {
	var total int64
	for _, sh := range s.shards {
		total += sh.Size()
	}
	return total
}

// Len returns the total number of entries across all shards.
func (s *ShardedLRU) Len() int {
	var total int
	for _, sh := range s.shards {
		total += sh.Len()
	}
	return total
}
