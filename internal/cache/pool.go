// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"sync"
	"sync/atomic"
)

const (
	// ShardCount is the number of shards. Must be a power of 2.
	ShardCount = 16

	shardMask = ShardCount - 1

	// DefaultKeysPerShard bounds the distinct keys tracked per shard.
	DefaultKeysPerShard = 16

	// DefaultPerKey bounds the idle objects kept per key.
	DefaultPerKey = 4
)

// Hasher computes the shard selection hash of a key.
type Hasher[K any] func(K) uint64

// Uint64Hasher mixes a uint64 key with the splitmix64 finalizer, so keys
// that differ only in high bits still spread across shards.
func Uint64Hasher(u uint64) uint64 {
	u ^= u >> 30
	u *= 0xbf58476d1ce4e5b9
	u ^= u >> 27
	u *= 0x94d049bb133111eb
	u ^= u >> 31
	return u
}

// ShardedPool keeps idle objects per key across 16 independently locked
// shards.
//
// Thread safety: all methods are safe for concurrent use.
type ShardedPool[K comparable, V any] struct {
	shards       [ShardCount]*poolShard[K, V]
	hasher       Hasher[K]
	perKey       int
	keysPerShard int

	// Evict, when set, is called for every object the pool drops.
	Evict func(K, V)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type poolShard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*poolEntry[K, V]
	lru     lruList[K]
}

type poolEntry[K comparable, V any] struct {
	free []V
	node *lruNode[K]
}

// NewShardedPool creates a pool keeping at most perKey idle objects per key
// and keysPerShard keys per shard. Non-positive limits use the defaults.
func NewShardedPool[K comparable, V any](perKey, keysPerShard int, hasher Hasher[K]) *ShardedPool[K, V] {
	if perKey <= 0 {
		perKey = DefaultPerKey
	}
	if keysPerShard <= 0 {
		keysPerShard = DefaultKeysPerShard
	}
	p := &ShardedPool[K, V]{
		hasher:       hasher,
		perKey:       perKey,
		keysPerShard: keysPerShard,
	}
	for i := range p.shards {
		p.shards[i] = &poolShard[K, V]{entries: make(map[K]*poolEntry[K, V])}
	}
	return p
}

func (p *ShardedPool[K, V]) shard(key K) *poolShard[K, V] {
	return p.shards[p.hasher(key)&shardMask]
}

// Get takes an idle object for key. ok is false when none is available and
// the caller must build one.
func (p *ShardedPool[K, V]) Get(key K) (v V, ok bool) {
	s := p.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.entries[key]
	if !found || len(e.free) == 0 {
		p.misses.Add(1)
		return v, false
	}
	n := len(e.free) - 1
	v = e.free[n]
	var zero V
	e.free[n] = zero
	e.free = e.free[:n]
	s.lru.MoveToFront(e.node)
	p.hits.Add(1)
	return v, true
}

// Put returns an object for key. When the key already holds perKey idle
// objects, v is dropped. When the shard tracks too many keys, the least
// recently used key and its objects are dropped.
func (p *ShardedPool[K, V]) Put(key K, v V) {
	s := p.shard(key)
	var dropped []V
	var droppedKeys []K

	s.mu.Lock()
	e, found := s.entries[key]
	if !found {
		for s.lru.Len() >= p.keysPerShard {
			oldest, ok := s.lru.RemoveOldest()
			if !ok {
				break
			}
			for _, old := range s.entries[oldest].free {
				dropped = append(dropped, old)
				droppedKeys = append(droppedKeys, oldest)
			}
			delete(s.entries, oldest)
		}
		e = &poolEntry[K, V]{node: s.lru.PushFront(key)}
		s.entries[key] = e
	} else {
		s.lru.MoveToFront(e.node)
	}
	if len(e.free) < p.perKey {
		e.free = append(e.free, v)
	} else {
		dropped = append(dropped, v)
		droppedKeys = append(droppedKeys, key)
	}
	s.mu.Unlock()

	p.evictions.Add(uint64(len(dropped)))
	if p.Evict != nil {
		for i, d := range dropped {
			p.Evict(droppedKeys[i], d)
		}
	}
}

// Idle returns the number of idle objects across all shards.
func (p *ShardedPool[K, V]) Idle() int {
	total := 0
	for _, s := range p.shards {
		s.mu.Lock()
		for _, e := range s.entries {
			total += len(e.free)
		}
		s.mu.Unlock()
	}
	return total
}

// Clear drops every idle object.
func (p *ShardedPool[K, V]) Clear() {
	for _, s := range p.shards {
		s.mu.Lock()
		entries := s.entries
		s.entries = make(map[K]*poolEntry[K, V])
		s.lru.Clear()
		s.mu.Unlock()

		if p.Evict == nil {
			continue
		}
		for k, e := range entries {
			for _, v := range e.free {
				p.Evict(k, v)
			}
		}
	}
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Idle      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// Stats returns current pool statistics.
func (p *ShardedPool[K, V]) Stats() Stats {
	hits, misses := p.hits.Load(), p.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Idle:      p.Idle(),
		Hits:      hits,
		Misses:    misses,
		Evictions: p.evictions.Load(),
		HitRate:   rate,
	}
}
