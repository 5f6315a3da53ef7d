// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a sharded, keyed pool of reusable objects.
//
// Objects that are expensive to build for a given key (a conversion context
// for one frame geometry, for instance) are taken with Get and handed back
// with Put. Each key keeps a bounded free list; each shard keeps a bounded
// number of keys and forgets the least recently used one first.
//
//	pool := cache.NewShardedPool[uint64, *Context](4, 64, cache.Uint64Hasher)
//	ctx, ok := pool.Get(key)
//	if !ok {
//	    ctx = newContext(key)
//	}
//	defer pool.Put(key, ctx)
package cache
