package cache

import (
	"sync"
	"testing"
)

func TestShardedPool_GetPut(t *testing.T) {
	p := NewShardedPool[uint64, *int](2, 4, Uint64Hasher)

	if _, ok := p.Get(1); ok {
		t.Fatal("Get on empty pool succeeded")
	}

	a, b, c := new(int), new(int), new(int)
	p.Put(1, a)
	p.Put(1, b)
	p.Put(1, c) // over perKey, dropped

	if got := p.Idle(); got != 2 {
		t.Errorf("Idle = %d, want 2", got)
	}
	got1, ok1 := p.Get(1)
	got2, ok2 := p.Get(1)
	if !ok1 || !ok2 {
		t.Fatal("Get after Put failed")
	}
	if got1 != b || got2 != a {
		t.Error("pool did not return objects last-in first-out")
	}
	if _, ok := p.Get(1); ok {
		t.Error("pool returned more objects than were kept")
	}

	s := p.Stats()
	if s.Hits != 2 || s.Misses != 2 || s.Evictions != 1 {
		t.Errorf("Stats = %+v, want 2 hits, 2 misses, 1 eviction", s)
	}
}

func TestShardedPool_KeysDoNotMix(t *testing.T) {
	p := NewShardedPool[uint64, string](0, 0, Uint64Hasher)
	p.Put(1, "one")
	p.Put(2, "two")
	if v, _ := p.Get(2); v != "two" {
		t.Errorf("Get(2) = %q", v)
	}
	if v, _ := p.Get(1); v != "one" {
		t.Errorf("Get(1) = %q", v)
	}
}

func TestShardedPool_EvictsLeastRecentlyUsedKey(t *testing.T) {
	// identity hasher sends every multiple of 16 to shard 0
	p := NewShardedPool[uint64, uint64](1, 2, func(u uint64) uint64 { return u })
	var evicted []uint64
	p.Evict = func(k, _ uint64) { evicted = append(evicted, k) }

	p.Put(0, 0)
	p.Put(16, 16)
	p.Get(0)      // touch key 0, leaving 16 as least recently used
	p.Put(0, 0)   // key 0 back in front
	p.Put(32, 32) // shard full, 16 goes

	if len(evicted) != 1 || evicted[0] != 16 {
		t.Fatalf("evicted = %v, want [16]", evicted)
	}
	if _, ok := p.Get(16); ok {
		t.Error("evicted key still has objects")
	}
	if _, ok := p.Get(32); !ok {
		t.Error("new key missing")
	}
}

func TestShardedPool_Clear(t *testing.T) {
	p := NewShardedPool[uint64, int](4, 4, Uint64Hasher)
	n := 0
	p.Evict = func(uint64, int) { n++ }
	for k := range uint64(10) {
		p.Put(k, int(k))
	}
	p.Clear()
	if p.Idle() != 0 {
		t.Errorf("Idle after Clear = %d", p.Idle())
	}
	if n != 10 {
		t.Errorf("Evict called %d times, want 10", n)
	}
}

func TestShardedPool_Concurrent(t *testing.T) {
	p := NewShardedPool[uint64, []byte](4, 8, Uint64Hasher)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := uint64(g % 3)
			for range 200 {
				buf, ok := p.Get(key)
				if !ok {
					buf = make([]byte, 16)
				}
				buf[0]++
				p.Put(key, buf)
			}
		}()
	}
	wg.Wait()
	if p.Idle() > 3*4 {
		t.Errorf("Idle = %d exceeds per-key bounds", p.Idle())
	}
}

func TestUint64HasherSpreads(t *testing.T) {
	seen := map[uint64]bool{}
	for i := range uint64(64) {
		seen[Uint64Hasher(i<<20)&shardMask] = true
	}
	if len(seen) < ShardCount/2 {
		t.Errorf("keys differing in high bits hit only %d shards", len(seen))
	}
}
