package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_Create(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit", 4, 4},
		{"zero uses GOMAXPROCS", 0, runtime.GOMAXPROCS(0)},
		{"negative uses GOMAXPROCS", -5, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workers)
			defer pool.Close()
			if pool.Workers() != tt.want {
				t.Errorf("Workers() = %d, want %d", pool.Workers(), tt.want)
			}
			if !pool.IsRunning() {
				t.Error("pool should be running after creation")
			}
		})
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)

	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
}

func TestWorkerPool_ExecuteAllAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close() // idempotent

	ran := 0
	pool.ExecuteAll([]func(){func() { ran++ }, func() { ran++ }})
	if ran != 2 {
		t.Errorf("ran = %d after Close, want 2 (inline)", ran)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		n, grain, parts int
		wantItems       int
	}{
		{0, 8, 4, 0},
		{10, 8, 4, 2},
		{1080, 64, 8, 8},
		{3, 1, 8, 3},
		{5, 100, 4, 1},
	}
	for _, tt := range tests {
		var mu sync.Mutex
		covered := make([]int, tt.n)
		work := Split(tt.n, tt.grain, tt.parts, func(lo, hi int) {
			mu.Lock()
			defer mu.Unlock()
			for i := lo; i < hi; i++ {
				covered[i]++
			}
		})
		if len(work) != tt.wantItems {
			t.Errorf("Split(%d, %d, %d) = %d items, want %d", tt.n, tt.grain, tt.parts, len(work), tt.wantItems)
		}
		for _, fn := range work {
			fn()
		}
		for i, c := range covered {
			if c != 1 {
				t.Errorf("Split(%d, %d, %d): row %d covered %d times", tt.n, tt.grain, tt.parts, i, c)
			}
		}
	}
}

func TestWorkerPool_Rows(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	rows := make([]int32, 577)
	pool.Rows(len(rows), 16, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&rows[i], 1)
		}
	})
	for i, v := range rows {
		if v != 1 {
			t.Fatalf("row %d visited %d times", i, v)
		}
	}
}

func TestShared(t *testing.T) {
	if Shared() != Shared() {
		t.Error("Shared returned different pools")
	}
	if !Shared().IsRunning() {
		t.Error("shared pool is not running")
	}
}
