package cache

import (
	"sync"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](4)
	if _, ok := c.Get("a"); ok {
		t.Error("Get on empty cache reported a hit")
	}
	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", v, ok)
	}
	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after update = %d, want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int, int](3)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Set(3, 3)
	c.Get(1) // 2 is now the oldest
	c.Set(4, 4)

	if _, ok := c.Get(2); ok {
		t.Error("entry 2 survived eviction; want it dropped as least recently used")
	}
	for _, k := range []int{1, 3, 4} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("entry %d missing after eviction", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[string, int](2)
	calls := 0
	make42 := func() int { calls++; return 42 }
	if v := c.GetOrCreate("k", make42); v != 42 {
		t.Errorf("GetOrCreate = %d, want 42", v)
	}
	if v := c.GetOrCreate("k", make42); v != 42 {
		t.Errorf("GetOrCreate hit = %d, want 42", v)
	}
	if calls != 1 {
		t.Errorf("create ran %d times, want 1", calls)
	}
}

func TestCacheClear(t *testing.T) {
	c := New[int, int](8)
	for i := 0; i < 5; i++ {
		c.Set(i, i)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	c.Set(1, 1)
	if v, ok := c.Get(1); !ok || v != 1 {
		t.Errorf("Get after Clear = %d, %v, want 1, true", v, ok)
	}
}

func TestCacheMinimumCapacity(t *testing.T) {
	c := New[int, int](0)
	c.Set(1, 1)
	c.Set(2, 2)
	if c.Len() != 1 {
		t.Errorf("Len = %d, want capacity clamped to 1", c.Len())
	}
	if _, ok := c.Get(2); !ok {
		t.Error("newest entry missing from capacity-1 cache")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New[int, int](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := (g*200 + i) % 100
				c.Set(k, k)
				c.Get(k)
				c.GetOrCreate(k, func() int { return k })
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Errorf("Len = %d, want at most capacity 64", c.Len())
	}
}
