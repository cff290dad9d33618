package cache

import (
	"sync"
	"testing"
)

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a missing")
	}
	c.Set("c", 3) // evicts b

	if _, ok := c.Get("b"); ok {
		t.Error("b survived eviction")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s evicted", k)
		}
	}
	st := c.Stats()
	if st.Len != 2 || st.Evictions != 1 {
		t.Errorf("stats = %+v, want len 2 and 1 eviction", st)
	}
}

func TestCacheSetReplaces(t *testing.T) {
	c := New[int, string](0)
	c.Set(1, "x")
	c.Set(1, "y")
	if v, _ := c.Get(1); v != "y" || c.Len() != 1 {
		t.Errorf("Get = %q, Len = %d", v, c.Len())
	}
}

func TestCacheGetOrCreateOnce(t *testing.T) {
	c := New[string, int](8)
	var (
		mu    sync.Mutex
		calls int
		wg    sync.WaitGroup
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := c.GetOrCreate("k", func() int {
				mu.Lock()
				calls++
				mu.Unlock()
				return 7
			})
			if v != 7 {
				t.Errorf("GetOrCreate = %d", v)
			}
		}()
	}
	wg.Wait()
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	st := c.Stats()
	if st.Misses != 1 || st.Hits != 15 {
		t.Errorf("stats = %+v, want 1 miss and 15 hits", st)
	}
}

func TestCacheClear(t *testing.T) {
	c := New[int, int](4)
	c.Set(1, 1)
	c.Set(2, 2)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len = %d after Clear", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Error("entry survived Clear")
	}
}
