package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestLRUCache_BasicOperations(t *testing.T) {
	cache := NewLRUCache[string, int](3)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3)

	if v, ok := cache.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if v, ok := cache.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v; want 3, true", v, ok)
	}
	if _, ok := cache.Get("d"); ok {
		t.Error("Get(d) should return false")
	}
	if n := cache.Len(); n != 3 {
		t.Errorf("Len() = %d; want 3", n)
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := NewLRUCache[string, int](2)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Get("a")
	cache.Put("c", 3) // evicts "b", the least recently used

	if _, ok := cache.Get("b"); ok {
		t.Error("Get(b) should return false after eviction")
	}
	if _, ok := cache.Get("a"); !ok {
		t.Error("Get(a) should survive eviction")
	}
	if s := cache.Stats(); s.Evictions != 1 || s.Size != 2 || s.MaxSize != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestLRUCache_UpdateAndRemove(t *testing.T) {
	cache := NewLRUCache[string, int](0)
	cache.Put("a", 1)
	cache.Put("a", 2)
	if v, _ := cache.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d; want 2", v)
	}
	cache.Remove("a")
	cache.Remove("missing")
	if cache.Len() != 0 {
		t.Errorf("Len() = %d after Remove; want 0", cache.Len())
	}
}

func TestLRUCache_Stats(t *testing.T) {
	cache := NewLRUCache[string, int](-1)
	cache.Put("a", 1)
	cache.Get("a")
	cache.Get("a")
	cache.Get("b")
	s := cache.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.MaxSize != 0 {
		t.Errorf("Stats() = %+v; want 2 hits, 1 miss, unlimited", s)
	}
}

func TestLRUCache_Concurrency(t *testing.T) {
	cache := NewLRUCache[string, int](50)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (n*100+j)%75)
				cache.Put(key, j)
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if cache.Len() > 50 {
		t.Errorf("Len() = %d; want at most 50", cache.Len())
	}
}

func TestDocuments(t *testing.T) {
	docs := NewDocuments(4)
	src := "name:Test;\n%%\n(c4)Al(d)le(e)"

	first, cached, err := docs.Parse("a.gabc", src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cached {
		t.Error("first Parse reported a cache hit")
	}
	if len(first.Document.Syllables) != 3 {
		t.Errorf("syllables = %d; want 3", len(first.Document.Syllables))
	}

	second, cached, err := docs.Parse("copy.gabc", src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !cached || second != first {
		t.Error("identical source was parsed again")
	}

	if _, _, err := docs.Parse("bad.gabc", "%%\n(c3) Po(z)"); err == nil {
		t.Error("Parse of an unknown music token should fail")
	}
	if s := docs.Stats(); s.Size != 1 {
		t.Errorf("Stats().Size = %d; want 1 (failures are not cached)", s.Size)
	}
}
