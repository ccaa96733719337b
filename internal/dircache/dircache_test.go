package dircache

import (
	"fmt"
	"testing"
	"time"

	"github.com/tw93/probe/internal/fsread"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(capacity int, ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := New(capacity, ttl)
	c.SetClock(clock.now)
	return c, clock
}

func listing(names ...string) []fsread.FileEntry {
	out := make([]fsread.FileEntry, 0, len(names))
	for _, n := range names {
		out = append(out, fsread.FileEntry{Name: n, Path: "/x/" + n, Size: int64(len(n))})
	}
	return out
}

func TestCache_RoundTripWithinTTL(t *testing.T) {
	c, clock := newTestCache(10, 30*time.Second)
	want := listing("a", "bb", "ccc")
	c.Insert("/x", want)
	clock.advance(29 * time.Second)

	got, ok := c.Get("/x")
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// returned listing is a copy
	got[0].Name = "mutated"
	again, _ := c.Get("/x")
	if again[0].Name != "a" {
		t.Error("cache entry was mutated through returned slice")
	}
}

func TestCache_ExpiredIsMissAndEvicted(t *testing.T) {
	c, clock := newTestCache(10, 30*time.Second)
	c.Insert("/x", listing("old"))
	clock.advance(31 * time.Second)

	if _, ok := c.Get("/x"); ok {
		t.Fatal("expected miss after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len = %d", c.Len())
	}

	c.Insert("/x", listing("new"))
	got, ok := c.Get("/x")
	if !ok || len(got) != 1 || got[0].Name != "new" {
		t.Errorf("reinsert did not replace stale entry: %+v", got)
	}
}

func TestCache_InsertResetsTimestamp(t *testing.T) {
	c, clock := newTestCache(10, 30*time.Second)
	c.Insert("/x", listing("a"))
	clock.advance(20 * time.Second)
	c.Insert("/x", listing("b"))
	clock.advance(20 * time.Second)

	got, ok := c.Get("/x")
	if !ok || got[0].Name != "b" {
		t.Errorf("overwrite should reset age: ok=%v got=%+v", ok, got)
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(3, time.Minute)
	c.Insert("/a", listing("a"))
	c.Insert("/b", listing("b"))
	c.Insert("/c", listing("c"))

	// /a becomes most recent, /b is now the oldest
	if _, ok := c.Get("/a"); !ok {
		t.Fatal("expected /a hit")
	}
	c.Insert("/d", listing("d"))

	if _, ok := c.Get("/b"); ok {
		t.Error("/b should have been evicted first")
	}
	for _, p := range []string{"/a", "/c", "/d"} {
		if _, ok := c.Get(p); !ok {
			t.Errorf("%s should still be cached", p)
		}
	}
	if c.Len() != 3 {
		t.Errorf("len = %d, want 3", c.Len())
	}
}

func TestCache_CapacityPlusOne(t *testing.T) {
	c, _ := newTestCache(DefaultCapacity, time.Minute)
	for i := 0; i <= DefaultCapacity; i++ {
		c.Insert(fmt.Sprintf("/dir/%d", i), listing("x"))
	}
	if _, ok := c.Get("/dir/0"); ok {
		t.Error("first inserted path should be evicted")
	}
	if _, ok := c.Get("/dir/1"); !ok {
		t.Error("second inserted path should survive")
	}
	if c.Len() != DefaultCapacity {
		t.Errorf("len = %d, want %d", c.Len(), DefaultCapacity)
	}
}

func TestCache_InvalidateAndClear(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Insert("/a", listing("a"))
	c.Insert("/b", listing("b"))

	c.Invalidate("/a")
	if _, ok := c.Get("/a"); ok {
		t.Error("/a should be gone")
	}
	if _, ok := c.Get("/b"); !ok {
		t.Error("/b should remain")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("len after Clear = %d", c.Len())
	}
	// cache is usable after Clear
	c.Insert("/c", listing("c"))
	if _, ok := c.Get("/c"); !ok {
		t.Error("insert after Clear failed")
	}
}
