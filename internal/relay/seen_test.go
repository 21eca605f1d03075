package relay

import (
	"strconv"
	"testing"
)

func TestSeenCacheAddHas(t *testing.T) {
	t.Parallel()
	c := newSeenCache(0, 0)

	if c.Has("1") {
		t.Fatal("empty cache reports id as seen")
	}
	c.Add("1")
	c.Add("1") // idempotent
	c.Add("")  // ignored
	if !c.Has("1") {
		t.Fatal("added id not found")
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestSeenCachePruneOldestFirst(t *testing.T) {
	t.Parallel()
	c := newSeenCache(10, 4)

	for i := 0; i < 11; i++ {
		c.Add(strconv.Itoa(i))
	}
	dropped := c.PruneIfOver()
	if dropped != 7 {
		t.Fatalf("dropped = %d, want 7", dropped)
	}
	if c.Len() != 4 {
		t.Fatalf("Len = %d, want 4", c.Len())
	}
	// The 4 most-recently-inserted survive.
	for i := 7; i <= 10; i++ {
		if !c.Has(strconv.Itoa(i)) {
			t.Fatalf("id %d missing after prune", i)
		}
	}
	for i := 0; i < 7; i++ {
		if c.Has(strconv.Itoa(i)) {
			t.Fatalf("id %d should have been evicted", i)
		}
	}
}

func TestSeenCacheNoPruneAtBound(t *testing.T) {
	t.Parallel()
	c := newSeenCache(5, 2)
	for i := 0; i < 5; i++ {
		c.Add(strconv.Itoa(i))
	}
	if dropped := c.PruneIfOver(); dropped != 0 {
		t.Fatalf("dropped = %d at exactly max, want 0", dropped)
	}
	if c.Len() != 5 {
		t.Fatalf("Len = %d, want 5", c.Len())
	}
}

func TestSeenCacheLimitClamp(t *testing.T) {
	t.Parallel()
	// pruneTo >= max is clamped to max/2 so pruning always makes room.
	c := newSeenCache(10, 10)
	for i := 0; i < 11; i++ {
		c.Add(strconv.Itoa(i))
	}
	c.PruneIfOver()
	if c.Len() != 5 {
		t.Fatalf("Len = %d after clamped prune, want 5", c.Len())
	}
}

func TestSeenCacheDefaults(t *testing.T) {
	t.Parallel()
	c := newSeenCache(0, 0)
	if c.max != defaultSeenMax || c.pruneTo != defaultSeenPruneTo {
		t.Fatalf("defaults = %d/%d, want %d/%d", c.max, c.pruneTo, defaultSeenMax, defaultSeenPruneTo)
	}
}
