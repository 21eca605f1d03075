package relay

// seenCache is an insertion-ordered set of already-delivered notification ids.
//
// Eviction only needs insertion order (not access order): when the set grows
// past max it is pruned down to pruneTo entries, dropping the oldest-inserted
// first. Ids are never removed individually, so the map and the order slice
// stay in sync by construction.
type seenCache struct {
	ids     map[string]struct{}
	order   []string
	max     int
	pruneTo int
}

const (
	defaultSeenMax     = 1000
	defaultSeenPruneTo = 500
)

func newSeenCache(max, pruneTo int) *seenCache {
	if max <= 0 {
		max = defaultSeenMax
	}
	if pruneTo <= 0 {
		pruneTo = defaultSeenPruneTo
	}
	if pruneTo >= max {
		pruneTo = max / 2
	}
	return &seenCache{
		ids:     make(map[string]struct{}),
		max:     max,
		pruneTo: pruneTo,
	}
}

func (c *seenCache) Has(id string) bool {
	_, ok := c.ids[id]
	return ok
}

func (c *seenCache) Add(id string) {
	if id == "" || c.Has(id) {
		return
	}
	c.ids[id] = struct{}{}
	c.order = append(c.order, id)
}

func (c *seenCache) Len() int { return len(c.ids) }

// SetLimits adjusts the bounds; they take effect at the next prune.
func (c *seenCache) SetLimits(max, pruneTo int) {
	if max > 0 {
		c.max = max
	}
	if pruneTo > 0 {
		c.pruneTo = pruneTo
	}
	if c.pruneTo >= c.max {
		c.pruneTo = c.max / 2
	}
}

// PruneIfOver drops the oldest-inserted entries when the set has grown past
// max, keeping the pruneTo most-recently-inserted ids. Returns the number of
// dropped entries.
func (c *seenCache) PruneIfOver() int {
	if len(c.order) <= c.max {
		return 0
	}
	cut := len(c.order) - c.pruneTo
	for _, id := range c.order[:cut] {
		delete(c.ids, id)
	}
	c.order = append(c.order[:0:0], c.order[cut:]...)
	return cut
}
