package ansi256

import "github.com/wbrown/ansi256/diffuse"

// lookupCache memoizes exact color to index lookups of a mapper. Error
// diffusion over flat or gradient regions revisits the same adjusted colors
// many times. A cache lives for one frame and is used by one goroutine.
type lookupCache struct {
	mapper diffuse.Mapper
	table  map[RGB]uint8
	hits   int
	misses int
}

func newLookupCache(m diffuse.Mapper) *lookupCache {
	return &lookupCache{mapper: m, table: make(map[RGB]uint8, 1024)}
}

func (c *lookupCache) NearestIndex(rgb RGB) uint8 {
	if idx, ok := c.table[rgb]; ok {
		c.hits++
		return idx
	}
	c.misses++
	idx := c.mapper.NearestIndex(rgb)
	c.table[rgb] = idx
	return idx
}

func (c *lookupCache) ColorAt(i uint8) RGB {
	return c.mapper.ColorAt(i)
}

// CacheStats reports lookup cache effectiveness for a frame.
type CacheStats struct {
	Hits, Misses int
}

// HitRate returns hits / (hits + misses), or 0 with no lookups.
func (s CacheStats) HitRate() float64 {
	if total := s.Hits + s.Misses; total > 0 {
		return float64(s.Hits) / float64(total)
	}
	return 0
}

func (c *lookupCache) stats() CacheStats {
	return CacheStats{Hits: c.hits, Misses: c.misses}
}
