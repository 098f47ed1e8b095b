// Package cache models a set-associative cache that tracks which blocks are
// resident. Only tags and validity are kept; data is never stored.
package cache

import (
	"github.com/sarchlab/cachesim/addressing"
)

// Line is one way of a set.
type Line struct {
	Tag   int64
	Valid bool

	// RecentlyUsed marks the way used last in a 2-way set. It is unused for
	// other associativities.
	RecentlyUsed bool
}

// A Set is the fixed group of lines a block address can be stored in.
type Set struct {
	Lines []Line
}

// lookup returns the way holding a valid copy of tag.
func (s *Set) lookup(tag int64) (int, bool) {
	for way, line := range s.Lines {
		if line.Valid && line.Tag == tag {
			return way, true
		}
	}

	return 0, false
}

// firstInvalid returns the lowest-numbered empty way.
func (s *Set) firstInvalid() (int, bool) {
	for way, line := range s.Lines {
		if !line.Valid {
			return way, true
		}
	}

	return 0, false
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the block was already resident.
	Hit bool
	// SetIndex is the set the block maps into.
	SetIndex int
	// Way is the way that hit or was filled.
	Way int
	// Tag is the tag looked up, which is the full block address.
	Tag int64
	// Evicted is true if a valid line was overwritten.
	Evicted bool
	// EvictedTag is the tag that was overwritten (if Evicted is true).
	EvictedTag int64
}

// Model is a cache that replays block-address references one at a time.
type Model interface {
	Access(blockAddress int64) AccessResult
	Stats() Statistics
	Config() Config
	Reset()
}

// NewModel builds the cache implementation selected by config.Engine.
func NewModel(config Config) (Model, error) {
	if config.EngineOrDefault() == EngineAkita {
		return NewDirectoryCache(config)
	}

	return New(config)
}

// Cache is the native cache model. Direct-mapped sets overwrite their only
// line, 2-way sets evict the way not used last, and 4-way sets evict the
// least recently used way.
type Cache struct {
	config Config
	sets   []Set
	policy replacementPolicy
	stats  Statistics
}

// New creates a cache with the given configuration. All lines start invalid.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numSets := config.NumSets()
	c := &Cache{
		config: config,
		sets:   make([]Set, numSets),
		policy: newReplacementPolicy(config.Associativity, numSets),
	}

	for i := range c.sets {
		c.sets[i].Lines = make([]Line, config.Associativity)
	}

	return c, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// NumSets returns the number of sets in the cache.
func (c *Cache) NumSets() int {
	return len(c.sets)
}

// Line returns a copy of the line at (setIndex, way).
func (c *Cache) Line(setIndex, way int) Line {
	return c.sets[setIndex].Lines[way]
}

// RecencyOrder returns the recency order of a set. The second return value is
// false for caches that do not keep a full order (associativity below 4).
func (c *Cache) RecencyOrder(setIndex int) (RecencyOrder, bool) {
	l, ok := c.policy.(*lru)
	if !ok {
		return RecencyOrder{}, false
	}

	return l.orders[setIndex], true
}

// Access looks up blockAddress, filling or replacing a line on a miss.
func (c *Cache) Access(blockAddress int64) AccessResult {
	setIndex := int(addressing.FloorMod(blockAddress, int64(len(c.sets))))
	set := &c.sets[setIndex]

	c.stats.Accesses++
	result := AccessResult{
		SetIndex: setIndex,
		Tag:      blockAddress,
	}

	if way, ok := set.lookup(blockAddress); ok {
		c.stats.Hits++
		c.policy.touch(setIndex, set, way)

		result.Hit = true
		result.Way = way

		return result
	}

	c.stats.Misses++

	way, ok := set.firstInvalid()
	if ok {
		c.stats.Fills++
	} else {
		way = c.policy.victim(setIndex, set)
		c.stats.Evictions++

		result.Evicted = true
		result.EvictedTag = set.Lines[way].Tag
	}

	set.Lines[way].Tag = blockAddress
	set.Lines[way].Valid = true
	c.policy.touch(setIndex, set, way)

	result.Way = way

	return result
}

// Reset invalidates all lines, restores the initial recency state and clears
// statistics.
func (c *Cache) Reset() {
	for i := range c.sets {
		for j := range c.sets[i].Lines {
			c.sets[i].Lines[j] = Line{}
		}
	}

	c.policy.reset()
	c.stats = Statistics{}
}
