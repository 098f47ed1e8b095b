package cache

import (
	"math"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// DirectoryCache replays accesses through an Akita cache directory with an
// LRU victim finder. It serves as a reference for the native model and
// accepts any positive associativity.
//
// Block addresses are handed to the directory as unsigned keys with a
// one-word block. Negative addresses are shifted down by 2^64 mod numSets so
// that the directory's unsigned modulo lands on the same set as the native
// floor-mod mapping for every set count. Keys stay unique as long as block
// addresses lie within numSets of the int64 limits.
type DirectoryCache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
	wrap      uint64
}

// NewDirectoryCache creates a directory-backed cache.
func NewDirectoryCache(config Config) (*DirectoryCache, error) {
	config.Engine = EngineAkita
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numSets := uint64(config.NumSets())

	return &DirectoryCache{
		config: config,
		wrap:   (math.MaxUint64%numSets + 1) % numSets,
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			1,
			akitacache.NewLRUVictimFinder(),
		),
	}, nil
}

// Config returns the cache configuration.
func (d *DirectoryCache) Config() Config {
	return d.config
}

// Stats returns cache statistics.
func (d *DirectoryCache) Stats() Statistics {
	return d.stats
}

// Access looks up blockAddress, filling or replacing a block on a miss.
func (d *DirectoryCache) Access(blockAddress int64) AccessResult {
	addr := d.key(blockAddress)
	d.stats.Accesses++

	block := d.directory.Lookup(0, addr)
	if block != nil && block.IsValid {
		d.stats.Hits++
		d.directory.Visit(block) // Update LRU

		return AccessResult{
			Hit:      true,
			SetIndex: block.SetID,
			Way:      block.WayID,
			Tag:      blockAddress,
		}
	}

	d.stats.Misses++

	victim := d.directory.FindVictim(addr)
	result := AccessResult{
		SetIndex: victim.SetID,
		Way:      victim.WayID,
		Tag:      blockAddress,
	}

	if victim.IsValid {
		d.stats.Evictions++
		result.Evicted = true
		result.EvictedTag = d.blockAddress(victim.Tag)
	} else {
		d.stats.Fills++
	}

	victim.Tag = addr
	victim.IsValid = true
	d.directory.Visit(victim)

	return result
}

func (d *DirectoryCache) key(blockAddress int64) uint64 {
	if blockAddress < 0 {
		return uint64(blockAddress) - d.wrap
	}

	return uint64(blockAddress)
}

func (d *DirectoryCache) blockAddress(key uint64) int64 {
	if key > math.MaxInt64 {
		return int64(key + d.wrap)
	}

	return int64(key)
}

// Reset invalidates every block and clears statistics.
func (d *DirectoryCache) Reset() {
	d.directory.Reset()
	d.stats = Statistics{}
}
