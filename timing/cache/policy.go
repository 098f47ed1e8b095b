package cache

// A replacementPolicy tracks recency within a set and picks the way to evict
// once every way of the set holds a valid line.
type replacementPolicy interface {
	// touch is called after a hit on, or a fill into, way.
	touch(setIndex int, set *Set, way int)
	// victim returns the way to overwrite in a full set.
	victim(setIndex int, set *Set) int
	reset()
}

func newReplacementPolicy(associativity, numSets int) replacementPolicy {
	switch associativity {
	case 1:
		return directMapped{}
	case 2:
		return recencyBit{}
	default:
		return newLRU(numSets)
	}
}

// directMapped has a single way per set, so there is nothing to track.
type directMapped struct{}

func (directMapped) touch(int, *Set, int) {}

func (directMapped) victim(int, *Set) int { return 0 }

func (directMapped) reset() {}

// recencyBit keeps one flag per line marking the way used last. Exactly one
// flag is set once a set has been touched.
type recencyBit struct{}

func (recencyBit) touch(_ int, set *Set, way int) {
	for i := range set.Lines {
		set.Lines[i].RecentlyUsed = i == way
	}
}

func (recencyBit) victim(_ int, set *Set) int {
	if !set.Lines[0].RecentlyUsed {
		return 0
	}

	return 1
}

func (recencyBit) reset() {}

// lru keeps a full recency order for every set.
type lru struct {
	orders []RecencyOrder
}

func newLRU(numSets int) *lru {
	l := &lru{orders: make([]RecencyOrder, numSets)}
	l.reset()

	return l
}

func (l *lru) touch(setIndex int, _ *Set, way int) {
	l.orders[setIndex].MoveToFront(way)
}

func (l *lru) victim(setIndex int, _ *Set) int {
	return l.orders[setIndex].Back()
}

func (l *lru) reset() {
	for i := range l.orders {
		l.orders[i] = NewRecencyOrder()
	}
}
