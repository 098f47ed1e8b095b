package cache

import "fmt"

// RecencyOrder ranks the four ways of a set from most recently used (front)
// to least recently used (back). It is always a permutation of {0, 1, 2, 3}.
type RecencyOrder [4]int

// NewRecencyOrder returns the initial order of a set.
func NewRecencyOrder() RecencyOrder {
	return RecencyOrder{0, 1, 2, 3}
}

// Front returns the most recently used way.
func (o RecencyOrder) Front() int {
	return o[0]
}

// Back returns the least recently used way.
func (o RecencyOrder) Back() int {
	return o[len(o)-1]
}

// MoveToFront removes way from its position and reinserts it at the front.
// The remaining ways keep their relative order.
func (o *RecencyOrder) MoveToFront(way int) {
	pos := -1
	for i, w := range o {
		if w == way {
			pos = i
			break
		}
	}

	if pos < 0 {
		panic(fmt.Sprintf("cache: way %d is not in recency order %v", way, *o))
	}

	copy(o[1:pos+1], o[:pos])
	o[0] = way
}

// IsPermutation reports whether every way appears exactly once.
func (o RecencyOrder) IsPermutation() bool {
	var seen [len(o)]bool
	for _, w := range o {
		if w < 0 || w >= len(o) || seen[w] {
			return false
		}
		seen[w] = true
	}

	return true
}
