// Package addressing decomposes raw memory addresses into the block address,
// set index and tag that a cache uses to look them up.
package addressing

import "fmt"

// WordSize is the number of bytes in a word. A memory address is reduced to a
// word address before it is grouped into blocks.
const WordSize = 4

// FloorDiv divides a by b, rounding toward negative infinity.
//
// Go's / truncates toward zero, which gives a different answer whenever the
// operands have opposite signs and the division is inexact.
func FloorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}

	return q
}

// FloorMod returns the remainder of a divided by b with the sign of b. For a
// positive b the result is always in [0, b).
func FloorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}

	return m
}

// BlockAddress returns the address of the block that holds memAddress.
func BlockAddress(memAddress, blockSize int64) int64 {
	return FloorDiv(FloorDiv(memAddress, WordSize), blockSize)
}

// NumSets returns the number of sets a cache with numCacheSets lines of the
// given associativity is organized into.
func NumSets(numCacheSets, associativity int) int {
	return numCacheSets / associativity
}

// SetIndex returns the set a block address maps into.
func SetIndex(blockAddress int64, numCacheSets, associativity int) int {
	return int(FloorMod(blockAddress, int64(NumSets(numCacheSets, associativity))))
}

// Fields is a memory address decomposed for a particular cache geometry.
type Fields struct {
	MemAddress   int64 // Raw byte address from the trace
	BlockAddress int64 // Address of the enclosing block
	SetIndex     int   // Set the block maps into
	Tag          int64 // Value stored in the line; the full block address
}

// Translator decomposes addresses for one cache geometry.
type Translator struct {
	blockSize int64
	numSets   int
}

// NewTranslator creates a translator for a cache with numCacheSets lines,
// the given associativity and blockSize words per block.
//
// It panics if the geometry would divide by zero. Callers are expected to
// have validated the configuration first.
func NewTranslator(numCacheSets, associativity, blockSize int) *Translator {
	if blockSize <= 0 {
		panic(fmt.Sprintf("addressing: block size must be positive, got %d", blockSize))
	}

	if associativity <= 0 || NumSets(numCacheSets, associativity) <= 0 {
		panic(fmt.Sprintf("addressing: %d lines cannot be organized into %d-way sets",
			numCacheSets, associativity))
	}

	return &Translator{
		blockSize: int64(blockSize),
		numSets:   NumSets(numCacheSets, associativity),
	}
}

// NumSets returns the number of sets addresses are distributed over.
func (t *Translator) NumSets() int {
	return t.numSets
}

// BlockAddress returns the block address of memAddress.
func (t *Translator) BlockAddress(memAddress int64) int64 {
	return BlockAddress(memAddress, t.blockSize)
}

// Translate decomposes memAddress into its cache fields.
func (t *Translator) Translate(memAddress int64) Fields {
	block := t.BlockAddress(memAddress)

	return Fields{
		MemAddress:   memAddress,
		BlockAddress: block,
		SetIndex:     int(FloorMod(block, int64(t.numSets))),
		Tag:          block,
	}
}
