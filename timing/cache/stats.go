package cache

// LegacyTraceLength is the reference count the legacy hit-rate report
// divides by, regardless of how long the trace actually was.
const LegacyTraceLength = 10000.0

// Statistics holds cache performance statistics.
type Statistics struct {
	Accesses  uint64 `json:"accesses"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Fills     uint64 `json:"fills"`
	Evictions uint64 `json:"evictions"`
}

// HitRate returns the percentage of accesses that hit.
func (s Statistics) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return 100 * float64(s.Hits) / float64(s.Accesses)
}

// MissRate returns the fraction of accesses that missed, in [0, 1].
func (s Statistics) MissRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Misses) / float64(s.Accesses)
}

// LegacyHitRate returns 100 - misses/10000, the figure the classic report
// prints. It only equals HitRate for a trace of exactly 10,000 references.
func (s Statistics) LegacyHitRate() float64 {
	return 100 - float64(s.Misses)/LegacyTraceLength
}
