// Command cachesim replays a memory-reference trace through a simulated
// set-associative cache and reports how many references missed.
//
// Usage:
//
//	cachesim                       # prompt for the cache geometry and trace
//	cachesim run [flags] [trace]   # take the geometry from flags
//	cachesim sweep [flags] [trace...]
//	cachesim gen [flags]
//
// Example:
//
//	# 32 lines, 4-way, one word per block
//	cachesim run --sets 32 --assoc 4 --block-size 1 trace.txt
//
//	# Compare every geometry on the synthetic workloads
//	cachesim sweep --csv > results.csv
package main

func main() {
	Execute()
}
