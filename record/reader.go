package record

import (
	"database/sql"
	"fmt"

	"github.com/sarchlab/cachesim/timing/cache"
)

// Access is one stored reference.
type Access struct {
	Index        uint64
	MemAddress   int64
	BlockAddress int64
	SetIndex     int
	Way          int
	Tag          int64
	Hit          bool
	Evicted      bool
	EvictedTag   int64
	Latency      uint64
}

// Run is the stored summary of one simulation.
type Run struct {
	ID     string
	Config cache.Config
	Stats  cache.Statistics
	Cycles uint64
	AMAT   float64

	// Completed is false for a run that aborted before its statistics were
	// stored.
	Completed bool
}

// SQLiteReader reads runs back from a database written by SQLiteRecorder.
type SQLiteReader struct {
	*sql.DB

	filename string
}

// NewSQLiteReader creates a reader for filename.
func NewSQLiteReader(filename string) *SQLiteReader {
	return &SQLiteReader{filename: filename}
}

// Init opens the database.
func (r *SQLiteReader) Init() error {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", r.filename, err)
	}

	r.DB = db

	return nil
}

// ListRuns returns every run in the database.
func (r *SQLiteReader) ListRuns() ([]Run, error) {
	rows, err := r.Query(`
		SELECT run_id, num_cache_sets, associativity, block_size, engine,
			accesses, hits, misses, fills, evictions, cycles, amat,
			completed
		FROM run
		ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var run Run
		var engine string
		err := rows.Scan(
			&run.ID,
			&run.Config.NumCacheSets,
			&run.Config.Associativity,
			&run.Config.BlockSize,
			&engine,
			&run.Stats.Accesses,
			&run.Stats.Hits,
			&run.Stats.Misses,
			&run.Stats.Fills,
			&run.Stats.Evictions,
			&run.Cycles,
			&run.AMAT,
			&run.Completed,
		)
		if err != nil {
			return nil, err
		}

		run.Config.Engine = cache.Engine(engine)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// ListAccesses returns the references of runID in trace order.
func (r *SQLiteReader) ListAccesses(runID string) ([]Access, error) {
	rows, err := r.Query(`
		SELECT idx, mem_address, block_address, set_index, way, tag,
			hit, evicted, evicted_tag, latency
		FROM access
		WHERE run_id = ?
		ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var accesses []Access
	for rows.Next() {
		var a Access
		err := rows.Scan(
			&a.Index,
			&a.MemAddress,
			&a.BlockAddress,
			&a.SetIndex,
			&a.Way,
			&a.Tag,
			&a.Hit,
			&a.Evicted,
			&a.EvictedTag,
			&a.Latency,
		)
		if err != nil {
			return nil, err
		}

		accesses = append(accesses, a)
	}

	return accesses, rows.Err()
}
