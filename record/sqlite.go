// Package record stores simulated references in a SQLite database so that a
// run can be inspected after it finishes.
package record

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/core"
)

// DefaultBatchSize is the number of references buffered before they are
// written in a single transaction.
const DefaultBatchSize = 100000

// ErrNotInitialized is returned when a recorder is used before Init.
var ErrNotInitialized = errors.New("recorder is not initialized")

// SQLiteRecorder writes every reference of a run to a SQLite database.
type SQLiteRecorder struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	runID     string
	pending   []core.Event
	batchSize int
}

// NewSQLiteRecorder creates a recorder that writes to path. If path is empty,
// a unique name is chosen when Init is called.
func NewSQLiteRecorder(path string) *SQLiteRecorder {
	r := &SQLiteRecorder{
		dbName:    path,
		batchSize: DefaultBatchSize,
	}

	atexit.Register(func() { _ = r.Flush() })

	return r
}

// WithBatchSize sets how many references are buffered between writes.
func (r *SQLiteRecorder) WithBatchSize(n int) *SQLiteRecorder {
	if n > 0 {
		r.batchSize = n
	}

	return r
}

// Path returns the database file name.
func (r *SQLiteRecorder) Path() string {
	return r.dbName
}

// RunID returns the identifier of the run being recorded.
func (r *SQLiteRecorder) RunID() string {
	return r.runID
}

// Init creates the database and registers a run for config. The run stays
// marked incomplete until Finish stores its statistics.
func (r *SQLiteRecorder) Init(config cache.Config) error {
	r.runID = xid.New().String()

	if err := r.createDatabase(); err != nil {
		return err
	}

	if err := r.prepareRun(config); err != nil {
		_ = r.DB.Close()
		r.DB = nil

		return err
	}

	return nil
}

func (r *SQLiteRecorder) prepareRun(config cache.Config) error {
	if err := r.createTables(); err != nil {
		return err
	}

	_, err := r.Exec(
		`INSERT INTO run (run_id, num_cache_sets, associativity, block_size, engine, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.runID,
		config.NumCacheSets,
		config.Associativity,
		config.BlockSize,
		string(config.EngineOrDefault()),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to register run: %w", err)
	}

	stmt, err := r.Prepare(`INSERT INTO access VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare access statement: %w", err)
	}

	r.statement = stmt

	return nil
}

// Record buffers one reference, writing the buffer out once it is full.
func (r *SQLiteRecorder) Record(event core.Event) error {
	if r.DB == nil {
		return ErrNotInitialized
	}

	r.pending = append(r.pending, event)
	if len(r.pending) >= r.batchSize {
		return r.Flush()
	}

	return nil
}

// Flush writes all buffered references to the database.
func (r *SQLiteRecorder) Flush() error {
	if len(r.pending) == 0 || r.DB == nil {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt := tx.Stmt(r.statement)
	for _, e := range r.pending {
		_, err := stmt.Exec(
			r.runID,
			e.Index,
			e.Fields.MemAddress,
			e.Fields.BlockAddress,
			e.Result.SetIndex,
			e.Result.Way,
			e.Result.Tag,
			e.Result.Hit,
			e.Result.Evicted,
			e.Result.EvictedTag,
			e.Latency,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert reference %d: %w", e.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit references: %w", err)
	}

	r.pending = nil

	return nil
}

// Finish flushes outstanding references, stores the final statistics and
// marks the run completed. A run that aborts never reaches Finish, so its
// row keeps completed = 0 alongside whatever references were flushed.
func (r *SQLiteRecorder) Finish(stats core.Stats) error {
	if r.DB == nil {
		return ErrNotInitialized
	}

	if err := r.Flush(); err != nil {
		return err
	}

	_, err := r.Exec(
		`UPDATE run SET accesses = ?, hits = ?, misses = ?, fills = ?,
			evictions = ?, cycles = ?, amat = ?, completed = 1
		WHERE run_id = ?`,
		stats.Accesses,
		stats.Hits,
		stats.Misses,
		stats.Fills,
		stats.Evictions,
		stats.Cycles,
		stats.AMAT,
		r.runID,
	)
	if err != nil {
		return fmt.Errorf("failed to store run statistics: %w", err)
	}

	return nil
}

// Close flushes and closes the database.
func (r *SQLiteRecorder) Close() error {
	if r.DB == nil {
		return nil
	}

	flushErr := r.Flush()

	if r.statement != nil {
		_ = r.statement.Close()
	}

	closeErr := r.DB.Close()
	r.DB = nil

	return errors.Join(flushErr, closeErr)
}

func (r *SQLiteRecorder) createDatabase() error {
	if r.dbName == "" {
		r.dbName = "cachesim_" + r.runID + ".sqlite3"
	}

	if _, err := os.Stat(r.dbName); err == nil {
		return fmt.Errorf("file %s already exists", r.dbName)
	}

	db, err := sql.Open("sqlite3", r.dbName)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", r.dbName, err)
	}

	r.DB = db

	return nil
}

func (r *SQLiteRecorder) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS run
		(
			run_id         VARCHAR(200) NOT NULL PRIMARY KEY,
			num_cache_sets INTEGER      NOT NULL,
			associativity  INTEGER      NOT NULL,
			block_size     INTEGER      NOT NULL,
			engine         VARCHAR(20)  NOT NULL,
			started_at     VARCHAR(40)  NOT NULL,
			accesses       INTEGER      DEFAULT 0,
			hits           INTEGER      DEFAULT 0,
			misses         INTEGER      DEFAULT 0,
			fills          INTEGER      DEFAULT 0,
			evictions      INTEGER      DEFAULT 0,
			cycles         INTEGER      DEFAULT 0,
			amat           FLOAT        DEFAULT 0,
			completed      BOOLEAN      DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS access
		(
			run_id        VARCHAR(200) NOT NULL,
			idx           INTEGER      NOT NULL,
			mem_address   INTEGER      NOT NULL,
			block_address INTEGER      NOT NULL,
			set_index     INTEGER      NOT NULL,
			way           INTEGER      NOT NULL,
			tag           INTEGER      NOT NULL,
			hit           BOOLEAN      NOT NULL,
			evicted       BOOLEAN      NOT NULL,
			evicted_tag   INTEGER      NOT NULL,
			latency       INTEGER      NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS access_run_idx_index ON access (run_id, idx);`,
		`CREATE INDEX IF NOT EXISTS access_set_index_index ON access (set_index);`,
	}

	for _, q := range queries {
		if _, err := r.Exec(q); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}
