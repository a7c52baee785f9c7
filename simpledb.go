// Package simpledb wires the storage and execution engine together.
//
// A Database is an explicit context value: the catalog, the buffer pool,
// the write-ahead log, and the statistics registry are constructed once at
// startup and threaded through operator constructors, rather than living in
// package-level singletons.
package simpledb

import (
	"os"
	"path/filepath"

	"mit.edu/dsg/simpledb/catalog"
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/logging"
	"mit.edu/dsg/simpledb/optimizer"
	"mit.edu/dsg/simpledb/storage"
	"mit.edu/dsg/simpledb/transaction"
)

// Database is the top-level container for the engine.
type Database struct {
	Catalog    *catalog.Catalog
	BufferPool *storage.BufferPool
	Log        *logging.LogFile
	Stats      *optimizer.StatsRegistry
}

// Open initializes a database rooted at dir with a buffer pool of
// poolCapacity pages. The write-ahead log lives at dir/simpledb.log.
func Open(dir string, poolCapacity int) (*Database, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	log, err := logging.NewLogFile(filepath.Join(dir, "simpledb.log"))
	if err != nil {
		return nil, err
	}
	cat := catalog.NewCatalog()
	pool := storage.NewBufferPool(poolCapacity, cat, log)
	return &Database{
		Catalog:    cat,
		BufferPool: pool,
		Log:        log,
		Stats:      optimizer.NewStatsRegistry(),
	}, nil
}

// CreateTable creates (or reopens) a heap file at path with the given
// schema and registers it in the catalog under name.
func (db *Database) CreateTable(path, name string, desc *storage.TupleDesc, pkey string) (*storage.HeapFile, error) {
	hf, err := storage.NewHeapFile(path, desc, db.BufferPool)
	if err != nil {
		return nil, err
	}
	db.Catalog.AddTable(hf, name, pkey)
	return hf, nil
}

// Begin allocates a fresh transaction id.
func (db *Database) Begin() common.TransactionID {
	return transaction.NewTransactionID()
}

// Commit makes tid's writes durable: dirty pages are flushed behind their
// WAL records, before-images are rebound, locks released, and a COMMIT
// marker forced to the log.
func (db *Database) Commit(tid common.TransactionID) error {
	if err := db.BufferPool.TransactionComplete(tid, true); err != nil {
		return err
	}
	return db.Log.LogCommit(tid)
}

// Abort rolls tid back by discarding its dirty pages from the cache and
// releasing its locks, then records an ABORT marker.
func (db *Database) Abort(tid common.TransactionID) error {
	if err := db.BufferPool.TransactionComplete(tid, false); err != nil {
		return err
	}
	return db.Log.LogAbort(tid)
}

// ComputeStatistics scans every table and fills the statistics registry.
// Called once after the catalog is loaded.
func (db *Database) ComputeStatistics() error {
	return db.Stats.ComputeStatistics(db.Catalog, db.BufferPool)
}

// Close flushes every dirty page and closes the log.
func (db *Database) Close() error {
	if err := db.BufferPool.FlushAllPages(); err != nil {
		return err
	}
	return db.Log.Close()
}
