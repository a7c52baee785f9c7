package storage

import (
	"mit.edu/dsg/simpledb/common"
)

// DbFile abstracts the on-disk storage of a table. The only implementation
// here is HeapFile; access methods with other layouts would satisfy the same
// contract.
//
// Page reads and writes bypass the buffer pool (they are what the pool calls
// on a miss or a flush); tuple-level operations go through the pool and
// participate in locking.
type DbFile interface {
	// ID returns the stable identifier of the table stored in this file.
	ID() common.TableID

	// TupleDesc returns the schema of the tuples stored in this file.
	TupleDesc() *TupleDesc

	// ReadPage reads the page identified by pid directly from disk.
	ReadPage(pid common.PageID) (Page, error)

	// WritePage writes the page's serialized image at its offset. The file
	// may be extended, but only by the page immediately past the current
	// end.
	WritePage(p Page) error

	// NumPages returns the number of whole pages currently in the file.
	NumPages() int

	// InsertTuple adds t to the file on behalf of tid and returns the pages
	// that were modified.
	InsertTuple(tid common.TransactionID, t *Tuple) ([]Page, error)

	// DeleteTuple removes t from the file on behalf of tid and returns the
	// pages that were modified.
	DeleteTuple(tid common.TransactionID, t *Tuple) ([]Page, error)

	// Iterator returns an iterator over every tuple in the file, fetching
	// pages lazily through the buffer pool with read intent.
	Iterator(tid common.TransactionID) DbFileIterator
}

// DbFileIterator walks the tuples of a DbFile. Rewind is equivalent to Close
// followed by Open; no positional state survives it.
type DbFileIterator interface {
	Open() error
	HasNext() (bool, error)
	Next() (*Tuple, error)
	Rewind() error
	Close()
}

// TableResolver maps a table id to the file that stores it. The catalog
// implements this for the buffer pool, which needs the owning file to load a
// page on a cache miss.
type TableResolver interface {
	DatabaseFile(id common.TableID) (DbFile, error)
}

// UpdateLogger is the write-ahead log surface the buffer pool depends on.
// Before any dirty page reaches disk, the pool appends an UPDATE record with
// the page's before- and after-images and forces the log.
type UpdateLogger interface {
	LogWrite(tid common.TransactionID, pid common.PageID, before, after []byte) error
	Force() error
}
