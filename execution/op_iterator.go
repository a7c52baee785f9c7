package execution

import (
	"mit.edu/dsg/simpledb/storage"
)

// OpIterator is the pull-based operator contract. A query plan is a tree of
// OpIterators; the driver pulls tuples from the root one at a time, and each
// operator pulls from its children as needed.
//
// Iteration is strictly single-threaded per operator tree. Rewind is
// equivalent to Close followed by Open.
type OpIterator interface {
	Open() error
	HasNext() (bool, error)
	Next() (*storage.Tuple, error)
	Rewind() error
	Close() error
	TupleDesc() *storage.TupleDesc
}
