package execution

import (
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// Delete drains its child and removes every tuple it yields from its table
// through the buffer pool. Like Insert, it produces a single count tuple.
type Delete struct {
	tid   common.TransactionID
	child OpIterator
	pool  *storage.BufferPool
	done  bool
}

func NewDelete(tid common.TransactionID, child OpIterator, pool *storage.BufferPool) *Delete {
	return &Delete{tid: tid, child: child, pool: pool}
}

func (op *Delete) Open() error {
	op.done = false
	return op.child.Open()
}

func (op *Delete) HasNext() (bool, error) {
	return !op.done, nil
}

func (op *Delete) Next() (*storage.Tuple, error) {
	if op.done {
		return nil, common.NewError(common.OutOfRange, "delete already executed")
	}
	count := int32(0)
	for {
		ok, err := op.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		t, err := op.child.Next()
		if err != nil {
			return nil, err
		}
		if err := op.pool.DeleteTuple(op.tid, t); err != nil {
			return nil, err
		}
		count++
	}
	op.done = true
	result := storage.NewTuple(countDesc)
	result.SetField(0, common.NewIntField(count))
	return result, nil
}

func (op *Delete) Rewind() error {
	op.done = false
	return op.child.Rewind()
}

func (op *Delete) Close() error {
	return op.child.Close()
}

func (op *Delete) TupleDesc() *storage.TupleDesc {
	return countDesc
}
