package execution

import (
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// TupleIterator adapts an in-memory tuple slice to the OpIterator contract.
// Every tuple must share the given schema.
type TupleIterator struct {
	desc   *storage.TupleDesc
	tuples []*storage.Tuple
	idx    int
	opened bool
}

func NewTupleIterator(desc *storage.TupleDesc, tuples []*storage.Tuple) *TupleIterator {
	for _, t := range tuples {
		common.Assert(t.Desc().Equals(desc), "tuple schema mismatch in TupleIterator")
	}
	return &TupleIterator{desc: desc, tuples: tuples}
}

func (it *TupleIterator) Open() error {
	it.idx = 0
	it.opened = true
	return nil
}

func (it *TupleIterator) HasNext() (bool, error) {
	return it.opened && it.idx < len(it.tuples), nil
}

func (it *TupleIterator) Next() (*storage.Tuple, error) {
	if !it.opened || it.idx >= len(it.tuples) {
		return nil, common.NewError(common.OutOfRange, "no more tuples")
	}
	t := it.tuples[it.idx]
	it.idx++
	return t, nil
}

func (it *TupleIterator) Rewind() error {
	it.idx = 0
	return nil
}

func (it *TupleIterator) Close() error {
	it.opened = false
	return nil
}

func (it *TupleIterator) TupleDesc() *storage.TupleDesc {
	return it.desc
}
