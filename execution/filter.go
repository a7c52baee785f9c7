package execution

import (
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// Filter passes through the tuples of its child that satisfy a predicate.
type Filter struct {
	pred  *Predicate
	child OpIterator
	next  *storage.Tuple
}

func NewFilter(pred *Predicate, child OpIterator) *Filter {
	return &Filter{pred: pred, child: child}
}

func (f *Filter) Open() error {
	return f.child.Open()
}

func (f *Filter) HasNext() (bool, error) {
	for f.next == nil {
		ok, err := f.child.HasNext()
		if err != nil || !ok {
			return false, err
		}
		t, err := f.child.Next()
		if err != nil {
			return false, err
		}
		if f.pred.Filter(t) {
			f.next = t
		}
	}
	return true, nil
}

func (f *Filter) Next() (*storage.Tuple, error) {
	ok, err := f.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.OutOfRange, "no more tuples")
	}
	t := f.next
	f.next = nil
	return t, nil
}

func (f *Filter) Rewind() error {
	f.next = nil
	return f.child.Rewind()
}

func (f *Filter) Close() error {
	f.next = nil
	return f.child.Close()
}

func (f *Filter) TupleDesc() *storage.TupleDesc {
	return f.child.TupleDesc()
}
