package execution

import (
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// Limit truncates its child's output to at most n tuples.
type Limit struct {
	child   OpIterator
	n       int
	emitted int
}

func NewLimit(child OpIterator, n int) *Limit {
	common.Assert(n >= 0, "limit must be non-negative")
	return &Limit{child: child, n: n}
}

func (l *Limit) Open() error {
	l.emitted = 0
	return l.child.Open()
}

func (l *Limit) HasNext() (bool, error) {
	if l.emitted >= l.n {
		return false, nil
	}
	return l.child.HasNext()
}

func (l *Limit) Next() (*storage.Tuple, error) {
	ok, err := l.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.OutOfRange, "no more tuples")
	}
	t, err := l.child.Next()
	if err != nil {
		return nil, err
	}
	l.emitted++
	return t, nil
}

func (l *Limit) Rewind() error {
	l.emitted = 0
	return l.child.Rewind()
}

func (l *Limit) Close() error {
	return l.child.Close()
}

func (l *Limit) TupleDesc() *storage.TupleDesc {
	return l.child.TupleDesc()
}
