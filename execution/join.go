package execution

import (
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// Join is a nested-loop join: for each tuple of the outer (left) child it
// rescans the inner (right) child, emitting the concatenation of every pair
// that satisfies the join predicate.
type Join struct {
	pred  *JoinPredicate
	left  OpIterator
	right OpIterator
	desc  *storage.TupleDesc

	current *storage.Tuple // current outer tuple, nil before the first pull
	next    *storage.Tuple
}

func NewJoin(pred *JoinPredicate, left, right OpIterator) *Join {
	return &Join{
		pred:  pred,
		left:  left,
		right: right,
		desc:  storage.Combine(left.TupleDesc(), right.TupleDesc()),
	}
}

func (j *Join) Open() error {
	if err := j.left.Open(); err != nil {
		return err
	}
	return j.right.Open()
}

func (j *Join) advanceOuter() (bool, error) {
	ok, err := j.left.HasNext()
	if err != nil || !ok {
		return false, err
	}
	j.current, err = j.left.Next()
	if err != nil {
		return false, err
	}
	return true, j.right.Rewind()
}

func (j *Join) HasNext() (bool, error) {
	for j.next == nil {
		if j.current == nil {
			ok, err := j.advanceOuter()
			if err != nil || !ok {
				return false, err
			}
		}
		ok, err := j.right.HasNext()
		if err != nil {
			return false, err
		}
		if !ok {
			j.current = nil
			continue
		}
		right, err := j.right.Next()
		if err != nil {
			return false, err
		}
		if j.pred.Filter(j.current, right) {
			j.next = storage.MergeTuples(j.desc, j.current, right)
		}
	}
	return true, nil
}

func (j *Join) Next() (*storage.Tuple, error) {
	ok, err := j.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.OutOfRange, "no more tuples")
	}
	t := j.next
	j.next = nil
	return t, nil
}

func (j *Join) Rewind() error {
	j.current = nil
	j.next = nil
	if err := j.left.Rewind(); err != nil {
		return err
	}
	return j.right.Rewind()
}

func (j *Join) Close() error {
	j.current = nil
	j.next = nil
	if err := j.left.Close(); err != nil {
		return err
	}
	return j.right.Close()
}

func (j *Join) TupleDesc() *storage.TupleDesc {
	return j.desc
}
