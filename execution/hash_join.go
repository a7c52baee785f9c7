package execution

import (
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// HashEquiJoin is a build/probe hash join for EQUALS predicates. On Open it
// consumes the left child into an in-memory table keyed by the join field,
// then streams the right child, probing for matches.
//
// The build side is materialized, so memory is proportional to the left
// input. Put the smaller relation on the left.
type HashEquiJoin struct {
	pred  *JoinPredicate
	left  OpIterator
	right OpIterator
	desc  *storage.TupleDesc

	table   map[common.Field][]*storage.Tuple
	matches []*storage.Tuple // remaining build-side matches for the current probe tuple
	probe   *storage.Tuple
	next    *storage.Tuple
}

func NewHashEquiJoin(pred *JoinPredicate, left, right OpIterator) *HashEquiJoin {
	common.Assert(pred.Op() == common.OpEquals, "hash join requires an equality predicate")
	return &HashEquiJoin{
		pred:  pred,
		left:  left,
		right: right,
		desc:  storage.Combine(left.TupleDesc(), right.TupleDesc()),
	}
}

func (j *HashEquiJoin) Open() error {
	if err := j.left.Open(); err != nil {
		return err
	}
	if err := j.right.Open(); err != nil {
		return err
	}
	return j.build()
}

func (j *HashEquiJoin) build() error {
	j.table = make(map[common.Field][]*storage.Tuple)
	for {
		ok, err := j.left.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		t, err := j.left.Next()
		if err != nil {
			return err
		}
		key := t.Field(j.pred.Field1())
		j.table[key] = append(j.table[key], t)
	}
}

func (j *HashEquiJoin) HasNext() (bool, error) {
	for j.next == nil {
		if len(j.matches) > 0 {
			j.next = storage.MergeTuples(j.desc, j.matches[0], j.probe)
			j.matches = j.matches[1:]
			continue
		}
		ok, err := j.right.HasNext()
		if err != nil || !ok {
			return false, err
		}
		j.probe, err = j.right.Next()
		if err != nil {
			return false, err
		}
		j.matches = j.table[j.probe.Field(j.pred.Field2())]
	}
	return true, nil
}

func (j *HashEquiJoin) Next() (*storage.Tuple, error) {
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

func (j *HashEquiJoin) Rewind() error {
	j.matches = nil
	j.probe = nil
	j.next = nil
	return j.right.Rewind()
}

func (j *HashEquiJoin) Close() error {
	j.table = nil
	j.matches = nil
	j.probe = nil
	j.next = nil
	if err := j.left.Close(); err != nil {
		return err
	}
	return j.right.Close()
}

func (j *HashEquiJoin) TupleDesc() *storage.TupleDesc {
	return j.desc
}
