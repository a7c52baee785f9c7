package execution

import (
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// NoGrouping marks an aggregation without a group-by column.
const NoGrouping = -1

type AggregateOp int8

const (
	AggMin AggregateOp = iota
	AggMax
	AggSum
	AggAvg
	AggCount
)

func (op AggregateOp) String() string {
	switch op {
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggSum:
		return "sum"
	case AggAvg:
		return "avg"
	case AggCount:
		return "count"
	}
	return "??"
}

// Aggregator accumulates tuples into per-group state and exposes the grouped
// results as an operator. One aggregator computes one aggregate.
type Aggregator interface {
	// MergeTupleIntoGroup folds one input tuple into its group's state.
	MergeTupleIntoGroup(t *storage.Tuple) error

	// Iterator yields one tuple per group: (aggregateValue) without
	// grouping, or (groupValue, aggregateValue) with it. Groups come out in
	// ascending key order. Rewinding re-reads the aggregator's state, so
	// tuples merged after the first pass appear.
	Iterator() OpIterator
}

// aggregateDesc is the fixed output schema of an aggregation.
func aggregateDesc(grouping bool, gbFieldType common.Type) *storage.TupleDesc {
	if !grouping {
		return storage.NewTupleDesc([]common.Type{common.IntType}, []string{"aggregateValue"})
	}
	return storage.NewTupleDesc(
		[]common.Type{gbFieldType, common.IntType},
		[]string{"groupValue", "aggregateValue"})
}

// aggIterator iterates a materialized view of an aggregator's groups. The
// materialize hook runs on every Open, so Rewind observes state merged since
// the previous pass.
type aggIterator struct {
	desc        *storage.TupleDesc
	materialize func() []*storage.Tuple
	tuples      []*storage.Tuple
	idx         int
	opened      bool
}

func (it *aggIterator) Open() error {
	it.tuples = it.materialize()
	it.idx = 0
	it.opened = true
	return nil
}

func (it *aggIterator) HasNext() (bool, error) {
	return it.opened && it.idx < len(it.tuples), nil
}

func (it *aggIterator) Next() (*storage.Tuple, error) {
	if !it.opened || it.idx >= len(it.tuples) {
		return nil, common.NewError(common.OutOfRange, "no more tuples")
	}
	t := it.tuples[it.idx]
	it.idx++
	return t, nil
}

func (it *aggIterator) Rewind() error {
	_ = it.Close()
	return it.Open()
}

func (it *aggIterator) Close() error {
	it.opened = false
	it.tuples = nil
	return nil
}

func (it *aggIterator) TupleDesc() *storage.TupleDesc {
	return it.desc
}
