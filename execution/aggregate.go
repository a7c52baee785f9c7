package execution

import (
	"fmt"

	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// Aggregate is the operator that computes an aggregate (and optional
// group-by) over its child. It picks an IntegerAggregator or a
// StringAggregator based on the type of the aggregated column, drains the
// child on Open, and then iterates the grouped results.
type Aggregate struct {
	child  OpIterator
	aField int
	gField int
	op     AggregateOp
	desc   *storage.TupleDesc

	agg Aggregator
	it  OpIterator
}

// NewAggregate creates an aggregation of op over column aField of the
// child's output, grouping by column gField (or NoGrouping).
func NewAggregate(child OpIterator, aField, gField int, op AggregateOp) (*Aggregate, error) {
	childDesc := child.TupleDesc()
	gbType := common.DefaultType
	if gField != NoGrouping {
		gbType = childDesc.FieldType(gField)
	}

	a := &Aggregate{child: child, aField: aField, gField: gField, op: op}

	switch childDesc.FieldType(aField) {
	case common.IntType:
		a.agg = NewIntegerAggregator(gField, gbType, aField, op)
	case common.StringType:
		sa, err := NewStringAggregator(gField, gbType, aField, op)
		if err != nil {
			return nil, err
		}
		a.agg = sa
	default:
		return nil, common.NewError(common.SchemaMismatch, "cannot aggregate field %d", aField)
	}

	aggName := fmt.Sprintf("%s(%s)", op, childDesc.FieldName(aField))
	if gField == NoGrouping {
		a.desc = storage.NewTupleDesc([]common.Type{common.IntType}, []string{aggName})
	} else {
		a.desc = storage.NewTupleDesc(
			[]common.Type{gbType, common.IntType},
			[]string{childDesc.FieldName(gField), aggName})
	}
	return a, nil
}

func (a *Aggregate) Open() error {
	if err := a.child.Open(); err != nil {
		return err
	}
	for {
		ok, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}
		if err := a.agg.MergeTupleIntoGroup(t); err != nil {
			return err
		}
	}
	a.it = a.agg.Iterator()
	return a.it.Open()
}

func (a *Aggregate) HasNext() (bool, error) {
	if a.it == nil {
		return false, nil
	}
	return a.it.HasNext()
}

func (a *Aggregate) Next() (*storage.Tuple, error) {
	if a.it == nil {
		return nil, common.NewError(common.OutOfRange, "aggregate is not open")
	}
	return a.it.Next()
}

func (a *Aggregate) Rewind() error {
	if a.it == nil {
		return common.NewError(common.OutOfRange, "aggregate is not open")
	}
	return a.it.Rewind()
}

func (a *Aggregate) Close() error {
	if a.it != nil {
		_ = a.it.Close()
		a.it = nil
	}
	return a.child.Close()
}

// TupleDesc returns the output schema, fixed by whether grouping is
// present: (aggregateValue) or (groupValue, aggregateValue).
func (a *Aggregate) TupleDesc() *storage.TupleDesc {
	return a.desc
}
