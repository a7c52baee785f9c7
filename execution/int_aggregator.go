package execution

import (
	"github.com/tidwall/btree"

	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

type intGroup struct {
	key    common.Field
	values []int32
}

// IntegerAggregator computes COUNT, SUM, AVG, MIN, or MAX over an integer
// column, optionally grouped by another column.
//
// It materializes the full value list per group, so memory is proportional
// to the input. AVG is the integer division of the sum by the count;
// fractional means truncate.
type IntegerAggregator struct {
	gbField     int
	gbFieldType common.Type
	aField      int
	op          AggregateOp

	groups    *btree.BTreeG[*intGroup]
	ungrouped []int32
	merged    bool // any input seen without grouping
}

// NewIntegerAggregator creates an aggregator over column aField. gbField is
// the group-by column index, or NoGrouping; gbFieldType is its declared type
// (ignored without grouping).
func NewIntegerAggregator(gbField int, gbFieldType common.Type, aField int, op AggregateOp) *IntegerAggregator {
	agg := &IntegerAggregator{
		gbField:     gbField,
		gbFieldType: gbFieldType,
		aField:      aField,
		op:          op,
	}
	if gbField != NoGrouping {
		agg.groups = btree.NewBTreeG[*intGroup](func(a, b *intGroup) bool {
			return a.key.Compare(common.OpLessThan, b.key)
		})
	}
	return agg
}

func (agg *IntegerAggregator) MergeTupleIntoGroup(t *storage.Tuple) error {
	val, ok := t.Field(agg.aField).(common.IntField)
	if !ok {
		return common.NewError(common.SchemaMismatch,
			"aggregate field %d is not an int", agg.aField)
	}

	if agg.gbField == NoGrouping {
		agg.ungrouped = append(agg.ungrouped, val.Value)
		agg.merged = true
		return nil
	}

	key := t.Field(agg.gbField)
	if key.Type() != agg.gbFieldType {
		return common.NewError(common.SchemaMismatch,
			"group field is %s, declared %s", key.Type(), agg.gbFieldType)
	}
	probe := &intGroup{key: key}
	if g, ok := agg.groups.Get(probe); ok {
		g.values = append(g.values, val.Value)
	} else {
		probe.values = []int32{val.Value}
		agg.groups.Set(probe)
	}
	return nil
}

func foldInts(op AggregateOp, values []int32) int32 {
	common.Assert(len(values) > 0, "empty aggregate group")
	switch op {
	case AggCount:
		return int32(len(values))
	case AggSum, AggAvg:
		sum := int64(0)
		for _, v := range values {
			sum += int64(v)
		}
		if op == AggAvg {
			return int32(sum / int64(len(values)))
		}
		return int32(sum)
	case AggMin:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case AggMax:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	}
	panic("unknown aggregate op")
}

func (agg *IntegerAggregator) Iterator() OpIterator {
	grouping := agg.gbField != NoGrouping
	desc := aggregateDesc(grouping, agg.gbFieldType)
	return &aggIterator{
		desc: desc,
		materialize: func() []*storage.Tuple {
			var result []*storage.Tuple
			if !grouping {
				if agg.merged {
					t := storage.NewTuple(desc)
					t.SetField(0, common.NewIntField(foldInts(agg.op, agg.ungrouped)))
					result = append(result, t)
				}
				return result
			}
			agg.groups.Scan(func(g *intGroup) bool {
				t := storage.NewTuple(desc)
				t.SetField(0, g.key)
				t.SetField(1, common.NewIntField(foldInts(agg.op, g.values)))
				result = append(result, t)
				return true
			})
			return result
		},
	}
}
