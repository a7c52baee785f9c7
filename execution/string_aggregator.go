package execution

import (
	"github.com/tidwall/btree"

	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

type strGroup struct {
	key   common.Field
	count int32
}

// StringAggregator computes COUNT over a string column, optionally grouped.
// COUNT is the only aggregate defined on strings, so only a running count is
// kept per group.
type StringAggregator struct {
	gbField     int
	gbFieldType common.Type
	aField      int

	groups    *btree.BTreeG[*strGroup]
	ungrouped int32
	merged    bool
}

// NewStringAggregator creates a COUNT aggregator over string column aField.
// Any op other than AggCount is rejected.
func NewStringAggregator(gbField int, gbFieldType common.Type, aField int, op AggregateOp) (*StringAggregator, error) {
	if op != AggCount {
		return nil, common.NewError(common.SchemaMismatch,
			"string columns support only count, not %s", op)
	}
	agg := &StringAggregator{
		gbField:     gbField,
		gbFieldType: gbFieldType,
		aField:      aField,
	}
	if gbField != NoGrouping {
		agg.groups = btree.NewBTreeG[*strGroup](func(a, b *strGroup) bool {
			return a.key.Compare(common.OpLessThan, b.key)
		})
	}
	return agg, nil
}

func (agg *StringAggregator) MergeTupleIntoGroup(t *storage.Tuple) error {
	if _, ok := t.Field(agg.aField).(common.StringField); !ok {
		return common.NewError(common.SchemaMismatch,
			"aggregate field %d is not a string", agg.aField)
	}

	if agg.gbField == NoGrouping {
		agg.ungrouped++
		agg.merged = true
		return nil
	}

	key := t.Field(agg.gbField)
	if key.Type() != agg.gbFieldType {
		return common.NewError(common.SchemaMismatch,
			"group field is %s, declared %s", key.Type(), agg.gbFieldType)
	}
	probe := &strGroup{key: key}
	if g, ok := agg.groups.Get(probe); ok {
		g.count++
	} else {
		probe.count = 1
		agg.groups.Set(probe)
	}
	return nil
}

func (agg *StringAggregator) Iterator() OpIterator {
	grouping := agg.gbField != NoGrouping
	desc := aggregateDesc(grouping, agg.gbFieldType)
	return &aggIterator{
		desc: desc,
		materialize: func() []*storage.Tuple {
			var result []*storage.Tuple
			if !grouping {
				if agg.merged {
					t := storage.NewTuple(desc)
					t.SetField(0, common.NewIntField(agg.ungrouped))
					result = append(result, t)
				}
				return result
			}
			agg.groups.Scan(func(g *strGroup) bool {
				t := storage.NewTuple(desc)
				t.SetField(0, g.key)
				t.SetField(1, common.NewIntField(g.count))
				result = append(result, t)
				return true
			})
			return result
		},
	}
}
