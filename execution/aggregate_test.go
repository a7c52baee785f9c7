package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

var groupedDesc = storage.NewTupleDesc(
	[]common.Type{common.IntType, common.IntType}, []string{"g", "v"})

func groupedTuple(g, v int32) *storage.Tuple {
	t := storage.NewTuple(groupedDesc)
	t.SetField(0, common.NewIntField(g))
	t.SetField(1, common.NewIntField(v))
	return t
}

func runAggregate(t *testing.T, op AggregateOp, gField int, rows ...*storage.Tuple) []*storage.Tuple {
	t.Helper()
	agg, err := NewAggregate(NewTupleIterator(groupedDesc, rows), 1, gField, op)
	require.NoError(t, err)
	return pull(t, agg)
}

func TestAggregateNoGrouping(t *testing.T) {
	rows := []*storage.Tuple{
		groupedTuple(0, 3), groupedTuple(0, 9), groupedTuple(0, 6), groupedTuple(0, 2),
	}

	cases := []struct {
		op   AggregateOp
		want int32
	}{
		{AggCount, 4},
		{AggSum, 20},
		{AggAvg, 5},
		{AggMin, 2},
		{AggMax, 9},
	}
	for _, tc := range cases {
		t.Run(tc.op.String(), func(t *testing.T) {
			out := runAggregate(t, tc.op, NoGrouping, rows...)
			require.Len(t, out, 1)
			assert.Equal(t, common.NewIntField(tc.want), out[0].Field(0))
		})
	}
}

func TestAggregateAvgTruncates(t *testing.T) {
	// 3 + 4 = 7, 7/2 = 3 in integer division.
	out := runAggregate(t, AggAvg, NoGrouping, groupedTuple(0, 3), groupedTuple(0, 4))
	require.Len(t, out, 1)
	assert.Equal(t, common.NewIntField(3), out[0].Field(0))
}

func TestAggregateGrouped(t *testing.T) {
	rows := []*storage.Tuple{
		groupedTuple(2, 10), groupedTuple(1, 5), groupedTuple(2, 30), groupedTuple(1, 1),
	}

	out := runAggregate(t, AggSum, 0, rows...)
	require.Len(t, out, 2)
	// Groups come out in ascending key order.
	assert.Equal(t, common.NewIntField(1), out[0].Field(0))
	assert.Equal(t, common.NewIntField(6), out[0].Field(1))
	assert.Equal(t, common.NewIntField(2), out[1].Field(0))
	assert.Equal(t, common.NewIntField(40), out[1].Field(1))
}

func TestAggregateEmptyInput(t *testing.T) {
	assert.Empty(t, runAggregate(t, AggCount, NoGrouping))
	assert.Empty(t, runAggregate(t, AggSum, 0))
}

func TestAggregateOutputSchema(t *testing.T) {
	plain, err := NewAggregate(NewTupleIterator(groupedDesc, nil), 1, NoGrouping, AggSum)
	require.NoError(t, err)
	assert.Equal(t, 1, plain.TupleDesc().NumFields())
	assert.Equal(t, "sum(v)", plain.TupleDesc().FieldName(0))

	grouped, err := NewAggregate(NewTupleIterator(groupedDesc, nil), 1, 0, AggSum)
	require.NoError(t, err)
	assert.Equal(t, 2, grouped.TupleDesc().NumFields())
	assert.Equal(t, "g", grouped.TupleDesc().FieldName(0))
}

func TestIntegerAggregatorRewindSeesNewTuples(t *testing.T) {
	agg := NewIntegerAggregator(NoGrouping, common.DefaultType, 1, AggCount)
	require.NoError(t, agg.MergeTupleIntoGroup(groupedTuple(0, 1)))

	it := agg.Iterator()
	require.NoError(t, it.Open())
	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, common.NewIntField(1), first.Field(0))

	require.NoError(t, agg.MergeTupleIntoGroup(groupedTuple(0, 2)))
	require.NoError(t, it.Rewind())
	second, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, common.NewIntField(2), second.Field(0), "rewind must observe the merged tuple")
}

func TestIntegerAggregatorGroupTypeMismatch(t *testing.T) {
	// Declared string group key, actual int.
	agg := NewIntegerAggregator(0, common.StringType, 1, AggSum)
	err := agg.MergeTupleIntoGroup(groupedTuple(1, 1))
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.SchemaMismatch))
}

var strDesc = storage.NewTupleDesc(
	[]common.Type{common.StringType, common.StringType}, []string{"g", "v"})

func strTuple(g, v string) *storage.Tuple {
	t := storage.NewTuple(strDesc)
	t.SetField(0, common.NewStringField(g))
	t.SetField(1, common.NewStringField(v))
	return t
}

func TestStringAggregatorCountOnly(t *testing.T) {
	_, err := NewStringAggregator(NoGrouping, common.DefaultType, 1, AggSum)
	require.Error(t, err, "only count is defined on strings")

	agg, err := NewStringAggregator(0, common.StringType, 1, AggCount)
	require.NoError(t, err)
	for _, row := range []*storage.Tuple{
		strTuple("a", "x"), strTuple("b", "y"), strTuple("a", "z"),
	} {
		require.NoError(t, agg.MergeTupleIntoGroup(row))
	}

	it := agg.Iterator()
	require.NoError(t, it.Open())
	tuples := pull(t, it)
	require.Len(t, tuples, 2)
	assert.Equal(t, common.NewStringField("a"), tuples[0].Field(0))
	assert.Equal(t, common.NewIntField(2), tuples[0].Field(1))
	assert.Equal(t, common.NewStringField("b"), tuples[1].Field(0))
	assert.Equal(t, common.NewIntField(1), tuples[1].Field(1))
}

func TestStringAggregateThroughOperator(t *testing.T) {
	agg, err := NewAggregate(NewTupleIterator(strDesc, []*storage.Tuple{
		strTuple("x", "1"), strTuple("x", "2"), strTuple("x", "3"),
	}), 1, NoGrouping, AggCount)
	require.NoError(t, err)

	out := pull(t, agg)
	require.Len(t, out, 1)
	assert.Equal(t, common.NewIntField(3), out[0].Field(0))
}
