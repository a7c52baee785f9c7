package execution

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mit.edu/dsg/simpledb/catalog"
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/logging"
	"mit.edu/dsg/simpledb/storage"
	"mit.edu/dsg/simpledb/transaction"
)

type testEnv struct {
	cat  *catalog.Catalog
	pool *storage.BufferPool
	dir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cat := catalog.NewCatalog()
	log, err := logging.NewLogFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return &testEnv{
		cat:  cat,
		pool: storage.NewBufferPool(storage.DefaultPages, cat, log),
		dir:  dir,
	}
}

var twoIntDesc = storage.NewTupleDesc(
	[]common.Type{common.IntType, common.IntType}, []string{"id", "val"})

func twoInts(id, val int32) *storage.Tuple {
	t := storage.NewTuple(twoIntDesc)
	t.SetField(0, common.NewIntField(id))
	t.SetField(1, common.NewIntField(val))
	return t
}

// createTable registers a heap file named name and loads rows into it under
// a committed transaction.
func (env *testEnv) createTable(t *testing.T, name string, rows ...*storage.Tuple) *storage.HeapFile {
	t.Helper()
	hf, err := storage.NewHeapFile(filepath.Join(env.dir, name+".dat"), twoIntDesc, env.pool)
	require.NoError(t, err)
	env.cat.AddTable(hf, name, "id")

	tid := transaction.NewTransactionID()
	for _, row := range rows {
		require.NoError(t, env.pool.InsertTuple(tid, hf.ID(), row))
	}
	require.NoError(t, env.pool.TransactionComplete(tid, true))
	return hf
}

// pull drains an operator, failing the test on any error.
func pull(t *testing.T, op OpIterator) []*storage.Tuple {
	t.Helper()
	require.NoError(t, op.Open())
	var result []*storage.Tuple
	for {
		ok, err := op.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		tup, err := op.Next()
		require.NoError(t, err)
		result = append(result, tup)
	}
	require.NoError(t, op.Close())
	return result
}

func intsOf(t *testing.T, tuples []*storage.Tuple, field int) []int32 {
	t.Helper()
	result := make([]int32, len(tuples))
	for i, tup := range tuples {
		f, ok := tup.Field(field).(common.IntField)
		require.True(t, ok)
		result[i] = f.Value
	}
	return result
}
