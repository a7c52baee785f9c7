package catalog

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/logging"
	"mit.edu/dsg/simpledb/storage"
)

func newTestCatalog(t *testing.T) (*Catalog, *storage.BufferPool, string) {
	t.Helper()
	dir := t.TempDir()
	cat := NewCatalog()
	log, err := logging.NewLogFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	pool := storage.NewBufferPool(storage.DefaultPages, cat, log)
	return cat, pool, dir
}

func addTable(t *testing.T, cat *Catalog, pool *storage.BufferPool, dir, name string) *storage.HeapFile {
	t.Helper()
	desc := storage.NewTupleDesc([]common.Type{common.IntType, common.StringType}, []string{"id", "name"})
	hf, err := storage.NewHeapFile(filepath.Join(dir, name+".dat"), desc, pool)
	require.NoError(t, err)
	cat.AddTable(hf, name, "id")
	return hf
}

func TestCatalogLookups(t *testing.T) {
	cat, pool, dir := newTestCatalog(t)
	hf := addTable(t, cat, pool, dir, "users")

	file, err := cat.DatabaseFile(hf.ID())
	require.NoError(t, err)
	assert.Equal(t, hf, file)

	desc, err := cat.TupleDesc(hf.ID())
	require.NoError(t, err)
	assert.True(t, desc.Equals(hf.TupleDesc()))

	name, err := cat.TableName(hf.ID())
	require.NoError(t, err)
	assert.Equal(t, "users", name)

	pkey, err := cat.PrimaryKey(hf.ID())
	require.NoError(t, err)
	assert.Equal(t, "id", pkey)

	id, err := cat.TableID("users")
	require.NoError(t, err)
	assert.Equal(t, hf.ID(), id)
}

func TestCatalogUnknownObjects(t *testing.T) {
	cat, _, _ := newTestCatalog(t)

	_, err := cat.DatabaseFile(999)
	assert.True(t, common.HasCode(err, common.NoSuchObject))
	_, err = cat.TableName(999)
	assert.True(t, common.HasCode(err, common.NoSuchObject))
	_, err = cat.TableID("nope")
	assert.True(t, common.HasCode(err, common.NoSuchObject))
}

func TestCatalogNameReplacement(t *testing.T) {
	cat, pool, dir := newTestCatalog(t)
	old := addTable(t, cat, pool, dir, "t")

	desc := storage.NewTupleDesc([]common.Type{common.IntType}, []string{"x"})
	replacement, err := storage.NewHeapFile(filepath.Join(dir, "replacement.dat"), desc, pool)
	require.NoError(t, err)
	cat.AddTable(replacement, "t", "x")

	id, err := cat.TableID("t")
	require.NoError(t, err)
	assert.Equal(t, replacement.ID(), id)

	// The shadowed table's id no longer resolves.
	_, err = cat.DatabaseFile(old.ID())
	assert.True(t, common.HasCode(err, common.NoSuchObject))
	assert.NotContains(t, cat.TableIDs(), old.ID())
}

func TestCatalogTableIDsSorted(t *testing.T) {
	cat, pool, dir := newTestCatalog(t)
	for _, name := range []string{"alpha", "beta", "gamma", "delta"} {
		addTable(t, cat, pool, dir, name)
	}

	ids := cat.TableIDs()
	require.Len(t, ids, 4)
	assert.True(t, sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }))
}

func TestCatalogClear(t *testing.T) {
	cat, pool, dir := newTestCatalog(t)
	hf := addTable(t, cat, pool, dir, "gone")

	cat.Clear()
	assert.Empty(t, cat.TableIDs())
	_, err := cat.DatabaseFile(hf.ID())
	assert.True(t, common.HasCode(err, common.NoSuchObject))
}
