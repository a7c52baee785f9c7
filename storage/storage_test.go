package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mit.edu/dsg/simpledb/common"
)

// tableSet is a minimal TableResolver for tests that do not want a catalog.
type tableSet struct {
	files map[common.TableID]DbFile
}

func newTableSet() *tableSet {
	return &tableSet{files: make(map[common.TableID]DbFile)}
}

func (s *tableSet) add(f DbFile) {
	s.files[f.ID()] = f
}

func (s *tableSet) DatabaseFile(id common.TableID) (DbFile, error) {
	f, ok := s.files[id]
	if !ok {
		return nil, common.NewError(common.NoSuchObject, "no table with id %d", id)
	}
	return f, nil
}

// countingLogger records how many WAL appends and forces it sees.
type countingLogger struct {
	writes int
	forces int
}

func (l *countingLogger) LogWrite(tid common.TransactionID, pid common.PageID, before, after []byte) error {
	l.writes++
	return nil
}

func (l *countingLogger) Force() error {
	l.forces++
	return nil
}

func newTestPool(capacity int) (*BufferPool, *tableSet, *countingLogger) {
	resolver := newTableSet()
	logger := &countingLogger{}
	return NewBufferPool(capacity, resolver, logger), resolver, logger
}

// intDesc builds a schema of n unnamed int columns.
func intDesc(n int) *TupleDesc {
	types := make([]common.Type, n)
	for i := range types {
		types[i] = common.IntType
	}
	return NewTupleDesc(types, nil)
}

// wideDesc builds a schema whose tuples are wide enough that a page holds
// only a handful of slots (two strings: W = 264, 15 slots per page).
func wideDesc() *TupleDesc {
	return NewTupleDesc([]common.Type{common.StringType, common.StringType}, []string{"a", "b"})
}

func intTuple(desc *TupleDesc, vals ...int32) *Tuple {
	t := NewTuple(desc)
	for i, v := range vals {
		t.SetField(i, common.NewIntField(v))
	}
	return t
}

func wideTuple(desc *TupleDesc, a, b string) *Tuple {
	t := NewTuple(desc)
	t.SetField(0, common.NewStringField(a))
	t.SetField(1, common.NewStringField(b))
	return t
}

// newTestFile creates an empty heap file wired into the pool's resolver.
func newTestFile(t *testing.T, pool *BufferPool, resolver *tableSet, desc *TupleDesc, name string) *HeapFile {
	t.Helper()
	hf, err := NewHeapFile(filepath.Join(t.TempDir(), name), desc, pool)
	require.NoError(t, err)
	resolver.add(hf)
	return hf
}

// drain pulls every tuple out of a file iterator.
func drain(t *testing.T, it DbFileIterator) []*Tuple {
	t.Helper()
	require.NoError(t, it.Open())
	var result []*Tuple
	for {
		ok, err := it.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		tup, err := it.Next()
		require.NoError(t, err)
		result = append(result, tup)
	}
	it.Close()
	return result
}
