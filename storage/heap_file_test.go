package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/transaction"
)

func TestHeapFileEmptyScan(t *testing.T) {
	pool, resolver, _ := newTestPool(10)
	hf := newTestFile(t, pool, resolver, wideDesc(), "empty.dat")

	assert.Equal(t, 0, hf.NumPages())

	it := hf.Iterator(transaction.NewTransactionID())
	require.NoError(t, it.Open())
	ok, err := it.HasNext()
	require.NoError(t, err)
	assert.False(t, ok)
	it.Close()
}

// buildPage produces a serialized page whose used slots are exactly those in
// keep, counted from slot zero.
func buildPage(t *testing.T, desc *TupleDesc, pageNo int32, keep map[int32]bool) []byte {
	t.Helper()
	highest := int32(-1)
	for s := range keep {
		if s > highest {
			highest = s
		}
	}
	p, err := NewHeapPage(common.PageID{Table: 1, PageNo: pageNo}, EmptyPageData(), desc)
	require.NoError(t, err)

	var tuples []*Tuple
	for i := int32(0); i <= highest; i++ {
		tup := wideTuple(desc, "page", "slot")
		require.NoError(t, p.InsertTuple(tup))
		tuples = append(tuples, tup)
	}
	for i := int32(0); i <= highest; i++ {
		if !keep[i] {
			require.NoError(t, p.DeleteTuple(tuples[i]))
		}
	}
	return p.Serialize()
}

func TestHeapFileTwoPageScan(t *testing.T) {
	desc := wideDesc()
	pool, resolver, _ := newTestPool(10)

	page0 := buildPage(t, desc, 0, map[int32]bool{0: true, 2: true, 5: true})
	page1 := buildPage(t, desc, 1, map[int32]bool{7: true})

	path := filepath.Join(t.TempDir(), "two.dat")
	require.NoError(t, os.WriteFile(path, append(page0, page1...), 0666))

	hf, err := NewHeapFile(path, desc, pool)
	require.NoError(t, err)
	resolver.add(hf)
	assert.Equal(t, 2, hf.NumPages())

	tuples := drain(t, hf.Iterator(transaction.NewTransactionID()))
	require.Len(t, tuples, 4)

	want := []common.RecordID{
		{PageID: common.PageID{Table: hf.ID(), PageNo: 0}, Slot: 0},
		{PageID: common.PageID{Table: hf.ID(), PageNo: 0}, Slot: 2},
		{PageID: common.PageID{Table: hf.ID(), PageNo: 0}, Slot: 5},
		{PageID: common.PageID{Table: hf.ID(), PageNo: 1}, Slot: 7},
	}
	for i, tup := range tuples {
		require.NotNil(t, tup.RecordID())
		assert.Equal(t, want[i], *tup.RecordID())
	}
}

func TestHeapFileReadPageOutOfRange(t *testing.T) {
	pool, resolver, _ := newTestPool(10)
	hf := newTestFile(t, pool, resolver, wideDesc(), "short.dat")

	_, err := hf.ReadPage(common.PageID{Table: hf.ID(), PageNo: 0})
	assert.True(t, common.HasCode(err, common.InvalidPage), "read past EOF must fail")

	_, err = hf.ReadPage(common.PageID{Table: hf.ID() + 1, PageNo: 0})
	assert.True(t, common.HasCode(err, common.InvalidPage), "foreign page id must fail")
}

func TestHeapFileWritePageContiguity(t *testing.T) {
	desc := wideDesc()
	pool, resolver, _ := newTestPool(10)
	hf := newTestFile(t, pool, resolver, desc, "grow.dat")

	p0, err := NewHeapPage(common.PageID{Table: hf.ID(), PageNo: 0}, EmptyPageData(), desc)
	require.NoError(t, err)
	require.NoError(t, p0.InsertTuple(wideTuple(desc, "x", "y")))

	// Page 0 == numPages (0): contiguous extension is allowed.
	require.NoError(t, hf.WritePage(p0))
	assert.Equal(t, 1, hf.NumPages())

	// Page 3 would leave a hole.
	p3, err := NewHeapPage(common.PageID{Table: hf.ID(), PageNo: 3}, EmptyPageData(), desc)
	require.NoError(t, err)
	err = hf.WritePage(p3)
	assert.True(t, common.HasCode(err, common.InvalidPage))

	// The written page reads back intact.
	back, err := hf.ReadPage(p0.ID())
	require.NoError(t, err)
	tuples := back.(*HeapPage).UsedTuples()
	require.Len(t, tuples, 1)
	assert.Equal(t, common.NewStringField("x"), tuples[0].Field(0))
}

func TestHeapFileInsertGrowsFile(t *testing.T) {
	desc := wideDesc()
	pool, resolver, _ := newTestPool(10)
	hf := newTestFile(t, pool, resolver, desc, "full.dat")

	// Fill page 0 completely and commit.
	fill := transaction.NewTransactionID()
	slots := SlotsPerPage(desc)
	for i := 0; i < slots; i++ {
		require.NoError(t, pool.InsertTuple(fill, hf.ID(), wideTuple(desc, "old", "row")))
	}
	require.NoError(t, pool.TransactionComplete(fill, true))
	require.Equal(t, 1, hf.NumPages())

	tid := transaction.NewTransactionID()
	require.NoError(t, pool.InsertTuple(tid, hf.ID(), wideTuple(desc, "fresh", "row")))
	assert.Equal(t, 2, hf.NumPages())

	// The insert scan released the write lock on the full page 0 before
	// moving on, and kept it on the page it modified.
	assert.False(t, pool.HoldsLock(tid, common.PageID{Table: hf.ID(), PageNo: 0}))
	assert.True(t, pool.HoldsLock(tid, common.PageID{Table: hf.ID(), PageNo: 1}))
	require.NoError(t, pool.TransactionComplete(tid, true))

	tuples := drain(t, hf.Iterator(transaction.NewTransactionID()))
	require.Len(t, tuples, slots+1)
	last := tuples[len(tuples)-1]
	assert.Equal(t, common.NewStringField("fresh"), last.Field(0))
	assert.Equal(t, int32(1), last.RecordID().PageNo)
}

func TestHeapFileDeleteTuple(t *testing.T) {
	desc := wideDesc()
	pool, resolver, _ := newTestPool(10)
	hf := newTestFile(t, pool, resolver, desc, "del.dat")

	tid := transaction.NewTransactionID()
	victim := wideTuple(desc, "doomed", "row")
	require.NoError(t, pool.InsertTuple(tid, hf.ID(), victim))
	require.NoError(t, pool.InsertTuple(tid, hf.ID(), wideTuple(desc, "kept", "row")))
	require.NoError(t, pool.TransactionComplete(tid, true))

	tid = transaction.NewTransactionID()
	// The tuple still carries its record id from insertion.
	require.NoError(t, pool.DeleteTuple(tid, victim))
	require.NoError(t, pool.TransactionComplete(tid, true))

	tuples := drain(t, hf.Iterator(transaction.NewTransactionID()))
	require.Len(t, tuples, 1)
	assert.Equal(t, common.NewStringField("kept"), tuples[0].Field(0))
}

func TestHeapFileSizeIsWholePages(t *testing.T) {
	desc := wideDesc()
	pool, resolver, _ := newTestPool(10)
	hf := newTestFile(t, pool, resolver, desc, "whole.dat")

	tid := transaction.NewTransactionID()
	require.NoError(t, pool.InsertTuple(tid, hf.ID(), wideTuple(desc, "a", "b")))
	require.NoError(t, pool.TransactionComplete(tid, true))

	stat, err := os.Stat(hf.path)
	require.NoError(t, err)
	assert.Positive(t, stat.Size())
	assert.Zero(t, stat.Size()%int64(common.PageSize))
}
