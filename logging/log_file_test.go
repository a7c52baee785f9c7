package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mit.edu/dsg/simpledb/common"
)

func newTestLog(t *testing.T) *LogFile {
	t.Helper()
	lf, err := NewLogFile(filepath.Join(t.TempDir(), "test.log"))
	require.NoError(t, err)
	t.Cleanup(func() { lf.Close() })
	return lf
}

func pageImage(fill byte) []byte {
	img := make([]byte, common.PageSize)
	for i := range img {
		img[i] = fill
	}
	return img
}

func readAll(t *testing.T, lf *LogFile) []Record {
	t.Helper()
	it, err := lf.Iterator()
	require.NoError(t, err)
	defer it.Close()

	var records []Record
	for it.Next() {
		records = append(records, it.CurrentRecord())
	}
	require.NoError(t, it.Error())
	return records
}

func TestLogWriteRoundTrip(t *testing.T) {
	lf := newTestLog(t)

	tid := common.TransactionID(7)
	pid := common.PageID{Table: 42, PageNo: 3}
	before, after := pageImage(0x00), pageImage(0xAB)

	require.NoError(t, lf.LogWrite(tid, pid, before, after))
	require.NoError(t, lf.Force())

	records := readAll(t, lf)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, UpdateRecord, r.Type)
	assert.Equal(t, tid, r.Tid)
	assert.Equal(t, pid, r.Pid)
	assert.Equal(t, before, r.Before)
	assert.Equal(t, after, r.After)
}

func TestLogMarkersAndOrdering(t *testing.T) {
	lf := newTestLog(t)

	tid := common.TransactionID(9)
	pid := common.PageID{Table: 1, PageNo: 0}
	require.NoError(t, lf.LogWrite(tid, pid, pageImage(0), pageImage(1)))
	require.NoError(t, lf.LogCommit(tid))
	require.NoError(t, lf.LogAbort(common.TransactionID(10)))

	records := readAll(t, lf)
	require.Len(t, records, 3)
	assert.Equal(t, UpdateRecord, records[0].Type)
	assert.Equal(t, CommitRecord, records[1].Type)
	assert.Equal(t, tid, records[1].Tid)
	assert.Equal(t, AbortRecord, records[2].Type)
	assert.Equal(t, common.TransactionID(10), records[2].Tid)
}

func TestLogSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reopen.log")

	lf, err := NewLogFile(path)
	require.NoError(t, err)
	require.NoError(t, lf.LogCommit(common.TransactionID(1)))
	require.NoError(t, lf.Close())

	lf, err = NewLogFile(path)
	require.NoError(t, err)
	defer lf.Close()
	require.NoError(t, lf.LogCommit(common.TransactionID(2)))

	records := readAll(t, lf)
	require.Len(t, records, 2)
	assert.Equal(t, common.TransactionID(1), records[0].Tid)
	assert.Equal(t, common.TransactionID(2), records[1].Tid)
}

func TestLogChecksumDetectsCorruption(t *testing.T) {
	lf := newTestLog(t)
	require.NoError(t, lf.LogCommit(common.TransactionID(1)))
	require.NoError(t, lf.Force())

	// Flip a payload byte behind the iterator's back. The log's own handle
	// is append-only, so corrupt through a second handle.
	f, err := os.OpenFile(lf.file.Name(), os.O_WRONLY, 0666)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xFF}, recordHeaderSize+5)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	it, err := lf.Iterator()
	require.NoError(t, err)
	defer it.Close()
	assert.False(t, it.Next())
	assert.Error(t, it.Error())
}
