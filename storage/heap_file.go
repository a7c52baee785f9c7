package storage

import (
	"fmt"
	"io"
	"os"
	"sync"

	"mit.edu/dsg/simpledb/common"
)

// HeapFile stores a collection of tuples in no particular order as a
// sequence of contiguous HeapPages. The file length is always a whole number
// of pages; growth is append-only in page increments.
//
// File handles are opened per page I/O and not kept across calls. A
// production port would pool handles; here the simplicity wins.
type HeapFile struct {
	path string
	desc *TupleDesc
	id   common.TableID
	pool *BufferPool

	// appendMu serializes file growth so two inserts cannot both append
	// page n.
	appendMu sync.Mutex
}

// NewHeapFile creates a heap file backed by the file at path, creating it
// empty if it does not exist. Tuple-level operations go through pool.
func NewHeapFile(path string, desc *TupleDesc, pool *BufferPool) (*HeapFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("open heap file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &HeapFile{
		path: path,
		desc: desc,
		id:   common.TableIDForPath(path),
		pool: pool,
	}, nil
}

// ID returns the table id, a stable hash of the file's absolute path.
func (hf *HeapFile) ID() common.TableID {
	return hf.id
}

// TupleDesc returns the schema of the tuples stored in this file.
func (hf *HeapFile) TupleDesc() *TupleDesc {
	return hf.desc
}

// NumPages returns the number of whole pages currently in the file.
func (hf *HeapFile) NumPages() int {
	stat, err := os.Stat(hf.path)
	if err != nil {
		return 0
	}
	return int(stat.Size()) / common.PageSize
}

// ReadPage reads the page identified by pid directly from disk.
func (hf *HeapFile) ReadPage(pid common.PageID) (Page, error) {
	if pid.Table != hf.id {
		return nil, common.NewError(common.InvalidPage, "%s does not belong to table %d", pid, hf.id)
	}
	f, err := os.Open(hf.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pid, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pid, err)
	}
	offset := int64(pid.PageNo) * int64(common.PageSize)
	if pid.PageNo < 0 || offset >= stat.Size() {
		return nil, common.NewError(common.InvalidPage, "%s is past end of file (%d pages)", pid, hf.NumPages())
	}

	data := make([]byte, common.PageSize)
	if _, err := f.ReadAt(data, offset); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read %s: %w", pid, err)
	}
	return NewHeapPage(pid, data, hf.desc)
}

// WritePage writes the page's serialized image at its offset. The file may
// be extended, but only contiguously: page numPages is the only page allowed
// past the current end.
func (hf *HeapFile) WritePage(p Page) error {
	pid := p.ID()
	if pid.PageNo < 0 || int(pid.PageNo) > hf.NumPages() {
		return common.NewError(common.InvalidPage, "write of %s would leave a hole (%d pages)", pid, hf.NumPages())
	}
	f, err := os.OpenFile(hf.path, os.O_RDWR, 0666)
	if err != nil {
		return fmt.Errorf("write %s: %w", pid, err)
	}
	defer f.Close()

	offset := int64(pid.PageNo) * int64(common.PageSize)
	if _, err := f.WriteAt(p.Serialize(), offset); err != nil {
		return fmt.Errorf("write %s: %w", pid, err)
	}
	return nil
}

// appendEmptyPage grows the file by one zeroed page and returns its id.
func (hf *HeapFile) appendEmptyPage() (common.PageID, error) {
	f, err := os.OpenFile(hf.path, os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return common.PageID{}, fmt.Errorf("extend heap file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return common.PageID{}, err
	}
	if _, err := f.Write(EmptyPageData()); err != nil {
		return common.PageID{}, fmt.Errorf("extend heap file: %w", err)
	}
	return common.PageID{Table: hf.id, PageNo: int32(stat.Size() / int64(common.PageSize))}, nil
}

// InsertTuple finds a page with a free slot and inserts t there, appending a
// fresh page if the file is full. Returns the modified pages.
//
// The scan takes a write lock on each visited page; on a page with no empty
// slots the lock is released immediately before moving on. That release
// breaks strict 2PL in letter, but a full page the transaction never
// modifies carries no information worth serializing on, and holding it would
// make every insert contend on the table's cold prefix.
func (hf *HeapFile) InsertTuple(tid common.TransactionID, t *Tuple) ([]Page, error) {
	numPages := hf.NumPages()
	for i := 0; i < numPages; i++ {
		pid := common.PageID{Table: hf.id, PageNo: int32(i)}
		pg, err := hf.pool.GetPage(tid, pid, common.ReadWrite)
		if err != nil {
			return nil, err
		}
		hp := pg.(*HeapPage)
		if hp.NumEmptySlots() == 0 {
			hf.pool.ReleasePage(tid, pid)
			continue
		}
		if err := hp.InsertTuple(t); err != nil {
			return nil, err
		}
		return []Page{hp}, nil
	}

	hf.appendMu.Lock()
	pid, err := hf.appendEmptyPage()
	hf.appendMu.Unlock()
	if err != nil {
		return nil, err
	}

	pg, err := hf.pool.GetPage(tid, pid, common.ReadWrite)
	if err != nil {
		return nil, err
	}
	hp := pg.(*HeapPage)
	if err := hp.InsertTuple(t); err != nil {
		return nil, err
	}
	return []Page{hp}, nil
}

// DeleteTuple removes t from the page recorded in its RecordID.
func (hf *HeapFile) DeleteTuple(tid common.TransactionID, t *Tuple) ([]Page, error) {
	rid := t.RecordID()
	if rid == nil {
		return nil, common.NewError(common.NotOnPage, "tuple has no record id")
	}
	pg, err := hf.pool.GetPage(tid, rid.PageID, common.ReadWrite)
	if err != nil {
		return nil, err
	}
	hp := pg.(*HeapPage)
	if err := hp.DeleteTuple(t); err != nil {
		return nil, err
	}
	return []Page{hp}, nil
}

// Iterator returns an iterator over every used tuple in the file in
// (pageNo, slot) order. Pages are fetched lazily through the buffer pool
// with read intent; the iterator holds no locks of its own.
func (hf *HeapFile) Iterator(tid common.TransactionID) DbFileIterator {
	return &heapFileIterator{hf: hf, tid: tid}
}

type heapFileIterator struct {
	hf     *HeapFile
	tid    common.TransactionID
	pageNo int
	tuples []*Tuple
	idx    int
	opened bool
}

func (it *heapFileIterator) loadPage(pageNo int) error {
	pid := common.PageID{Table: it.hf.id, PageNo: int32(pageNo)}
	pg, err := it.hf.pool.GetPage(it.tid, pid, common.ReadOnly)
	if err != nil {
		return err
	}
	it.pageNo = pageNo
	it.tuples = pg.(*HeapPage).UsedTuples()
	it.idx = 0
	return nil
}

func (it *heapFileIterator) Open() error {
	it.opened = true
	it.pageNo = 0
	it.tuples = nil
	it.idx = 0
	if it.hf.NumPages() == 0 {
		return nil
	}
	return it.loadPage(0)
}

func (it *heapFileIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, nil
	}
	for it.idx >= len(it.tuples) {
		if it.pageNo+1 >= it.hf.NumPages() {
			return false, nil
		}
		if err := it.loadPage(it.pageNo + 1); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (it *heapFileIterator) Next() (*Tuple, error) {
	ok, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.OutOfRange, "no more tuples")
	}
	t := it.tuples[it.idx]
	it.idx++
	return t, nil
}

func (it *heapFileIterator) Rewind() error {
	it.Close()
	return it.Open()
}

func (it *heapFileIterator) Close() {
	it.opened = false
	it.tuples = nil
}
