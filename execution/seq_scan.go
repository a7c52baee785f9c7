package execution

import (
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// SeqScan reads every tuple of a table in (page, slot) order through the
// buffer pool, taking shared locks page by page on behalf of its
// transaction.
type SeqScan struct {
	tid   common.TransactionID
	file  storage.DbFile
	alias string
	desc  *storage.TupleDesc
	it    storage.DbFileIterator
}

// NewSeqScan creates a scan of file for tid. The scan's output schema
// carries the alias as a field-name prefix ("alias.column"), which is how
// the planner above disambiguates self-joins.
func NewSeqScan(tid common.TransactionID, file storage.DbFile, alias string) *SeqScan {
	desc := file.TupleDesc()
	if alias != "" {
		desc = desc.Rename(alias)
	}
	return &SeqScan{tid: tid, file: file, alias: alias, desc: desc}
}

func (s *SeqScan) Open() error {
	s.it = s.file.Iterator(s.tid)
	return s.it.Open()
}

func (s *SeqScan) HasNext() (bool, error) {
	if s.it == nil {
		return false, nil
	}
	return s.it.HasNext()
}

func (s *SeqScan) Next() (*storage.Tuple, error) {
	if s.it == nil {
		return nil, common.NewError(common.OutOfRange, "scan is not open")
	}
	return s.it.Next()
}

func (s *SeqScan) Rewind() error {
	if s.it == nil {
		return s.Open()
	}
	return s.it.Rewind()
}

func (s *SeqScan) Close() error {
	if s.it != nil {
		s.it.Close()
		s.it = nil
	}
	return nil
}

func (s *SeqScan) TupleDesc() *storage.TupleDesc {
	return s.desc
}
