package execution

import (
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

var countDesc = storage.NewTupleDesc([]common.Type{common.IntType}, []string{"count"})

// Insert drains its child and inserts every tuple into a table through the
// buffer pool. It yields a single tuple holding the number of inserted
// records; a second pull yields nothing.
type Insert struct {
	tid     common.TransactionID
	child   OpIterator
	tableID common.TableID
	pool    *storage.BufferPool
	done    bool
}

// NewInsert creates an insert of the child's tuples into the named table on
// behalf of tid. The child's schema must match the table's.
func NewInsert(tid common.TransactionID, child OpIterator, tableID common.TableID, pool *storage.BufferPool, resolver storage.TableResolver) (*Insert, error) {
	file, err := resolver.DatabaseFile(tableID)
	if err != nil {
		return nil, err
	}
	if !child.TupleDesc().Equals(file.TupleDesc()) {
		return nil, common.NewError(common.SchemaMismatch,
			"child schema (%s) does not match table schema (%s)", child.TupleDesc(), file.TupleDesc())
	}
	return &Insert{tid: tid, child: child, tableID: tableID, pool: pool}, nil
}

func (op *Insert) Open() error {
	op.done = false
	return op.child.Open()
}

func (op *Insert) HasNext() (bool, error) {
	return !op.done, nil
}

func (op *Insert) Next() (*storage.Tuple, error) {
	if op.done {
		return nil, common.NewError(common.OutOfRange, "insert already executed")
	}
	count := int32(0)
	for {
		ok, err := op.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		t, err := op.child.Next()
		if err != nil {
			return nil, err
		}
		if err := op.pool.InsertTuple(op.tid, op.tableID, t); err != nil {
			return nil, err
		}
		count++
	}
	op.done = true
	result := storage.NewTuple(countDesc)
	result.SetField(0, common.NewIntField(count))
	return result, nil
}

func (op *Insert) Rewind() error {
	op.done = false
	return op.child.Rewind()
}

func (op *Insert) Close() error {
	return op.child.Close()
}

func (op *Insert) TupleDesc() *storage.TupleDesc {
	return countDesc
}
