package execution

import (
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// Project narrows its child's tuples to a list of columns, in the order
// given.
type Project struct {
	fields []int
	child  OpIterator
	desc   *storage.TupleDesc
}

func NewProject(fields []int, child OpIterator) *Project {
	childDesc := child.TupleDesc()
	types := make([]common.Type, len(fields))
	names := make([]string, len(fields))
	for i, f := range fields {
		types[i] = childDesc.FieldType(f)
		names[i] = childDesc.FieldName(f)
	}
	return &Project{
		fields: fields,
		child:  child,
		desc:   storage.NewTupleDesc(types, names),
	}
}

func (p *Project) Open() error {
	return p.child.Open()
}

func (p *Project) HasNext() (bool, error) {
	return p.child.HasNext()
}

func (p *Project) Next() (*storage.Tuple, error) {
	t, err := p.child.Next()
	if err != nil {
		return nil, err
	}
	out := storage.NewTuple(p.desc)
	for i, f := range p.fields {
		out.SetField(i, t.Field(f))
	}
	return out, nil
}

func (p *Project) Rewind() error {
	return p.child.Rewind()
}

func (p *Project) Close() error {
	return p.child.Close()
}

func (p *Project) TupleDesc() *storage.TupleDesc {
	return p.desc
}
