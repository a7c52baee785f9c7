package storage

import (
	"strings"

	"mit.edu/dsg/simpledb/common"
)

// TupleDesc describes the schema of a tuple: an ordered sequence of field
// types with optional names. Equality is structural over the types only;
// names are cosmetic and ignored by Equals.
type TupleDesc struct {
	types   []common.Type
	names   []string
	offsets []int // column index -> byte offset of the field in a serialized tuple
	size    int   // fixed serialized width of the tuple in bytes
}

// NewTupleDesc creates a descriptor for the given field types. names may be
// nil, or shorter than types; missing names are empty.
func NewTupleDesc(types []common.Type, names []string) *TupleDesc {
	common.Assert(len(types) > 0, "tuple descriptor must have at least one field")
	offsets := make([]int, len(types))
	size := 0
	for i, t := range types {
		offsets[i] = size
		size += t.Size()
	}
	filled := make([]string, len(types))
	copy(filled, names)
	return &TupleDesc{types: types, names: filled, offsets: offsets, size: size}
}

// NumFields returns the number of fields in the schema.
func (td *TupleDesc) NumFields() int {
	return len(td.types)
}

// FieldType returns the type of field i.
func (td *TupleDesc) FieldType(i int) common.Type {
	return td.types[i]
}

// FieldName returns the (possibly empty) name of field i.
func (td *TupleDesc) FieldName(i int) string {
	return td.names[i]
}

// FieldIndex returns the index of the first field with the given name.
func (td *TupleDesc) FieldIndex(name string) (int, error) {
	for i, n := range td.names {
		if n == name {
			return i, nil
		}
	}
	return 0, common.NewError(common.NoSuchObject, "no field named '%s'", name)
}

// Size returns the serialized byte width of a tuple with this schema: the
// sum of the fixed widths of its fields.
func (td *TupleDesc) Size() int {
	return td.size
}

// FieldOffset returns the byte offset where field i begins in a serialized
// tuple.
func (td *TupleDesc) FieldOffset(i int) int {
	return td.offsets[i]
}

// Equals reports structural equality of the two schemas. Field names do not
// participate.
func (td *TupleDesc) Equals(other *TupleDesc) bool {
	if other == nil || len(td.types) != len(other.types) {
		return false
	}
	for i, t := range td.types {
		if t != other.types[i] {
			return false
		}
	}
	return true
}

// Combine concatenates two schemas, left fields followed by right fields.
// Used by joins to describe their output.
func Combine(left, right *TupleDesc) *TupleDesc {
	types := make([]common.Type, 0, len(left.types)+len(right.types))
	types = append(types, left.types...)
	types = append(types, right.types...)
	names := make([]string, 0, len(types))
	names = append(names, left.names...)
	names = append(names, right.names...)
	return NewTupleDesc(types, names)
}

// Rename returns a copy of the schema with every field name prefixed by
// "alias.", as table scans expose their columns.
func (td *TupleDesc) Rename(alias string) *TupleDesc {
	names := make([]string, len(td.names))
	for i, n := range td.names {
		names[i] = alias + "." + n
	}
	return NewTupleDesc(td.types, names)
}

func (td *TupleDesc) String() string {
	var sb strings.Builder
	for i, t := range td.types {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
		if td.names[i] != "" {
			sb.WriteString("(" + td.names[i] + ")")
		}
	}
	return sb.String()
}

// Tuple is an in-memory record: a schema plus one field per position and an
// optional RecordID. The RecordID is set by the storage layer on insertion
// and cleared on deletion; virtual tuples produced by operators have none.
type Tuple struct {
	desc   *TupleDesc
	fields []common.Field
	rid    *common.RecordID
}

// NewTuple creates an empty tuple with the given schema. Fields must be
// populated with SetField before the tuple is serialized.
func NewTuple(desc *TupleDesc) *Tuple {
	return &Tuple{desc: desc, fields: make([]common.Field, desc.NumFields())}
}

// Desc returns the schema of this tuple.
func (t *Tuple) Desc() *TupleDesc {
	return t.desc
}

// SetField stores f at position i. The field type must match the schema.
func (t *Tuple) SetField(i int, f common.Field) {
	common.Assert(f.Type() == t.desc.FieldType(i), "field type mismatch at position %d", i)
	t.fields[i] = f
}

// Field returns the field at position i.
func (t *Tuple) Field(i int) common.Field {
	return t.fields[i]
}

// RecordID returns the tuple's on-disk location, or nil for virtual tuples.
func (t *Tuple) RecordID() *common.RecordID {
	return t.rid
}

// SetRecordID binds (or, with nil, clears) the tuple's on-disk location.
func (t *Tuple) SetRecordID(rid *common.RecordID) {
	t.rid = rid
}

// WriteTo serializes the tuple's fields in schema order into buf, which must
// be at least Desc().Size() bytes.
func (t *Tuple) WriteTo(buf []byte) {
	common.Assert(len(buf) >= t.desc.Size(), "buffer too small for tuple")
	for i, f := range t.fields {
		common.Assert(f != nil, "serializing tuple with unset field %d", i)
		f.WriteTo(buf[t.desc.offsets[i]:])
	}
}

// ReadTuple deserializes a tuple with the given schema from buf.
func ReadTuple(desc *TupleDesc, buf []byte) (*Tuple, error) {
	if len(buf) < desc.Size() {
		return nil, common.NewError(common.OutOfRange, "short buffer for tuple")
	}
	t := NewTuple(desc)
	for i := 0; i < desc.NumFields(); i++ {
		f, err := common.ReadField(desc.FieldType(i), buf[desc.offsets[i]:])
		if err != nil {
			return nil, err
		}
		t.fields[i] = f
	}
	return t, nil
}

// MergeTuples builds the concatenation of left and right under the combined
// schema. The result is virtual (no RecordID).
func MergeTuples(desc *TupleDesc, left, right *Tuple) *Tuple {
	common.Assert(left.desc.NumFields()+right.desc.NumFields() == desc.NumFields(),
		"combined tuple descriptor mismatch")
	result := NewTuple(desc)
	n := copy(result.fields, left.fields)
	copy(result.fields[n:], right.fields)
	return result
}

func (t *Tuple) String() string {
	var sb strings.Builder
	for i, f := range t.fields {
		if i > 0 {
			sb.WriteString("\t")
		}
		if f == nil {
			sb.WriteString("<unset>")
		} else {
			sb.WriteString(f.String())
		}
	}
	return sb.String()
}
