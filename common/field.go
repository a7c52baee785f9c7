package common

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Op is a comparison operator applied between a field and a constant.
type Op int8

const (
	OpEquals Op = iota
	OpGreaterThan
	OpLessThan
	OpLessThanOrEq
	OpGreaterThanOrEq
	OpLike
	OpNotEquals
)

func (op Op) String() string {
	switch op {
	case OpEquals:
		return "="
	case OpGreaterThan:
		return ">"
	case OpLessThan:
		return "<"
	case OpLessThanOrEq:
		return "<="
	case OpGreaterThanOrEq:
		return ">="
	case OpLike:
		return "LIKE"
	case OpNotEquals:
		return "<>"
	}
	return "??"
}

// Field is a single typed value in a tuple. It is a closed variant: every
// field is either an IntField or a StringField, and all serialization and
// comparison paths branch on the type tag.
type Field interface {
	Type() Type

	// WriteTo serializes the field into buf, which must be at least
	// Type().Size() bytes.
	WriteTo(buf []byte)

	// Compare applies op between this field (left operand) and other.
	// Both fields must have the same type.
	Compare(op Op, other Field) bool

	String() string
}

// IntField holds a 32-bit signed integer. Serialized as 4 bytes, big-endian.
type IntField struct {
	Value int32
}

func NewIntField(v int32) IntField {
	return IntField{Value: v}
}

func (f IntField) Type() Type {
	return IntType
}

func (f IntField) WriteTo(buf []byte) {
	Assert(len(buf) >= IntSize, "buffer too small for int field")
	binary.BigEndian.PutUint32(buf, uint32(f.Value))
}

func (f IntField) Compare(op Op, other Field) bool {
	o, ok := other.(IntField)
	Assert(ok, "type mismatch in int comparison")
	switch op {
	case OpEquals, OpLike:
		return f.Value == o.Value
	case OpNotEquals:
		return f.Value != o.Value
	case OpGreaterThan:
		return f.Value > o.Value
	case OpGreaterThanOrEq:
		return f.Value >= o.Value
	case OpLessThan:
		return f.Value < o.Value
	case OpLessThanOrEq:
		return f.Value <= o.Value
	}
	panic("unknown operator")
}

func (f IntField) String() string {
	return fmt.Sprintf("%d", f.Value)
}

// StringField holds a string of at most StringLength bytes. Serialized as a
// 4-byte big-endian length followed by the bytes, zero-padded to
// StringLength.
type StringField struct {
	Value string
}

// NewStringField creates a string field, truncating the value to
// StringLength bytes if necessary.
func NewStringField(v string) StringField {
	if len(v) > StringLength {
		v = v[:StringLength]
	}
	return StringField{Value: v}
}

func (f StringField) Type() Type {
	return StringType
}

func (f StringField) WriteTo(buf []byte) {
	Assert(len(buf) >= StringFieldSize, "buffer too small for string field")
	binary.BigEndian.PutUint32(buf, uint32(len(f.Value)))
	n := copy(buf[4:], f.Value)
	for i := 4 + n; i < StringFieldSize; i++ {
		buf[i] = 0
	}
}

func (f StringField) Compare(op Op, other Field) bool {
	o, ok := other.(StringField)
	Assert(ok, "type mismatch in string comparison")
	switch op {
	case OpEquals:
		return f.Value == o.Value
	case OpNotEquals:
		return f.Value != o.Value
	case OpGreaterThan:
		return f.Value > o.Value
	case OpGreaterThanOrEq:
		return f.Value >= o.Value
	case OpLessThan:
		return f.Value < o.Value
	case OpLessThanOrEq:
		return f.Value <= o.Value
	case OpLike:
		return strings.Contains(f.Value, o.Value)
	}
	panic("unknown operator")
}

func (f StringField) String() string {
	return f.Value
}

// ReadField deserializes a field of the given type from buf.
func ReadField(t Type, buf []byte) (Field, error) {
	switch t {
	case IntType:
		if len(buf) < IntSize {
			return nil, NewError(OutOfRange, "short buffer for int field")
		}
		return IntField{Value: int32(binary.BigEndian.Uint32(buf))}, nil
	case StringType:
		if len(buf) < StringFieldSize {
			return nil, NewError(OutOfRange, "short buffer for string field")
		}
		n := int(int32(binary.BigEndian.Uint32(buf)))
		if n < 0 || n > StringLength {
			return nil, NewError(OutOfRange, "corrupt string length %d", n)
		}
		return StringField{Value: string(buf[4 : 4+n])}, nil
	}
	panic("unknown field type")
}
