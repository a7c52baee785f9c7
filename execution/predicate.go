package execution

import (
	"fmt"

	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// Predicate compares one field of a tuple against a constant.
type Predicate struct {
	field   int
	op      common.Op
	operand common.Field
}

func NewPredicate(field int, op common.Op, operand common.Field) *Predicate {
	return &Predicate{field: field, op: op, operand: operand}
}

// Filter reports whether t satisfies the predicate.
func (p *Predicate) Filter(t *storage.Tuple) bool {
	return t.Field(p.field).Compare(p.op, p.operand)
}

// Field returns the index of the compared column.
func (p *Predicate) Field() int {
	return p.field
}

// Op returns the comparison operator.
func (p *Predicate) Op() common.Op {
	return p.op
}

// Operand returns the constant operand.
func (p *Predicate) Operand() common.Field {
	return p.operand
}

func (p *Predicate) String() string {
	return fmt.Sprintf("f[%d] %s %s", p.field, p.op, p.operand)
}

// JoinPredicate compares a field of one tuple against a field of another.
type JoinPredicate struct {
	field1 int
	field2 int
	op     common.Op
}

func NewJoinPredicate(field1 int, op common.Op, field2 int) *JoinPredicate {
	return &JoinPredicate{field1: field1, field2: field2, op: op}
}

// Filter reports whether the pair (left, right) satisfies the predicate.
func (p *JoinPredicate) Filter(left, right *storage.Tuple) bool {
	return left.Field(p.field1).Compare(p.op, right.Field(p.field2))
}

func (p *JoinPredicate) Field1() int {
	return p.field1
}

func (p *JoinPredicate) Field2() int {
	return p.field2
}

func (p *JoinPredicate) Op() common.Op {
	return p.op
}
