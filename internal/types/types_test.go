package types

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestCoerceIdentity(t *testing.T) {
	plan, err := Coerce(IntegerType, IntegerType, true)
	be.Err(t, err, nil)
	be.Equal(t, len(plan.Steps), 0)
	be.True(t, plan.Result.Equal(IntegerType))
}

func TestCoerceErrorAbsorbsBothWays(t *testing.T) {
	plan, err := Coerce(IntegerType, ErrorType, true)
	be.Err(t, err, nil)
	be.True(t, plan.Result.Equal(ErrorType))

	plan, err = Coerce(ErrorType, IntegerType, true)
	be.Err(t, err, nil)
	be.True(t, plan.Result.Equal(IntegerType))
}

func TestCoerceDereference(t *testing.T) {
	plan, err := Coerce(IntegerType, Reference(IntegerType), true)
	be.Err(t, err, nil)
	be.Equal(t, len(plan.Steps), 1)
	be.Equal(t, plan.Steps[0].Kind, StepDereference)
}

func TestCoerceDereferenceThenWiden(t *testing.T) {
	sub := Subrange(1, 10, IntegerType)
	plan, err := Coerce(IntegerType, Reference(sub), true)
	be.Err(t, err, nil)
	be.Equal(t, len(plan.Steps), 2)
	be.Equal(t, plan.Steps[0].Kind, StepDereference)
	be.Equal(t, plan.Steps[1].Kind, StepWiden)
}

func TestCoerceDereferenceThenNarrow(t *testing.T) {
	target := Subrange(1, 10, IntegerType)
	plan, err := Coerce(target, Reference(IntegerType), true)
	be.Err(t, err, nil)
	be.Equal(t, len(plan.Steps), 2)
	be.Equal(t, plan.Steps[0].Kind, StepDereference)
	be.Equal(t, plan.Steps[1].Kind, StepNarrow)
	be.Equal(t, plan.Steps[1].Low, 1)
	be.Equal(t, plan.Steps[1].High, 10)
}

func TestCoerceDereferenceThenNarrowDisallowed(t *testing.T) {
	target := Subrange(1, 10, IntegerType)
	_, err := Coerce(target, Reference(IntegerType), false)
	be.True(t, err != nil)
}

func TestCoerceWidenThenNarrowBetweenSubranges(t *testing.T) {
	source := Subrange(0, 100, IntegerType)
	target := Subrange(1, 10, IntegerType)
	plan, err := Coerce(target, source, true)
	be.Err(t, err, nil)
	be.Equal(t, len(plan.Steps), 2)
	be.Equal(t, plan.Steps[0].Kind, StepWiden)
	be.Equal(t, plan.Steps[1].Kind, StepNarrow)
}

func TestCoerceIncompatible(t *testing.T) {
	_, err := Coerce(BooleanType, IntegerType, true)
	be.True(t, err != nil)
	var it *IncompatibleTypes
	be.True(t, errorsAs(err, &it))
}

func errorsAs(err error, target **IncompatibleTypes) bool {
	it, ok := err.(*IncompatibleTypes)
	if !ok {
		return false
	}
	*target = it
	return true
}

func TestRecordFieldTypeMissing(t *testing.T) {
	r := Record("Point", []Field{{Name: "x", Type: IntegerType}, {Name: "y", Type: IntegerType}})
	be.True(t, r.FieldType("x").Equal(IntegerType))
	be.True(t, r.FieldType("z").IsError())
}

func TestGetRecordTypeTransparentlyDereferences(t *testing.T) {
	r := Record("Point", []Field{{Name: "x", Type: IntegerType}})
	be.True(t, GetRecordType(Reference(r)) == r)
	be.True(t, GetRecordType(IntegerType) == nil)
}

func TestGetPointerTypeTransparentlyDereferences(t *testing.T) {
	p := Pointer(IntegerType)
	be.True(t, GetPointerType(Reference(p)) == p)
	be.True(t, GetPointerType(IntegerType) == nil)
}
