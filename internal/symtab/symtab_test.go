package symtab

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/MaxwellBo/pl0core/internal/types"
)

func TestAllocateVariableAssignsSequentialOffsets(t *testing.T) {
	s := NewScope(nil, 1)

	x, err := s.AllocateVariable("x", types.IntegerType)
	be.Err(t, err, nil)
	be.Equal(t, x.Offset, 0)

	y, err := s.AllocateVariable("y", types.IntegerType)
	be.Err(t, err, nil)
	be.Equal(t, y.Offset, 1)

	be.Equal(t, s.VariableSpace(), 2)
}

func TestAllocateVariableRecordSizeSumsFields(t *testing.T) {
	s := NewScope(nil, 1)
	rec := types.Record("Point", []types.Field{
		{Name: "x", Type: types.IntegerType},
		{Name: "y", Type: types.IntegerType},
	})

	p, err := s.AllocateVariable("p", rec)
	be.Err(t, err, nil)
	be.Equal(t, p.Offset, 0)

	next, err := s.AllocateVariable("next", types.IntegerType)
	be.Err(t, err, nil)
	be.Equal(t, next.Offset, 2)
}

func TestDefineRejectsRedeclarationInSameScope(t *testing.T) {
	s := NewScope(nil, 1)
	be.Err(t, s.Define("x", &ConstantEntry{Name: "x"}), nil)
	err := s.Define("x", &ConstantEntry{Name: "x"})
	be.True(t, err != nil)
}

func TestLookupWalksParentChain(t *testing.T) {
	outer := NewScope(nil, 0)
	outer.Define("pi", &ConstantEntry{Name: "pi", Type: types.IntegerType, Value: 3})
	inner := NewScope(outer, 1)

	entry, ok := inner.Lookup("pi")
	be.True(t, ok)
	be.Equal(t, entry.EntryName(), "pi")

	_, ok = inner.LookupLocal("pi")
	be.True(t, !ok)
}

func TestOperatorNamespaceIsSeparateFromValueNamespace(t *testing.T) {
	u := NewUniverse()

	_, ok := u.Lookup("+")
	be.True(t, !ok)

	entry, ok := u.LookupOperator("+")
	be.True(t, ok)
	op := entry.(*OperatorEntry)
	be.Equal(t, op.Type.Kind, types.KindFunction)
}

func TestUniverseMinusIsOverloaded(t *testing.T) {
	u := NewUniverse()
	entry, ok := u.LookupOperator("-")
	be.True(t, ok)
	op := entry.(*OperatorEntry)
	be.Equal(t, op.Type.Kind, types.KindIntersection)
	be.Equal(t, len(op.Type.Members), 2)
}

func TestUniverseEqualsIsOverloadedOverIntAndBoolean(t *testing.T) {
	u := NewUniverse()
	entry, ok := u.LookupOperator("=")
	be.True(t, ok)
	op := entry.(*OperatorEntry)
	be.Equal(t, op.Type.Kind, types.KindIntersection)

	first := op.Type.Members[0]
	be.True(t, first.ArgType.Equal(types.Product2(types.IntegerType, types.IntegerType)))
	second := op.Type.Members[1]
	be.True(t, second.ArgType.Equal(types.Product2(types.BooleanType, types.BooleanType)))
}

func TestResolveScopeIsIdempotent(t *testing.T) {
	s := NewScope(nil, 1)
	s.ResolveScope()
	s.ResolveScope()
	be.True(t, s.resolved)
}
