package checker

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/MaxwellBo/pl0core/internal/ast"
	"github.com/MaxwellBo/pl0core/internal/diagnostic"
	"github.com/MaxwellBo/pl0core/internal/symtab"
	"github.com/MaxwellBo/pl0core/internal/types"
)

var loc = ast.Location{Line: 1, Column: 1}

// checkProgram wires up a minimal one-procedure program around body and
// runs the checker over it, returning the diagnostics recorded.
func checkProgram(t *testing.T, scope *symtab.Scope, base *symtab.Scope, body ast.Statement) *diagnostic.Sink {
	t.Helper()
	entry := &symtab.ProcedureEntry{Name: "main", Level: 1, LocalScope: scope}
	block := &ast.BlockNode{Loc: loc, Body: body, Locals: scope}
	proc := &ast.ProcedureNode{Loc: loc, Name: "main", Entry: entry, Block: block}
	prog := &ast.ProgramNode{Loc: loc, Proc: proc, BaseScope: base}

	diag := diagnostic.New()
	Check(prog, diag)
	return diag
}

func TestOverloadedEqualsResolvesIntVariant(t *testing.T) {
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)

	cond := ast.NewOperator(loc, ast.EqualsOp, ast.NewArguments(loc, []ast.Expression{
		ast.NewConst(loc, types.IntegerType, 1),
		ast.NewConst(loc, types.IntegerType, 1),
	}))
	body := &ast.IfNode{Loc: loc, Condition: cond, Then: &ast.SkipNode{Loc: loc}, Else: &ast.SkipNode{Loc: loc}}

	diag := checkProgram(t, scope, base, body)
	be.True(t, !diag.HasErrors())
	be.True(t, cond.Type().Equal(types.BooleanType))
}

func TestOverloadedEqualsResolvesBooleanVariant(t *testing.T) {
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)

	trueC := ast.NewConst(loc, types.BooleanType, 1)
	falseC := ast.NewConst(loc, types.BooleanType, 0)
	cond := ast.NewOperator(loc, ast.EqualsOp, ast.NewArguments(loc, []ast.Expression{trueC, falseC}))
	body := &ast.IfNode{Loc: loc, Condition: cond, Then: &ast.SkipNode{Loc: loc}, Else: &ast.SkipNode{Loc: loc}}

	diag := checkProgram(t, scope, base, body)
	be.True(t, !diag.HasErrors())
	be.True(t, cond.Type().Equal(types.BooleanType))
}

// TestNarrowThenWiden covers: x: 1..10 := 3; y: int := x — the second
// assignment's source must be wrapped WidenSubrange(Dereference(x)).
func TestNarrowThenWiden(t *testing.T) {
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)
	sub := types.Subrange(1, 10, types.IntegerType)
	xVar, _ := scope.AllocateVariable("x", sub)
	scope.AllocateVariable("y", types.IntegerType)

	assign := &ast.AssignmentNode{Loc: loc, Assignments: []*ast.SingleAssignNode{
		{Loc: loc, Variable: ast.NewIdentifier(loc, "y"), Exp: ast.NewIdentifier(loc, "x")},
	}}

	diag := checkProgram(t, scope, base, assign)
	be.True(t, !diag.HasErrors())

	exp := assign.Assignments[0].Exp
	widen, ok := exp.(*ast.WidenSubrangeNode)
	be.True(t, ok)
	_, ok = widen.Exp.(*ast.DereferenceNode)
	be.True(t, ok)
	be.True(t, xVar.Type.Equal(sub))
}

// TestWidenThenNarrowInsertsBoundsCheck covers: x: int; y: 1..10 := x — the
// assignment must emit NarrowSubrange(Dereference(x)).
func TestWidenThenNarrowInsertsBoundsCheck(t *testing.T) {
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)
	scope.AllocateVariable("x", types.IntegerType)
	scope.AllocateVariable("y", types.Subrange(1, 10, types.IntegerType))

	assign := &ast.AssignmentNode{Loc: loc, Assignments: []*ast.SingleAssignNode{
		{Loc: loc, Variable: ast.NewIdentifier(loc, "y"), Exp: ast.NewIdentifier(loc, "x")},
	}}

	diag := checkProgram(t, scope, base, assign)
	be.True(t, !diag.HasErrors())

	exp := assign.Assignments[0].Exp
	narrow, ok := exp.(*ast.NarrowSubrangeNode)
	be.True(t, ok)
	be.Equal(t, narrow.SubrangeType.Low, 1)
	be.Equal(t, narrow.SubrangeType.High, 10)
}

func TestAssignmentToNonLValueReportsError(t *testing.T) {
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)
	scope.Define("c", &symtab.ConstantEntry{Name: "c", Type: types.IntegerType, Value: 7})

	assign := &ast.AssignmentNode{Loc: loc, Assignments: []*ast.SingleAssignNode{
		{Loc: loc, Variable: ast.NewIdentifier(loc, "c"), Exp: ast.NewConst(loc, types.IntegerType, 1)},
	}}

	diag := checkProgram(t, scope, base, assign)
	be.True(t, diag.HasErrors())
}

func TestCallToUndefinedProcedureReportsError(t *testing.T) {
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)

	call := &ast.CallNode{Loc: loc, Name: "nope"}
	diag := checkProgram(t, scope, base, call)
	be.True(t, diag.HasErrors())
}

func TestRecordConstructorArityMismatchIsAnError(t *testing.T) {
	base := symtab.NewUniverse()
	rec := types.Record("R", []types.Field{
		{Name: "a", Type: types.IntegerType},
		{Name: "b", Type: types.Subrange(1, 10, types.IntegerType)},
	})
	base.Define("R", &symtab.TypeEntry{Name: "R", Type: rec})
	scope := symtab.NewScope(base, 1)
	rVar, _ := scope.AllocateVariable("r", rec)
	_ = rVar

	ctor := ast.NewRecordConstructor(loc, "R", []ast.Expression{ast.NewConst(loc, types.IntegerType, 1)})
	write := &ast.WriteNode{Loc: loc, Exp: ast.NewFieldAccess(loc, ctor, "a")}

	diag := checkProgram(t, scope, base, write)
	be.True(t, diag.HasErrors())
}

func TestRecordConstructorNarrowsFieldAndSucceeds(t *testing.T) {
	base := symtab.NewUniverse()
	rec := types.Record("R", []types.Field{
		{Name: "a", Type: types.IntegerType},
		{Name: "b", Type: types.Subrange(1, 10, types.IntegerType)},
	})
	base.Define("R", &symtab.TypeEntry{Name: "R", Type: rec})
	scope := symtab.NewScope(base, 1)

	ctor := ast.NewRecordConstructor(loc, "R", []ast.Expression{
		ast.NewConst(loc, types.IntegerType, 1),
		ast.NewConst(loc, types.IntegerType, 3),
	})
	// Reach the constructor through a field access so the checker actually
	// visits it; read field b, which needs narrowing to fit the record.
	readB := ast.NewDereference(loc, ast.NewFieldAccess(loc, ctor, "b"))

	diag := checkProgram(t, scope, base, &ast.WriteNode{Loc: loc, Exp: readB})
	be.True(t, !diag.HasErrors())

	narrowed := ctor.Fields[1]
	_, ok := narrowed.(*ast.NarrowSubrangeNode)
	be.True(t, ok)
}

func TestCaseChecksEveryBranchAndDefault(t *testing.T) {
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)
	scope.AllocateVariable("s", types.IntegerType)

	branchWrite := &ast.WriteNode{Loc: loc, Exp: ast.NewIdentifier(loc, "s")}
	defaultWrite := &ast.WriteNode{Loc: loc, Exp: ast.NewConst(loc, types.IntegerType, 0)}
	caseStmt := &ast.CaseNode{
		Loc:    loc,
		Target: ast.NewIdentifier(loc, "s"),
		Branches: []*ast.CaseBranchNode{
			{Loc: loc, Label: 2, Body: branchWrite},
		},
		Default: defaultWrite,
	}

	diag := checkProgram(t, scope, base, caseStmt)
	be.True(t, !diag.HasErrors())
	be.True(t, caseStmt.Target.Type().Equal(types.IntegerType))
	// The branch body was visited: its identifier became Dereference(s).
	_, ok := branchWrite.Exp.(*ast.DereferenceNode)
	be.True(t, ok)
}
