package codegen

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/MaxwellBo/pl0core/internal/ast"
	"github.com/MaxwellBo/pl0core/internal/diagnostic"
	"github.com/MaxwellBo/pl0core/internal/symtab"
	"github.com/MaxwellBo/pl0core/internal/types"
	"github.com/MaxwellBo/pl0core/internal/vm"
)

var loc = ast.Location{Line: 1, Column: 1}

func wordAt(words []int, i int) int { return words[i] }

func TestBlockEmitsAllocStackBodyReturn(t *testing.T) {
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)
	xVar, _ := scope.AllocateVariable("x", types.IntegerType)

	write := &ast.WriteNode{Loc: loc, Exp: ast.NewDereference(loc, ast.NewVariable(loc, xVar))}
	entry := &symtab.ProcedureEntry{Name: "main", Level: 1, LocalScope: scope}
	block := &ast.BlockNode{Loc: loc, Body: write, Locals: scope}
	proc := &ast.ProcedureNode{Loc: loc, Name: "main", Entry: entry, Block: block}
	prog := &ast.ProgramNode{Loc: loc, Proc: proc, BaseScope: base}

	diag := diagnostic.New()
	procs := Generate(prog, diag)
	be.True(t, !diag.HasErrors())

	code, ok := procs.Code(entry)
	be.True(t, ok)
	be.Equal(t, wordAt(code.Words, 0), int(vm.AllocStack))
	be.Equal(t, wordAt(code.Words, 1), 1) // one word for x
	be.Equal(t, code.Words[len(code.Words)-1], int(vm.Return))
}

func TestIfEmitsJumpIfFalseThenJumpAlways(t *testing.T) {
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)

	ifStmt := &ast.IfNode{
		Loc:       loc,
		Condition: ast.NewConst(loc, types.BooleanType, 1),
		Then:      &ast.WriteNode{Loc: loc, Exp: ast.NewConst(loc, types.IntegerType, 1)},
		Else:      &ast.SkipNode{Loc: loc},
	}

	entry := &symtab.ProcedureEntry{Name: "main", Level: 1, LocalScope: scope}
	block := &ast.BlockNode{Loc: loc, Body: ifStmt, Locals: scope}
	proc := &ast.ProcedureNode{Loc: loc, Name: "main", Entry: entry, Block: block}
	prog := &ast.ProgramNode{Loc: loc, Proc: proc, BaseScope: base}

	diag := diagnostic.New()
	procs := Generate(prog, diag)
	be.True(t, !diag.HasErrors())

	code, _ := procs.Code(entry)
	// AllocStack(0), ONE (cond), JUMP_IF_FALSE, offset, ONE(body const),
	// WRITE, JUMP_ALWAYS, offset(0), RETURN
	be.Equal(t, code.Words[0], int(vm.AllocStack))
	be.Equal(t, code.Words[1], 0)
	be.Equal(t, code.Words[2], int(vm.One))
	be.Equal(t, code.Words[3], int(vm.JumpIfFalse))
	be.Equal(t, code.Words[7], int(vm.JumpAlways))
}

func TestCaseWithGapsBuildsSixSlotTable(t *testing.T) {
	// case s of 2: A | 5: B | 7: C end, no default (§8 scenario 5).
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)
	sVar, _ := scope.AllocateVariable("s", types.IntegerType)

	branchWrite := func(v int) ast.Statement {
		return &ast.WriteNode{Loc: loc, Exp: ast.NewConst(loc, types.IntegerType, v)}
	}
	caseStmt := &ast.CaseNode{
		Loc:    loc,
		Target: ast.NewDereference(loc, ast.NewVariable(loc, sVar)),
		Branches: []*ast.CaseBranchNode{
			{Loc: loc, Label: 2, Body: branchWrite(100)},
			{Loc: loc, Label: 5, Body: branchWrite(200)},
			{Loc: loc, Label: 7, Body: branchWrite(300)},
		},
	}

	entry := &symtab.ProcedureEntry{Name: "main", Level: 1, LocalScope: scope}
	block := &ast.BlockNode{Loc: loc, Body: caseStmt, Locals: scope}
	proc := &ast.ProcedureNode{Loc: loc, Name: "main", Entry: entry, Block: block}
	prog := &ast.ProgramNode{Loc: loc, Proc: proc, BaseScope: base}

	diag := diagnostic.New()
	procs := Generate(prog, diag)
	be.True(t, !diag.HasErrors())

	code, _ := procs.Code(entry)
	be.True(t, code.Size() > 0)

	// Count JumpAlways words across the whole procedure's code; the table
	// contributes 6 of them: labels 2..7 inclusive is a range of 5, so 6
	// table slots.
	tableJumps := 0
	for i := 0; i < len(code.Words); i++ {
		if code.Words[i] == int(vm.JumpAlways) {
			tableJumps++
		}
	}
	// 6 table slots, each an unconditional jump, plus one trailing
	// jump-always after every branch in the branches region including the
	// trap branch (3 real branches + 1 trap) = 6 + 4.
	be.Equal(t, tableJumps, 10)
}

func TestCaseWithNoBranchesEmitsOnlyTrap(t *testing.T) {
	base := symtab.NewUniverse()
	scope := symtab.NewScope(base, 1)
	sVar, _ := scope.AllocateVariable("s", types.IntegerType)

	caseStmt := &ast.CaseNode{
		Loc:      loc,
		Target:   ast.NewDereference(loc, ast.NewVariable(loc, sVar)),
		Branches: nil,
	}

	entry := &symtab.ProcedureEntry{Name: "main", Level: 1, LocalScope: scope}
	block := &ast.BlockNode{Loc: loc, Body: caseStmt, Locals: scope}
	proc := &ast.ProcedureNode{Loc: loc, Name: "main", Entry: entry, Block: block}
	prog := &ast.ProgramNode{Loc: loc, Proc: proc, BaseScope: base}

	diag := diagnostic.New()
	procs := Generate(prog, diag)
	be.True(t, !diag.HasErrors())

	code, _ := procs.Code(entry)
	foundTrap := false
	for i := 0; i+1 < len(code.Words); i++ {
		if code.Words[i] == int(vm.LoadConstant) && code.Words[i+1] == vm.CaseLabelMissing {
			foundTrap = true
		}
	}
	be.True(t, foundTrap)
}

func TestCallEmitsStaticLinkDepthAndFixup(t *testing.T) {
	base := symtab.NewUniverse()
	outerScope := symtab.NewScope(base, 1)
	innerScope := symtab.NewScope(outerScope, 2)

	// inner is declared immediately inside main's block, so its body runs
	// at level 2 (innerScope's level); a call to it from main (level 1)
	// has static-link depth 1 - 2 = -1.
	innerEntry := &symtab.ProcedureEntry{Name: "inner", Level: 2, LocalScope: innerScope}
	innerBlock := &ast.BlockNode{Loc: loc, Body: &ast.SkipNode{Loc: loc}, Locals: innerScope}
	innerProc := &ast.ProcedureNode{Loc: loc, Name: "inner", Entry: innerEntry, Block: innerBlock}

	call := &ast.CallNode{Loc: loc, Name: "inner", Entry: innerEntry}
	outerBlock := &ast.BlockNode{Loc: loc, Body: call, Locals: outerScope, Procedures: []*ast.ProcedureNode{innerProc}}
	outerEntry := &symtab.ProcedureEntry{Name: "main", Level: 1, LocalScope: outerScope}
	outerProc := &ast.ProcedureNode{Loc: loc, Name: "main", Entry: outerEntry, Block: outerBlock}
	prog := &ast.ProgramNode{Loc: loc, Proc: outerProc, BaseScope: base}

	diag := diagnostic.New()
	procs := Generate(prog, diag)
	be.True(t, !diag.HasErrors())

	code, ok := procs.Code(outerEntry)
	be.True(t, ok)
	be.Equal(t, len(code.Calls), 1)
	be.True(t, code.Calls[0].Proc == innerEntry)
	be.Equal(t, code.Words[code.Calls[0].Pos-1], -1) // static-link depth operand

	_, ok = procs.Code(innerEntry)
	be.True(t, ok)
	be.Equal(t, procs.Len(), 2)
}
