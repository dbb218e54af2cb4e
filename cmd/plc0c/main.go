// Command plc0c drives the check-then-generate pipeline over a fixture
// program. There is no lexer or parser in this core (out of scope, §1), so
// the fixture stands in for what a front end would otherwise hand the
// pipeline: a symbol table already populated with declarations, and a
// tree with unresolved identifier references for the checker to resolve.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/MaxwellBo/pl0core/internal/ast"
	"github.com/MaxwellBo/pl0core/internal/compiler"
	"github.com/MaxwellBo/pl0core/internal/symtab"
	"github.com/MaxwellBo/pl0core/internal/types"
)

func main() {
	trace := flag.Int("trace", 0, "debug trace level (0 disables the indented trace)")
	stopOnFirstError := flag.Bool("stop-on-first-error", false, "skip code generation on the first diagnostic, even a warning")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	prog := fixtureProgram()
	opts := compiler.Options{TraceLevel: *trace, StopOnFirstError: *stopOnFirstError}

	logger.Info("running pipeline", "traceLevel", opts.TraceLevel)
	result, err := compiler.Compile(prog, opts)

	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n", d.Severity, d.Line, d.Column, d.Message)
	}

	if err != nil {
		logger.Error("compilation failed", "err", err)
		os.Exit(1)
	}

	logger.Info("compilation succeeded", "procedures", result.Procedures.Len())
	for _, entry := range result.Procedures.All() {
		code, _ := result.Procedures.Code(entry)
		fmt.Printf("%s: %d words\n", entry.Name, code.Size())
	}
}

// fixtureProgram builds: var x: int; begin x := 1 + 2; write x end.
func fixtureProgram() *ast.ProgramNode {
	loc := ast.Location{Line: 1, Column: 1}
	base := symtab.NewUniverse()

	progScope := symtab.NewScope(base, 1)
	procEntry := &symtab.ProcedureEntry{Name: "main", Level: 1, LocalScope: progScope}
	if _, err := progScope.AllocateVariable("x", types.IntegerType); err != nil {
		panic(err)
	}

	sum := ast.NewOperator(loc, ast.AddOp, ast.NewArguments(loc, []ast.Expression{
		ast.NewConst(loc, types.IntegerType, 1),
		ast.NewConst(loc, types.IntegerType, 2),
	}))
	assign := &ast.AssignmentNode{
		Loc: loc,
		Assignments: []*ast.SingleAssignNode{
			{Loc: loc, Variable: ast.NewIdentifier(loc, "x"), Exp: sum},
		},
	}
	write := &ast.WriteNode{Loc: loc, Exp: ast.NewIdentifier(loc, "x")}

	body := &ast.StatementListNode{Loc: loc, Statements: []ast.Statement{assign, write}}
	block := &ast.BlockNode{Loc: loc, Body: body, Locals: progScope}
	proc := &ast.ProcedureNode{Loc: loc, Name: "main", Entry: procEntry, Block: block}

	return &ast.ProgramNode{Loc: loc, Proc: proc, BaseScope: base}
}
