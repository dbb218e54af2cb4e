// Package compiler drives the two-phase pipeline — static check, then code
// generation — over a pre-built abstract syntax tree, mirroring the
// pipeline-function-returning-a-Result-struct shape this core's driver was
// adapted from, collapsed down to the single target this core has.
package compiler

import (
	"github.com/pkg/errors"

	"github.com/MaxwellBo/pl0core/internal/ast"
	"github.com/MaxwellBo/pl0core/internal/checker"
	"github.com/MaxwellBo/pl0core/internal/codegen"
	"github.com/MaxwellBo/pl0core/internal/diagnostic"
	"github.com/MaxwellBo/pl0core/internal/procedures"
)

// Options configures a compilation run.
type Options struct {
	// TraceLevel enables the checker/generator's indented debug trace when
	// greater than zero (§6/§10: debugMessage/incDebug/decDebug).
	TraceLevel int
	// StopOnFirstError skips code generation entirely the moment the
	// checker records any diagnostic, even a non-fatal one.
	StopOnFirstError bool
}

// Result carries everything a caller needs out of a compilation run: every
// diagnostic recorded, plus the generated procedure table when code
// generation ran at all.
type Result struct {
	Diagnostics []diagnostic.Diagnostic
	Procedures  *procedures.Procedures
}

// HasErrors reports whether any diagnostic in the result is an error.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diagnostic.Error {
			return true
		}
	}
	return false
}

// Check runs only the static-checking phase over prog, mutating it in
// place (identifiers resolved, coercions inserted, every expression typed)
// without generating code.
func Check(prog *ast.ProgramNode, opts Options) *Result {
	diag := diagnostic.New()
	diag.SetTrace(opts.TraceLevel > 0)
	checker.Check(prog, diag)
	return &Result{Diagnostics: diag.All()}
}

// Compile runs the full pipeline: static check, then code generation. If
// checking reports any error (or opts.StopOnFirstError and checking
// reported anything at all), code generation does not run and the
// returned error reports that the pipeline stopped early.
func Compile(prog *ast.ProgramNode, opts Options) (*Result, error) {
	diag := diagnostic.New()
	diag.SetTrace(opts.TraceLevel > 0)

	checker.Check(prog, diag)
	if diag.HasErrors() || (opts.StopOnFirstError && diag.Count() > 0) {
		return &Result{Diagnostics: diag.All()}, errors.New("pl0core: static check reported errors, code generation skipped")
	}

	procs := codegen.Generate(prog, diag)
	result := &Result{Diagnostics: diag.All(), Procedures: procs}
	if diag.HasErrors() {
		return result, errors.New("pl0core: code generation reported errors")
	}
	return result, nil
}
