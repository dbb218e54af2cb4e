// Package procedures holds the output of code generation: one compiled
// Code buffer per procedure, keyed by its symbol table entry.
package procedures

import (
	"github.com/MaxwellBo/pl0core/internal/symtab"
	"github.com/MaxwellBo/pl0core/internal/vm"
)

// Procedures collects the generated code for every procedure in a program,
// preserving the order in which their code was completed (a procedure is
// recorded after the procedures nested inside it, siblings in declaration
// order, so the main program comes last) so a loader can lay them out
// deterministically.
type Procedures struct {
	order []*symtab.ProcedureEntry
	code  map[*symtab.ProcedureEntry]*vm.Code
}

// New returns an empty table.
func New() *Procedures {
	return &Procedures{code: make(map[*symtab.ProcedureEntry]*vm.Code)}
}

// AddProcedure records the generated code for entry. Re-adding the same
// entry replaces its code without duplicating it in the order.
func (p *Procedures) AddProcedure(entry *symtab.ProcedureEntry, code *vm.Code) {
	if _, exists := p.code[entry]; !exists {
		p.order = append(p.order, entry)
	}
	p.code[entry] = code
}

// Code returns the generated code for entry, if any.
func (p *Procedures) Code(entry *symtab.ProcedureEntry) (*vm.Code, bool) {
	c, ok := p.code[entry]
	return c, ok
}

// All returns every procedure entry in generation order.
func (p *Procedures) All() []*symtab.ProcedureEntry {
	return p.order
}

// Len returns the number of procedures recorded.
func (p *Procedures) Len() int { return len(p.order) }
