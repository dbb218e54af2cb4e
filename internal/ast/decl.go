package ast

import "github.com/MaxwellBo/pl0core/internal/symtab"

// ProcedureNode is a single procedure (or the main program, treated as the
// outermost procedure at static level 1) declaration: a name, its resolved
// symbol-table entry, and its block.
type ProcedureNode struct {
	Loc   Location
	Name  string
	Entry *symtab.ProcedureEntry
	Block *BlockNode
}

func (n *ProcedureNode) Pos() Location { return n.Loc }

// BlockNode is a procedure body: its locally declared nested procedures
// (checked before the body, per §4.3; generated after it, per §4.4) and the statement
// list making up the body itself. Locals is this block's own scope, whose
// VariableSpace the generator queries to size the frame-allocation prologue.
type BlockNode struct {
	Loc        Location
	Procedures []*ProcedureNode
	Body       Statement
	Locals     *symtab.Scope
}

func (n *BlockNode) Pos() Location { return n.Loc }

// ProgramNode is the root of the tree: the main program, represented as a
// procedure at static level 1, plus the base (outermost) scope it is
// checked against.
type ProgramNode struct {
	Loc       Location
	Proc      *ProcedureNode
	BaseScope *symtab.Scope
}

func (n *ProgramNode) Pos() Location { return n.Loc }
