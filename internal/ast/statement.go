package ast

import "github.com/MaxwellBo/pl0core/internal/symtab"

// Statement is implemented by every statement node.
type Statement interface {
	Node
	stmtNode()
}

// ErrorStatementNode marks a statement the parser or an earlier pass could
// not make sense of. Code generation must never be invoked on it; reaching
// one there is an internal error (§7).
type ErrorStatementNode struct{ Loc Location }

func (n *ErrorStatementNode) Pos() Location { return n.Loc }
func (*ErrorStatementNode) stmtNode()       {}

// SkipNode is the empty statement.
type SkipNode struct{ Loc Location }

func (n *SkipNode) Pos() Location { return n.Loc }
func (*SkipNode) stmtNode()       {}

// SingleAssignNode is one (variable, expression) pair within a (possibly
// multi-target) AssignmentNode.
type SingleAssignNode struct {
	Loc      Location
	Variable Expression
	Exp      Expression
}

func (n *SingleAssignNode) Pos() Location { return n.Loc }

// AssignmentNode holds an ordered list of single-assignment pairs. All
// right-hand sides are evaluated left-to-right before any store; stores
// happen right-to-left (§4.3, §4.4).
type AssignmentNode struct {
	Loc         Location
	Assignments []*SingleAssignNode
}

func (n *AssignmentNode) Pos() Location { return n.Loc }
func (*AssignmentNode) stmtNode()       {}

// WriteNode writes the value of an integer-typed expression.
type WriteNode struct {
	Loc Location
	Exp Expression
}

func (n *WriteNode) Pos() Location { return n.Loc }
func (*WriteNode) stmtNode()       {}

// CallNode invokes a procedure by name; Entry is filled in by the checker.
type CallNode struct {
	Loc   Location
	Name  string
	Entry *symtab.ProcedureEntry
}

func (n *CallNode) Pos() Location { return n.Loc }
func (*CallNode) stmtNode()       {}

// StatementListNode is a sequence of statements, checked and generated in
// order.
type StatementListNode struct {
	Loc        Location
	Statements []Statement
}

func (n *StatementListNode) Pos() Location { return n.Loc }
func (*StatementListNode) stmtNode()       {}

// IfNode is a conditional with both branches always present (an absent
// source "else" is represented as a SkipNode by the parser).
type IfNode struct {
	Loc       Location
	Condition Expression
	Then      Statement
	Else      Statement
}

func (n *IfNode) Pos() Location { return n.Loc }
func (*IfNode) stmtNode()       {}

// WhileNode is a pre-tested loop.
type WhileNode struct {
	Loc       Location
	Condition Expression
	Body      Statement
}

func (n *WhileNode) Pos() Location { return n.Loc }
func (*WhileNode) stmtNode()       {}

// CaseBranchNode is one labelled branch of a CaseNode.
type CaseBranchNode struct {
	Loc   Location
	Label int
	Body  Statement
}

func (n *CaseBranchNode) Pos() Location { return n.Loc }

// CaseNode is a case statement: a scrutinee, an unordered set of labelled
// branches, and an optional default branch (§4.4).
type CaseNode struct {
	Loc      Location
	Target   Expression
	Branches []*CaseBranchNode
	Default  Statement // nil if no default was declared
}

func (n *CaseNode) Pos() Location { return n.Loc }
func (*CaseNode) stmtNode()       {}
