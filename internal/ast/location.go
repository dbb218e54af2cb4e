// Package ast defines the PL0 abstract syntax tree: statement and
// expression node types, each carrying a source location and, for
// expressions, a mutable type slot filled in by the checker.
//
// The tree is produced by the external parser (out of scope for this
// core) and mutated in place, once, by the checker: child slots are
// replaced with rewritten nodes (identifiers become ConstNode/VariableNode/
// ErrorExpNode, coercions are inserted as Dereference/NarrowSubrange/
// WidenSubrange wrapper nodes). After checking the tree is immutable input
// to the code generator.
package ast

import "fmt"

// Location is a source position: 1-based line and column, matching the
// positions an external lexer/parser would attach to tokens.
type Location struct {
	Line, Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Node is implemented by every statement and expression node.
type Node interface {
	Pos() Location
}
