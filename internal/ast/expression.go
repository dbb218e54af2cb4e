package ast

import (
	"github.com/MaxwellBo/pl0core/internal/symtab"
	"github.com/MaxwellBo/pl0core/internal/types"
)

// Expression is implemented by every expression node. Every expression has
// a type slot, nil until the checker assigns it; after checking it is
// never nil (§3's "Every Expression has a non-null type").
type Expression interface {
	Node
	exprNode()
	Type() *types.Type
	SetType(*types.Type)
}

// typed is embedded by every expression node to provide the mutable type
// slot and location without repeating the boilerplate per node.
type typed struct {
	Loc Location
	Typ *types.Type
}

func (t *typed) Pos() Location        { return t.Loc }
func (t *typed) Type() *types.Type    { return t.Typ }
func (t *typed) SetType(ty *types.Type) { t.Typ = ty }
func (*typed) exprNode()              {}

// ErrorExpNode marks an expression the checker could not type; its Type is
// always types.ErrorType, absorbing further diagnostics about it.
type ErrorExpNode struct{ typed }

// NewErrorExp builds an ErrorExpNode already typed Error.
func NewErrorExp(loc Location) *ErrorExpNode {
	return &ErrorExpNode{typed{Loc: loc, Typ: types.ErrorType}}
}

// IdentifierNode is a bare name reference as produced by the parser. The
// checker always rewrites it away: no IdentifierNode survives checking
// (§3, §8).
type IdentifierNode struct {
	typed
	Name string
}

// NewIdentifier builds an unresolved identifier reference.
func NewIdentifier(loc Location, name string) *IdentifierNode {
	return &IdentifierNode{typed: typed{Loc: loc}, Name: name}
}

// ConstNode is a resolved reference to a Constant entry (or a literal),
// carrying its value directly.
type ConstNode struct {
	typed
	Value int
}

// NewConst builds a typed constant expression.
func NewConst(loc Location, t *types.Type, value int) *ConstNode {
	return &ConstNode{typed: typed{Loc: loc, Typ: t}, Value: value}
}

// VariableNode is a resolved reference to a Variable entry. Its type is
// Reference(declaredType), preserving L-value-ness for downstream
// coercion.
type VariableNode struct {
	typed
	Var *symtab.VariableEntry
}

// NewVariable builds a VariableNode typed Reference(var.Type).
func NewVariable(loc Location, v *symtab.VariableEntry) *VariableNode {
	return &VariableNode{typed: typed{Loc: loc, Typ: types.Reference(v.Type)}, Var: v}
}

// ReadNode reads an integer value from the VM's input stream.
type ReadNode struct{ typed }

// NewRead builds a ReadNode already typed integer.
func NewRead(loc Location) *ReadNode {
	return &ReadNode{typed{Loc: loc, Typ: types.IntegerType}}
}

// Operator tags the built-in unary/binary operators. Each maps to a short
// opcode sequence in the generator (§4.4) and a name in the operator
// namespace looked up by the checker (§4.3).
type Operator int

const (
	AddOp Operator = iota
	SubOp
	MulOp
	DivOp
	EqualsOp
	NequalsOp
	LessOp
	LequalsOp
	GreaterOp
	GequalsOp
	NegOp
)

// Name is the operator's name in the symbol table's operator namespace.
func (op Operator) Name() string {
	switch op {
	case AddOp:
		return "+"
	case SubOp, NegOp:
		return "-"
	case MulOp:
		return "*"
	case DivOp:
		return "/"
	case EqualsOp:
		return "="
	case NequalsOp:
		return "!="
	case LessOp:
		return "<"
	case LequalsOp:
		return "<="
	case GreaterOp:
		return ">"
	case GequalsOp:
		return ">="
	}
	return "?"
}

// OperatorNode is a unary or binary operator application. Arg is an
// ArgumentsNode for binary operators and a single expression for unary
// ones (the checker transforms whichever shape the parser produced; both
// cases end up with Arg.Type() = Product/monomorphic as appropriate).
type OperatorNode struct {
	typed
	Op  Operator
	Arg Expression
}

// NewOperator builds an untyped operator application.
func NewOperator(loc Location, op Operator, arg Expression) *OperatorNode {
	return &OperatorNode{typed: typed{Loc: loc}, Op: op, Arg: arg}
}

// ArgumentsNode is a list of argument expressions; its type is
// Product([argument types...]) once checked.
type ArgumentsNode struct {
	typed
	Args []Expression
}

// NewArguments builds an untyped argument list.
func NewArguments(loc Location, args []Expression) *ArgumentsNode {
	return &ArgumentsNode{typed: typed{Loc: loc}, Args: args}
}

// DereferenceNode loads the value stored at an L-value.
type DereferenceNode struct {
	typed
	LValue Expression
}

// NewDereference builds a DereferenceNode over lvalue, typed to the
// referenced type when lvalue is already typed.
func NewDereference(loc Location, lvalue Expression) *DereferenceNode {
	n := &DereferenceNode{typed: typed{Loc: loc}, LValue: lvalue}
	if lvalue.Type() != nil {
		n.Typ = types.OptDereferenceType(lvalue.Type())
	}
	return n
}

// FieldAccessNode accesses a named field of a record L-value; it is
// itself an L-value, typed Reference(fieldType).
type FieldAccessNode struct {
	typed
	LValue Expression
	Field  string
}

// NewFieldAccess builds an untyped field access.
func NewFieldAccess(loc Location, lvalue Expression, field string) *FieldAccessNode {
	return &FieldAccessNode{typed: typed{Loc: loc}, LValue: lvalue, Field: field}
}

// PointerDereferenceNode follows a pointer L-value to yield an L-value of
// its base type.
type PointerDereferenceNode struct {
	typed
	LValue Expression
}

// NewPointerDereference builds an untyped pointer dereference.
func NewPointerDereference(loc Location, lvalue Expression) *PointerDereferenceNode {
	return &PointerDereferenceNode{typed: typed{Loc: loc}, LValue: lvalue}
}

// NewNode allocates a new heap value of a named type, producing a pointer
// value (not an L-value).
type NewNode struct {
	typed
	TypeName string
}

// NewNewNode builds an untyped "new" expression naming a type.
func NewNewNode(loc Location, typeName string) *NewNode {
	return &NewNode{typed: typed{Loc: loc}, TypeName: typeName}
}

// RecordConstructorNode builds a record value from a positional list of
// field expressions.
type RecordConstructorNode struct {
	typed
	TypeName string
	Fields   []Expression
}

// NewRecordConstructor builds an untyped record constructor.
func NewRecordConstructor(loc Location, typeName string, fields []Expression) *RecordConstructorNode {
	return &RecordConstructorNode{typed: typed{Loc: loc}, TypeName: typeName, Fields: fields}
}

// NarrowSubrangeNode wraps an expression with a runtime-checked narrowing
// into SubrangeType. Inserted only by the checker's coercion machinery.
type NarrowSubrangeNode struct {
	typed
	Exp          Expression
	SubrangeType *types.Type
}

// NewNarrowSubrange wraps exp, typed to subrangeType.
func NewNarrowSubrange(loc Location, exp Expression, subrangeType *types.Type) *NarrowSubrangeNode {
	return &NarrowSubrangeNode{typed: typed{Loc: loc, Typ: subrangeType}, Exp: exp, SubrangeType: subrangeType}
}

// WidenSubrangeNode wraps a subrange-typed expression, erasing its bounds
// at no runtime cost. Inserted only by the checker's coercion machinery.
type WidenSubrangeNode struct {
	typed
	Exp Expression
}

// NewWidenSubrange wraps exp, typed to baseType.
func NewWidenSubrange(loc Location, exp Expression, baseType *types.Type) *WidenSubrangeNode {
	return &WidenSubrangeNode{typed: typed{Loc: loc, Typ: baseType}, Exp: exp}
}
