// Package checker implements the PL0 static checker: a tree transformer
// that resolves identifiers against the symbol table, coerces expressions
// between compatible types (inserting Dereference/NarrowSubrange/
// WidenSubrange nodes), and types every expression node, mutating the tree
// in place exactly once.
package checker

import (
	"github.com/MaxwellBo/pl0core/internal/ast"
	"github.com/MaxwellBo/pl0core/internal/diagnostic"
	"github.com/MaxwellBo/pl0core/internal/symtab"
	"github.com/MaxwellBo/pl0core/internal/types"
)

// Checker holds the one piece of traversal state the tree itself does not:
// the scope currently in effect. This mirrors the design note that the
// AST's only upward link needed by the checker is the current scope, held
// by the checker rather than threaded through nodes.
type Checker struct {
	diag      *diagnostic.Sink
	scope     *symtab.Scope
	nodeStack []string
}

// New creates a checker reporting through diag.
func New(diag *diagnostic.Sink) *Checker {
	return &Checker{diag: diag}
}

// Check runs the full static-checking pass over prog.
func Check(prog *ast.ProgramNode, diag *diagnostic.Sink) {
	New(diag).checkProgram(prog)
}

func (c *Checker) beginCheck(node string) {
	c.nodeStack = append(c.nodeStack, node)
	c.diag.Debugf("checking %s", node)
	c.diag.IncDebug()
}

func (c *Checker) endCheck(node string) {
	c.diag.DecDebug()
	c.diag.Debugf("end check of %s", node)
	popped := c.nodeStack[len(c.nodeStack)-1]
	c.nodeStack = c.nodeStack[:len(c.nodeStack)-1]
	if popped != node {
		c.diag.Debugf("*** end node %s does not match start node %s", node, popped)
	}
}

// checkProgram treats the program as the outermost procedure, at static
// level 1, checked against the program's base (predefined) scope.
func (c *Checker) checkProgram(n *ast.ProgramNode) {
	c.beginCheck("Program")
	c.scope = n.BaseScope
	c.checkProcedure(n.Proc)
	c.endCheck("Program")
}

func (c *Checker) checkProcedure(n *ast.ProcedureNode) {
	c.beginCheck("Procedure")
	outer := c.scope
	c.scope = n.Entry.LocalScope
	c.scope.ResolveScope()
	c.checkBlock(n.Block)
	c.scope = outer
	c.endCheck("Procedure")
}

func (c *Checker) checkBlock(n *ast.BlockNode) {
	c.beginCheck("Block")
	for _, p := range n.Procedures {
		c.checkProcedure(p)
	}
	c.checkStatement(n.Body)
	c.endCheck("Block")
}

// --- statements ---

func (c *Checker) checkStatement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.ErrorStatementNode:
		// Already invalid; nothing to check.
	case *ast.SkipNode:
		// Nothing to do.
	case *ast.AssignmentNode:
		c.checkAssignment(n)
	case *ast.WriteNode:
		c.checkWrite(n)
	case *ast.CallNode:
		c.checkCall(n)
	case *ast.StatementListNode:
		c.beginCheck("StatementList")
		for _, st := range n.Statements {
			c.checkStatement(st)
		}
		c.endCheck("StatementList")
	case *ast.IfNode:
		c.checkIf(n)
	case *ast.WhileNode:
		c.checkWhile(n)
	case *ast.CaseNode:
		c.checkCase(n)
	default:
		c.diag.Fatal(s.Pos().Line, s.Pos().Column, "unhandled statement node %T", s)
	}
}

func (c *Checker) checkAssignment(n *ast.AssignmentNode) {
	c.beginCheck("Assignment")
	// The checker's AssignmentNode holds an ordered list of single
	// assignment pairs; each is checked independently, applying the
	// single-assignment rule below to every pair (see DESIGN.md's
	// resolution of the multi-assignment open question).
	for _, pair := range n.Assignments {
		c.checkSingleAssignment(pair)
	}
	c.endCheck("Assignment")
}

func (c *Checker) checkSingleAssignment(s *ast.SingleAssignNode) {
	c.beginCheck("SingleAssign")
	left := c.checkExpression(s.Variable)
	s.Variable = left
	right := c.checkExpression(s.Exp)

	lvalType := left.Type()
	if lvalType.Kind != types.KindReference {
		if !lvalType.IsError() {
			c.diag.Error(left.Pos().Line, left.Pos().Column, "variable expected, type = %s", lvalType)
		}
		s.Exp = right
	} else {
		baseType := lvalType.Elem
		s.Exp = c.coerceExp(baseType, right)
	}
	c.endCheck("SingleAssign")
}

func (c *Checker) checkWrite(n *ast.WriteNode) {
	c.beginCheck("Write")
	exp := c.checkExpression(n.Exp)
	n.Exp = c.coerceExp(types.IntegerType, exp)
	c.endCheck("Write")
}

func (c *Checker) checkCall(n *ast.CallNode) {
	c.beginCheck("Call")
	entry, ok := c.scope.Lookup(n.Name)
	if !ok {
		c.diag.Error(n.Loc.Line, n.Loc.Column, "undefined identifier %q", n.Name)
		c.endCheck("Call")
		return
	}
	proc, ok := entry.(*symtab.ProcedureEntry)
	if !ok {
		c.diag.Error(n.Loc.Line, n.Loc.Column, "procedure identifier required")
		c.endCheck("Call")
		return
	}
	n.Entry = proc
	c.endCheck("Call")
}

func (c *Checker) checkCondition(cond ast.Expression) ast.Expression {
	cond = c.checkExpression(cond)
	return c.coerceExp(types.BooleanType, cond)
}

func (c *Checker) checkIf(n *ast.IfNode) {
	c.beginCheck("If")
	n.Condition = c.checkCondition(n.Condition)
	c.checkStatement(n.Then)
	c.checkStatement(n.Else)
	c.endCheck("If")
}

func (c *Checker) checkWhile(n *ast.WhileNode) {
	c.beginCheck("While")
	n.Condition = c.checkCondition(n.Condition)
	c.checkStatement(n.Body)
	c.endCheck("While")
}

func (c *Checker) checkCase(n *ast.CaseNode) {
	c.beginCheck("Case")
	target := c.checkExpression(n.Target)
	n.Target = c.coerceExp(types.IntegerType, target)
	for _, b := range n.Branches {
		c.checkStatement(b.Body)
	}
	if n.Default != nil {
		c.checkStatement(n.Default)
	}
	c.endCheck("Case")
}

// --- expressions ---

func (c *Checker) checkExpression(e ast.Expression) ast.Expression {
	switch n := e.(type) {
	case *ast.ErrorExpNode:
		return n
	case *ast.ConstNode:
		return n
	case *ast.ReadNode:
		return n
	case *ast.IdentifierNode:
		return c.checkIdentifier(n)
	case *ast.VariableNode:
		return n
	case *ast.OperatorNode:
		return c.checkOperator(n)
	case *ast.ArgumentsNode:
		return c.checkArguments(n)
	case *ast.DereferenceNode:
		return c.checkDereference(n)
	case *ast.FieldAccessNode:
		return c.checkFieldAccess(n)
	case *ast.PointerDereferenceNode:
		return c.checkPointerDereference(n)
	case *ast.NewNode:
		return c.checkNew(n)
	case *ast.RecordConstructorNode:
		return c.checkRecordConstructor(n)
	case *ast.NarrowSubrangeNode:
		return n
	case *ast.WidenSubrangeNode:
		return n
	default:
		c.diag.Fatal(e.Pos().Line, e.Pos().Column, "unhandled expression node %T", e)
		return ast.NewErrorExp(e.Pos())
	}
}

func (c *Checker) checkIdentifier(n *ast.IdentifierNode) ast.Expression {
	c.beginCheck("Identifier")
	defer c.endCheck("Identifier")

	entry, ok := c.scope.Lookup(n.Name)
	if !ok {
		c.diag.Error(n.Loc.Line, n.Loc.Column, "undefined identifier %q", n.Name)
		return ast.NewErrorExp(n.Loc)
	}
	switch e := entry.(type) {
	case *symtab.ConstantEntry:
		c.diag.Debugf("transformed %s to Constant", n.Name)
		return ast.NewConst(n.Loc, e.Type, e.Value)
	case *symtab.VariableEntry:
		c.diag.Debugf("transformed %s to Variable", n.Name)
		return ast.NewVariable(n.Loc, e)
	default:
		c.diag.Error(n.Loc.Line, n.Loc.Column, "constant or variable identifier required")
		return ast.NewErrorExp(n.Loc)
	}
}

func (c *Checker) checkOperator(n *ast.OperatorNode) ast.Expression {
	c.beginCheck("Operator")
	defer c.endCheck("Operator")

	arg := c.checkExpression(n.Arg)
	n.Arg = arg

	name := n.Op.Name()
	entry, ok := c.scope.LookupOperator(name)
	if !ok {
		c.diag.Fatal(n.Loc.Line, n.Loc.Column, "undefined operator %q", name)
		n.SetType(types.ErrorType)
		return n
	}
	opType := entry.(*symtab.OperatorEntry).Type

	switch opType.Kind {
	case types.KindFunction:
		plan, err := types.Coerce(opType.ArgType, arg.Type(), true)
		if err != nil {
			c.diag.Error(n.Loc.Line, n.Loc.Column, "%v", err)
			n.SetType(types.ErrorType)
			return n
		}
		n.Arg = c.applyCoercion(arg, plan)
		n.SetType(opType.ResultType)
	case types.KindIntersection:
		// Overload resolution: first member (in declaration order) whose
		// argument type accepts a safe (non-narrowing) coercion wins.
		c.diag.Debugf("coercing %s to %s", arg.Type(), opType)
		c.diag.IncDebug()
		for _, member := range opType.Members {
			plan, err := types.Coerce(member.ArgType, arg.Type(), false)
			if err == nil {
				n.Arg = c.applyCoercion(arg, plan)
				n.SetType(member.ResultType)
				c.diag.DecDebug()
				return n
			}
		}
		c.diag.DecDebug()
		c.diag.Debugf("failed to coerce %s to %s", arg.Type(), opType)
		c.diag.Error(n.Loc.Line, n.Loc.Column, "type of argument %s does not match %s", arg.Type(), opType)
		n.SetType(types.ErrorType)
	default:
		c.diag.Fatal(n.Loc.Line, n.Loc.Column, "invalid operator type")
		n.SetType(types.ErrorType)
	}
	return n
}

func (c *Checker) checkArguments(n *ast.ArgumentsNode) ast.Expression {
	c.beginCheck("Arguments")
	defer c.endCheck("Arguments")

	elemTypes := make([]*types.Type, len(n.Args))
	for i, a := range n.Args {
		checked := c.checkExpression(a)
		n.Args[i] = checked
		elemTypes[i] = checked.Type()
	}
	n.SetType(types.Product(elemTypes))
	return n
}

func (c *Checker) checkDereference(n *ast.DereferenceNode) ast.Expression {
	c.beginCheck("Dereference")
	defer c.endCheck("Dereference")

	lv := c.checkExpression(n.LValue)
	n.LValue = lv
	lvType := lv.Type()
	if lvType.Kind == types.KindReference {
		n.SetType(lvType.Elem)
	} else if !lvType.IsError() {
		c.diag.Error(n.Loc.Line, n.Loc.Column, "cannot dereference an expression which isn't a reference")
		n.SetType(types.ErrorType)
	} else {
		n.SetType(types.ErrorType)
	}
	return n
}

func (c *Checker) checkFieldAccess(n *ast.FieldAccessNode) ast.Expression {
	c.beginCheck("FieldAccess")
	defer c.endCheck("FieldAccess")

	lv := c.checkExpression(n.LValue)
	n.LValue = lv

	recType := types.GetRecordType(lv.Type())
	if recType == nil {
		if !lv.Type().IsError() {
			c.diag.Error(n.Loc.Line, n.Loc.Column, "%s is not a record type", lv.Type())
		}
		n.SetType(types.ErrorType)
		return n
	}
	fieldType := recType.FieldType(n.Field)
	if fieldType.IsError() {
		c.diag.Error(n.Loc.Line, n.Loc.Column, "record type %s does not have field %s", recType.Name, n.Field)
		n.SetType(types.ErrorType)
		return n
	}
	n.SetType(types.Reference(fieldType))
	return n
}

func (c *Checker) checkPointerDereference(n *ast.PointerDereferenceNode) ast.Expression {
	c.beginCheck("PointerDereference")
	defer c.endCheck("PointerDereference")

	lv := c.checkExpression(n.LValue)
	n.LValue = lv

	ptrType := types.GetPointerType(lv.Type())
	if ptrType == nil {
		if !lv.Type().IsError() {
			c.diag.Error(n.Loc.Line, n.Loc.Column, "type must be a pointer")
		}
		n.SetType(types.ErrorType)
		return n
	}
	n.SetType(types.Reference(ptrType.Elem))
	return n
}

func (c *Checker) checkNew(n *ast.NewNode) ast.Expression {
	c.beginCheck("New")
	defer c.endCheck("New")

	te, ok := c.scope.LookupType(n.TypeName)
	if !ok {
		c.diag.Error(n.Loc.Line, n.Loc.Column, "undefined type %q", n.TypeName)
		n.SetType(types.ErrorType)
		return n
	}
	n.SetType(types.Pointer(te.Type))
	return n
}

func (c *Checker) checkRecordConstructor(n *ast.RecordConstructorNode) ast.Expression {
	c.beginCheck("RecordConstructor")
	defer c.endCheck("RecordConstructor")

	exps := make([]ast.Expression, len(n.Fields))
	for i, f := range n.Fields {
		exps[i] = c.checkExpression(f)
	}

	te, ok := c.scope.LookupType(n.TypeName)
	if !ok {
		c.diag.Error(n.Loc.Line, n.Loc.Column, "undefined type %q", n.TypeName)
		n.SetType(types.ErrorType)
		return n
	}
	recType := types.GetRecordType(te.Type)
	if recType == nil {
		c.diag.Error(n.Loc.Line, n.Loc.Column,
			"cannot construct a record with a type identifier that is not a record type")
		n.SetType(types.ErrorType)
		return n
	}

	// Resolved open question: the spec requires the arity check the
	// original source left as a TODO.
	if len(exps) != len(recType.Fields) {
		c.diag.Error(n.Loc.Line, n.Loc.Column,
			"record constructor for %s expects %d fields, got %d", recType.Name, len(recType.Fields), len(exps))
		n.SetType(types.ErrorType)
		return n
	}

	for i, field := range recType.Fields {
		exps[i] = c.coerceExp(field.Type, exps[i])
	}
	n.Fields = exps
	n.SetType(recType)
	return n
}

// coerceExp inserts the minimal chain of nodes (dereference, widen, narrow,
// or none) to give e type target, allowing a narrowing (runtime-checked)
// step. On failure it reports IncompatibleTypes and returns an
// Error-typed node in e's place, so the failure never aborts the
// traversal.
func (c *Checker) coerceExp(target *types.Type, e ast.Expression) ast.Expression {
	plan, err := types.Coerce(target, e.Type(), true)
	if err != nil {
		c.diag.Error(e.Pos().Line, e.Pos().Column, "%v", err)
		return ast.NewErrorExp(e.Pos())
	}
	return c.applyCoercion(e, plan)
}

// applyCoercion wraps e with the nodes named by plan.Steps, in order.
func (c *Checker) applyCoercion(e ast.Expression, plan *types.CoercionPlan) ast.Expression {
	cur := e
	for _, step := range plan.Steps {
		switch step.Kind {
		case types.StepDereference:
			cur = ast.NewDereference(cur.Pos(), cur)
		case types.StepWiden:
			cur = ast.NewWidenSubrange(cur.Pos(), cur, cur.Type().Base)
		case types.StepNarrow:
			subT := types.Subrange(step.Low, step.High, cur.Type())
			cur = ast.NewNarrowSubrange(cur.Pos(), cur, subT)
		default:
			c.diag.Fatal(cur.Pos().Line, cur.Pos().Column, "unhandled coercion step %v", step.Kind)
		}
	}
	return cur
}
