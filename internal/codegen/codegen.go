// Package codegen translates a checked AST into per-procedure stack-
// machine code, addressed by static level and frame offset. It assumes
// every node it visits has already been typed and desugared by the
// checker; anything else is an internal error.
package codegen

import (
	"math"
	"sort"

	"github.com/MaxwellBo/pl0core/internal/ast"
	"github.com/MaxwellBo/pl0core/internal/diagnostic"
	"github.com/MaxwellBo/pl0core/internal/procedures"
	"github.com/MaxwellBo/pl0core/internal/vm"
)

// Generator walks a checked program, accumulating one Code buffer per
// procedure into a Procedures table.
type Generator struct {
	staticLevel int
	procs       *procedures.Procedures
	diag        *diagnostic.Sink
	nodeStack   []string
}

// New creates a generator reporting through diag.
func New(diag *diagnostic.Sink) *Generator {
	return &Generator{procs: procedures.New(), diag: diag}
}

// Generate runs code generation over prog and returns the resulting
// procedure table.
func Generate(prog *ast.ProgramNode, diag *diagnostic.Sink) *procedures.Procedures {
	g := New(diag)
	g.genProgram(prog)
	return g.procs
}

func (g *Generator) beginGen(node string) {
	g.nodeStack = append(g.nodeStack, node)
	g.diag.Debugf("generating %s", node)
	g.diag.IncDebug()
}

func (g *Generator) endGen(node string) {
	g.diag.DecDebug()
	g.diag.Debugf("end generation of %s", node)
	popped := g.nodeStack[len(g.nodeStack)-1]
	g.nodeStack = g.nodeStack[:len(g.nodeStack)-1]
	if popped != node {
		g.diag.Debugf("*** end node %s does not match start node %s", node, popped)
	}
}

// genProgram treats the program as the outermost procedure, at static
// level 1.
func (g *Generator) genProgram(n *ast.ProgramNode) {
	g.beginGen("Program")
	g.staticLevel = 1
	g.genProcedure(n.Proc)
	g.endGen("Program")
}

func (g *Generator) genProcedure(n *ast.ProcedureNode) {
	g.beginGen("Procedure")
	code := g.genBlock(n.Block)
	g.procs.AddProcedure(n.Entry, code)
	g.endGen("Procedure")
}

func (g *Generator) genBlock(n *ast.BlockNode) *vm.Code {
	g.beginGen("Block")
	code := vm.NewCode()
	code.GenAllocStack(n.Locals.VariableSpace())
	code.Append(g.genStatement(n.Body))
	code.GenOp(vm.Return)

	g.staticLevel++
	for _, p := range n.Procedures {
		g.genProcedure(p)
	}
	g.staticLevel--

	g.endGen("Block")
	return code
}

// --- statements ---

func (g *Generator) genStatement(s ast.Statement) *vm.Code {
	switch n := s.(type) {
	case *ast.ErrorStatementNode:
		g.diag.Fatal(n.Loc.Line, n.Loc.Column, "code generation invoked on an error statement")
		return vm.NewCode()
	case *ast.SkipNode:
		return vm.NewCode()
	case *ast.AssignmentNode:
		return g.genAssignment(n)
	case *ast.WriteNode:
		return g.genWrite(n)
	case *ast.CallNode:
		return g.genCall(n)
	case *ast.StatementListNode:
		return g.genStatementList(n)
	case *ast.IfNode:
		return g.genIf(n)
	case *ast.WhileNode:
		return g.genWhile(n)
	case *ast.CaseNode:
		return g.genCase(n)
	default:
		g.diag.Fatal(s.Pos().Line, s.Pos().Column, "unhandled statement node %T in code generation", s)
		return vm.NewCode()
	}
}

func (g *Generator) genAssignment(n *ast.AssignmentNode) *vm.Code {
	g.beginGen("Assignment")
	code := vm.NewCode()

	for _, pair := range n.Assignments {
		code.Append(g.genExpression(pair.Exp))
	}
	for i := len(n.Assignments) - 1; i >= 0; i-- {
		pair := n.Assignments[i]
		code.Append(g.genExpression(pair.Variable))
		code.GenStore(pair.Variable.Type())
	}

	g.endGen("Assignment")
	return code
}

func (g *Generator) genWrite(n *ast.WriteNode) *vm.Code {
	g.beginGen("Write")
	code := g.genExpression(n.Exp)
	code.GenOp(vm.Write)
	g.endGen("Write")
	return code
}

func (g *Generator) genCall(n *ast.CallNode) *vm.Code {
	g.beginGen("Call")
	code := vm.NewCode()
	code.GenCall(g.staticLevel-n.Entry.Level, n.Entry)
	g.endGen("Call")
	return code
}

func (g *Generator) genStatementList(n *ast.StatementListNode) *vm.Code {
	g.beginGen("StatementList")
	code := vm.NewCode()
	for _, s := range n.Statements {
		code.Append(g.genStatement(s))
	}
	g.endGen("StatementList")
	return code
}

func (g *Generator) genIf(n *ast.IfNode) *vm.Code {
	g.beginGen("If")
	code := g.genExpression(n.Condition)
	thenCode := g.genStatement(n.Then)
	elseCode := g.genStatement(n.Else)

	code.GenJumpIfFalse(thenCode.Size() + vm.SizeJumpAlways)
	code.Append(thenCode)
	code.GenJumpAlways(elseCode.Size())
	code.Append(elseCode)

	g.endGen("If")
	return code
}

func (g *Generator) genWhile(n *ast.WhileNode) *vm.Code {
	g.beginGen("While")
	code := g.genExpression(n.Condition)
	bodyCode := g.genStatement(n.Body)

	code.GenJumpIfFalse(bodyCode.Size() + vm.SizeJumpAlways)
	code.Append(bodyCode)
	code.GenJumpAlways(-(code.Size() + vm.SizeJumpAlways))

	g.endGen("While")
	return code
}

// genCase lowers a case statement into three regions: a range-check entry,
// a jump table indexed by normalized label, and the branch bodies
// themselves (each followed by a jump past the rest of the case). See
// §4.4 of the design for the exact offset arithmetic; this is a direct
// port of that algorithm.
func (g *Generator) genCase(n *ast.CaseNode) *vm.Code {
	g.beginGen("Case")

	collector := vm.NewCode()
	entryCollector := vm.NewCode()
	branchCollector := vm.NewCode()
	tableCollector := vm.NewCode()

	branches := make([]*ast.CaseBranchNode, len(n.Branches))
	copy(branches, n.Branches)
	sort.Slice(branches, func(i, j int) bool { return branches[i].Label < branches[j].Label })

	min, max := math.MaxInt32, math.MinInt32
	if len(branches) != 0 {
		min = branches[0].Label
		max = branches[len(branches)-1].Label
	}
	rng := max - min

	branchLabels := make([]int, 0, len(branches)+1)
	branchCodes := make([]*vm.Code, 0, len(branches)+1)
	for _, b := range branches {
		branchLabels = append(branchLabels, b.Label)
		branchCodes = append(branchCodes, g.genStatement(b.Body))
	}

	// The default/trap branch is appended last, keyed by a sentinel label
	// so it can be found regardless of min.
	branchLabels = append(branchLabels, math.MaxInt32)
	if n.Default != nil {
		branchCodes = append(branchCodes, g.genStatement(n.Default))
	} else {
		trap := vm.NewCode()
		trap.GenLoadConstant(vm.CaseLabelMissing)
		trap.GenOp(vm.Stop)
		branchCodes = append(branchCodes, trap)
	}

	labelValueToOffset := make(map[int]int)
	for len(branchLabels) != 0 {
		labelValue := branchLabels[0]
		branchLabels = branchLabels[1:]
		bcode := branchCodes[0]
		branchCodes = branchCodes[1:]

		// Normalize branch labels (-min) so they can be jumped into from
		// index 0 of the table.
		labelValueToOffset[labelValue-min] = branchCollector.Size()
		branchCollector.Append(bcode)

		// Jump past all the remaining branch code (and their own jumps).
		remaining := 0
		for _, rc := range branchCodes {
			remaining += rc.Size()
		}
		remaining += len(branchCodes) * vm.SizeJumpAlways
		branchCollector.GenJumpAlways(remaining)
	}
	defaultOffset := labelValueToOffset[math.MaxInt32-min]

	if rng >= 0 {
		for i := 0; i <= rng; i++ {
			overRemainingTableOffset := (rng - i) * vm.SizeJumpAlways
			overBranchesOffset, ok := labelValueToOffset[i]
			if !ok {
				overBranchesOffset = defaultOffset
			}
			tableCollector.GenJumpAlways(overRemainingTableOffset + overBranchesOffset)
		}
	}

	// The computed jump into the table: normalize the scrutinee to a
	// zero-based index and scale it to word offsets.
	branch := vm.NewCode()
	branch.GenLoadConstant(-min)
	branch.GenOp(vm.Add)
	branch.GenLoadConstant(vm.SizeJumpAlways)
	branch.GenOp(vm.Mpy)
	branch.GenOp(vm.Br)

	// The range check: is the scrutinee within [min, max]? If not, skip
	// the table entirely and go straight to the default/trap branch.
	rangeCheck := vm.NewCode()
	rangeCheck.Append(g.genExpression(n.Target))
	rangeCheck.GenOp(vm.Dup)
	rangeCheck.GenOp(vm.Dup)
	rangeCheck.GenLoadConstant(max)
	rangeCheck.GenOp(vm.LessEq)
	rangeCheck.GenOp(vm.Swap)
	rangeCheck.GenLoadConstant(min)
	rangeCheck.GenOp(vm.Swap)
	rangeCheck.GenOp(vm.LessEq)
	rangeCheck.GenOp(vm.And)
	rangeCheck.GenJumpIfFalse(branch.Size() + tableCollector.Size() + defaultOffset)

	entryCollector.Append(rangeCheck)
	entryCollector.Append(branch)

	g.endGen("Case")

	collector.Append(entryCollector)
	collector.Append(tableCollector)
	collector.Append(branchCollector)
	return collector
}

// --- expressions ---

func (g *Generator) genExpression(e ast.Expression) *vm.Code {
	switch n := e.(type) {
	case *ast.ErrorExpNode:
		g.diag.Fatal(n.Pos().Line, n.Pos().Column, "code generation invoked on an error expression")
		return vm.NewCode()
	case *ast.ConstNode:
		code := vm.NewCode()
		code.GenConst(n.Value)
		return code
	case *ast.ReadNode:
		code := vm.NewCode()
		code.GenOp(vm.Read)
		return code
	case *ast.OperatorNode:
		return g.genOperator(n)
	case *ast.ArgumentsNode:
		return g.genArguments(n)
	case *ast.DereferenceNode:
		code := g.genExpression(n.LValue)
		code.GenLoad(n.Type())
		return code
	case *ast.IdentifierNode:
		g.diag.Fatal(n.Loc.Line, n.Loc.Column, "code generation invoked on a bare identifier")
		return vm.NewCode()
	case *ast.VariableNode:
		code := vm.NewCode()
		code.GenMemRef(g.staticLevel-n.Var.Level, n.Var.Offset)
		return code
	case *ast.NarrowSubrangeNode:
		code := g.genExpression(n.Exp)
		code.GenBoundsCheck(n.SubrangeType.Low, n.SubrangeType.High)
		return code
	case *ast.WidenSubrangeNode:
		return g.genExpression(n.Exp)
	case *ast.FieldAccessNode, *ast.PointerDereferenceNode, *ast.NewNode, *ast.RecordConstructorNode:
		// The checker fully types these (§4.3), but no lowering for them
		// is defined: the instruction set has no field-offset, heap-
		// allocation, or record-layout opcode. Matches the code generator
		// this core was ported from, which likewise only lowers the
		// scalar/subrange core language.
		g.diag.Fatal(e.Pos().Line, e.Pos().Column, "code generation for %T is not implemented", e)
		return vm.NewCode()
	default:
		g.diag.Fatal(e.Pos().Line, e.Pos().Column, "unhandled expression node %T in code generation", e)
		return vm.NewCode()
	}
}

func (g *Generator) genOperator(n *ast.OperatorNode) *vm.Code {
	g.beginGen("Operator")
	defer g.endGen("Operator")

	var code *vm.Code
	switch n.Op {
	case ast.AddOp:
		code = g.genExpression(n.Arg)
		code.GenOp(vm.Add)
	case ast.SubOp:
		code = g.genExpression(n.Arg)
		code.GenOp(vm.Negate)
		code.GenOp(vm.Add)
	case ast.MulOp:
		code = g.genExpression(n.Arg)
		code.GenOp(vm.Mpy)
	case ast.DivOp:
		code = g.genExpression(n.Arg)
		code.GenOp(vm.Div)
	case ast.EqualsOp:
		code = g.genExpression(n.Arg)
		code.GenOp(vm.Equal)
	case ast.LessOp:
		code = g.genExpression(n.Arg)
		code.GenOp(vm.Less)
	case ast.NequalsOp:
		code = g.genExpression(n.Arg)
		code.GenOp(vm.Equal)
		code.GenBoolNot()
	case ast.LequalsOp:
		code = g.genExpression(n.Arg)
		code.GenOp(vm.LessEq)
	case ast.GreaterOp:
		code = g.genArgsInReverse(n.Arg)
		code.GenOp(vm.Less)
	case ast.GequalsOp:
		code = g.genArgsInReverse(n.Arg)
		code.GenOp(vm.LessEq)
	case ast.NegOp:
		code = g.genExpression(n.Arg)
		code.GenOp(vm.Negate)
	default:
		g.diag.Fatal(n.Loc.Line, n.Loc.Column, "unknown operator")
		code = vm.NewCode()
	}
	return code
}

func (g *Generator) genArguments(n *ast.ArgumentsNode) *vm.Code {
	g.beginGen("Arguments")
	code := vm.NewCode()
	for _, a := range n.Args {
		code.Append(g.genExpression(a))
	}
	g.endGen("Arguments")
	return code
}

// genArgsInReverse generates an ArgumentsNode's operands in reverse order,
// letting GREATER/GEQUALS reuse the LESS/LESSEQ opcodes.
func (g *Generator) genArgsInReverse(arg ast.Expression) *vm.Code {
	g.beginGen("ArgsInReverse")
	args, ok := arg.(*ast.ArgumentsNode)
	if !ok {
		g.diag.Fatal(arg.Pos().Line, arg.Pos().Column, "GREATER/GEQUALS requires two arguments")
		g.endGen("ArgsInReverse")
		return vm.NewCode()
	}
	code := vm.NewCode()
	for i := len(args.Args) - 1; i >= 0; i-- {
		code.Append(g.genExpression(args.Args[i]))
	}
	g.endGen("ArgsInReverse")
	return code
}
