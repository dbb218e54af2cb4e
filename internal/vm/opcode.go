// Package vm names the instruction set of the external stack machine this
// core targets. It owns no execution logic — only the opcode tags, their
// operand-word counts, and the handful of reserved constants the code
// generator and a loader must agree on.
package vm

// Op tags one instruction in the generated instruction stream.
type Op int

const (
	AllocStack Op = iota
	Return
	LoadConstant
	Zero
	One
	Add
	Negate
	Mpy
	Div
	Equal
	Less
	LessEq
	And
	Swap
	Dup
	Br
	JumpAlways
	JumpIfFalse
	Read
	Write
	Stop
	Load
	Store
	BoundsCheck
	MemRef
	Call
)

var names = map[Op]string{
	AllocStack:   "ALLOC_STACK",
	Return:       "RETURN",
	LoadConstant: "LOAD_CONSTANT",
	Zero:         "ZERO",
	One:          "ONE",
	Add:          "ADD",
	Negate:       "NEGATE",
	Mpy:          "MPY",
	Div:          "DIV",
	Equal:        "EQUAL",
	Less:         "LESS",
	LessEq:       "LESSEQ",
	And:          "AND",
	Swap:         "SWAP",
	Dup:          "DUP",
	Br:           "BR",
	JumpAlways:   "JUMP_ALWAYS",
	JumpIfFalse:  "JUMP_IF_FALSE",
	Read:         "READ",
	Write:        "WRITE",
	Stop:         "STOP",
	Load:         "LOAD",
	Store:        "STORE",
	BoundsCheck:  "BOUNDS_CHECK",
	MemRef:       "MEM_REF",
	Call:         "CALL",
}

func (op Op) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "UNKNOWN_OP"
}

// Operands is the number of operand words following the opcode word
// itself in the instruction stream. Call's address word is filled in by a
// loader once procedure entry addresses are known, but it still occupies a
// word here.
var Operands = map[Op]int{
	AllocStack:   1,
	Return:       0,
	LoadConstant: 1,
	Zero:         0,
	One:          0,
	Add:          0,
	Negate:       0,
	Mpy:          0,
	Div:          0,
	Equal:        0,
	Less:         0,
	LessEq:       0,
	And:          0,
	Swap:         0,
	Dup:          0,
	Br:           0,
	JumpAlways:   1,
	JumpIfFalse:  1,
	Read:         0,
	Write:        0,
	Stop:         0,
	Load:         1,
	Store:        1,
	BoundsCheck:  2,
	MemRef:       2,
	Call:         2,
}

// Size returns the total word count (opcode plus operands) of an
// instruction with this op.
func (op Op) Size() int { return 1 + Operands[op] }

// SizeJumpAlways is the in-stream word size of an unconditional relative
// jump. Every offset computed by the case-statement and loop/conditional
// lowerings is expressed in units of this constant.
const SizeJumpAlways = 2

// CaseLabelMissing is the reserved stop code pushed and Stop-ped when a
// case statement's scrutinee matches no label and no default branch was
// declared.
const CaseLabelMissing = -1
