package vm

import (
	"github.com/MaxwellBo/pl0core/internal/symtab"
	"github.com/MaxwellBo/pl0core/internal/types"
)

// CallFixup records where a Call instruction's address operand landed in
// Words, and which procedure it calls; a loader resolves the word to that
// procedure's entry address once every procedure has been generated.
type CallFixup struct {
	Pos  int
	Proc *symtab.ProcedureEntry
}

// Code is a growable instruction buffer: a flat stream of opcode and
// operand words, plus the call sites within it still awaiting a resolved
// address. Jump offsets recorded in the stream are relative to the end of
// the jump instruction that carries them (§4.4).
type Code struct {
	Words []int
	Calls []CallFixup
}

// NewCode returns an empty instruction buffer.
func NewCode() *Code { return &Code{} }

// Size returns the number of words currently in the buffer.
func (c *Code) Size() int { return len(c.Words) }

// Append concatenates other onto c, carrying over its call fixups shifted
// by c's current size.
func (c *Code) Append(other *Code) {
	base := len(c.Words)
	c.Words = append(c.Words, other.Words...)
	for _, f := range other.Calls {
		c.Calls = append(c.Calls, CallFixup{Pos: f.Pos + base, Proc: f.Proc})
	}
}

func (c *Code) emit(op Op, operands ...int) {
	c.Words = append(c.Words, int(op))
	c.Words = append(c.Words, operands...)
}

// GenOp emits a bare opcode with no operands.
func (c *Code) GenOp(op Op) { c.emit(op) }

// GenAllocStack emits the frame-allocation prologue instruction.
func (c *Code) GenAllocStack(n int) { c.emit(AllocStack, n) }

// GenLoadConstant emits a generic constant load. Callers should prefer
// GenConst, which uses the dedicated Zero/One opcodes for those two values.
func (c *Code) GenLoadConstant(v int) { c.emit(LoadConstant, v) }

// GenConst emits the shortest opcode sequence pushing v.
func (c *Code) GenConst(v int) {
	switch v {
	case 0:
		c.emit(Zero)
	case 1:
		c.emit(One)
	default:
		c.GenLoadConstant(v)
	}
}

// GenJumpAlways emits an unconditional relative jump of offset, measured
// from the end of this instruction.
func (c *Code) GenJumpAlways(offset int) { c.emit(JumpAlways, offset) }

// GenJumpIfFalse emits a conditional relative jump (pops the condition)
// of offset, measured from the end of this instruction.
func (c *Code) GenJumpIfFalse(offset int) { c.emit(JumpIfFalse, offset) }

// GenBoolNot emits the opcode sequence that negates the 0/1 value on top
// of the stack: it is equal to zero iff the original value was nonzero.
func (c *Code) GenBoolNot() {
	c.GenConst(0)
	c.emit(Equal)
}

// GenMemRef emits a frame-relative memory reference: levelDiff static
// levels up from the current frame, then offset words into that frame.
func (c *Code) GenMemRef(levelDiff, offset int) { c.emit(MemRef, levelDiff, offset) }

// GenBoundsCheck emits a runtime range check against [lo, hi] on the value
// on top of the stack, leaving it in place if it passes.
func (c *Code) GenBoundsCheck(lo, hi int) { c.emit(BoundsCheck, lo, hi) }

// GenCall emits a call to proc, levelDiff static levels out from the
// caller. The address operand is a placeholder until a loader resolves
// proc's entry address; the fixup records where to patch it.
func (c *Code) GenCall(levelDiff int, proc *symtab.ProcedureEntry) {
	pos := len(c.Words) + 2 // word index of the address operand
	c.emit(Call, levelDiff, 0)
	c.Calls = append(c.Calls, CallFixup{Pos: pos, Proc: proc})
}

// wordSize is the number of stack words a value of type t occupies;
// mirrors symtab's frame-sizing rule: a record is the sum of its fields'
// sizes, every other type one word (a Reference is sized by its target).
func wordSize(t *types.Type) int {
	u := types.OptDereferenceType(t)
	if u != nil && u.Kind == types.KindRecord {
		n := 0
		for _, f := range u.Fields {
			n += wordSize(f.Type)
		}
		if n == 0 {
			return 1
		}
		return n
	}
	return 1
}

// GenLoad emits a load of a value of type t from the address on top of
// the stack.
func (c *Code) GenLoad(t *types.Type) { c.emit(Load, wordSize(t)) }

// GenStore emits a store of a value of type t: pops the address (pushed
// last) and the value (pushed first) and writes it.
func (c *Code) GenStore(t *types.Type) { c.emit(Store, wordSize(t)) }
