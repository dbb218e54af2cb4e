// Package symtab implements the PL0 symbol table: a tree of lexically
// nested scopes, each mapping names to tagged symbol entries, plus a
// separate operator namespace (operators are never shadowed by user
// identifiers).
package symtab

import (
	"fmt"

	"github.com/MaxwellBo/pl0core/internal/types"
)

// Entry is implemented by every kind of symbol table entry: Constant,
// Variable, Procedure, TypeAlias, Operator. Matching the original source's
// class hierarchy (SymEntry.ConstantEntry / VarEntry / ProcedureEntry / ...),
// kinds are distinct Go types rather than one tagged struct, since each
// carries materially different data and the checker dispatches on kind via
// a type switch exactly where the original dispatched via instanceof.
type Entry interface {
	EntryName() string
}

// ConstantEntry binds a name to a fixed value of a known type.
type ConstantEntry struct {
	Name  string
	Type  *types.Type
	Value int
}

func (e *ConstantEntry) EntryName() string { return e.Name }

// VariableEntry binds a name to a storage location: the static nesting
// level of its declaring scope and its word offset within that frame.
type VariableEntry struct {
	Name   string
	Type   *types.Type
	Level  int
	Offset int
}

func (e *VariableEntry) EntryName() string { return e.Name }

// ProcedureEntry binds a name to a procedure: its local scope, its own
// static level, and (once known, post code generation) its entry address.
// Level is the static level the procedure's own body executes at (its
// LocalScope's level): 1 for the main program, one more per nesting. A
// call site's static-link depth is its own current level minus this
// field, so a procedure calling itself has depth 0, a call from its body
// to the enclosing procedure has depth 1, and a call from the declaring
// block to a directly nested procedure has depth -1.
// EntryAddress is resolved by the external VM loader, not by this core;
// HasEntryAddress distinguishes "not yet known" from "address zero".
type ProcedureEntry struct {
	Name            string
	Level           int
	LocalScope      *Scope
	EntryAddress    int
	HasEntryAddress bool
}

func (e *ProcedureEntry) EntryName() string { return e.Name }

// TypeEntry binds a name to a type alias (e.g. a record or subrange type
// declaration).
type TypeEntry struct {
	Name string
	Type *types.Type
}

func (e *TypeEntry) EntryName() string { return e.Name }

// OperatorEntry binds an operator name to its (possibly overloaded) type,
// a Function or an Intersection of Functions.
type OperatorEntry struct {
	Name string
	Type *types.Type
}

func (e *OperatorEntry) EntryName() string { return e.Name }

// Scope is one lexical scope: a mapping from identifier name to entry
// (unique within the scope), a parent link mirroring lexical nesting, the
// static level of this scope, and the running sum of local variable space.
type Scope struct {
	parent        *Scope
	level         int
	entries       map[string]Entry
	operators     map[string]Entry
	variableSpace int
	resolved      bool
}

// NewScope creates a new scope nested under parent at the given static
// level. parent is nil only for the universe (outermost predefined) scope.
func NewScope(parent *Scope, level int) *Scope {
	return &Scope{
		parent:    parent,
		level:     level,
		entries:   make(map[string]Entry),
		operators: make(map[string]Entry),
	}
}

// Parent returns the enclosing scope, or nil for the universe scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Level returns this scope's static nesting level.
func (s *Scope) Level() int { return s.level }

// Define adds an entry to the current scope. Redefining a name already
// present in this (not a parent) scope is rejected.
func (s *Scope) Define(name string, e Entry) error {
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("symtab: %q already declared in this scope", name)
	}
	s.entries[name] = e
	return nil
}

// DefineOperator adds an entry to the operator namespace, which is
// separate from the value namespace used by Define/Lookup.
func (s *Scope) DefineOperator(name string, e Entry) {
	s.operators[name] = e
}

// Lookup walks this scope and its parents for name, in the value
// namespace.
func (s *Scope) Lookup(name string) (Entry, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if e, ok := sc.entries[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// LookupLocal looks up name only within this scope, not its parents.
func (s *Scope) LookupLocal(name string) (Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// LookupType looks up name and returns it only if it names a type alias.
func (s *Scope) LookupType(name string) (*TypeEntry, bool) {
	e, ok := s.Lookup(name)
	if !ok {
		return nil, false
	}
	te, ok := e.(*TypeEntry)
	return te, ok
}

// LookupOperator walks this scope and its parents in the operator
// namespace, which is never shadowed by user identifiers.
func (s *Scope) LookupOperator(name string) (Entry, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if e, ok := sc.operators[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// VariableSpace returns the total word space reserved for local variables
// declared directly in this scope, queried by the code generator to emit
// the frame-allocation prologue.
func (s *Scope) VariableSpace() int { return s.variableSpace }

// wordSize returns the number of machine words a value of type t occupies
// in a frame. Scalars, subranges and pointers are one word; records are
// the sum of their fields' sizes.
func wordSize(t *types.Type) int {
	if t == nil {
		return 1
	}
	if t.Kind == types.KindRecord {
		n := 0
		for _, f := range t.Fields {
			n += wordSize(f.Type)
		}
		if n == 0 {
			return 1
		}
		return n
	}
	return 1
}

// AllocateVariable defines a new variable in this scope, assigning it the
// next free offset and growing VariableSpace by its size.
func (s *Scope) AllocateVariable(name string, t *types.Type) (*VariableEntry, error) {
	entry := &VariableEntry{
		Name:   name,
		Type:   t,
		Level:  s.level,
		Offset: s.variableSpace,
	}
	if err := s.Define(name, entry); err != nil {
		return nil, err
	}
	s.variableSpace += wordSize(t)
	return entry, nil
}

// ResolveScope marks the scope as resolved before its body is checked.
// Entries in this symbol table are defined with already-resolved types, so
// it performs no type resolution of its own; deferred type expressions are
// not represented. A second call is a no-op.
func (s *Scope) ResolveScope() {
	if s.resolved {
		return
	}
	s.resolved = true
}

// NewUniverse builds the outermost predefined scope: the integer and
// boolean scalar types, and the predefined (possibly overloaded) operator
// entries. It is the "fully populated symbol table with predefined types...
// predefined operator entries" the spec assumes as an external input;
// providing it here gives the driver and tests a ready base scope without
// requiring a parser.
func NewUniverse() *Scope {
	u := NewScope(nil, 0)

	u.Define("int", &TypeEntry{Name: "int", Type: types.IntegerType})
	u.Define("boolean", &TypeEntry{Name: "boolean", Type: types.BooleanType})

	intBinary := types.Function(types.Product2(types.IntegerType, types.IntegerType), types.IntegerType)
	intRelation := types.Function(types.Product2(types.IntegerType, types.IntegerType), types.BooleanType)
	boolRelation := types.Function(types.Product2(types.BooleanType, types.BooleanType), types.BooleanType)
	intUnary := types.Function(types.IntegerType, types.IntegerType)

	u.DefineOperator("+", &OperatorEntry{Name: "+", Type: intBinary})
	u.DefineOperator("-", &OperatorEntry{Name: "-", Type: types.Intersection([]*types.Type{intBinary, intUnary})})
	u.DefineOperator("*", &OperatorEntry{Name: "*", Type: intBinary})
	u.DefineOperator("/", &OperatorEntry{Name: "/", Type: intBinary})
	u.DefineOperator("<", &OperatorEntry{Name: "<", Type: intRelation})
	u.DefineOperator("<=", &OperatorEntry{Name: "<=", Type: intRelation})
	u.DefineOperator(">", &OperatorEntry{Name: ">", Type: intRelation})
	u.DefineOperator(">=", &OperatorEntry{Name: ">=", Type: intRelation})
	// "=" and "!=" are overloaded over int and boolean: declaration order
	// matters for first-match overload resolution (§4.1), though for a
	// monomorphic match on either side the order is not observable here.
	u.DefineOperator("=", &OperatorEntry{Name: "=", Type: types.Intersection([]*types.Type{intRelation, boolRelation})})
	u.DefineOperator("!=", &OperatorEntry{Name: "!=", Type: types.Intersection([]*types.Type{intRelation, boolRelation})})

	return u
}
