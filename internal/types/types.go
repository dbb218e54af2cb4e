// Package types implements the PL0 type lattice: scalars, subranges,
// references, function/product/record/pointer types, the absorbing Error
// type, and intersection types for overloaded operators.
//
// Types are represented as a single tagged struct rather than as an
// interface hierarchy with one implementation per variant — the tree has a
// closed, small set of shapes and a tagged union keeps coercion a plain
// switch instead of a family of dynamic-dispatch methods.
package types

import (
	"fmt"
	"strings"
)

// Kind tags the variant of a Type value.
type Kind int

const (
	KindScalar Kind = iota
	KindSubrange
	KindReference
	KindFunction
	KindProduct
	KindRecord
	KindPointer
	KindError
	KindIntersection
)

// Field is a named, typed member of a Record type. Field names are unique
// within a record and the slice order is significant (record constructors
// match by position).
type Field struct {
	Name string
	Type *Type
}

// Type is a tagged union over the PL0 type lattice. Only the fields
// relevant to Kind are meaningful; the zero value of the others is ignored.
type Type struct {
	Kind Kind

	// KindScalar: Name is "int" or "boolean".
	Name string

	// KindSubrange: Low/High are the inclusive bounds, Base the widened type.
	Low, High int
	Base      *Type

	// KindReference, KindPointer: Elem is the referenced/pointed-to type.
	Elem *Type

	// KindFunction: ArgType -> ResultType.
	ArgType    *Type
	ResultType *Type

	// KindProduct: the types of an argument list, in order.
	Elements []*Type

	// KindRecord: ordered, named fields.
	Fields []Field

	// KindIntersection: an ordered set of KindFunction members. Order is
	// significant: overload resolution is first-match-wins.
	Members []*Type
}

// Predefined scalar and sentinel types. These are singletons; equality
// between scalars and Error is by Kind+Name, not by pointer identity, but
// code that only ever hands out these singletons can compare by pointer too.
var (
	IntegerType = &Type{Kind: KindScalar, Name: "int"}
	BooleanType = &Type{Kind: KindScalar, Name: "boolean"}
	ErrorType   = &Type{Kind: KindScalar, Name: "error"}
)

func init() {
	ErrorType.Kind = KindError
	ErrorType.Name = "error"
}

// Reference constructs Reference(elem).
func Reference(elem *Type) *Type { return &Type{Kind: KindReference, Elem: elem} }

// Pointer constructs Pointer(elem).
func Pointer(elem *Type) *Type { return &Type{Kind: KindPointer, Elem: elem} }

// Subrange constructs Subrange(low, high, base).
func Subrange(low, high int, base *Type) *Type {
	return &Type{Kind: KindSubrange, Low: low, High: high, Base: base}
}

// Function constructs Function(arg, result).
func Function(arg, result *Type) *Type {
	return &Type{Kind: KindFunction, ArgType: arg, ResultType: result}
}

// Product constructs Product([elements...]).
func Product(elements []*Type) *Type {
	return &Type{Kind: KindProduct, Elements: elements}
}

// Product2 is a convenience constructor for the common two-argument
// Product used by binary operator signatures.
func Product2(a, b *Type) *Type {
	return Product([]*Type{a, b})
}

// Record constructs Record([fields...]).
func Record(name string, fields []Field) *Type {
	return &Type{Kind: KindRecord, Name: name, Fields: fields}
}

// Intersection constructs Intersection({members...}); every member must be
// a KindFunction type, in the declaration order used for overload
// resolution.
func Intersection(members []*Type) *Type {
	return &Type{Kind: KindIntersection, Members: members}
}

// IsError reports whether t is the absorbing Error type.
func (t *Type) IsError() bool { return t != nil && t.Kind == KindError }

// Equal reports structural equality between two types.
func (t *Type) Equal(u *Type) bool {
	if t == u {
		return true
	}
	if t == nil || u == nil || t.Kind != u.Kind {
		return false
	}
	switch t.Kind {
	case KindScalar, KindError:
		return t.Name == u.Name
	case KindSubrange:
		return t.Low == u.Low && t.High == u.High && t.Base.Equal(u.Base)
	case KindReference, KindPointer:
		return t.Elem.Equal(u.Elem)
	case KindFunction:
		return t.ArgType.Equal(u.ArgType) && t.ResultType.Equal(u.ResultType)
	case KindProduct:
		if len(t.Elements) != len(u.Elements) {
			return false
		}
		for i := range t.Elements {
			if !t.Elements[i].Equal(u.Elements[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		if t.Name != u.Name || len(t.Fields) != len(u.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != u.Fields[i].Name || !t.Fields[i].Type.Equal(u.Fields[i].Type) {
				return false
			}
		}
		return true
	case KindIntersection:
		if len(t.Members) != len(u.Members) {
			return false
		}
		for i := range t.Members {
			if !t.Members[i].Equal(u.Members[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a human-readable type name, used in diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	switch t.Kind {
	case KindScalar, KindError:
		return t.Name
	case KindSubrange:
		return fmt.Sprintf("%d..%d", t.Low, t.High)
	case KindReference:
		return "ref(" + t.Elem.String() + ")"
	case KindPointer:
		return "pointer to " + t.Elem.String()
	case KindFunction:
		return t.ArgType.String() + "->" + t.ResultType.String()
	case KindProduct:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, "x") + ")"
	case KindRecord:
		return t.Name
	case KindIntersection:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = m.String()
		}
		return strings.Join(parts, " & ")
	}
	return "?"
}

// OptDereferenceType returns U if t = Reference(U), else t itself. Used by
// contexts that accept either a value or an L-value.
func OptDereferenceType(t *Type) *Type {
	if t != nil && t.Kind == KindReference {
		return t.Elem
	}
	return t
}

// GetRecordType returns the record type underlying t, transparently
// dereferencing a Reference, or nil if t is not (a reference to) a record.
func GetRecordType(t *Type) *Type {
	u := OptDereferenceType(t)
	if u != nil && u.Kind == KindRecord {
		return u
	}
	return nil
}

// GetPointerType returns the pointer type underlying t, transparently
// dereferencing a Reference, or nil if t is not (a reference to) a pointer.
func GetPointerType(t *Type) *Type {
	u := OptDereferenceType(t)
	if u != nil && u.Kind == KindPointer {
		return u
	}
	return nil
}

// FieldType looks up a field by name, returning ErrorType if absent.
func (t *Type) FieldType(name string) *Type {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return ErrorType
}

// StepKind tags a single coercion step in a CoercionPlan.
type StepKind int

const (
	StepDereference StepKind = iota
	StepWiden
	StepNarrow
)

// Step is one node the checker must insert to carry a coercion.
type Step struct {
	Kind StepKind
	// Low/High are populated for StepNarrow: the subrange bounds to check.
	Low, High int
}

// CoercionPlan is the minimal chain of coercion steps (in application
// order, innermost/first-applied first) needed to turn an expression of
// type Source into one of type Result.
type CoercionPlan struct {
	Steps  []Step
	Result *Type
}

// IncompatibleTypes is returned when no coercion chain exists.
type IncompatibleTypes struct {
	Target, Source *Type
}

func (e *IncompatibleTypes) Error() string {
	return fmt.Sprintf("incompatible types: cannot coerce %s to %s", e.Source, e.Target)
}

// Coerce computes the minimal coercion chain giving an expression of type
// source the type target. When allowNarrow is false, a NarrowSubrange step
// is never considered (used by intersection-operator probing, which wants a
// safe, non-checked conversion only). Error sources or targets always
// succeed with an empty plan, result type equal to source (the error
// absorbs further checking without forcing an artificial target type).
func Coerce(target, source *Type, allowNarrow bool) (*CoercionPlan, error) {
	if source.IsError() || target.IsError() {
		return &CoercionPlan{Result: source}, nil
	}
	if source.Equal(target) {
		return &CoercionPlan{Result: target}, nil
	}

	// Dereference, optionally composed with one more step.
	if source.Kind == KindReference {
		inner := source.Elem
		if inner.Equal(target) {
			return &CoercionPlan{Steps: []Step{{Kind: StepDereference}}, Result: target}, nil
		}
		if inner.Kind == KindSubrange && inner.Base.Equal(target) {
			return &CoercionPlan{Steps: []Step{{Kind: StepDereference}, {Kind: StepWiden}}, Result: target}, nil
		}
		if allowNarrow && target.Kind == KindSubrange && target.Base.Equal(inner) {
			return &CoercionPlan{
				Steps:  []Step{{Kind: StepDereference}, {Kind: StepNarrow, Low: target.Low, High: target.High}},
				Result: target,
			}, nil
		}
	}

	// Widen, optionally composed with a narrow into a different subrange
	// sharing the same base (widen-then-narrow).
	if source.Kind == KindSubrange {
		if source.Base.Equal(target) {
			return &CoercionPlan{Steps: []Step{{Kind: StepWiden}}, Result: target}, nil
		}
		if allowNarrow && target.Kind == KindSubrange && target.Base.Equal(source.Base) {
			return &CoercionPlan{
				Steps:  []Step{{Kind: StepWiden}, {Kind: StepNarrow, Low: target.Low, High: target.High}},
				Result: target,
			}, nil
		}
	}

	// Narrow.
	if allowNarrow && target.Kind == KindSubrange && target.Base.Equal(source) {
		return &CoercionPlan{
			Steps:  []Step{{Kind: StepNarrow, Low: target.Low, High: target.High}},
			Result: target,
		}, nil
	}

	return nil, &IncompatibleTypes{Target: target, Source: source}
}
