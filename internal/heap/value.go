// Package heap implements Kriolu's tagged value representation, its heap
// object model, the string interner, and the tracing garbage collector
// (spec.md §3, §4.4, §4.5).
//
// The teacher (github.com/kristofer/smog) represents every runtime value as
// a bare interface{} and type-switches on it throughout the VM. Kriolu
// instead needs a closed, four-variant tagged union (spec.md §3): numbers,
// booleans, nil, and object references, with reference-identity equality for
// objects and a GC that must be able to enumerate exactly what each object
// points at. A bare interface{} can't carry a marked bit or a next-object
// link, so this package follows the teacher's "small struct + explicit kind
// tag" texture (see bytecode.Instruction) instead of its interface{} value
// representation.
package heap

// Kind discriminates the variant held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObject
)

// Value is Kriolu's tagged union: Number(f64), Boolean(bool), Nil, or a
// reference to a heap Object. Zero value is Nil.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	obj     Obj
}

// Nil is the singleton nil value.
var Nil = Value{kind: KindNil}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, number: n} }

// FromObject wraps a heap object reference.
func FromObject(o Obj) Value { return Value{kind: KindObject, obj: o} }

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObject() bool { return v.kind == KindObject }

func (v Value) AsBool() bool     { return v.boolean }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObject() Obj     { return v.obj }

// IsFalsey follows the usual scripting-language truthiness rule: nil and
// false are falsey, everything else (including 0 and "") is truthy.
func (v Value) IsFalsey() bool {
	return v.kind == KindNil || (v.kind == KindBool && !v.boolean)
}

// Equal implements spec.md §3's equality rule: numbers by IEEE equality,
// booleans/nil by tag, objects by reference identity. Because strings are
// interned (Heap.NewString), string equality collapses into this
// same reference check.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.boolean == b.boolean
	case KindNumber:
		return a.number == b.number
	case KindObject:
		return a.obj == b.obj
	default:
		return false
	}
}

// TypeName returns a short diagnostic name for the value's kind, used in
// runtime type-mismatch error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nulo"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindObject:
		return v.obj.header().Kind.String()
	default:
		return "unknown"
	}
}
