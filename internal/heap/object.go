package heap

import "fmt"

// ObjectKind discriminates the eight heap object variants (spec.md §3).
type ObjectKind uint8

const (
	ObjString ObjectKind = iota
	ObjFunction
	ObjClosure
	ObjNativeFunction
	ObjHeapValue
	ObjClass
	ObjInstance
	ObjBoundMethod
)

func (k ObjectKind) String() string {
	switch k {
	case ObjString:
		return "string"
	case ObjFunction:
		return "function"
	case ObjClosure:
		return "closure"
	case ObjNativeFunction:
		return "native-function"
	case ObjHeapValue:
		return "heap-value"
	case ObjClass:
		return "class"
	case ObjInstance:
		return "instance"
	case ObjBoundMethod:
		return "bound-method"
	default:
		return "unknown"
	}
}

// Obj is implemented by every heap object. header() gives the GC and the
// allocation list access to the fields every object carries: its kind
// discriminator, its mark bit, and its link into the intrusive allocation
// list (spec.md §3: "heap objects form an intrusively linked allocation
// list").
type Obj interface {
	header() *Header
}

// Header is embedded by every concrete object type. Because the embedding is
// by value, a pointer to the containing struct promotes Header's pointer
// methods, so header() below always returns a pointer into the live object.
type Header struct {
	Kind   ObjectKind
	marked bool
	next   Obj // intrusive allocation-list link, set by Heap.track
}

func (h *Header) header() *Header { return h }

// String is an interned string object: its bytes, length, and a precomputed
// FNV-1a hash (matching original_source/src/string.c) so the interner never
// rehashes on lookup.
type String struct {
	Header
	Chars string
	Hash  uint32
}

func (s *String) String() string { return s.Chars }

// Function is the compiled form of a Kriolu function or method: arity, the
// number of variables its closures must capture, its bytecode, and an
// optional name (empty for the implicit top-level script function).
type Function struct {
	Header
	Name         string
	Arity        int
	CaptureCount int
	Chunk        *Chunk
}

func (f *Function) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<funson %s>", f.Name)
}

// HeapValue is a captured variable cell (spec.md glossary: "Captured
// variable / HeapValue"). While Open is true, StackPos indexes the live stack
// slot it captured; Closed is meaningless until the enclosing frame returns
// and calls Close, which copies the slot's current value in and flips Open
// to false. NextOpen chains every still-open HeapValue into the VM's single
// open list, sorted by descending stack address
// (internal/vm.openHeapValues).
type HeapValue struct {
	Header
	Open     bool
	StackPos int // index into the VM value stack, meaningful while Open
	Closed   Value
	NextOpen *HeapValue
}

func (h *HeapValue) String() string { return "<heap-value>" }

// Close copies the value out of the stack slot at stackValue and flips the
// cell to closed. Called by the VM's Return/CloseHeapValue handling.
func (h *HeapValue) Close(stackValue Value) {
	h.Closed = stackValue
	h.Open = false
}

// Get reads through the cell: the caller supplies the current stack (used
// only while Open) since HeapValue itself does not own the stack.
func (h *HeapValue) Get(stack []Value) Value {
	if h.Open {
		return stack[h.StackPos]
	}
	return h.Closed
}

// Set writes through the cell.
func (h *HeapValue) Set(stack []Value, v Value) {
	if h.Open {
		stack[h.StackPos] = v
		return
	}
	h.Closed = v
}

// Closure binds a Function to the vector of HeapValues it captured, one per
// entry in the function's capture descriptor list (spec.md §3).
type Closure struct {
	Header
	Function   *Function
	HeapValues []*HeapValue
}

func (c *Closure) String() string { return c.Function.String() }

// NativeFunction wraps a host-provided callback, installed by the VM at
// startup (e.g. clock, type probes). Args excludes the receiver slot.
type NativeFunction struct {
	Header
	Name  string
	Arity int
	Fn    func(args []Value) (Value, error)
}

func (n *NativeFunction) String() string { return fmt.Sprintf("<native %s>", n.Name) }

// Class holds its name and a method table (interned method name -> Closure);
// it keeps no link to its superclass. Single inheritance is resolved at
// compile time into OpInherit, which copies the parent's method entries
// forward.
type Class struct {
	Header
	Name    string
	Methods map[string]*Closure
}

func (c *Class) String() string { return fmt.Sprintf("<klasi %s>", c.Name) }

// FindMethod looks up a method by name in this class only (no superclass
// walk at runtime: OpInherit already flattened the parent's methods in).
func (c *Class) FindMethod(name string) (*Closure, bool) {
	m, ok := c.Methods[name]
	return m, ok
}

// Instance is a live object: a class reference plus a field table keyed by
// interned field name.
type Instance struct {
	Header
	Class  *Class
	Fields map[string]Value
}

func (i *Instance) String() string { return fmt.Sprintf("<%s instance>", i.Class.Name) }

// BoundMethod pairs a receiver with the method Closure resolved for it. It
// is transient: created only when a property access resolves to a method
// without being immediately called (spec.md §4.3).
type BoundMethod struct {
	Header
	Receiver Value
	Method   *Closure
}

func (b *BoundMethod) String() string { return b.Method.String() }
