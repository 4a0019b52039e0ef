package heap

import (
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// initialGCThreshold and gcGrowthFactor follow original_source/src/memory.c's
// reallocate(): collection triggers once bytesAllocated exceeds threshold,
// and the threshold doubles after each collection (clox's GC_HEAP_GROW_FACTOR).
const (
	initialGCThreshold = 1 << 20 // 1 MiB
	gcGrowthFactor     = 2
)

// RootProvider is implemented by every long-lived structure that can hold
// references to heap objects the GC must not collect: internal/vm.VM (its
// value stack, call frames, globals, open HeapValue list) and
// internal/compiler.Compiler (the in-progress Function chain, live only
// while Compile runs). spec.md §4.4 lists both as root sources.
type RootProvider interface {
	MarkRoots(mark func(Obj))
}

// Heap owns every object allocation, the intrusive allocation list those
// objects are linked into, the string interner, and the mark-sweep collector
// described in spec.md §4.4. A Heap has no concurrency story: spec.md's
// Non-goals exclude it, and every allocation happens on the single goroutine
// driving compilation or execution.
type Heap struct {
	allocHead Obj
	allocated int
	threshold int

	strings Table

	providers []RootProvider
	protected []Value // memory-transaction stack, see Protect/Unprotect

	StressGC bool // -gc-stress: collect on every allocation
	LogGC    bool // -gc-log: trace collection via logrus
}

// New returns a Heap ready to allocate.
func New() *Heap {
	return &Heap{threshold: initialGCThreshold}
}

// Register adds p as a root source and returns a function that removes it
// again. internal/compiler calls the returned func when Compile returns;
// internal/vm calls it for the lifetime of the VM, i.e. never.
func (h *Heap) Register(p RootProvider) (unregister func()) {
	h.providers = append(h.providers, p)
	idx := len(h.providers) - 1
	return func() { h.providers[idx] = nil }
}

// Protect roots v for the duration of an allocation sequence that cannot
// otherwise reach a root yet (e.g. concatenation building an interim String
// that must survive the allocation of the table entry that will reference
// it). Mirrors clox's push()/pop() idiom around hash-table inserts.
func (h *Heap) Protect(v Value) { h.protected = append(h.protected, v) }

// Unprotect pops the most recently protected value.
func (h *Heap) Unprotect() { h.protected = h.protected[:len(h.protected)-1] }

// ---- allocation ----------------------------------------------------------

func sizeOf(o Obj) int {
	switch v := o.(type) {
	case *String:
		return 24 + len(v.Chars)
	case *Function:
		return 48
	case *Closure:
		return 24 + 8*len(v.HeapValues)
	case *NativeFunction:
		return 32
	case *HeapValue:
		return 32
	case *Class:
		return 32
	case *Instance:
		return 32
	case *BoundMethod:
		return 24
	default:
		return 16
	}
}

// track links o into the allocation list, accounts its size, and runs a
// collection first if the stress flag is set or the threshold is exceeded.
// The new object is protected for the duration of that collection so it is
// never swept out from under its caller (it is linked, just unreachable from
// roots yet -- callers that need it to additionally survive a later nested
// allocation must Protect it themselves).
func (h *Heap) track(o Obj) {
	hdr := o.header()
	hdr.next = h.allocHead
	h.allocHead = o
	h.allocated += sizeOf(o)

	if h.StressGC || h.allocated > h.threshold {
		h.Protect(FromObject(o))
		h.Collect()
		h.Unprotect()
	}
}

// NewString interns chars, returning the existing String object if this
// content was seen before. Grounded on original_source/src/hash_table.c's
// find-or-create pattern: FindString first, allocate only on a miss.
func (h *Heap) NewString(chars string) *String {
	hash := hashString(chars)
	if s := h.strings.FindString(chars, hash); s != nil {
		return s
	}
	s := &String{Chars: chars, Hash: hash}
	s.Kind = ObjString
	h.Protect(FromObject(s))
	h.track(s)
	h.strings.Set(s, Nil)
	h.Unprotect()
	return s
}

// NewFunction allocates an (initially empty) compiled function.
func (h *Heap) NewFunction(name string, arity, captureCount int) *Function {
	f := &Function{Name: name, Arity: arity, CaptureCount: captureCount, Chunk: &Chunk{}}
	f.Kind = ObjFunction
	h.track(f)
	return f
}

// NewClosure binds fn to heapValues (one per capture descriptor).
func (h *Heap) NewClosure(fn *Function, heapValues []*HeapValue) *Closure {
	c := &Closure{Function: fn, HeapValues: heapValues}
	c.Kind = ObjClosure
	h.track(c)
	return c
}

// NewNativeFunction wraps a host callback as a callable Kriolu value.
func (h *Heap) NewNativeFunction(name string, arity int, fn func(args []Value) (Value, error)) *NativeFunction {
	n := &NativeFunction{Name: name, Arity: arity, Fn: fn}
	n.Kind = ObjNativeFunction
	h.track(n)
	return n
}

// NewHeapValue allocates an open capture cell pointing at stackPos.
func (h *Heap) NewHeapValue(stackPos int) *HeapValue {
	hv := &HeapValue{Open: true, StackPos: stackPos}
	hv.Kind = ObjHeapValue
	h.track(hv)
	return hv
}

// NewClass allocates an (initially method-less) class.
func (h *Heap) NewClass(name string) *Class {
	c := &Class{Name: name, Methods: make(map[string]*Closure)}
	c.Kind = ObjClass
	h.track(c)
	return c
}

// NewInstance allocates an instance of class with an empty field table.
func (h *Heap) NewInstance(class *Class) *Instance {
	i := &Instance{Class: class, Fields: make(map[string]Value)}
	i.Kind = ObjInstance
	h.track(i)
	return i
}

// NewBoundMethod pairs receiver with method.
func (h *Heap) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	b := &BoundMethod{Receiver: receiver, Method: method}
	b.Kind = ObjBoundMethod
	h.track(b)
	return b
}

// ---- collection -----------------------------------------------------------

// Collect runs one full mark-sweep cycle: mark every root-reachable object
// gray, blacken the gray worklist (walking each object's own references),
// then sweep the allocation list, freeing every object left unmarked. This
// is a stop-the-world, non-generational, non-incremental collector per
// spec.md §4.4's explicit Non-goals.
func (h *Heap) Collect() {
	before := h.allocated
	if h.LogGC {
		log.WithField("bytes_allocated", before).Debug("gc begin")
	}

	var gray []Obj
	mark := func(o Obj) {
		if o == nil {
			return
		}
		hdr := o.header()
		if hdr.marked {
			return
		}
		hdr.marked = true
		gray = append(gray, o)
	}

	// Registering a provider reserves its slot for the provider's lifetime
	// (Register hands back an unregister closure rather than a splice), so
	// h.providers accumulates nil holes as compilers come and go; filter
	// them before walking each root source.
	for _, p := range lo.WithoutEmpty(h.providers) {
		p.MarkRoots(mark)
	}
	for _, v := range h.protected {
		if v.IsObject() {
			mark(v.AsObject())
		}
	}

	for len(gray) > 0 {
		o := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		h.blacken(o, mark)
	}

	h.sweep()

	h.threshold = h.allocated * gcGrowthFactor
	if h.threshold < initialGCThreshold {
		h.threshold = initialGCThreshold
	}

	if h.LogGC {
		log.WithFields(log.Fields{
			"before": before,
			"after":  h.allocated,
			"next":   h.threshold,
		}).Debug("gc end")
	}
}

// blacken marks everything a single gray object references.
func (h *Heap) blacken(o Obj, mark func(Obj)) {
	switch v := o.(type) {
	case *String:
		// no outgoing references
	case *Function:
		for _, c := range v.Chunk.Constants {
			if c.IsObject() {
				mark(c.AsObject())
			}
		}
	case *Closure:
		mark(v.Function)
		for _, hv := range v.HeapValues {
			mark(hv)
		}
	case *NativeFunction:
		// no outgoing references
	case *HeapValue:
		if !v.Open && v.Closed.IsObject() {
			mark(v.Closed.AsObject())
		}
	case *Class:
		for _, m := range v.Methods {
			mark(m)
		}
	case *Instance:
		mark(v.Class)
		for _, fv := range v.Fields {
			if fv.IsObject() {
				mark(fv.AsObject())
			}
		}
	case *BoundMethod:
		if v.Receiver.IsObject() {
			mark(v.Receiver.AsObject())
		}
		mark(v.Method)
	}
}

// sweep walks the allocation list, unlinking and discarding every unmarked
// object and clearing the mark bit on every survivor for the next cycle.
// Interned strings that die are also removed from the interner so a later
// NewString with the same content doesn't resurrect a dangling entry.
func (h *Heap) sweep() {
	var prev Obj
	cur := h.allocHead
	for cur != nil {
		hdr := cur.header()
		next := hdr.next
		if hdr.marked {
			hdr.marked = false
			prev = cur
			cur = next
			continue
		}

		if s, ok := cur.(*String); ok {
			h.strings.Delete(s)
		}
		h.allocated -= sizeOf(cur)

		if prev == nil {
			h.allocHead = next
		} else {
			prev.header().next = next
		}
		cur = next
	}
}
