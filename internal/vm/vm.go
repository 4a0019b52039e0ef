// Package vm implements the register-less, stack-based virtual machine that
// executes the bytecode internal/compiler produces (spec.md §4.3). Its shape
// -- a value stack, a bounded call-frame stack, a dispatch loop over a single
// Opcode switch -- follows the teacher's pkg/vm.VM; what differs is the value
// representation (internal/heap.Value's tagged union instead of interface{})
// and the instruction set (Kriolu's class/closure bytecode instead of the
// teacher's Smalltalk-style message sends).
package vm

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/7amdev/kriolu-go/internal/heap"
)

const maxFrames = 64

// CallFrame is one activation record: the running closure, its instruction
// pointer into that closure's Function.Chunk, and base, the value-stack index
// of the frame's slot 0 (spec.md §3's CallFrame).
type CallFrame struct {
	closure *heap.Closure
	ip      int
	base    int
}

// VM owns the value stack, the call-frame stack, the global-variable table,
// and the list of currently open HeapValues (spec.md §4.3). A VM is
// long-lived: construct one with New and call Interpret once per loaded
// script, or repeatedly for a REPL sharing globals across lines.
type VM struct {
	heap *heap.Heap

	stack  []heap.Value
	frames []CallFrame

	globals        heap.Table
	openHeapValues *heap.HeapValue

	out   io.Writer
	debug *Debugger
}

// New returns a VM allocating on h and printing imprimi output to out. It
// registers itself as a heap.RootProvider for its entire lifetime.
func New(h *heap.Heap, out io.Writer) *VM {
	vm := &VM{heap: h, out: out}
	h.Register(vm)
	vm.defineNatives()
	return vm
}

// AttachDebugger wires d so the dispatch loop consults it before every
// instruction; pass nil to detach.
func (vm *VM) AttachDebugger(d *Debugger) { vm.debug = d }

// MarkRoots implements heap.RootProvider: the value stack, every call
// frame's closure, the globals table, and the open HeapValue list are all
// root sources per spec.md §4.4.
func (vm *VM) MarkRoots(mark func(heap.Obj)) {
	for _, v := range vm.stack {
		if v.IsObject() {
			mark(v.AsObject())
		}
	}
	for i := range vm.frames {
		mark(vm.frames[i].closure)
	}
	vm.globals.Each(func(key *heap.String, value heap.Value) {
		mark(key)
		if value.IsObject() {
			mark(value.AsObject())
		}
	})
	for hv := vm.openHeapValues; hv != nil; hv = hv.NextOpen {
		mark(hv)
	}
}

// Interpret wraps fn (the compiled script function) in a closure, calls it,
// and runs the dispatch loop to completion.
func (vm *VM) Interpret(fn *heap.Function) error {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openHeapValues = nil

	closure := vm.heap.NewClosure(fn, nil)
	vm.push(heap.FromObject(closure))
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

// ---- stack helpers --------------------------------------------------------

func (vm *VM) push(v heap.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() heap.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) heap.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

// ---- calling ---------------------------------------------------------------

func (vm *VM) call(closure *heap.Closure, argc int) error {
	if argc != closure.Function.Arity {
		return vm.runtimeError("expected %d arguments but got %d", closure.Function.Arity, argc)
	}
	if len(vm.frames) == maxFrames {
		return vm.runtimeError("stack overflow")
	}
	vm.frames = append(vm.frames, CallFrame{
		closure: closure,
		base:    len(vm.stack) - argc - 1,
	})
	return nil
}

func (vm *VM) callValue(callee heap.Value, argc int) error {
	if !callee.IsObject() {
		return vm.runtimeError("can only call functions and classes")
	}
	switch obj := callee.AsObject().(type) {
	case *heap.Closure:
		return vm.call(obj, argc)
	case *heap.NativeFunction:
		if argc != obj.Arity {
			return vm.runtimeError("expected %d arguments but got %d", obj.Arity, argc)
		}
		args := append([]heap.Value(nil), vm.stack[len(vm.stack)-argc:]...)
		result, err := obj.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argc-1]
		vm.push(result)
		return nil
	case *heap.Class:
		instance := vm.heap.NewInstance(obj)
		vm.stack[len(vm.stack)-argc-1] = heap.FromObject(instance)
		if initializer, ok := obj.FindMethod("konstrutor"); ok {
			return vm.call(initializer, argc)
		}
		if argc != 0 {
			return vm.runtimeError("expected 0 arguments but got %d", argc)
		}
		return nil
	case *heap.BoundMethod:
		vm.stack[len(vm.stack)-argc-1] = obj.Receiver
		return vm.call(obj.Method, argc)
	default:
		return vm.runtimeError("can only call functions and classes")
	}
}

func (vm *VM) invoke(name string, argc int) error {
	receiver := vm.peek(argc)
	if !receiver.IsObject() {
		return vm.runtimeError("only instances have methods")
	}
	instance, ok := receiver.AsObject().(*heap.Instance)
	if !ok {
		return vm.runtimeError("only instances have methods")
	}
	if field, ok := instance.Fields[name]; ok {
		vm.stack[len(vm.stack)-argc-1] = field
		return vm.callValue(field, argc)
	}
	method, ok := instance.Class.FindMethod(name)
	if !ok {
		return vm.runtimeError("undefined property '%s'", name)
	}
	return vm.call(method, argc)
}

// ---- closures --------------------------------------------------------------

// captureHeapValue finds or creates the open HeapValue for stack slot
// stackPos, keeping vm.openHeapValues sorted by strictly decreasing StackPos
// (spec.md §3's invariant), grounded on original_source/src/object_upvalue.c.
func (vm *VM) captureHeapValue(stackPos int) *heap.HeapValue {
	var prev *heap.HeapValue
	cur := vm.openHeapValues
	for cur != nil && cur.StackPos > stackPos {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.StackPos == stackPos {
		return cur
	}

	hv := vm.heap.NewHeapValue(stackPos)
	hv.NextOpen = cur
	if prev == nil {
		vm.openHeapValues = hv
	} else {
		prev.NextOpen = hv
	}
	return hv
}

// closeHeapValues closes every open HeapValue at or above fromStackPos,
// copying the live stack value into the cell before the stack is truncated.
func (vm *VM) closeHeapValues(fromStackPos int) {
	for vm.openHeapValues != nil && vm.openHeapValues.StackPos >= fromStackPos {
		hv := vm.openHeapValues
		hv.Close(vm.stack[hv.StackPos])
		vm.openHeapValues = hv.NextOpen
		hv.NextOpen = nil
	}
}

// ---- diagnostics -----------------------------------------------------------

func (vm *VM) stringify(v heap.Value) string {
	switch {
	case v.IsNil():
		return "nulo"
	case v.IsBool():
		if v.AsBool() {
			return "verdadi"
		}
		return "falsu"
	case v.IsNumber():
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	case v.IsObject():
		return fmt.Sprint(v.AsObject())
	default:
		return "?"
	}
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)

	trace := make([]StackFrame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		line := 0
		if f.ip-1 >= 0 && f.ip-1 < len(f.closure.Function.Chunk.Lines) {
			line = f.closure.Function.Chunk.Lines[f.ip-1]
		}
		trace = append(trace, StackFrame{Name: f.closure.Function.String(), SourceLine: line})
	}

	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openHeapValues = nil

	return newRuntimeError(msg, trace)
}

func (vm *VM) readUint16(chunk *heap.Chunk, frame *CallFrame) uint16 {
	v := chunk.ReadUint16(frame.ip)
	frame.ip += 2
	return v
}

// add implements OpAdd: string+string concatenates into an interned result,
// everything else falls through to binaryNumeric.
func (vm *VM) add() error {
	bVal, aVal := vm.peek(0), vm.peek(1)
	if bVal.IsObject() && aVal.IsObject() {
		bStr, bOk := bVal.AsObject().(*heap.String)
		aStr, aOk := aVal.AsObject().(*heap.String)
		if aOk && bOk {
			vm.pop()
			vm.pop()
			vm.push(heap.FromObject(vm.heap.NewString(aStr.Chars + bStr.Chars)))
			return nil
		}
	}
	return vm.binaryNumeric(heap.OpAdd)
}

func (vm *VM) binaryNumeric(op heap.Opcode) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("operands must be numbers")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	switch op {
	case heap.OpAdd:
		vm.push(heap.Number(a + b))
	case heap.OpSubtract:
		vm.push(heap.Number(a - b))
	case heap.OpMultiply:
		vm.push(heap.Number(a * b))
	case heap.OpDivide:
		vm.push(heap.Number(a / b))
	case heap.OpPower:
		vm.push(heap.Number(math.Pow(a, b)))
	case heap.OpGreater:
		vm.push(heap.Bool(a > b))
	case heap.OpLess:
		vm.push(heap.Bool(a < b))
	}
	return nil
}

