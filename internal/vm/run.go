package vm

import (
	"fmt"
	"strings"

	"github.com/7amdev/kriolu-go/internal/heap"
)

// run is the dispatch loop: one switch over the Opcode at the current
// frame's instruction pointer, following spec.md §4.3 case by case. The
// frame pointer is refetched at the top of every outer iteration rather than
// held across a Call/Return, since both can append to or truncate
// vm.frames.
func (vm *VM) run() error {
	for {
		frame := &vm.frames[len(vm.frames)-1]
		chunk := frame.closure.Function.Chunk

		if vm.debug != nil {
			vm.debug.beforeInstruction(frame)
		}

		op := heap.Opcode(chunk.Code[frame.ip])
		frame.ip++

		switch op {
		case heap.OpConstant:
			idx := chunk.Code[frame.ip]
			frame.ip++
			vm.push(chunk.Constants[idx])

		case heap.OpConstantLong:
			idx := int(chunk.Code[frame.ip])<<16 | int(chunk.Code[frame.ip+1])<<8 | int(chunk.Code[frame.ip+2])
			frame.ip += 3
			vm.push(chunk.Constants[idx])

		case heap.OpNil:
			vm.push(heap.Nil)
		case heap.OpTrue:
			vm.push(heap.Bool(true))
		case heap.OpFalse:
			vm.push(heap.Bool(false))
		case heap.OpPop:
			vm.pop()

		case heap.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}

		case heap.OpSubtract, heap.OpMultiply, heap.OpDivide, heap.OpPower, heap.OpGreater, heap.OpLess:
			if err := vm.binaryNumeric(op); err != nil {
				return err
			}

		case heap.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("operand must be a number")
			}
			vm.push(heap.Number(-vm.pop().AsNumber()))

		case heap.OpNot:
			vm.push(heap.Bool(vm.pop().IsFalsey()))

		case heap.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(heap.Bool(heap.Equal(a, b)))

		case heap.OpPrint:
			vm.printValue(vm.pop())

		case heap.OpInterpolate:
			n := int(chunk.Code[frame.ip])
			frame.ip++
			var b strings.Builder
			for _, v := range vm.stack[len(vm.stack)-n:] {
				b.WriteString(vm.stringify(v))
			}
			vm.stack = vm.stack[:len(vm.stack)-n]
			vm.push(heap.FromObject(vm.heap.NewString(b.String())))

		case heap.OpDefineGlobal:
			name := vm.readNameConstant(chunk, frame)
			vm.globals.Set(name, vm.pop())

		case heap.OpReadGlobal:
			name := vm.readNameConstant(chunk, frame)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("undefined variable '%s'", name.Chars)
			}
			vm.push(v)

		case heap.OpAssignGlobal:
			name := vm.readNameConstant(chunk, frame)
			if _, ok := vm.globals.Get(name); !ok {
				return vm.runtimeError("undefined variable '%s'", name.Chars)
			}
			vm.globals.Set(name, vm.peek(0))

		case heap.OpLocalRead:
			slot := int(chunk.Code[frame.ip])
			frame.ip++
			vm.push(vm.stack[frame.base+slot])

		case heap.OpLocalWrite:
			slot := int(chunk.Code[frame.ip])
			frame.ip++
			vm.stack[frame.base+slot] = vm.peek(0)

		case heap.OpCapturedRead:
			idx := int(chunk.Code[frame.ip])
			frame.ip++
			hv := frame.closure.HeapValues[idx]
			vm.push(hv.Get(vm.stack))

		case heap.OpCapturedWrite:
			idx := int(chunk.Code[frame.ip])
			frame.ip++
			hv := frame.closure.HeapValues[idx]
			hv.Set(vm.stack, vm.peek(0))

		case heap.OpJump:
			offset := vm.readUint16(chunk, frame)
			frame.ip += int(offset)

		case heap.OpJumpIfFalse:
			offset := vm.readUint16(chunk, frame)
			if vm.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}

		case heap.OpLoop:
			offset := vm.readUint16(chunk, frame)
			frame.ip -= int(offset)

		case heap.OpCall:
			argc := int(chunk.Code[frame.ip])
			frame.ip++
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}

		case heap.OpCallClass:
			argc := int(chunk.Code[frame.ip])
			frame.ip++
			callee := vm.peek(argc)
			if !callee.IsObject() {
				return vm.runtimeError("can only instantiate a class")
			}
			if _, ok := callee.AsObject().(*heap.Class); !ok {
				return vm.runtimeError("can only instantiate a class")
			}
			if err := vm.callValue(callee, argc); err != nil {
				return err
			}

		case heap.OpMakeClosure:
			idx := chunk.Code[frame.ip]
			frame.ip++
			fn := chunk.Constants[idx].AsObject().(*heap.Function)
			heapValues := make([]*heap.HeapValue, fn.CaptureCount)
			for i := 0; i < fn.CaptureCount; i++ {
				location := heap.CaptureLocation(chunk.Code[frame.ip])
				index := int(chunk.Code[frame.ip+1])
				frame.ip += 2
				if location == heap.ParentStack {
					heapValues[i] = vm.captureHeapValue(frame.base + index)
				} else {
					heapValues[i] = frame.closure.HeapValues[index]
				}
			}
			vm.push(heap.FromObject(vm.heap.NewClosure(fn, heapValues)))

		case heap.OpCloseHeapValue:
			vm.closeHeapValues(len(vm.stack) - 1)
			vm.pop()

		case heap.OpReturn:
			result := vm.pop()
			vm.closeHeapValues(frame.base)
			vm.stack = vm.stack[:frame.base]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.push(result)

		case heap.OpClass:
			name := vm.readNameConstant(chunk, frame)
			vm.push(heap.FromObject(vm.heap.NewClass(name.Chars)))

		case heap.OpInherit:
			parentVal := vm.peek(0)
			childVal := vm.peek(1)
			parentClass, ok := asClass(parentVal)
			if !ok {
				return vm.runtimeError("superclass must be a class")
			}
			childClass, _ := asClass(childVal)
			for name, method := range parentClass.Methods {
				childClass.Methods[name] = method
			}
			vm.pop()

		case heap.OpMethod:
			name := vm.readNameConstant(chunk, frame)
			closure := vm.pop().AsObject().(*heap.Closure)
			class, _ := asClass(vm.peek(0))
			class.Methods[name.Chars] = closure

		case heap.OpGetProperty:
			name := vm.readNameConstant(chunk, frame)
			receiver := vm.peek(0)
			instance, ok := asInstance(receiver)
			if !ok {
				return vm.runtimeError("only instances have properties")
			}
			if v, ok := instance.Fields[name.Chars]; ok {
				vm.pop()
				vm.push(v)
				break
			}
			if method, ok := instance.Class.FindMethod(name.Chars); ok {
				vm.pop()
				vm.push(heap.FromObject(vm.heap.NewBoundMethod(receiver, method)))
				break
			}
			return vm.runtimeError("undefined property '%s'", name.Chars)

		case heap.OpSetProperty:
			name := vm.readNameConstant(chunk, frame)
			value := vm.peek(0)
			instance, ok := asInstance(vm.peek(1))
			if !ok {
				return vm.runtimeError("only instances have fields")
			}
			instance.Fields[name.Chars] = value
			vm.pop()
			vm.pop()
			vm.push(value)

		case heap.OpInvoke:
			name := vm.readNameConstant(chunk, frame)
			argc := int(chunk.Code[frame.ip])
			frame.ip++
			if err := vm.invoke(name.Chars, argc); err != nil {
				return err
			}

		case heap.OpGetSuper:
			name := vm.readNameConstant(chunk, frame)
			superclass, _ := asClass(vm.pop())
			receiver := vm.pop()
			method, ok := superclass.FindMethod(name.Chars)
			if !ok {
				return vm.runtimeError("undefined property '%s'", name.Chars)
			}
			vm.push(heap.FromObject(vm.heap.NewBoundMethod(receiver, method)))

		case heap.OpInvokeSuper:
			name := vm.readNameConstant(chunk, frame)
			argc := int(chunk.Code[frame.ip])
			frame.ip++
			superclass, _ := asClass(vm.pop())
			method, ok := superclass.FindMethod(name.Chars)
			if !ok {
				return vm.runtimeError("undefined property '%s'", name.Chars)
			}
			if err := vm.call(method, argc); err != nil {
				return err
			}

		case heap.OpDebuggerBreak:
			// no-op: when a debugger is attached, beforeInstruction already
			// traced this instruction above.

		default:
			return vm.runtimeError("unknown opcode %d", byte(op))
		}
	}
}

func (vm *VM) readNameConstant(chunk *heap.Chunk, frame *CallFrame) *heap.String {
	idx := chunk.Code[frame.ip]
	frame.ip++
	return chunk.Constants[idx].AsObject().(*heap.String)
}

func (vm *VM) printValue(v heap.Value) {
	fmt.Fprintln(vm.out, vm.stringify(v))
}

func asClass(v heap.Value) (*heap.Class, bool) {
	if !v.IsObject() {
		return nil, false
	}
	c, ok := v.AsObject().(*heap.Class)
	return c, ok
}

func asInstance(v heap.Value) (*heap.Instance, bool) {
	if !v.IsObject() {
		return nil, false
	}
	i, ok := v.AsObject().(*heap.Instance)
	return i, ok
}
