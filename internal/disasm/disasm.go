// Package disasm disassembles a compiled internal/heap.Chunk into
// human-readable instruction listings, used by the -bytecode CLI flag and
// the VM debugger's per-instruction trace. It imports internal/heap
// read-only: nothing here mutates a Chunk or a Value.
package disasm

import (
	"fmt"
	"strings"

	"github.com/7amdev/kriolu-go/internal/heap"
)

// Chunk renders every instruction in c, prefixed by name, matching the
// teacher's disassembly texture (offset, opcode mnemonic, operand, and for
// constant-loads the constant's printed value) from pkg/bytecode.
func Chunk(c *heap.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = Instruction(&b, c, offset)
	}
	return b.String()
}

// Instruction writes one decoded instruction at offset to b and returns the
// offset of the next instruction.
func Instruction(b *strings.Builder, c *heap.Chunk, offset int) int {
	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(b, "   | ")
	} else {
		fmt.Fprintf(b, "%4d ", c.Lines[offset])
	}

	op := heap.Opcode(c.Code[offset])
	switch op {
	case heap.OpConstant:
		return constantInstruction(b, op, c, offset)
	case heap.OpConstantLong:
		return constantLongInstruction(b, op, c, offset)
	case heap.OpDefineGlobal, heap.OpReadGlobal, heap.OpAssignGlobal,
		heap.OpClass, heap.OpMethod, heap.OpGetProperty, heap.OpSetProperty,
		heap.OpGetSuper:
		return constantInstruction(b, op, c, offset)
	case heap.OpLocalRead, heap.OpLocalWrite, heap.OpCapturedRead, heap.OpCapturedWrite:
		return byteInstruction(b, op, c, offset)
	case heap.OpCall, heap.OpCallClass, heap.OpInterpolate:
		return byteInstruction(b, op, c, offset)
	case heap.OpInvoke, heap.OpInvokeSuper:
		return invokeInstruction(b, op, c, offset)
	case heap.OpJump, heap.OpJumpIfFalse:
		return jumpInstruction(b, op, c, offset, 1)
	case heap.OpLoop:
		return jumpInstruction(b, op, c, offset, -1)
	case heap.OpMakeClosure:
		return closureInstruction(b, c, offset)
	default:
		return simpleInstruction(b, op, offset)
	}
}

func simpleInstruction(b *strings.Builder, op heap.Opcode, offset int) int {
	fmt.Fprintf(b, "%s\n", op)
	return offset + 1
}

func byteInstruction(b *strings.Builder, op heap.Opcode, c *heap.Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
	return offset + 2
}

func constantInstruction(b *strings.Builder, op heap.Opcode, c *heap.Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op, idx, valueString(c.Constants[idx]))
	return offset + 2
}

func constantLongInstruction(b *strings.Builder, op heap.Opcode, c *heap.Chunk, offset int) int {
	idx := int(c.Code[offset+1])<<16 | int(c.Code[offset+2])<<8 | int(c.Code[offset+3])
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op, idx, valueString(c.Constants[idx]))
	return offset + 4
}

func invokeInstruction(b *strings.Builder, op heap.Opcode, c *heap.Chunk, offset int) int {
	idx := c.Code[offset+1]
	argCount := c.Code[offset+2]
	fmt.Fprintf(b, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, valueString(c.Constants[idx]))
	return offset + 3
}

func jumpInstruction(b *strings.Builder, op heap.Opcode, c *heap.Chunk, offset, sign int) int {
	jump := int(c.ReadUint16(offset + 1))
	target := offset + 3 + sign*jump
	fmt.Fprintf(b, "%-16s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func closureInstruction(b *strings.Builder, c *heap.Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", heap.OpMakeClosure, idx, valueString(c.Constants[idx]))
	offset += 2

	fn, ok := c.Constants[idx].AsObject().(*heap.Function)
	if !ok {
		return offset
	}
	for i := 0; i < fn.CaptureCount; i++ {
		location := heap.CaptureLocation(c.Code[offset])
		index := c.Code[offset+1]
		kind := "stack"
		if location == heap.ParentHeap {
			kind = "heap"
		}
		fmt.Fprintf(b, "%04d    |                     %s %d\n", offset, kind, index)
		offset += 2
	}
	return offset
}

func valueString(v heap.Value) string {
	switch {
	case v.IsNil():
		return "nulo"
	case v.IsBool():
		if v.AsBool() {
			return "verdadi"
		}
		return "falsu"
	case v.IsNumber():
		return fmt.Sprintf("%g", v.AsNumber())
	case v.IsObject():
		return fmt.Sprint(v.AsObject())
	default:
		return "?"
	}
}
