package heap

// Opcode is a single bytecode instruction's operation. Single-byte, matching
// the teacher's bytecode.Opcode and spec.md §4.1's compact instruction set.
type Opcode byte

const (
	OpConstant     Opcode = iota // u8 idx into the constant pool
	OpConstantLong               // u24 idx, for pools beyond 256 entries
	OpNil
	OpTrue
	OpFalse
	OpPop

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpPower
	OpNegate
	OpNot
	OpEqual
	OpGreater
	OpLess

	OpPrint
	OpInterpolate // u8 n: concatenate the top n values into one string

	OpDefineGlobal
	OpReadGlobal
	OpAssignGlobal
	OpLocalRead
	OpLocalWrite
	OpCapturedRead
	OpCapturedWrite

	OpJump
	OpJumpIfFalse
	OpLoop

	OpCall
	OpCallClass
	OpMakeClosure // u8 func-const-idx, followed inline by n (location,index) pairs
	OpCloseHeapValue
	OpReturn

	OpClass
	OpInherit
	OpMethod
	OpGetProperty
	OpSetProperty
	OpInvoke
	OpGetSuper
	OpInvokeSuper

	OpDebuggerBreak
)

var opcodeNames = [...]string{
	OpConstant:       "CONSTANT",
	OpConstantLong:   "CONSTANT_LONG",
	OpNil:            "NIL",
	OpTrue:           "TRUE",
	OpFalse:          "FALSE",
	OpPop:            "POP",
	OpAdd:            "ADD",
	OpSubtract:       "SUBTRACT",
	OpMultiply:       "MULTIPLY",
	OpDivide:         "DIVIDE",
	OpPower:          "POWER",
	OpNegate:         "NEGATE",
	OpNot:            "NOT",
	OpEqual:          "EQUAL",
	OpGreater:        "GREATER",
	OpLess:           "LESS",
	OpPrint:          "PRINT",
	OpInterpolate:    "INTERPOLATE",
	OpDefineGlobal:   "DEFINE_GLOBAL",
	OpReadGlobal:     "READ_GLOBAL",
	OpAssignGlobal:   "ASSIGN_GLOBAL",
	OpLocalRead:      "LOCAL_READ",
	OpLocalWrite:     "LOCAL_WRITE",
	OpCapturedRead:   "CAPTURED_READ",
	OpCapturedWrite:  "CAPTURED_WRITE",
	OpJump:           "JUMP",
	OpJumpIfFalse:    "JUMP_IF_FALSE",
	OpLoop:           "LOOP",
	OpCall:           "CALL",
	OpCallClass:      "CALL_CLASS",
	OpMakeClosure:    "MAKE_CLOSURE",
	OpCloseHeapValue: "CLOSE_HEAP_VALUE",
	OpReturn:         "RETURN",
	OpClass:          "CLASS",
	OpInherit:        "INHERIT",
	OpMethod:         "METHOD",
	OpGetProperty:    "GET_PROPERTY",
	OpSetProperty:    "SET_PROPERTY",
	OpInvoke:         "INVOKE",
	OpGetSuper:       "GET_SUPER",
	OpInvokeSuper:    "INVOKE_SUPER",
	OpDebuggerBreak:  "DEBUGGER_BREAK",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}

// CaptureLocation says where a MakeClosure capture descriptor reads its
// HeapValue from: the immediately enclosing function's own stack frame, or
// an already-closed-over HeapValue living in that enclosing function's
// Closure (spec.md §3's Captured-variable descriptor).
type CaptureLocation byte

const (
	ParentStack CaptureLocation = iota
	ParentHeap
)

// Chunk is the bytecode container (spec.md §4.1): a byte-addressed
// instruction stream, a parallel per-byte line table (so multi-byte operands
// replicate the opcode's line, keeping Lines[i] valid for any i), and the
// function's constant pool.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// Write appends a single byte, recording line for it.
func (c *Chunk) Write(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// WriteOpcode appends an opcode byte.
func (c *Chunk) WriteOpcode(op Opcode, line int) int {
	return c.Write(byte(op), line)
}

// WriteUint16 appends a big-endian u16 operand (used by jump offsets).
func (c *Chunk) WriteUint16(v uint16, line int) int {
	start := c.Write(byte(v>>8), line)
	c.Write(byte(v), line)
	return start
}

// PatchUint16 overwrites the two bytes at offset with v, used to back-patch
// a forward jump once its target is known.
func (c *Chunk) PatchUint16(offset int, v uint16) {
	c.Code[offset] = byte(v >> 8)
	c.Code[offset+1] = byte(v)
}

// ReadUint16 reads a big-endian u16 at offset.
func (c *Chunk) ReadUint16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// WriteConstant emits the push for constant index idx, choosing
// OpConstant/u8 when idx fits in a byte and OpConstantLong/u24 (big-endian)
// otherwise, per spec.md §4.1.
func (c *Chunk) WriteConstant(idx int, line int) {
	if idx <= 0xFF {
		c.WriteOpcode(OpConstant, line)
		c.Write(byte(idx), line)
		return
	}
	c.WriteOpcode(OpConstantLong, line)
	c.Write(byte(idx>>16), line)
	c.Write(byte(idx>>8), line)
	c.Write(byte(idx), line)
}
