// Package compiler implements the single-pass Pratt-style compiler that
// turns a Kriolu token stream directly into bytecode (spec.md §4.2): no AST
// is built or consulted for execution (internal/ast exists solely for the
// -ast dump flag and is never imported here).
//
// The shape follows the teacher's pkg/compiler.Compiler in spirit -- a
// single entry point (Compile) walking a token stream and driving emission
// -- but the algorithm itself is the classic single-pass Pratt compiler
// described by original_source/src/parser.c: a stack of in-progress
// function records, precedence-climbing expression parsing, and immediate
// bytecode emission with back-patched jumps.
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/7amdev/kriolu-go/internal/heap"
	"github.com/7amdev/kriolu-go/internal/kerr"
	"github.com/7amdev/kriolu-go/internal/lexer"
	"github.com/7amdev/kriolu-go/internal/token"
)

// FunctionKind distinguishes the four compile-time contexts spec.md §3
// names: the implicit top-level script, an ordinary function, a method, and
// the konstrutor initializer (whose implicit/explicit return semantics
// differ from a plain method's).
type FunctionKind int

const (
	KindScript FunctionKind = iota
	KindFunction
	KindMethod
	KindInitializer
)

type local struct {
	name     string
	depth    int // -1: declared but not yet initialized
	captured bool
}

type capture struct {
	index    int
	location heap.CaptureLocation
}

// functionCompiler is the compile-time Function record of spec.md §3: one
// per in-progress function body, linked to its enclosing function so the
// compiler can walk outward to resolve captures and so the GC (via
// Compiler.MarkRoots) can enumerate every function object still under
// construction.
type functionCompiler struct {
	enclosing *functionCompiler
	function  *heap.Function
	kind      FunctionKind

	locals     []local
	scopeDepth int
	captures   []capture
}

type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// loopContext tracks the jump targets sai/salta need: continueTarget is
// where salta loops back to (the increment, for a di/pa loop, else the
// condition), breakJumps accumulates sai's forward jumps to patch once the
// loop's end offset is known, and scopeDepth records how many locals a
// break/continue must unwind before jumping.
type loopContext struct {
	enclosing      *loopContext
	continueTarget int
	breakJumps     []int
	scopeDepth     int
}

type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecPower
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(*Compiler, bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[token.Kind]rule

func init() {
	rules = map[token.Kind]rule{
		token.LeftParen:  {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: PrecCall},
		token.LeftBrace:  {infix: (*Compiler).callClass, precedence: PrecCall},
		token.Dot:        {infix: (*Compiler).dot, precedence: PrecCall},
		token.Minus:      {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		token.Plus:       {infix: (*Compiler).binary, precedence: PrecTerm},
		token.Slash:      {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Star:       {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Caret:      {infix: (*Compiler).binary, precedence: PrecPower},
		token.Ka:         {prefix: (*Compiler).unary},
		token.Number:     {prefix: (*Compiler).number},
		token.String:     {prefix: (*Compiler).string_},
		token.InterpolationStart: {prefix: (*Compiler).interpolation},
		token.Identifier: {prefix: (*Compiler).variable},
		token.Keli:       {prefix: (*Compiler).this_},
		token.Riba:       {prefix: (*Compiler).super_},
		token.Verdadi:    {prefix: (*Compiler).literal},
		token.Falsu:      {prefix: (*Compiler).literal},
		token.Nulo:       {prefix: (*Compiler).literal},
		token.E:          {infix: (*Compiler).and_, precedence: PrecAnd},
		token.Ou:         {infix: (*Compiler).or_, precedence: PrecOr},
		token.EqualEqual: {infix: (*Compiler).binary, precedence: PrecEquality},
		token.BangEqual:  {infix: (*Compiler).binary, precedence: PrecEquality},
		token.Greater:      {infix: (*Compiler).binary, precedence: PrecComparison},
		token.GreaterEqual: {infix: (*Compiler).binary, precedence: PrecComparison},
		token.Less:         {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LessEqual:    {infix: (*Compiler).binary, precedence: PrecComparison},
	}
}

func getRule(k token.Kind) rule { return rules[k] }

// Compiler drives one compilation of a single source string into a root
// heap.Function. A Compiler is single-use: construct a fresh one per
// Compile call, following the teacher's compiler.New()/Compile() split.
type Compiler struct {
	heap *heap.Heap
	lx   *lexer.Lexer

	cur, prev token.Token

	panicMode    bool
	hadError     bool
	resumeString bool
	errors       []error

	current *functionCompiler
	class   *classCompiler
	loop    *loopContext
}

// New returns a Compiler that will allocate objects (interned strings,
// Function records) on h.
func New(h *heap.Heap) *Compiler {
	return &Compiler{heap: h}
}

// Compile parses and emits bytecode for source in a single pass, returning
// the root script Function. Registers itself as a heap.RootProvider for the
// duration of compilation so in-progress Function objects survive any GC
// triggered by an allocation mid-compile (spec.md §4.4's "compiler stack of
// Function records" root source).
func (c *Compiler) Compile(source string) (*heap.Function, error) {
	c.lx = lexer.New(source)
	c.hadError = false
	c.panicMode = false
	c.errors = nil

	unregister := c.heap.Register(c)
	defer unregister()

	root := &functionCompiler{kind: KindScript}
	root.function = c.heap.NewFunction("", 0, 0)
	root.locals = append(root.locals, local{name: "", depth: 0})
	c.current = root

	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	c.emitReturn()

	if c.hadError {
		return nil, c.compileError()
	}
	return root.function, nil
}

// MarkRoots implements heap.RootProvider: every function currently under
// construction (the enclosing chain from c.current) must survive a
// collection triggered mid-compile.
func (c *Compiler) MarkRoots(mark func(heap.Obj)) {
	for fc := c.current; fc != nil; fc = fc.enclosing {
		if fc.function != nil {
			mark(fc.function)
		}
	}
}

func (c *Compiler) compileError() error {
	msgs := make([]string, len(c.errors))
	for i, e := range c.errors {
		msgs[i] = e.Error()
	}
	return kerr.New(strings.Join(msgs, "\n"))
}

// ---- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		if c.resumeString {
			c.resumeString = false
			c.cur = c.lx.ResumeString()
		} else {
			c.cur = c.lx.NextToken()
		}
		if c.cur.Kind != token.Illegal {
			return
		}
		c.errorAtCurrent(c.cur.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.cur.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.check(k) {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// ---- error reporting ----------------------------------------------------

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := fmt.Sprintf("at '%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = "at end"
	}
	err := &kerr.CompileError{
		Location: kerr.Location{Line: tok.Line},
		Message:  fmt.Sprintf("Error %s: %s", where, msg),
	}
	c.errors = append(c.errors, err)
	log.WithField("line", tok.Line).Debug(err.Message)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.cur, msg) }
func (c *Compiler) errorAtPrev(msg string)    { c.errorAt(c.prev, msg) }

func (c *Compiler) synchronize() {
	c.panicMode = false
	for !c.check(token.EOF) {
		if c.prev.Kind == token.Semicolon {
			return
		}
		switch c.cur.Kind {
		case token.Klasi, token.Funson, token.Mimoria, token.Si, token.Timenti,
			token.Di, token.Pa, token.Divolvi, token.Imprimi:
			return
		}
		c.advance()
	}
}

// ---- bytecode emission ---------------------------------------------------

func (c *Compiler) currentChunk() *heap.Chunk { return c.current.function.Chunk }

func (c *Compiler) emitByte(b byte)       { c.currentChunk().Write(b, c.prev.Line) }
func (c *Compiler) emitOpcode(op heap.Opcode) { c.currentChunk().WriteOpcode(op, c.prev.Line) }

func (c *Compiler) emitConstant(v heap.Value) {
	idx := c.currentChunk().AddConstant(v)
	if idx > 0xFFFFFF {
		c.errorAtPrev("too many constants in one chunk")
		return
	}
	c.currentChunk().WriteConstant(idx, c.prev.Line)
}

func (c *Compiler) emitJump(op heap.Opcode) int {
	c.emitOpcode(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xFFFF {
		c.errorAtPrev("too much code to jump over")
		return
	}
	c.currentChunk().PatchUint16(offset, uint16(jump))
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOpcode(heap.OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xFFFF {
		c.errorAtPrev("loop body too large")
		return
	}
	c.currentChunk().WriteUint16(uint16(offset), c.prev.Line)
}

func (c *Compiler) emitReturn() {
	if c.current.kind == KindInitializer {
		c.emitOpcode(heap.OpLocalRead)
		c.emitByte(0)
	} else {
		c.emitOpcode(heap.OpNil)
	}
	c.emitOpcode(heap.OpReturn)
}

func (c *Compiler) identifierConstant(name string) int {
	s := c.heap.NewString(name)
	return c.currentChunk().AddConstant(heap.FromObject(s))
}

// ---- scopes and locals ----------------------------------------------------

func (c *Compiler) beginScope() { c.current.scopeDepth++ }

func (c *Compiler) endScope() {
	fc := c.current
	fc.scopeDepth--
	for len(fc.locals) > 0 && fc.locals[len(fc.locals)-1].depth > fc.scopeDepth {
		if fc.locals[len(fc.locals)-1].captured {
			c.emitOpcode(heap.OpCloseHeapValue)
		} else {
			c.emitOpcode(heap.OpPop)
		}
		fc.locals = fc.locals[:len(fc.locals)-1]
	}
}

// discardLocalsAbove emits the same per-local cleanup endScope would, but
// without popping the compiler's notion of those locals: used by sai/salta
// to unwind nested block scopes on an early-exit path while leaving the
// locals bookkeeping intact for the loop body's normal fall-through exit.
func (c *Compiler) discardLocalsAbove(depth int) {
	fc := c.current
	for i := len(fc.locals) - 1; i >= 0 && fc.locals[i].depth > depth; i-- {
		if fc.locals[i].captured {
			c.emitOpcode(heap.OpCloseHeapValue)
		} else {
			c.emitOpcode(heap.OpPop)
		}
	}
}

func (c *Compiler) addLocal(name string) {
	if len(c.current.locals) >= 256 {
		c.errorAtPrev("too many local variables in function")
		return
	}
	c.current.locals = append(c.current.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable(name string) {
	if c.current.scopeDepth == 0 {
		return
	}
	fc := c.current
	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := fc.locals[i]
		if l.depth != -1 && l.depth < fc.scopeDepth {
			break
		}
		if l.name == name {
			c.errorAtPrev("already a variable with this name in this scope")
		}
	}
	c.addLocal(name)
}

// parseVariable consumes a name identifier, declaring it as a local if
// inside a scope, and returns the global constant index to use with
// defineVariable (meaningless when the declaration turned out to be local).
func (c *Compiler) parseVariable(msg string) int {
	c.consume(token.Identifier, msg)
	name := c.prev.Lexeme
	c.declareVariable(name)
	if c.current.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) markInitialized() {
	if c.current.scopeDepth == 0 {
		return
	}
	c.current.locals[len(c.current.locals)-1].depth = c.current.scopeDepth
}

func (c *Compiler) defineVariable(global int) {
	if c.current.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpcode(heap.OpDefineGlobal)
	c.emitByte(byte(global))
}

func (c *Compiler) resolveLocal(fc *functionCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				c.errorAtPrev("can't read local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) resolveCapture(fc *functionCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if idx := c.resolveLocal(fc.enclosing, name); idx != -1 {
		fc.enclosing.locals[idx].captured = true
		return c.addCapture(fc, idx, heap.ParentStack)
	}
	if idx := c.resolveCapture(fc.enclosing, name); idx != -1 {
		return c.addCapture(fc, idx, heap.ParentHeap)
	}
	return -1
}

func (c *Compiler) addCapture(fc *functionCompiler, index int, location heap.CaptureLocation) int {
	_, existing, found := lo.FindIndexOf(fc.captures, func(cp capture) bool {
		return cp.index == index && cp.location == location
	})
	if found {
		return existing
	}
	if len(fc.captures) >= 256 {
		c.errorAtPrev("too many captured variables in function")
	}
	fc.captures = append(fc.captures, capture{index: index, location: location})
	return len(fc.captures) - 1
}

// ---- declarations and statements -----------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Klasi):
		c.classDeclaration()
	case c.match(token.Funson):
		c.funDeclaration()
	case c.match(token.Mimoria):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("expect variable name")
	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitOpcode(heap.OpNil)
	}
	c.consume(token.Semicolon, "expect ';' after variable declaration")
	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("expect function name")
	c.markInitialized()
	c.function(KindFunction)
	c.defineVariable(global)
}

// function compiles a parameter list and body into a fresh functionCompiler,
// then emits a MakeClosure instruction (plus its inline capture descriptors)
// into the *enclosing* function's chunk. c.prev must hold the function's
// name token on entry (the caller consumed it via parseVariable or as a
// method name).
func (c *Compiler) function(kind FunctionKind) {
	name := c.prev.Lexeme
	fc := &functionCompiler{enclosing: c.current, kind: kind}
	fc.function = c.heap.NewFunction(name, 0, 0)

	slot0 := ""
	if kind == KindMethod || kind == KindInitializer {
		slot0 = "keli"
	}
	fc.locals = append(fc.locals, local{name: slot0, depth: 0})
	c.current = fc

	c.beginScope()
	c.consume(token.LeftParen, "expect '(' after function name")
	if !c.check(token.RightParen) {
		for {
			fc.function.Arity++
			if fc.function.Arity > 255 {
				c.errorAtCurrent("can't have more than 255 parameters")
			}
			paramGlobal := c.parseVariable("expect parameter name")
			c.defineVariable(paramGlobal)
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "expect ')' after parameters")
	c.consume(token.LeftBrace, "expect '{' before function body")
	c.block()
	c.emitReturn()

	fn := fc.function
	fn.CaptureCount = len(fc.captures)
	captures := fc.captures
	c.current = fc.enclosing

	idx := c.currentChunk().AddConstant(heap.FromObject(fn))
	c.emitOpcode(heap.OpMakeClosure)
	c.emitByte(byte(idx))
	for _, cp := range captures {
		c.emitByte(byte(cp.location))
		c.emitByte(byte(cp.index))
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.Identifier, "expect class name")
	name := c.prev.Lexeme
	nameConst := c.identifierConstant(name)
	c.declareVariable(name)

	c.emitOpcode(heap.OpClass)
	c.emitByte(byte(nameConst))
	c.defineVariable(nameConst)

	cc := &classCompiler{enclosing: c.class}
	c.class = cc

	if c.match(token.Less) {
		c.consume(token.Identifier, "expect superclass name")
		superName := c.prev.Lexeme
		if superName == name {
			c.errorAtPrev("a class can't inherit from itself")
		}
		// The superclass stays on the stack as the hidden local "super".
		c.namedVariable(superName, false)
		c.beginScope()
		c.addLocal("super")
		c.markInitialized()
		cc.hasSuperclass = true
	}

	c.namedVariable(name, false) // push the class; stays on stack through inherit + methods

	if cc.hasSuperclass {
		c.namedVariable("super", false)
		c.emitOpcode(heap.OpInherit) // pops the superclass copy, leaving the class
	}

	c.consume(token.LeftBrace, "expect '{' before class body")
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RightBrace, "expect '}' after class body")
	c.emitOpcode(heap.OpPop) // discard the class reference pushed above

	if cc.hasSuperclass {
		c.endScope()
	}
	c.class = cc.enclosing
}

func (c *Compiler) method() {
	c.consume(token.Identifier, "expect method name")
	name := c.prev.Lexeme
	constant := c.identifierConstant(name)

	kind := KindMethod
	if name == "konstrutor" {
		kind = KindInitializer
	}
	c.function(kind)

	c.emitOpcode(heap.OpMethod)
	c.emitByte(byte(constant))
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Imprimi):
		c.printStatement()
	case c.match(token.Si):
		c.ifStatement()
	case c.match(token.Timenti):
		c.whileStatement()
	case c.match(token.Di) || c.match(token.Pa):
		c.forStatement()
	case c.match(token.Divolvi):
		c.returnStatement()
	case c.match(token.Sai):
		c.breakStatement()
	case c.match(token.Salta):
		c.continueStatement()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RightBrace, "expect '}' after block")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after value")
	c.emitOpcode(heap.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after expression")
	c.emitOpcode(heap.OpPop)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LeftParen, "expect '(' after 'si'")
	c.expression()
	c.consume(token.RightParen, "expect ')' after condition")

	thenJump := c.emitJump(heap.OpJumpIfFalse)
	c.emitOpcode(heap.OpPop)
	c.statement()

	elseJump := c.emitJump(heap.OpJump)
	c.patchJump(thenJump)
	c.emitOpcode(heap.OpPop)

	if c.match(token.Sinou) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	lp := &loopContext{enclosing: c.loop, continueTarget: loopStart, scopeDepth: c.current.scopeDepth}
	c.loop = lp

	c.consume(token.LeftParen, "expect '(' after 'timenti'")
	c.expression()
	c.consume(token.RightParen, "expect ')' after condition")

	exitJump := c.emitJump(heap.OpJumpIfFalse)
	c.emitOpcode(heap.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOpcode(heap.OpPop)

	for _, j := range lp.breakJumps {
		c.patchJump(j)
	}
	c.loop = lp.enclosing
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LeftParen, "expect '(' after 'di'/'pa'")

	switch {
	case c.match(token.Semicolon):
	case c.match(token.Mimoria):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	condStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.match(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "expect ';' after loop condition")
		exitJump = c.emitJump(heap.OpJumpIfFalse)
		c.emitOpcode(heap.OpPop)
	}

	incrStart := condStart
	if !c.check(token.RightParen) {
		bodyJump := c.emitJump(heap.OpJump)
		incrStart = len(c.currentChunk().Code)
		c.expression()
		c.emitOpcode(heap.OpPop)
		c.consume(token.RightParen, "expect ')' after for clauses")
		c.emitLoop(condStart)
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RightParen, "expect ')' after for clauses")
	}

	lp := &loopContext{enclosing: c.loop, continueTarget: incrStart, scopeDepth: c.current.scopeDepth}
	c.loop = lp

	c.statement()
	c.emitLoop(incrStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOpcode(heap.OpPop)
	}

	for _, j := range lp.breakJumps {
		c.patchJump(j)
	}
	c.loop = lp.enclosing

	c.endScope()
}

func (c *Compiler) breakStatement() {
	if c.loop == nil {
		c.errorAtPrev("'sai' used outside a loop")
		return
	}
	c.consume(token.Semicolon, "expect ';' after 'sai'")
	c.discardLocalsAbove(c.loop.scopeDepth)
	j := c.emitJump(heap.OpJump)
	c.loop.breakJumps = append(c.loop.breakJumps, j)
}

func (c *Compiler) continueStatement() {
	if c.loop == nil {
		c.errorAtPrev("'salta' used outside a loop")
		return
	}
	c.consume(token.Semicolon, "expect ';' after 'salta'")
	c.discardLocalsAbove(c.loop.scopeDepth)
	c.emitLoop(c.loop.continueTarget)
}

func (c *Compiler) returnStatement() {
	if c.current.kind == KindScript {
		c.errorAtPrev("can't return from top-level code")
	}
	if c.match(token.Semicolon) {
		c.emitReturn()
		return
	}
	if c.current.kind == KindInitializer {
		c.errorAtPrev("can't return a value from an initializer")
	}
	c.expression()
	c.consume(token.Semicolon, "expect ';' after return value")
	c.emitOpcode(heap.OpReturn)
}

// ---- expressions (Pratt) --------------------------------------------------

func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := getRule(c.prev.Kind).prefix
	if prefix == nil {
		c.errorAtPrev("expect expression")
		return
	}
	canAssign := prec <= PrecAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.cur.Kind).precedence {
		c.advance()
		infix := getRule(c.prev.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.errorAtPrev("invalid assignment target")
	}
}

func (c *Compiler) number(canAssign bool) {
	n, _ := strconv.ParseFloat(c.prev.Lexeme, 64)
	c.emitConstant(heap.Number(n))
}

func (c *Compiler) string_(canAssign bool) {
	c.pushStringConstant(c.prev.Lexeme)
}

func (c *Compiler) pushStringConstant(s string) {
	obj := c.heap.NewString(s)
	c.emitConstant(heap.FromObject(obj))
}

// interpolation compiles a templated string literal into a sequence of
// constant/expression pushes terminated by Interpolate n (spec.md §4.2,
// §6). c.prev holds the InterpolationStart token (the literal text before
// the first "{") when this is called.
func (c *Compiler) interpolation(canAssign bool) {
	n := 0
	c.pushStringConstant(c.prev.Lexeme)
	n++

	for {
		c.expression()
		n++

		if !c.check(token.InterpolationEnd) {
			c.errorAtCurrent("expect '}' to close interpolated expression")
			break
		}
		c.resumeString = true
		c.advance() // prev = InterpolationEnd, cur = resumed string/InterpolationStart

		switch c.cur.Kind {
		case token.String:
			c.advance()
			c.pushStringConstant(c.prev.Lexeme)
			n++
			goto done
		case token.InterpolationStart:
			c.advance()
			c.pushStringConstant(c.prev.Lexeme)
			n++
			continue
		default:
			c.errorAtCurrent("malformed string interpolation")
			goto done
		}
	}
done:
	c.emitOpcode(heap.OpInterpolate)
	c.emitByte(byte(n))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.prev.Kind {
	case token.Verdadi:
		c.emitOpcode(heap.OpTrue)
	case token.Falsu:
		c.emitOpcode(heap.OpFalse)
	case token.Nulo:
		c.emitOpcode(heap.OpNil)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RightParen, "expect ')' after expression")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.prev.Kind
	c.parsePrecedence(PrecUnary)
	switch opType {
	case token.Minus:
		c.emitOpcode(heap.OpNegate)
	case token.Ka:
		c.emitOpcode(heap.OpNot)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.prev.Kind
	r := getRule(opType)
	nextPrec := r.precedence + 1
	if opType == token.Caret {
		nextPrec = r.precedence // right-associative
	}
	c.parsePrecedence(nextPrec)

	switch opType {
	case token.Plus:
		c.emitOpcode(heap.OpAdd)
	case token.Minus:
		c.emitOpcode(heap.OpSubtract)
	case token.Star:
		c.emitOpcode(heap.OpMultiply)
	case token.Slash:
		c.emitOpcode(heap.OpDivide)
	case token.Caret:
		c.emitOpcode(heap.OpPower)
	case token.EqualEqual:
		c.emitOpcode(heap.OpEqual)
	case token.BangEqual:
		c.emitOpcode(heap.OpEqual)
		c.emitOpcode(heap.OpNot)
	case token.Greater:
		c.emitOpcode(heap.OpGreater)
	case token.GreaterEqual:
		c.emitOpcode(heap.OpLess)
		c.emitOpcode(heap.OpNot)
	case token.Less:
		c.emitOpcode(heap.OpLess)
	case token.LessEqual:
		c.emitOpcode(heap.OpGreater)
		c.emitOpcode(heap.OpNot)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(heap.OpJumpIfFalse)
	c.emitOpcode(heap.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(heap.OpJumpIfFalse)
	endJump := c.emitJump(heap.OpJump)
	c.patchJump(elseJump)
	c.emitOpcode(heap.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList(token.RightParen)
	c.emitOpcode(heap.OpCall)
	c.emitByte(byte(argc))
}

// callClass compiles the "ClassName{args}" instantiation form (spec.md's
// testable scenario 5: "B{}.saluda();"): c.prev is the "{" already consumed
// by the Pratt loop as an infix token.
func (c *Compiler) callClass(canAssign bool) {
	argc := c.argumentList(token.RightBrace)
	c.emitOpcode(heap.OpCallClass)
	c.emitByte(byte(argc))
}

func (c *Compiler) argumentList(closing token.Kind) int {
	argc := 0
	if !c.check(closing) {
		for {
			c.expression()
			if argc == 255 {
				c.errorAtPrev("can't have more than 255 arguments")
			}
			argc++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	if closing == token.RightParen {
		c.consume(token.RightParen, "expect ')' after arguments")
	} else {
		c.consume(token.RightBrace, "expect '}' after arguments")
	}
	return argc
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.Identifier, "expect property name after '.'")
	name := c.prev.Lexeme
	nameConst := c.identifierConstant(name)

	switch {
	case canAssign && c.match(token.Equal):
		c.expression()
		c.emitOpcode(heap.OpSetProperty)
		c.emitByte(byte(nameConst))
	case c.match(token.LeftParen):
		argc := c.argumentList(token.RightParen)
		c.emitOpcode(heap.OpInvoke)
		c.emitByte(byte(nameConst))
		c.emitByte(byte(argc))
	default:
		c.emitOpcode(heap.OpGetProperty)
		c.emitByte(byte(nameConst))
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.prev.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp heap.Opcode
	var arg int

	if idx := c.resolveLocal(c.current, name); idx != -1 {
		arg, getOp, setOp = idx, heap.OpLocalRead, heap.OpLocalWrite
	} else if idx := c.resolveCapture(c.current, name); idx != -1 {
		arg, getOp, setOp = idx, heap.OpCapturedRead, heap.OpCapturedWrite
	} else {
		arg, getOp, setOp = c.identifierConstant(name), heap.OpReadGlobal, heap.OpAssignGlobal
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitOpcode(setOp)
		c.emitByte(byte(arg))
		return
	}
	c.emitOpcode(getOp)
	c.emitByte(byte(arg))
}

func (c *Compiler) this_(canAssign bool) {
	if c.class == nil {
		c.errorAtPrev("'keli' used outside a class")
		return
	}
	c.namedVariable("keli", false)
}

func (c *Compiler) super_(canAssign bool) {
	if c.class == nil {
		c.errorAtPrev("'riba' used outside a class")
	} else if !c.class.hasSuperclass {
		c.errorAtPrev("'riba' used in a class with no superclass")
	}
	c.consume(token.Dot, "expect '.' after 'riba'")
	c.consume(token.Identifier, "expect superclass method name")
	name := c.prev.Lexeme
	nameConst := c.identifierConstant(name)

	c.namedVariable("keli", false)
	if c.match(token.LeftParen) {
		argc := c.argumentList(token.RightParen)
		c.namedVariable("super", false)
		c.emitOpcode(heap.OpInvokeSuper)
		c.emitByte(byte(nameConst))
		c.emitByte(byte(argc))
		return
	}
	c.namedVariable("super", false)
	c.emitOpcode(heap.OpGetSuper)
	c.emitByte(byte(nameConst))
}
