package lang

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rmay/loxvm/pkg/vm"
)

// Precedence is the compiler's precedence ladder, low to high.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . (
	PrecPrimary
)

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[TokenType]parseRule

func init() {
	rules = map[TokenType]parseRule{
		TokenLeftParen:    {grouping, call, PrecCall},
		TokenDot:          {nil, dot, PrecCall},
		TokenMinus:        {unary, binary, PrecTerm},
		TokenPlus:         {nil, binary, PrecTerm},
		TokenSlash:        {nil, binary, PrecFactor},
		TokenStar:         {nil, binary, PrecFactor},
		TokenBang:         {unary, nil, PrecNone},
		TokenBangEqual:    {nil, binary, PrecEquality},
		TokenEqualEqual:   {nil, binary, PrecEquality},
		TokenGreater:      {nil, binary, PrecComparison},
		TokenGreaterEqual: {nil, binary, PrecComparison},
		TokenLess:         {nil, binary, PrecComparison},
		TokenLessEqual:    {nil, binary, PrecComparison},
		TokenIdentifier:   {variable, nil, PrecNone},
		TokenString:       {stringLit, nil, PrecNone},
		TokenNumber:       {number, nil, PrecNone},
		TokenAnd:          {nil, and_, PrecAnd},
		TokenOr:           {nil, or_, PrecOr},
		TokenFalse:        {literal, nil, PrecNone},
		TokenTrue:         {literal, nil, PrecNone},
		TokenNil:          {literal, nil, PrecNone},
		TokenThis:         {this_, nil, PrecNone},
	}
}

func getRule(t TokenType) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{nil, nil, PrecNone}
}

// FunctionType tags what a compiler frame is building.
type FunctionType int

const (
	TypeFunction FunctionType = iota
	TypeScript
	TypeMethod
	TypeInitializer
)

// local is a declared local variable; depth -1 marks "declared but not
// yet initialized" so a variable can't refer to itself in its own
// initializer.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcCompiler is one frame of the compiler's state stack: one per
// function currently being compiled, chained through enclosing so
// nested functions can resolve outer locals as upvalues.
type funcCompiler struct {
	enclosing  *funcCompiler
	function   *vm.ObjFunction
	fnType     FunctionType
	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

type classCompiler struct {
	enclosing *classCompiler
}

// Parser drives the single-pass parser/emitter: every production both
// recognizes syntax and emits bytecode for it directly, with no
// intermediate tree.
type Parser struct {
	scanner *Scanner
	vm      *vm.VM

	current  Token
	previous Token

	hadError  bool
	panicMode bool
	errOut    io.Writer

	compiler *funcCompiler
	class    *classCompiler

	trace bool
}

// MarkRoots implements vm.CompilerRoots: every function under active
// compilation is reachable only from this chain, so it must be marked
// during a collection that happens mid-compile.
func (p *Parser) MarkRoots(mark func(vm.Obj)) {
	for c := p.compiler; c != nil; c = c.enclosing {
		mark(c.function)
	}
}

// Compile turns source into a top-level script function, or an error if
// any compile-time error was reported. Passing trace=true writes a
// "Scanner: ..." line per token and a "Compiler: ..." line per
// parsePrecedence call to stderr.
func Compile(source string, v *vm.VM, trace ...bool) (*vm.ObjFunction, error) {
	traceEnabled := len(trace) > 0 && trace[0]

	p := &Parser{
		scanner: NewScanner(source),
		vm:      v,
		errOut:  os.Stderr,
		trace:   traceEnabled,
	}
	if traceEnabled {
		p.scanner.SetTrace(p.errOut)
	}
	v.SetCompilerRoots(p)
	defer v.SetCompilerRoots(nil)

	p.compiler = &funcCompiler{
		function: vm.NewFunction(),
		fnType:   TypeScript,
	}
	// Slot 0 is reserved: the callee itself for the script/a plain
	// function, the receiver for a method.
	p.compiler.locals = append(p.compiler.locals, local{name: "", depth: 0})

	p.advance()
	for !p.match(TokenEOF) {
		p.declaration()
	}
	p.consume(TokenEOF, "Expect end of expression.")

	fn := p.endCompiler()
	if p.hadError {
		return nil, fmt.Errorf("compile error")
	}
	return fn, nil
}

// --- token stream plumbing ---

func (p *Parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.ScanToken()
		if p.current.Type != TokenError {
			break
		}
		p.errorAtCurrent(p.current.Message)
	}
}

func (p *Parser) consume(t TokenType, message string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *Parser) check(t TokenType) bool { return p.current.Type == t }

func (p *Parser) match(t TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) errorAtCurrent(message string) { p.errorAt(p.current, message) }
func (p *Parser) error(message string)          { p.errorAt(p.previous, message) }

func (p *Parser) errorAt(tok Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	where := "at '" + tok.Lexeme + "'"
	if tok.Type == TokenEOF {
		where = "at end"
	} else if tok.Type == TokenError {
		where = ""
		message = tok.Message
	}
	if where == "" {
		fmt.Fprintf(p.errOut, "[line %d] Error: %s\n", tok.Line, message)
	} else {
		fmt.Fprintf(p.errOut, "[line %d] Error %s: %s\n", tok.Line, where, message)
	}
	p.hadError = true
}

// synchronize skips tokens until a plausible statement boundary, ending
// panic mode so later errors on the same parse are reported too.
func (p *Parser) synchronize() {
	p.panicMode = false
	for p.current.Type != TokenEOF {
		if p.previous.Type == TokenSemicolon {
			return
		}
		switch p.current.Type {
		case TokenClass, TokenFun, TokenVar, TokenFor, TokenIf, TokenWhile, TokenPrint, TokenReturn:
			return
		}
		p.advance()
	}
}

// --- emission helpers ---

func (p *Parser) currentChunk() *vm.Chunk { return p.compiler.function.Chunk }

func (p *Parser) emitByte(b byte) { p.currentChunk().Write(b, p.previous.Line) }

func (p *Parser) emitOp(op vm.OpCode) { p.emitByte(byte(op)) }

func (p *Parser) emitOpByte(op vm.OpCode, b byte) {
	p.emitOp(op)
	p.emitByte(b)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(vm.OpLoop)
	offset := len(p.currentChunk().Code) - loopStart + 2
	if offset > 65535 {
		p.error("Loop body too large.")
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset & 0xff))
}

func (p *Parser) emitJump(op vm.OpCode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.currentChunk().Code) - 2
}

func (p *Parser) patchJump(offset int) {
	jump := len(p.currentChunk().Code) - offset - 2
	if jump > 65535 {
		p.error("Too much code to jump over.")
	}
	p.currentChunk().Code[offset] = byte(jump >> 8)
	p.currentChunk().Code[offset+1] = byte(jump & 0xff)
}

func (p *Parser) makeConstant(v vm.Value) byte {
	constant := p.currentChunk().AddConstant(v)
	if constant > 255 {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return byte(constant)
}

func (p *Parser) emitConstant(v vm.Value) {
	p.emitOpByte(vm.OpConstant, p.makeConstant(v))
}

func (p *Parser) emitReturn() {
	if p.compiler.fnType == TypeInitializer {
		p.emitOpByte(vm.OpGetLocal, 0)
	} else {
		p.emitOp(vm.OpNil)
	}
	p.emitOp(vm.OpReturn)
}

func (p *Parser) endCompiler() *vm.ObjFunction {
	p.emitReturn()
	fn := p.compiler.function
	p.compiler = p.compiler.enclosing
	return fn
}

// --- scopes, locals, upvalues ---

func (p *Parser) beginScope() { p.compiler.scopeDepth++ }

func (p *Parser) endScope() {
	p.compiler.scopeDepth--
	locals := p.compiler.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.compiler.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emitOp(vm.OpCloseUpvalue)
		} else {
			p.emitOp(vm.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	p.compiler.locals = locals
}

func (p *Parser) resolveLocal(c *funcCompiler, name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			if c.locals[i].depth == -1 {
				p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (p *Parser) addUpvalue(c *funcCompiler, index byte, isLocal bool) int {
	for i, uv := range c.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) == 256 {
		p.error("Too many closure variables in function.")
		return 0
	}
	c.upvalues = append(c.upvalues, upvalueRef{index: index, isLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1
}

func (p *Parser) resolveUpvalue(c *funcCompiler, name string) int {
	if c.enclosing == nil {
		return -1
	}
	if local := p.resolveLocal(c.enclosing, name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return p.addUpvalue(c, byte(local), true)
	}
	if upvalue := p.resolveUpvalue(c.enclosing, name); upvalue != -1 {
		return p.addUpvalue(c, byte(upvalue), false)
	}
	return -1
}

func (p *Parser) addLocal(name string) {
	if len(p.compiler.locals) == 256 {
		p.error("Too many local variables in function.")
		return
	}
	p.compiler.locals = append(p.compiler.locals, local{name: name, depth: -1})
}

func (p *Parser) declareVariable() {
	if p.compiler.scopeDepth == 0 {
		return
	}
	name := p.previous.Lexeme
	for i := len(p.compiler.locals) - 1; i >= 0; i-- {
		l := p.compiler.locals[i]
		if l.depth != -1 && l.depth < p.compiler.scopeDepth {
			break
		}
		if name == l.name {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *Parser) identifierConstant(name string) byte {
	return p.makeConstant(vm.ObjValue(p.vm.NewString(name)))
}

func (p *Parser) parseVariable(errorMessage string) byte {
	p.consume(TokenIdentifier, errorMessage)
	p.declareVariable()
	if p.compiler.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.previous.Lexeme)
}

func (p *Parser) markInitialized() {
	if p.compiler.scopeDepth == 0 {
		return
	}
	p.compiler.locals[len(p.compiler.locals)-1].depth = p.compiler.scopeDepth
}

func (p *Parser) defineVariable(global byte) {
	if p.compiler.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitOpByte(vm.OpDefineGlobal, global)
}

func (p *Parser) argumentList() byte {
	argCount := 0
	if !p.check(TokenRightParen) {
		for {
			p.expression()
			if argCount == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !p.match(TokenComma) {
				break
			}
		}
	}
	p.consume(TokenRightParen, "Expect ')' after arguments.")
	return byte(argCount)
}

// --- Pratt parser core ---

func (p *Parser) parsePrecedence(prec Precedence) {
	p.advance()
	if p.trace {
		fmt.Fprintf(p.errOut, "Compiler: line=%d token=%q prec=%d\n", p.previous.Line, p.previous.Lexeme, prec)
	}
	prefixRule := getRule(p.previous.Type).prefix
	if prefixRule == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	prefixRule(p, canAssign)

	for prec <= getRule(p.current.Type).precedence {
		p.advance()
		infixRule := getRule(p.previous.Type).infix
		infixRule(p, canAssign)
	}

	if canAssign && p.match(TokenEqual) {
		p.error("Invalid assignment target.")
	}
}

func (p *Parser) expression() { p.parsePrecedence(PrecAssignment) }

// --- expression rules ---

func number(p *Parser, canAssign bool) {
	v, _ := strconv.ParseFloat(p.previous.Lexeme, 64)
	p.emitConstant(vm.NumberValue(v))
}

// stringLit strips the surrounding quotes and keeps the rest verbatim:
// no escape sequences are processed.
func stringLit(p *Parser, canAssign bool) {
	raw := p.previous.Lexeme
	text := raw[1 : len(raw)-1]
	p.emitConstant(vm.ObjValue(p.vm.NewString(text)))
}

func literal(p *Parser, canAssign bool) {
	switch p.previous.Type {
	case TokenFalse:
		p.emitOp(vm.OpFalse)
	case TokenTrue:
		p.emitOp(vm.OpTrue)
	case TokenNil:
		p.emitOp(vm.OpNil)
	}
}

func grouping(p *Parser, canAssign bool) {
	p.expression()
	p.consume(TokenRightParen, "Expect ')' after expression.")
}

func unary(p *Parser, canAssign bool) {
	opType := p.previous.Type
	p.parsePrecedence(PrecUnary)
	switch opType {
	case TokenBang:
		p.emitOp(vm.OpNot)
	case TokenMinus:
		p.emitOp(vm.OpNegate)
	}
}

func binary(p *Parser, canAssign bool) {
	opType := p.previous.Type
	rule := getRule(opType)
	p.parsePrecedence(rule.precedence + 1)

	switch opType {
	case TokenBangEqual:
		p.emitOp(vm.OpEqual)
		p.emitOp(vm.OpNot)
	case TokenEqualEqual:
		p.emitOp(vm.OpEqual)
	case TokenGreater:
		p.emitOp(vm.OpGreater)
	case TokenGreaterEqual:
		p.emitOp(vm.OpLess)
		p.emitOp(vm.OpNot)
	case TokenLess:
		p.emitOp(vm.OpLess)
	case TokenLessEqual:
		p.emitOp(vm.OpGreater)
		p.emitOp(vm.OpNot)
	case TokenPlus:
		p.emitOp(vm.OpAdd)
	case TokenMinus:
		p.emitOp(vm.OpSubtract)
	case TokenStar:
		p.emitOp(vm.OpMultiply)
	case TokenSlash:
		p.emitOp(vm.OpDivide)
	}
}

func call(p *Parser, canAssign bool) {
	argCount := p.argumentList()
	p.emitOpByte(vm.OpCall, argCount)
}

// dot compiles `.name`, fusing a trailing call directly into OP_INVOKE
// instead of GET_PROPERTY followed by CALL.
func dot(p *Parser, canAssign bool) {
	p.consume(TokenIdentifier, "Expect property name after '.'.")
	name := p.identifierConstant(p.previous.Lexeme)

	if canAssign && p.match(TokenEqual) {
		p.expression()
		p.emitOpByte(vm.OpSetProperty, name)
	} else if p.match(TokenLeftParen) {
		argCount := p.argumentList()
		p.emitOp(vm.OpInvoke)
		p.emitByte(name)
		p.emitByte(argCount)
	} else {
		p.emitOpByte(vm.OpGetProperty, name)
	}
}

func and_(p *Parser, canAssign bool) {
	endJump := p.emitJump(vm.OpJumpIfFalse)
	p.emitOp(vm.OpPop)
	p.parsePrecedence(PrecAnd)
	p.patchJump(endJump)
}

func or_(p *Parser, canAssign bool) {
	elseJump := p.emitJump(vm.OpJumpIfFalse)
	endJump := p.emitJump(vm.OpJump)
	p.patchJump(elseJump)
	p.emitOp(vm.OpPop)
	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}

func (p *Parser) namedVariable(name string, canAssign bool) {
	var getOp, setOp vm.OpCode
	arg := p.resolveLocal(p.compiler, name)
	if arg != -1 {
		getOp, setOp = vm.OpGetLocal, vm.OpSetLocal
	} else if arg = p.resolveUpvalue(p.compiler, name); arg != -1 {
		getOp, setOp = vm.OpGetUpvalue, vm.OpSetUpvalue
	} else {
		arg = int(p.identifierConstant(name))
		getOp, setOp = vm.OpGetGlobal, vm.OpSetGlobal
	}

	if canAssign && p.match(TokenEqual) {
		p.expression()
		p.emitOpByte(setOp, byte(arg))
	} else {
		p.emitOpByte(getOp, byte(arg))
	}
}

func variable(p *Parser, canAssign bool) { p.namedVariable(p.previous.Lexeme, canAssign) }

// this_ resolves `this` to slot 0 of the enclosing method frame; it is a
// compile error outside any class body.
func this_(p *Parser, canAssign bool) {
	if p.class == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	variable(p, false)
}

// --- statements ---

func (p *Parser) declaration() {
	switch {
	case p.match(TokenClass):
		p.classDeclaration()
	case p.match(TokenFun):
		p.funDeclaration()
	case p.match(TokenVar):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(TokenPrint):
		p.printStatement()
	case p.match(TokenFor):
		p.forStatement()
	case p.match(TokenIf):
		p.ifStatement()
	case p.match(TokenReturn):
		p.returnStatement()
	case p.match(TokenWhile):
		p.whileStatement()
	case p.match(TokenLeftBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(TokenSemicolon, "Expect ';' after value.")
	p.emitOp(vm.OpPrint)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(TokenSemicolon, "Expect ';' after expression.")
	p.emitOp(vm.OpPop)
}

func (p *Parser) block() {
	for !p.check(TokenRightBrace) && !p.check(TokenEOF) {
		p.declaration()
	}
	p.consume(TokenRightBrace, "Expect '}' after block.")
}

func (p *Parser) ifStatement() {
	p.consume(TokenLeftParen, "Expect '(' after 'if'.")
	p.expression()
	p.consume(TokenRightParen, "Expect ')' after condition.")

	thenJump := p.emitJump(vm.OpJumpIfFalse)
	p.emitOp(vm.OpPop)
	p.statement()

	elseJump := p.emitJump(vm.OpJump)
	p.patchJump(thenJump)
	p.emitOp(vm.OpPop)

	if p.match(TokenElse) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)
	p.consume(TokenLeftParen, "Expect '(' after 'while'.")
	p.expression()
	p.consume(TokenRightParen, "Expect ')' after condition.")

	exitJump := p.emitJump(vm.OpJumpIfFalse)
	p.emitOp(vm.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(vm.OpPop)
}

// forStatement desugars into the initializer, condition-guarded exit
// jump, and an incrementer spliced in after the body via a pair of
// jumps — the standard clause-by-clause expansion into while-shaped
// bytecode.
func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(TokenLeftParen, "Expect '(' after 'for'.")

	switch {
	case p.match(TokenSemicolon):
		// no initializer
	case p.match(TokenVar):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.currentChunk().Code)
	exitJump := -1
	if !p.match(TokenSemicolon) {
		p.expression()
		p.consume(TokenSemicolon, "Expect ';' after loop condition.")
		exitJump = p.emitJump(vm.OpJumpIfFalse)
		p.emitOp(vm.OpPop)
	}

	if !p.match(TokenRightParen) {
		bodyJump := p.emitJump(vm.OpJump)
		incrStart := len(p.currentChunk().Code)
		p.expression()
		p.emitOp(vm.OpPop)
		p.consume(TokenRightParen, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(vm.OpPop)
	}

	p.endScope()
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")
	if p.match(TokenEqual) {
		p.expression()
	} else {
		p.emitOp(vm.OpNil)
	}
	p.consume(TokenSemicolon, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

func (p *Parser) returnStatement() {
	if p.compiler.fnType == TypeScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(TokenSemicolon) {
		p.emitReturn()
		return
	}
	if p.compiler.fnType == TypeInitializer {
		p.error("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(TokenSemicolon, "Expect ';' after return value.")
	p.emitOp(vm.OpReturn)
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(TypeFunction)
	p.defineVariable(global)
}

func (p *Parser) function(fnType FunctionType) {
	enclosing := p.compiler
	fc := &funcCompiler{enclosing: enclosing, fnType: fnType, function: vm.NewFunction()}
	name := p.previous.Lexeme
	fc.function.Name = p.vm.NewString(name)
	receiverName := ""
	if fnType == TypeMethod || fnType == TypeInitializer {
		receiverName = "this"
	}
	fc.locals = append(fc.locals, local{name: receiverName, depth: 0})
	p.compiler = fc

	p.beginScope()
	p.consume(TokenLeftParen, "Expect '(' after function name.")
	if !p.check(TokenRightParen) {
		for {
			p.compiler.function.Arity++
			if p.compiler.function.Arity > 255 {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := p.parseVariable("Expect parameter name.")
			p.defineVariable(constant)
			if !p.match(TokenComma) {
				break
			}
		}
	}
	p.consume(TokenRightParen, "Expect ')' after parameters.")
	p.consume(TokenLeftBrace, "Expect '{' before function body.")
	p.block()

	fn := p.endCompiler()
	upvalues := fc.upvalues

	p.emitOp(vm.OpClosure)
	p.emitByte(p.makeConstant(vm.ObjValue(fn)))
	for _, uv := range upvalues {
		if uv.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(uv.index)
	}
}

func (p *Parser) method() {
	p.consume(TokenIdentifier, "Expect method name.")
	name := p.previous.Lexeme
	constant := p.identifierConstant(name)

	fnType := TypeMethod
	if name == "init" {
		fnType = TypeInitializer
	}
	p.function(fnType)
	p.emitOpByte(vm.OpMethod, constant)
}

func (p *Parser) classDeclaration() {
	p.consume(TokenIdentifier, "Expect class name.")
	className := p.previous.Lexeme
	nameConstant := p.identifierConstant(className)
	p.declareVariable()

	p.emitOpByte(vm.OpClass, nameConstant)
	p.defineVariable(nameConstant)

	cc := &classCompiler{enclosing: p.class}
	p.class = cc

	p.namedVariable(className, false)
	p.consume(TokenLeftBrace, "Expect '{' before class body.")
	for !p.check(TokenRightBrace) && !p.check(TokenEOF) {
		p.method()
	}
	p.consume(TokenRightBrace, "Expect '}' after class body.")
	p.emitOp(vm.OpPop)

	p.class = cc.enclosing
}
