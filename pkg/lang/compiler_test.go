package lang

import (
	"bytes"
	"io"
	"strconv"
	"testing"

	"github.com/rmay/loxvm/pkg/vm"
)

// ==========================================
// COMPILE + RUN HELPERS
// ==========================================

func runSource(t *testing.T, source string) (string, vm.InterpretResult) {
	t.Helper()
	machine := vm.NewVM()
	var out bytes.Buffer
	machine.Stdout = &out
	result := Interpret(machine, source, false)
	return out.String(), result
}

// ==========================================
// BASIC COMPILATION TESTS
// ==========================================

func TestCompileEmptyProgram(t *testing.T) {
	machine := vm.NewVM()
	fn, err := Compile("", machine)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if fn.Arity != 0 {
		t.Errorf("expected arity 0, got %d", fn.Arity)
	}
}

func TestCompileReportsSyntaxError(t *testing.T) {
	machine := vm.NewVM()
	_, err := Compile("1 +", machine)
	if err == nil {
		t.Fatal("expected a compile error")
	}
}

func TestCompileUnclosedBlock(t *testing.T) {
	machine := vm.NewVM()
	_, err := Compile("{ var a = 1;", machine)
	if err == nil {
		t.Fatal("expected a compile error for an unclosed block")
	}
}

// ==========================================
// END-TO-END SCENARIOS
// ==========================================

func TestArithmeticPrint(t *testing.T) {
	out, result := runSource(t, "print 1 + 2;")
	if result != vm.InterpretOK {
		t.Fatalf("expected success, got %v", result)
	}
	if out != "3\n" {
		t.Errorf("expected %q, got %q", "3\n", out)
	}
}

func TestStringConcatenation(t *testing.T) {
	out, _ := runSource(t, `var a = "st"; var b = "ring"; print a + b;`)
	if out != "string\n" {
		t.Errorf("expected %q, got %q", "string\n", out)
	}
}

func TestRecursiveFibonacci(t *testing.T) {
	out, _ := runSource(t, `
fun f(n) { if (n < 2) return n; return f(n - 1) + f(n - 2); }
print f(10);`)
	if out != "55\n" {
		t.Errorf("expected %q, got %q", "55\n", out)
	}
}

func TestClosureSharedUpvalue(t *testing.T) {
	out, _ := runSource(t, `
fun make() {
  var x = 0;
  fun inc() { x = x + 1; return x; }
  return inc;
}
var c = make();
print c();
print c();
print c();`)
	if out != "1\n2\n3\n" {
		t.Errorf("expected %q, got %q", "1\n2\n3\n", out)
	}
}

func TestClassInitAndMethod(t *testing.T) {
	out, _ := runSource(t, `
class Point {
  init(x, y) { this.x = x; this.y = y; }
  sum() { return this.x + this.y; }
}
var p = Point(3, 4);
print p.sum();`)
	if out != "7\n" {
		t.Errorf("expected %q, got %q", "7\n", out)
	}
}

func TestForLoop(t *testing.T) {
	out, _ := runSource(t, "for (var i = 0; i < 3; i = i + 1) print i;")
	if out != "0\n1\n2\n" {
		t.Errorf("expected %q, got %q", "0\n1\n2\n", out)
	}
}

// ==========================================
// NEGATIVE SCENARIOS
// ==========================================

func TestRuntimeErrorMixedOperands(t *testing.T) {
	_, result := runSource(t, `1 + "a";`)
	if result != vm.InterpretRuntimeError {
		t.Fatalf("expected a runtime error, got %v", result)
	}
}

func TestRuntimeErrorUndefinedVariable(t *testing.T) {
	_, result := runSource(t, "print undef;")
	if result != vm.InterpretRuntimeError {
		t.Fatalf("expected a runtime error, got %v", result)
	}
}

func TestCompileErrorReturnAtTopLevel(t *testing.T) {
	machine := vm.NewVM()
	_, err := Compile("return 1;", machine)
	if err == nil {
		t.Fatal("expected a compile error for a top-level return")
	}
}

func TestCompileErrorReturnValueFromInitializer(t *testing.T) {
	machine := vm.NewVM()
	_, err := Compile("class A { init() { return 1; } }", machine)
	if err == nil {
		t.Fatal("expected a compile error for returning a value from init")
	}
}

func TestCompileErrorSelfReferentialLocal(t *testing.T) {
	machine := vm.NewVM()
	_, err := Compile("{ var a = a; }", machine)
	if err == nil {
		t.Fatal("expected a compile error for a local referencing itself")
	}
}

func TestGlobalSelfReferenceIsNotAnError(t *testing.T) {
	// At global scope there is no "declared but not yet defined" check;
	// `a` resolves as a global lookup performed at runtime.
	machine := vm.NewVM()
	_, err := Compile("var a = a;", machine)
	if err != nil {
		t.Fatalf("did not expect a compile error, got %v", err)
	}
}

// ==========================================
// BOUNDARY CASES
// ==========================================

func TestTooManyLocals(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i := 0; i < 256; i++ {
		buf.WriteString("var v")
		buf.WriteString(strconv.Itoa(i))
		buf.WriteString(" = 0;\n")
	}
	buf.WriteString("}\n")

	machine := vm.NewVM()
	_, err := Compile(buf.String(), machine)
	if err == nil {
		t.Fatal("expected a compile error for 256 locals in one scope")
	}
}

func TestLocalsAtLimitSucceeds(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i := 0; i < 255; i++ {
		buf.WriteString("var v")
		buf.WriteString(strconv.Itoa(i))
		buf.WriteString(" = 0;\n")
	}
	buf.WriteString("}\n")

	machine := vm.NewVM()
	_, err := Compile(buf.String(), machine)
	if err != nil {
		t.Fatalf("expected 255 locals plus the reserved slot to fit, got %v", err)
	}
}

// newTestParser builds a bare Parser with one funcCompiler frame, enough
// to drive the low-level emission helpers directly without parsing real
// source — used below to hit the upvalue/constant/jump limits exactly,
// which would otherwise need enormous generated programs.
func newTestParser() *Parser {
	fc := &funcCompiler{function: vm.NewFunction(), fnType: TypeScript}
	fc.locals = append(fc.locals, local{name: "", depth: 0})
	return &Parser{vm: vm.NewVM(), errOut: io.Discard, compiler: fc}
}

func TestUpvaluesAtLimitSucceeds(t *testing.T) {
	p := newTestParser()
	for i := 0; i < 256; i++ {
		p.addUpvalue(p.compiler, byte(i), true)
	}
	if p.hadError {
		t.Error("expected no error for 256 distinct upvalues in one function")
	}
}

func TestTooManyUpvalues(t *testing.T) {
	p := newTestParser()
	for i := 0; i < 256; i++ {
		p.addUpvalue(p.compiler, byte(i), true)
	}
	p.addUpvalue(p.compiler, 0, false) // distinct via isLocal, the 257th
	if !p.hadError {
		t.Error("expected a compile error for a 257th upvalue in one function")
	}
}

func TestConstantsAtLimitSucceeds(t *testing.T) {
	p := newTestParser()
	for i := 0; i < 256; i++ {
		p.makeConstant(vm.NumberValue(float64(i)))
	}
	if p.hadError {
		t.Error("expected no error for 256 constants in one chunk")
	}
}

func TestTooManyConstants(t *testing.T) {
	p := newTestParser()
	for i := 0; i < 257; i++ {
		p.makeConstant(vm.NumberValue(float64(i)))
	}
	if !p.hadError {
		t.Error("expected a compile error for a 257th constant in one chunk")
	}
}

func TestJumpOffsetAtLimitSucceeds(t *testing.T) {
	p := newTestParser()
	start := p.emitJump(vm.OpJump)
	for i := 0; i < 65535; i++ {
		p.emitByte(0)
	}
	p.patchJump(start)
	if p.hadError {
		t.Error("expected no error for a jump offset of exactly 65535")
	}
}

func TestJumpOffsetOverLimitErrors(t *testing.T) {
	p := newTestParser()
	start := p.emitJump(vm.OpJump)
	for i := 0; i < 65536; i++ {
		p.emitByte(0)
	}
	p.patchJump(start)
	if !p.hadError {
		t.Error("expected a compile error for a jump offset exceeding 65535")
	}
}

func TestLoopOffsetAtLimitSucceeds(t *testing.T) {
	p := newTestParser()
	loopStart := len(p.currentChunk().Code)
	for i := 0; i < 65532; i++ {
		p.emitByte(0)
	}
	p.emitLoop(loopStart)
	if p.hadError {
		t.Error("expected no error for a loop offset of exactly 65535")
	}
}

func TestLoopOffsetOverLimitErrors(t *testing.T) {
	p := newTestParser()
	loopStart := len(p.currentChunk().Code)
	for i := 0; i < 65533; i++ {
		p.emitByte(0)
	}
	p.emitLoop(loopStart)
	if !p.hadError {
		t.Error("expected a compile error for a loop offset exceeding 65535")
	}
}
