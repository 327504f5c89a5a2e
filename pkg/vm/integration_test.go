package vm_test

import (
	"bytes"
	"testing"

	"github.com/rmay/loxvm/pkg/lang"
	"github.com/rmay/loxvm/pkg/vm"
)

func run(t *testing.T, machine *vm.VM, source string) string {
	t.Helper()
	var out bytes.Buffer
	machine.Stdout = &out
	lang.Interpret(machine, source, false)
	return out.String()
}

func TestBlockLocalAndGlobalsPrint(t *testing.T) {
	machine := vm.NewVM()
	out := run(t, machine, `
var a = 1;
var b = 2;
{
  var c = a + b;
  print c;
}
print a + b;`)
	if out != "3\n3\n" {
		t.Fatalf("expected %q, got %q", "3\n3\n", out)
	}
}

func TestStressGCMatchesNonStressOutput(t *testing.T) {
	source := `
fun fib(n) {
  if (n < 2) return n;
  return fib(n - 1) + fib(n - 2);
}
var i = 0;
while (i < 12) {
  print fib(i);
  i = i + 1;
}`

	plain := vm.NewVM()
	plainOut := run(t, plain, source)

	stressed := vm.NewVM()
	stressed.SetStressGC(true)
	stressedOut := run(t, stressed, source)

	if plainOut != stressedOut {
		t.Errorf("stress-GC output diverged from normal output:\nnormal:  %q\nstressed: %q", plainOut, stressedOut)
	}
}

func TestClassFieldsPersistAcrossMethodCalls(t *testing.T) {
	machine := vm.NewVM()
	out := run(t, machine, `
class Counter {
  init() { this.n = 0; }
  increment() { this.n = this.n + 1; return this.n; }
}
var c = Counter();
print c.increment();
print c.increment();
print c.increment();`)
	if out != "1\n2\n3\n" {
		t.Fatalf("expected %q, got %q", "1\n2\n3\n", out)
	}
}

func TestCallingNonCallableIsARuntimeError(t *testing.T) {
	machine := vm.NewVM()
	var out bytes.Buffer
	machine.Stdout = &out
	machine.Stderr = &out
	result := lang.Interpret(machine, `var x = 1; x();`, false)
	if result != vm.InterpretRuntimeError {
		t.Fatalf("expected runtime error, got %v", result)
	}
}

func TestUndefinedPropertyIsARuntimeError(t *testing.T) {
	machine := vm.NewVM()
	result := lang.Interpret(machine, `class A {} var a = A(); print a.missing;`, false)
	if result != vm.InterpretRuntimeError {
		t.Fatalf("expected runtime error, got %v", result)
	}
}

func TestMaxCallDepthSucceeds(t *testing.T) {
	machine := vm.NewVM()
	out := run(t, machine, `
fun rec(n) {
  if (n == 0) return 0;
  return 1 + rec(n - 1);
}
print rec(62);`)
	if out != "62\n" {
		t.Fatalf("expected %q, got %q", "62\n", out)
	}
}

func TestCallDepthBeyondLimitIsStackOverflow(t *testing.T) {
	machine := vm.NewVM()
	var out bytes.Buffer
	machine.Stdout = &out
	machine.Stderr = &out
	result := lang.Interpret(machine, `
fun rec(n) {
  if (n == 0) return 0;
  return 1 + rec(n - 1);
}
print rec(63);`, false)
	if result != vm.InterpretRuntimeError {
		t.Fatalf("expected a stack-overflow runtime error, got %v", result)
	}
}

func TestClockNativeReturnsANumber(t *testing.T) {
	machine := vm.NewVM()
	out := run(t, machine, `print clock() >= 0;`)
	if out != "true\n" {
		t.Fatalf("expected %q, got %q", "true\n", out)
	}
}
