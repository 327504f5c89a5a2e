package lang

import "github.com/rmay/loxvm/pkg/vm"

// Interpret compiles source and, if compilation succeeds, runs it on v.
// It mirrors vm.InterpretResult so callers get a single result value
// covering both phases.
func Interpret(v *vm.VM, source string, trace bool) vm.InterpretResult {
	fn, err := Compile(source, v, trace)
	if err != nil {
		return vm.InterpretCompileError
	}
	v.SetTrace(trace)
	return v.Interpret(fn)
}
