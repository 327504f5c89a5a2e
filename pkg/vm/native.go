package vm

import "time"

var processStart = time.Now()

// defineNativeClock registers the built-in `clock()`, returning seconds
// elapsed since process start.
func (vm *VM) defineNativeClock() {
	vm.DefineNative("clock", func(argCount int, args []Value) (Value, error) {
		return NumberValue(time.Since(processStart).Seconds()), nil
	})
}
