package vm

// call pushes a new CallFrame for closure, checking arity and frame
// depth first.
func (vm *VM) call(closure *ObjClosure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
		return false
	}
	if vm.frameCount == FramesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.base = vm.stackTop - argCount - 1
	return true
}

// callValue dispatches a call by the callee's kind: Closure, Native,
// Class (construct + optional init call), or BoundMethod.
func (vm *VM) callValue(callee Value, argCount int) bool {
	if !callee.IsObj() {
		vm.runtimeError("Can only call functions and classes.")
		return false
	}

	switch callee.Obj.Kind() {
	case ObjKindClosure:
		return vm.call(callee.AsClosure(), argCount)

	case ObjKindNative:
		native := callee.AsNative()
		args := vm.stack[vm.stackTop-argCount : vm.stackTop]
		result, err := native.Function(argCount, args)
		if err != nil {
			vm.runtimeError("%s", err.Error())
			return false
		}
		vm.stackTop -= argCount + 1
		vm.push(result)
		return true

	case ObjKindClass:
		class := callee.AsClass()
		instance := vm.newInstance(class)
		vm.stack[vm.stackTop-argCount-1] = ObjValue(instance)
		if initializer, ok := class.Methods.Get(vm.internString("init")); ok {
			return vm.call(initializer.AsClosure(), argCount)
		} else if argCount != 0 {
			vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			return false
		}
		return true

	case ObjKindBoundMethod:
		bound := callee.AsBoundMethod()
		vm.stack[vm.stackTop-argCount-1] = bound.Receiver
		return vm.call(bound.Method, argCount)

	default:
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
}

// invoke is a GET_PROPERTY+CALL fusion: it checks instance fields first
// (a field can shadow a method), then resolves and calls a method
// directly without allocating a BoundMethod.
func (vm *VM) invoke(name *ObjString, argCount int) bool {
	receiver := vm.peek(argCount)
	if !receiver.IsInstance() {
		vm.runtimeError("Only instances have methods.")
		return false
	}
	instance := receiver.AsInstance()

	if value, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = value
		return vm.callValue(value, argCount)
	}

	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *ObjClass, name *ObjString, argCount int) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.call(method.AsClosure(), argCount)
}

// bindMethod looks up name on class's methods, binding the current
// top-of-stack receiver into a BoundMethod.
func (vm *VM) bindMethod(class *ObjClass, name *ObjString) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		return false
	}
	bound := vm.newBoundMethod(vm.peek(0), method.AsClosure())
	vm.pop()
	vm.push(ObjValue(bound))
	return true
}

func (vm *VM) defineMethod(name *ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).AsClass()
	class.Methods.Set(name, method)
	vm.pop()
}

// captureUpvalue returns the open upvalue pointing at stack slot index,
// reusing one already open for that slot or inserting a new one so the
// open-upvalue list stays sorted by descending stack slot.
func (vm *VM) captureUpvalue(index int) *ObjUpvalue {
	var prev *ObjUpvalue
	upvalue := vm.openUpvalues
	for upvalue != nil && upvalue.Slot > index {
		prev = upvalue
		upvalue = upvalue.NextOpen
	}

	if upvalue != nil && upvalue.Slot == index {
		return upvalue
	}

	created := vm.newUpvalueObj(&vm.stack[index], index)
	created.NextOpen = upvalue
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue pointing at stack slot last or
// higher: copies the slot's value into the upvalue's Closed field,
// redirects Location to point at Closed, and unlinks it.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= last {
		upvalue := vm.openUpvalues
		upvalue.Closed = *upvalue.Location
		upvalue.Location = &upvalue.Closed
		vm.openUpvalues = upvalue.NextOpen
	}
}
