package vm

import "fmt"

// Interpret runs fn (the top-level script function produced by the
// compiler) to completion, wrapping it in a closure and driving the
// dispatch loop until the outermost frame returns.
func (vm *VM) Interpret(fn *ObjFunction) InterpretResult {
	vm.push(ObjValue(fn))
	closure := vm.newClosure(fn)
	vm.pop()
	vm.push(ObjValue(closure))
	if !vm.call(closure, 0) {
		return InterpretRuntimeError
	}

	if err := vm.run(); err != nil {
		return InterpretRuntimeError
	}
	return InterpretOK
}

func (vm *VM) run() error {
	frame := vm.currentFrame()

	for {
		if vm.trace {
			fmt.Fprintf(vm.Stderr, "VM: ip=%d op=%s stack=%v\n",
				frame.ip, OpCode(frame.closure.Function.Chunk.Code[frame.ip]), vm.stack[:vm.stackTop])
		}

		instruction := OpCode(vm.readByte(frame))
		switch instruction {
		case OpConstant:
			vm.push(vm.readConstant(frame))

		case OpNil:
			vm.push(NilValue())
		case OpTrue:
			vm.push(BoolValue(true))
		case OpFalse:
			vm.push(BoolValue(false))
		case OpPop:
			vm.pop()

		case OpGetLocal:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.base+int(slot)])
		case OpSetLocal:
			slot := vm.readByte(frame)
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case OpGetGlobal:
			name := vm.readString(frame)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case OpDefineGlobal:
			name := vm.readString(frame)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case OpSetGlobal:
			name := vm.readString(frame)
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case OpGetUpvalue:
			slot := vm.readByte(frame)
			vm.push(*frame.closure.Upvalues[slot].Location)
		case OpSetUpvalue:
			slot := vm.readByte(frame)
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case OpGetProperty:
			if !vm.peek(0).IsInstance() {
				return vm.runtimeError("Only instances have properties.")
			}
			instance := vm.peek(0).AsInstance()
			name := vm.readString(frame)

			if v, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if !vm.bindMethod(instance.Class, name) {
				return vm.runtimeError("Undefined property '%s'.", name.Chars)
			}

		case OpSetProperty:
			if !vm.peek(1).IsInstance() {
				return vm.runtimeError("Only instances have fields.")
			}
			instance := vm.peek(1).AsInstance()
			name := vm.readString(frame)
			instance.Fields.Set(name, vm.peek(0))
			value := vm.pop()
			vm.pop()
			vm.push(value)

		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolValue(Equal(a, b)))
		case OpGreater:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return BoolValue(a > b) }); err != nil {
				return err
			}
		case OpLess:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return BoolValue(a < b) }); err != nil {
				return err
			}

		case OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case OpSubtract:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return NumberValue(a - b) }); err != nil {
				return err
			}
		case OpMultiply:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return NumberValue(a * b) }); err != nil {
				return err
			}
		case OpDivide:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return NumberValue(a / b) }); err != nil {
				return err
			}

		case OpNot:
			vm.push(BoolValue(vm.pop().IsFalsey()))
		case OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(NumberValue(-vm.pop().Num))

		case OpPrint:
			fmt.Fprintln(vm.Stdout, FormatValue(vm.pop()))

		case OpJump:
			offset := vm.readShort(frame)
			frame.ip += offset
		case OpJumpIfFalse:
			offset := vm.readShort(frame)
			if vm.peek(0).IsFalsey() {
				frame.ip += offset
			}
		case OpLoop:
			offset := vm.readShort(frame)
			frame.ip -= offset

		case OpCall:
			argCount := int(vm.readByte(frame))
			if !vm.callValue(vm.peek(argCount), argCount) {
				return fmt.Errorf("call failed")
			}
			frame = vm.currentFrame()

		case OpInvoke:
			method := vm.readString(frame)
			argCount := int(vm.readByte(frame))
			if !vm.invoke(method, argCount) {
				return fmt.Errorf("invoke failed")
			}
			frame = vm.currentFrame()

		case OpClosure:
			fn := vm.readConstant(frame).AsFunction()
			closure := vm.newClosure(fn)
			vm.push(ObjValue(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(frame)
				index := vm.readByte(frame)
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.base + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.base
			vm.push(result)
			frame = vm.currentFrame()

		case OpClass:
			name := vm.readString(frame)
			vm.push(ObjValue(vm.newClass(name)))

		case OpMethod:
			name := vm.readString(frame)
			vm.defineMethod(name)

		default:
			return vm.runtimeError("Unknown opcode 0x%02X.", byte(instruction))
		}
	}
}

func (vm *VM) binaryNumberOp(op func(a, b float64) Value) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop()
	a := vm.pop()
	vm.push(op(a.Num, b.Num))
	return nil
}

func (vm *VM) add() error {
	if vm.peek(0).IsNumber() && vm.peek(1).IsNumber() {
		b := vm.pop()
		a := vm.pop()
		vm.push(NumberValue(a.Num + b.Num))
		return nil
	}
	if vm.peek(0).IsString() && vm.peek(1).IsString() {
		b := vm.pop().AsString()
		a := vm.pop().AsString()
		// a and b are off the VM stack by this point, so a collection
		// triggered by the internString allocation below would not see
		// them as roots. That's harmless here only because sweep never
		// frees the underlying memory itself — it just unlinks an object
		// from the bookkeeping list — so the local a/b references keep
		// the bytes readable for this concatenation regardless of
		// whatever the mark phase decided about them.
		result := vm.internString(a.Chars + b.Chars)
		vm.push(ObjValue(result))
		return nil
	}
	return vm.runtimeError("Operands must be two numbers or two strings.")
}
