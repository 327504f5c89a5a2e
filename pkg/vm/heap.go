package vm

import (
	"fmt"
	"hash/fnv"
)

// initialNextGC is the first allocation-byte threshold before a
// collection is triggered.
const initialNextGC = 1024 * 1024

const gcGrowFactor = 2

// CompilerRoots lets an in-progress compiler (owned by pkg/lang, which
// imports this package) register its function chain as GC roots without
// this package importing pkg/lang back.
type CompilerRoots interface {
	MarkRoots(mark func(Obj))
}

// SetCompilerRoots registers (or clears, with nil) the in-progress
// compiler whose function chain must be marked as a GC root.
func (vm *VM) SetCompilerRoots(cr CompilerRoots) {
	vm.compilerRoots = cr
}

// link charges size bytes to the heap, runs a collection when the
// threshold is crossed (or on every allocation under stress GC), and only
// then prepends o to the object list. A collection triggered here never
// sees o itself, so o cannot be swept before its caller roots it; what o
// references must already be reachable from the roots.
func (vm *VM) link(o Obj, size int) {
	vm.bytesAllocated += size
	if vm.bytesAllocated > vm.nextGC || vm.stressGC {
		vm.CollectGarbage()
	}
	o.setNext(vm.objects)
	vm.objects = o
}

// internString returns the unique live ObjString for chars, allocating
// and interning it if none exists yet. The candidate string stays on the
// value stack while it is linked and inserted into the intern table.
func (vm *VM) internString(chars string) *ObjString {
	h := fnv1a32(chars)
	if existing := vm.strings.FindString(chars, h); existing != nil {
		return existing
	}

	str := &ObjString{Chars: chars, Hash: h}
	vm.push(ObjValue(str))
	vm.link(str, len(chars))
	vm.strings.Set(str, NilValue())
	vm.pop()
	return str
}

// NewString interns source bytes and returns the unique *ObjString.
func (vm *VM) NewString(chars string) *ObjString {
	return vm.internString(chars)
}

func fnv1a32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (vm *VM) newFunction() *ObjFunction {
	fn := NewFunction()
	vm.link(fn, 64)
	return fn
}

func (vm *VM) newNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Function: fn}
	vm.link(n, 16)
	return n
}

func (vm *VM) newClosure(fn *ObjFunction) *ObjClosure {
	c := NewClosure(fn)
	vm.link(c, 16+8*len(c.Upvalues))
	return c
}

func (vm *VM) newUpvalueObj(slot *Value, index int) *ObjUpvalue {
	u := NewUpvalue(slot, index)
	vm.link(u, 24)
	return u
}

func (vm *VM) newClass(name *ObjString) *ObjClass {
	c := NewClass(name)
	vm.link(c, 32)
	return c
}

func (vm *VM) newInstance(class *ObjClass) *ObjInstance {
	i := NewInstance(class)
	vm.link(i, 32)
	return i
}

func (vm *VM) newBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := NewBoundMethod(receiver, method)
	vm.link(b, 24)
	return b
}

// markObject is idempotent and ignores a nil interface; a typed nil
// pointer is not detected, so callers check concrete pointers first.
func (vm *VM) markObject(o Obj) {
	if o == nil || o.marked() {
		return
	}
	o.setMarked(true)
	vm.grayStack = append(vm.grayStack, o)
}

func (vm *VM) markValue(v Value) {
	if v.Kind == ValObj {
		vm.markObject(v.Obj)
	}
}

func (vm *VM) markTable(t *Table) {
	t.Each(func(key *ObjString, value Value) {
		vm.markObject(key)
		vm.markValue(value)
	})
}

// markRoots marks every value directly reachable from the running VM:
// the value stack, call frames, open upvalues, globals, and any
// in-progress compiler.
func (vm *VM) markRoots() {
	for _, v := range vm.stack[:vm.stackTop] {
		vm.markValue(v)
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for u := vm.openUpvalues; u != nil; u = u.NextOpen {
		vm.markObject(u)
	}
	vm.markTable(vm.globals)
	if vm.compilerRoots != nil {
		vm.compilerRoots.MarkRoots(vm.markObject)
	}
}

// blacken marks every object an object directly references.
func (vm *VM) blacken(o Obj) {
	switch obj := o.(type) {
	case *ObjString, *ObjNative:
		// no outgoing references
	case *ObjUpvalue:
		vm.markValue(obj.Closed)
	case *ObjFunction:
		// The compiler builds functions with NewFunction, which does not
		// link them into the object list, so sweep never clears their
		// mark. Clearing it here lets the next cycle trace their
		// constants again; function graphs are acyclic, so re-marking one
		// within a cycle still terminates.
		obj.setMarked(false)
		if obj.Name != nil { // nil for the top-level script
			vm.markObject(obj.Name)
		}
		for _, c := range obj.Chunk.Constants {
			vm.markValue(c)
		}
	case *ObjClosure:
		vm.markObject(obj.Function)
		for _, u := range obj.Upvalues {
			if u != nil { // not yet filled while OP_CLOSURE captures
				vm.markObject(u)
			}
		}
	case *ObjClass:
		vm.markObject(obj.Name)
		vm.markTable(obj.Methods)
	case *ObjInstance:
		vm.markObject(obj.Class)
		vm.markTable(obj.Fields)
	case *ObjBoundMethod:
		vm.markValue(obj.Receiver)
		vm.markObject(obj.Method)
	}
}

func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		o := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.blacken(o)
	}
}

func (vm *VM) sweep() {
	var prev Obj
	object := vm.objects
	for object != nil {
		if object.marked() {
			object.setMarked(false)
			prev = object
			object = object.next()
			continue
		}
		unreached := object
		object = object.next()
		if prev != nil {
			prev.setNext(object)
		} else {
			vm.objects = object
		}
		vm.bytesAllocated -= objSize(unreached)
	}
}

func objSize(o Obj) int {
	switch obj := o.(type) {
	case *ObjString:
		return len(obj.Chars)
	case *ObjFunction:
		return 64
	case *ObjNative:
		return 16
	case *ObjClosure:
		return 16 + 8*len(obj.Upvalues)
	case *ObjUpvalue:
		return 24
	case *ObjClass:
		return 32
	case *ObjInstance:
		return 32
	case *ObjBoundMethod:
		return 24
	default:
		return 8
	}
}

// CollectGarbage runs one full tri-color mark-sweep cycle.
func (vm *VM) CollectGarbage() {
	if vm.trace {
		fmt.Fprintf(vm.Stderr, "GC: begin bytesAllocated=%d nextGC=%d\n", vm.bytesAllocated, vm.nextGC)
	}
	vm.markRoots()
	vm.traceReferences()
	vm.strings.RemoveWhiteUnmarked()
	if vm.gcHook != nil {
		vm.gcHook(vm) // objects still carry this cycle's mark bits
	}
	vm.sweep()
	vm.nextGC = vm.bytesAllocated * gcGrowFactor
	if vm.nextGC < initialNextGC {
		vm.nextGC = initialNextGC
	}
	if vm.trace {
		fmt.Fprintf(vm.Stderr, "GC: end bytesAllocated=%d nextGC=%d\n", vm.bytesAllocated, vm.nextGC)
	}
}

// HeapObjectInfo is a read-only snapshot of one live heap object, for
// external inspection (loxvis) rather than anything the dispatch loop
// consults.
type HeapObjectInfo struct {
	Kind    string
	Summary string
	Marked  bool
}

// Snapshot walks the object list and returns a labeled summary of every
// live object, in allocation order (most recent first).
func (vm *VM) Snapshot() []HeapObjectInfo {
	var out []HeapObjectInfo
	for o := vm.objects; o != nil; o = o.next() {
		out = append(out, HeapObjectInfo{
			Kind:    o.Kind().String(),
			Summary: FormatValue(ObjValue(o)),
			Marked:  o.marked(),
		})
	}
	return out
}
