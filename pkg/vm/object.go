package vm

// ObjKind discriminates the heap object variants.
type ObjKind int

const (
	ObjKindString ObjKind = iota
	ObjKindFunction
	ObjKindNative
	ObjKindClosure
	ObjKindUpvalue
	ObjKindClass
	ObjKindInstance
	ObjKindBoundMethod
)

var objKindNames = [...]string{
	"String", "Function", "Native", "Closure", "Upvalue", "Class", "Instance", "BoundMethod",
}

func (k ObjKind) String() string {
	if int(k) < len(objKindNames) {
		return objKindNames[k]
	}
	return "Unknown"
}

// Obj is satisfied by every heap-allocated variant. Each concrete type
// embeds objHeader, giving it the GC mark bit and the next-pointer that
// threads it into the VM's single intrusive object list.
type Obj interface {
	Kind() ObjKind
	marked() bool
	setMarked(bool)
	next() Obj
	setNext(Obj)
}

type objHeader struct {
	isMarked bool
	nextObj  Obj
}

func (h *objHeader) marked() bool     { return h.isMarked }
func (h *objHeader) setMarked(m bool) { h.isMarked = m }
func (h *objHeader) next() Obj        { return h.nextObj }
func (h *objHeader) setNext(o Obj)    { h.nextObj = o }

// ObjString is an interned, immutable byte string with a precomputed
// FNV-1a hash.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *ObjString) Kind() ObjKind { return ObjKindString }

// ObjFunction is a compiled function body: arity, upvalue count, and the
// Chunk it owns.
type ObjFunction struct {
	objHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString // nil for the top-level script
}

func (f *ObjFunction) Kind() ObjKind { return ObjKindFunction }

func NewFunction() *ObjFunction {
	return &ObjFunction{Chunk: NewChunk()}
}

// NativeFn is the shape of a built-in function: given argc and a slice of
// argc Values, return a Value (or an error for a native-level failure).
type NativeFn func(argc int, args []Value) (Value, error)

type ObjNative struct {
	objHeader
	Name     string
	Function NativeFn
}

func (n *ObjNative) Kind() ObjKind { return ObjKindNative }

// ObjUpvalue is a handle to a variable that may still live on the VM
// stack ("open", Location points at a stack slot) or has been lifted to
// the heap ("closed", Closed holds the value and Location points at
// Closed). Open upvalues are threaded by NextOpen in descending stack-address
// order.
type ObjUpvalue struct {
	objHeader
	Location *Value
	Closed   Value
	Slot     int // stack index Location points into while open; meaningless once closed
	NextOpen *ObjUpvalue
}

func (u *ObjUpvalue) Kind() ObjKind { return ObjKindUpvalue }

func NewUpvalue(slot *Value, index int) *ObjUpvalue {
	return &ObjUpvalue{Location: slot, Slot: index}
}

// ObjClosure pairs a Function with its captured Upvalues.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) Kind() ObjKind { return ObjKindClosure }

func NewClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{
		Function: fn,
		Upvalues: make([]*ObjUpvalue, fn.UpvalueCount),
	}
}

// ObjClass holds a name and its methods table (closures keyed by name).
type ObjClass struct {
	objHeader
	Name    *ObjString
	Methods *Table
}

func (c *ObjClass) Kind() ObjKind { return ObjKindClass }

func NewClass(name *ObjString) *ObjClass {
	return &ObjClass{Name: name, Methods: NewTable()}
}

// ObjInstance is a class reference plus a per-instance fields table.
type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) Kind() ObjKind { return ObjKindInstance }

func NewInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{Class: class, Fields: NewTable()}
}

// ObjBoundMethod remembers the receiver a method was retrieved with, so a
// method pulled off an instance as a first-class value still knows its
// `this` when later called.
type ObjBoundMethod struct {
	objHeader
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) Kind() ObjKind { return ObjKindBoundMethod }

func NewBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	return &ObjBoundMethod{Receiver: receiver, Method: method}
}
