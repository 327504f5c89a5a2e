package vm

import "fmt"

// ValueKind discriminates the four shapes a Value can take.
type ValueKind int

const (
	ValNil ValueKind = iota
	ValBool
	ValNumber
	ValObj
)

// Value is the VM's universal 64-bit-ish runtime value: nil, a bool, an
// IEEE-754 double, or a reference to a heap Obj. A tagged union rather
// than NaN-boxed: it costs a few extra bytes per Value but needs no
// unsafe pointer-in-float64 packing, which would fight Go's own GC.
type Value struct {
	Kind ValueKind
	Num  float64
	Obj  Obj
	Bool bool
}

func NilValue() Value                 { return Value{Kind: ValNil} }
func BoolValue(b bool) Value          { return Value{Kind: ValBool, Bool: b} }
func NumberValue(n float64) Value     { return Value{Kind: ValNumber, Num: n} }
func ObjValue(o Obj) Value            { return Value{Kind: ValObj, Obj: o} }

func (v Value) IsNil() bool    { return v.Kind == ValNil }
func (v Value) IsBool() bool   { return v.Kind == ValBool }
func (v Value) IsNumber() bool { return v.Kind == ValNumber }
func (v Value) IsObj() bool    { return v.Kind == ValObj }

func (v Value) IsObjKind(k ObjKind) bool {
	return v.Kind == ValObj && v.Obj != nil && v.Obj.Kind() == k
}

func (v Value) IsString() bool      { return v.IsObjKind(ObjKindString) }
func (v Value) IsFunction() bool    { return v.IsObjKind(ObjKindFunction) }
func (v Value) IsClosure() bool     { return v.IsObjKind(ObjKindClosure) }
func (v Value) IsClass() bool       { return v.IsObjKind(ObjKindClass) }
func (v Value) IsInstance() bool    { return v.IsObjKind(ObjKindInstance) }
func (v Value) IsBoundMethod() bool { return v.IsObjKind(ObjKindBoundMethod) }
func (v Value) IsNative() bool      { return v.IsObjKind(ObjKindNative) }

func (v Value) AsString() *ObjString           { return v.Obj.(*ObjString) }
func (v Value) AsFunction() *ObjFunction       { return v.Obj.(*ObjFunction) }
func (v Value) AsClosure() *ObjClosure         { return v.Obj.(*ObjClosure) }
func (v Value) AsClass() *ObjClass             { return v.Obj.(*ObjClass) }
func (v Value) AsInstance() *ObjInstance       { return v.Obj.(*ObjInstance) }
func (v Value) AsBoundMethod() *ObjBoundMethod { return v.Obj.(*ObjBoundMethod) }
func (v Value) AsNative() *ObjNative           { return v.Obj.(*ObjNative) }

// IsFalsey reports whether v is falsey: nil or false. Everything else,
// including 0 and "", is truthy.
func (v Value) IsFalsey() bool {
	switch v.Kind {
	case ValNil:
		return true
	case ValBool:
		return !v.Bool
	default:
		return false
	}
}

// Equal compares by kind first, then componentwise for bool/number and
// reference-identity for objects. String interning means reference
// identity also gives value equality for strings.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValNil:
		return true
	case ValBool:
		return a.Bool == b.Bool
	case ValNumber:
		return a.Num == b.Num
	case ValObj:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// FormatValue renders v the way print and the REPL display it.
func FormatValue(v Value) string {
	switch v.Kind {
	case ValNil:
		return "nil"
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValNumber:
		return fmt.Sprintf("%g", v.Num)
	case ValObj:
		return formatObj(v.Obj)
	default:
		return "<invalid value>"
	}
}

func formatObj(o Obj) string {
	switch obj := o.(type) {
	case *ObjString:
		return obj.Chars
	case *ObjFunction:
		if obj.Name == nil {
			return "<script>"
		}
		return fmt.Sprintf("<fn %s>", obj.Name.Chars)
	case *ObjNative:
		return "<native fn>"
	case *ObjClosure:
		return formatObj(obj.Function)
	case *ObjUpvalue:
		return "upvalue"
	case *ObjClass:
		return obj.Name.Chars
	case *ObjInstance:
		return fmt.Sprintf("%s instance", obj.Class.Name.Chars)
	case *ObjBoundMethod:
		return formatObj(obj.Method)
	default:
		return "<object>"
	}
}
