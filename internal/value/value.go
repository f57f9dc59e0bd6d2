// Package value implements the tagged-union runtime value representation
// used by internal/vm, grounded on the teacher's vm.Cell (vm/vm.go): a
// single flat word type is good enough for a Forth-like int32 cell, but this
// language's value model (spec.md §5) needs a real tagged union, so this
// package generalizes Cell into a Kind-tagged struct rather than reusing the
// bare numeric type.
package value

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Kind identifies which field of a Value is live.
type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindBool
	KindChar
	KindString
	KindID
	KindKey
	KindObject
	KindList
	KindArray
	KindBorrow
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindID:
		return "id"
	case KindKey:
		return "key"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	case KindArray:
		return "array"
	case KindBorrow:
		return "borrow"
	case KindRef:
		return "ref"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Object is a field-name-to-Value map, backing object literals and type
// instances (spec.md §5.2). Field order is retained for deterministic
// printing.
type Object struct {
	TypeName string
	Order    []string
	Fields   map[string]Value
}

func NewObject(typeName string) *Object {
	return &Object{TypeName: typeName, Fields: make(map[string]Value)}
}

func (o *Object) Set(name string, v Value) {
	if _, ok := o.Fields[name]; !ok {
		o.Order = append(o.Order, name)
	}
	o.Fields[name] = v
}

func (o *Object) Get(name string) (Value, bool) {
	v, ok := o.Fields[name]
	return v, ok
}

// List is a growable, ordered value sequence.
type List struct {
	Elems []Value
}

// Array is a fixed-length value sequence allocated by a native (spec.md's
// buffer-allocation natives).
type Array struct {
	Elems []Value
}

// Value is a tagged union (a struct with one field per payload kind) of every
// runtime value kind. Numeric,
// bool and char payloads are stored inline; reference kinds hold a pointer
// so that aliasing (borrows, object identity) behaves the way spec.md §5.3
// describes.
type Value struct {
	Kind    Kind
	I       int64
	F       float64
	B       bool
	C       rune
	S       string
	Obj     *Object
	List    *List
	Arr     *Array
	Borrow  *Value // KindBorrow: a non-owning alias of another Value's slot
	RefID   uint64 // KindID / KindKey / KindRef: an opaque handle
}

func None() Value              { return Value{Kind: KindNone} }
func Int(i int64) Value        { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value    { return Value{Kind: KindFloat, F: f} }
func Bool(b bool) Value        { return Value{Kind: KindBool, B: b} }
func Char(c rune) Value        { return Value{Kind: KindChar, C: c} }
func String(s string) Value    { return Value{Kind: KindString, S: s} }
func ObjectVal(o *Object) Value { return Value{Kind: KindObject, Obj: o} }
func ListVal(l *List) Value    { return Value{Kind: KindList, List: l} }
func ArrayVal(a *Array) Value  { return Value{Kind: KindArray, Arr: a} }
func BorrowOf(v *Value) Value  { return Value{Kind: KindBorrow, Borrow: v} }

// NewID mints a fresh KindID value backed by a random UUID, truncated to the
// 64-bit handle stored in RefID (spec.md §5.4's "id is an opaque, globally unique runtime handle").
func NewID() Value {
	u := uuid.New()
	var h uint64
	for i := 0; i < 8; i++ {
		h = h<<8 | uint64(u[i])
	}
	return Value{Kind: KindID, RefID: h}
}

// NewKey mints a fresh KindKey value the same way; ids and keys share a
// representation but are distinct kinds so natives can validate usage.
func NewKey() Value {
	v := NewID()
	v.Kind = KindKey
	return v
}

func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNone:
		return false
	case KindBool:
		return v.B
	case KindInt:
		return v.I != 0
	case KindFloat:
		return v.F != 0
	default:
		return true
	}
}

// Deref follows a borrow chain to the underlying owned value.
func (v Value) Deref() Value {
	for v.Kind == KindBorrow && v.Borrow != nil {
		v = *v.Borrow
	}
	return v
}

func (v Value) String() string {
	v = v.Deref()
	switch v.Kind {
	case KindNone:
		return "none"
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindChar:
		return string(v.C)
	case KindString:
		return v.S
	case KindID:
		return fmt.Sprintf("id(%016x)", v.RefID)
	case KindKey:
		return fmt.Sprintf("key(%016x)", v.RefID)
	case KindObject:
		return fmt.Sprintf("%s{...}", v.Obj.TypeName)
	case KindList:
		return fmt.Sprintf("list[%d]", len(v.List.Elems))
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.Arr.Elems))
	default:
		return "<" + v.Kind.String() + ">"
	}
}

// Equal implements the `==`/`!=` runtime comparison (spec.md §5.5):
// structural for value kinds, identity for reference kinds.
func Equal(a, b Value) bool {
	a, b = a.Deref(), b.Deref()
	if a.Kind != b.Kind {
		// int/float cross-kind comparisons are allowed by the language's
		// arithmetic promotion rules (spec.md §4.4).
		if a.Kind == KindInt && b.Kind == KindFloat {
			return float64(a.I) == b.F
		}
		if a.Kind == KindFloat && b.Kind == KindInt {
			return a.F == float64(b.I)
		}
		return false
	}
	switch a.Kind {
	case KindNone:
		return true
	case KindInt:
		return a.I == b.I
	case KindFloat:
		return a.F == b.F
	case KindBool:
		return a.B == b.B
	case KindChar:
		return a.C == b.C
	case KindString:
		return a.S == b.S
	case KindID, KindKey:
		return a.RefID == b.RefID
	case KindObject:
		return a.Obj == b.Obj
	case KindList:
		return a.List == b.List
	case KindArray:
		return a.Arr == b.Arr
	default:
		return false
	}
}
