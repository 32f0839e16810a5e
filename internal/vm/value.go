package vm

import (
	"fmt"
	"math"
)

// ValueType identifies the type of value stored in the Value struct
type ValueType uint8

const (
	ValNil ValueType = iota
	ValInt
	ValFloat
	ValBool
	ValObj // Heap object (String, List, Map, etc.)
)

// Value is a stack-allocated tagged union.
// It avoids heap allocation for small primitives (Int, Float, Bool, Nil).
type Value struct {
	Type ValueType
	Data uint64 // Stores int64 bits, float64 bits, or bool (0/1)
	Obj  Object // Holds heap objects
}

// Constructors

func NilVal() Value {
	return Value{Type: ValNil}
}

func IntVal(v int64) Value {
	return Value{Type: ValInt, Data: uint64(v)}
}

func FloatVal(v float64) Value {
	return Value{Type: ValFloat, Data: math.Float64bits(v)}
}

func BoolVal(v bool) Value {
	var data uint64
	if v {
		data = 1
	}
	return Value{Type: ValBool, Data: data}
}

func ObjVal(o Object) Value {
	return Value{Type: ValObj, Obj: o}
}

func StrVal(s string) Value {
	return ObjVal(&ObjString{Value: s})
}

// Accessors

func (v Value) AsInt() int64 {
	return int64(v.Data)
}

func (v Value) AsFloat() float64 {
	return math.Float64frombits(v.Data)
}

func (v Value) AsBool() bool {
	return v.Data == 1
}

// Type checking helpers

func (v Value) IsInt() bool   { return v.Type == ValInt }
func (v Value) IsFloat() bool { return v.Type == ValFloat }
func (v Value) IsBool() bool  { return v.Type == ValBool }
func (v Value) IsNil() bool   { return v.Type == ValNil }
func (v Value) IsObj() bool   { return v.Type == ValObj }

// IsStr reports whether v is a string object.
func (v Value) IsStr() bool {
	if v.Type != ValObj {
		return false
	}
	_, ok := v.Obj.(*ObjString)
	return ok
}

// AsStr returns the underlying string; only valid when IsStr.
func (v Value) AsStr() string {
	return v.Obj.(*ObjString).Value
}

// Kind returns the user-facing type name, as reported in error messages.
func (v Value) Kind() string {
	switch v.Type {
	case ValNil:
		return "null"
	case ValInt, ValFloat:
		return "number"
	case ValBool:
		return "boolean"
	case ValObj:
		return v.Obj.Kind()
	default:
		return "unknown"
	}
}

// Truthy implements the language's truthiness rules: null, false, zero
// and empty collections are falsy, everything else is truthy.
func (v Value) Truthy() bool {
	switch v.Type {
	case ValNil:
		return false
	case ValBool:
		return v.Data == 1
	case ValInt:
		return v.AsInt() != 0
	case ValFloat:
		return v.AsFloat() != 0
	case ValObj:
		switch o := v.Obj.(type) {
		case *ObjString:
			return len(o.Value) > 0
		case *ObjList:
			return len(o.Elements) > 0
		case *ObjTuple:
			return len(o.Elements) > 0
		case *ObjSet:
			return len(o.entries) > 0
		case *ObjMap:
			return len(o.entries) > 0
		default:
			return true
		}
	default:
		return true
	}
}

// Equals implements ==. Ints and floats compare across the two
// representations; collections compare element-wise.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		if v.Type == ValInt && other.Type == ValFloat {
			return float64(v.AsInt()) == other.AsFloat()
		}
		if v.Type == ValFloat && other.Type == ValInt {
			return v.AsFloat() == float64(other.AsInt())
		}
		return false
	}
	switch v.Type {
	case ValNil:
		return true
	case ValInt, ValBool:
		return v.Data == other.Data
	case ValFloat:
		return v.AsFloat() == other.AsFloat()
	case ValObj:
		return objectsEqual(v.Obj, other.Obj)
	default:
		return false
	}
}

func objectsEqual(a, b Object) bool {
	switch x := a.(type) {
	case *ObjString:
		y, ok := b.(*ObjString)
		return ok && x.Value == y.Value
	case *ObjList:
		y, ok := b.(*ObjList)
		return ok && elementsEqual(x.Elements, y.Elements)
	case *ObjTuple:
		y, ok := b.(*ObjTuple)
		return ok && elementsEqual(x.Elements, y.Elements)
	case *ObjRange:
		y, ok := b.(*ObjRange)
		return ok && x.Start == y.Start && x.End == y.End &&
			x.Inclusive == y.Inclusive && x.OpenEnded == y.OpenEnded
	case *ObjSet:
		y, ok := b.(*ObjSet)
		if !ok || len(x.entries) != len(y.entries) {
			return false
		}
		for k := range x.entries {
			if _, present := y.entries[k]; !present {
				return false
			}
		}
		return true
	case *ObjMap:
		y, ok := b.(*ObjMap)
		if !ok || len(x.entries) != len(y.entries) {
			return false
		}
		for k, e := range x.entries {
			f, present := y.entries[k]
			if !present || !e.value.Equals(f.value) {
				return false
			}
		}
		return true
	case *ObjRegex:
		y, ok := b.(*ObjRegex)
		return ok && x.Pattern == y.Pattern && x.Flags == y.Flags
	default:
		// Functions, closures, iterators compare by identity.
		return a == b
	}
}

func elementsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// mapKey is the hashable form of a value, used as the Go map key for
// sets and maps. Strings and nested tuples flatten into the str field.
type mapKey struct {
	kind ValueType
	data uint64
	str  string
}

// hashKey converts a value to its map key form. The bool result is
// false for unhashable kinds (lists, sets, maps, functions).
func hashKey(v Value) (mapKey, bool) {
	switch v.Type {
	case ValNil, ValBool, ValInt:
		return mapKey{kind: v.Type, data: v.Data}, true
	case ValFloat:
		// Integral floats hash like their int counterpart so 1 and 1.0
		// address the same map slot.
		f := v.AsFloat()
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return mapKey{kind: ValInt, data: uint64(int64(f))}, true
		}
		return mapKey{kind: ValFloat, data: v.Data}, true
	case ValObj:
		switch o := v.Obj.(type) {
		case *ObjString:
			return mapKey{kind: ValObj, str: "s:" + o.Value}, true
		case *ObjTuple:
			key := "t:"
			for _, el := range o.Elements {
				k, ok := hashKey(el)
				if !ok {
					return mapKey{}, false
				}
				key += fmt.Sprintf("%d,%d,%s\x1f", k.kind, k.data, k.str)
			}
			return mapKey{kind: ValObj, str: key}, true
		}
	}
	return mapKey{}, false
}
