package vm

import (
	"fmt"
	"math"
	"strings"
)

func typeMismatch(action string, a, b Value) error {
	return &RuntimeError{Kind: ErrTypeMismatch,
		Message: fmt.Sprintf("Type mismatch: Cannot %s types '%s' and '%s'", action, a.Kind(), b.Kind())}
}

func binaryOp(op Opcode, a, b Value) (Value, error) {
	switch op {
	case OP_ADD:
		return addValues(a, b, false)
	case OP_ADD_IP:
		return addValues(a, b, true)
	case OP_SUB:
		return arith(a, b, "subtract",
			func(x, y int64) (int64, error) { return x - y, nil },
			func(x, y float64) float64 { return x - y })
	case OP_MUL:
		return arith(a, b, "multiply",
			func(x, y int64) (int64, error) { return x * y, nil },
			func(x, y float64) float64 { return x * y })
	case OP_DIV:
		return arith(a, b, "divide",
			func(x, y int64) (int64, error) {
				if y == 0 {
					return 0, &RuntimeError{Kind: ErrDivideByZero, Message: "Division by zero"}
				}
				return x / y, nil
			},
			func(x, y float64) float64 { return x / y })
	case OP_FLOORDIV:
		return arith(a, b, "divide",
			func(x, y int64) (int64, error) {
				if y == 0 {
					return 0, &RuntimeError{Kind: ErrDivideByZero, Message: "Division by zero"}
				}
				return floorDiv(x, y), nil
			},
			func(x, y float64) float64 { return math.Floor(x / y) })
	case OP_MOD:
		return arith(a, b, "modulo",
			func(x, y int64) (int64, error) {
				if y == 0 {
					return 0, &RuntimeError{Kind: ErrDivideByZero, Message: "Division by zero"}
				}
				return x % y, nil
			},
			func(x, y float64) float64 { return math.Mod(x, y) })
	case OP_POW:
		return powValues(a, b)
	case OP_BAND:
		return intersectValues(a, b, false)
	case OP_BAND_IP:
		return intersectValues(a, b, true)
	case OP_XOR:
		if a.IsBool() && b.IsBool() {
			return BoolVal(a.AsBool() != b.AsBool()), nil
		}
		return NilVal(), typeMismatch("xor", a, b)
	case OP_IN:
		return containsValue(a, b)
	case OP_LT, OP_LTE, OP_GT, OP_GTE:
		cmp, err := compareValues(a, b)
		if err != nil {
			return NilVal(), err
		}
		switch op {
		case OP_LT:
			return BoolVal(cmp < 0), nil
		case OP_LTE:
			return BoolVal(cmp <= 0), nil
		case OP_GT:
			return BoolVal(cmp > 0), nil
		default:
			return BoolVal(cmp >= 0), nil
		}
	}
	return NilVal(), &RuntimeError{Kind: ErrInternal, Message: fmt.Sprintf("bad binary opcode %d", op)}
}

func floorDiv(x, y int64) int64 {
	q := x / y
	if (x%y != 0) && ((x < 0) != (y < 0)) {
		q--
	}
	return q
}

// arith applies a numeric operator, promoting to float when either
// operand is a float.
func arith(a, b Value, action string,
	intOp func(int64, int64) (int64, error),
	floatOp func(float64, float64) float64) (Value, error) {

	if a.IsInt() && b.IsInt() {
		r, err := intOp(a.AsInt(), b.AsInt())
		if err != nil {
			return NilVal(), err
		}
		return IntVal(r), nil
	}
	if (a.IsInt() || a.IsFloat()) && (b.IsInt() || b.IsFloat()) {
		return FloatVal(floatOp(numAsFloat(a), numAsFloat(b))), nil
	}
	return NilVal(), typeMismatch(action, a, b)
}

// addValues implements + : numeric addition, string concatenation
// (numbers stringify next to a string), list concatenation and set
// union. inPlace makes set union mutate the left operand.
func addValues(a, b Value, inPlace bool) (Value, error) {
	if (a.IsInt() || a.IsFloat()) && (b.IsInt() || b.IsFloat()) {
		return arith(a, b, "add",
			func(x, y int64) (int64, error) { return x + y, nil },
			func(x, y float64) float64 { return x + y })
	}

	if a.IsStr() && concatenable(b) {
		return StrVal(a.AsStr() + b.Display()), nil
	}
	if b.IsStr() && concatenable(a) {
		return StrVal(a.Display() + b.AsStr()), nil
	}

	if a.Type == ValObj && b.Type == ValObj {
		if la, ok := a.Obj.(*ObjList); ok {
			if lb, ok := b.Obj.(*ObjList); ok {
				out := make([]Value, 0, len(la.Elements)+len(lb.Elements))
				out = append(out, la.Elements...)
				out = append(out, lb.Elements...)
				return ObjVal(&ObjList{Elements: out}), nil
			}
		}
		if sa, ok := a.Obj.(*ObjSet); ok {
			if sb, ok := b.Obj.(*ObjSet); ok {
				target := sa
				if !inPlace {
					target = sa.Clone()
				}
				for k, val := range sb.entries {
					target.entries[k] = val
				}
				return ObjVal(target), nil
			}
		}
	}
	return NilVal(), typeMismatch("add", a, b)
}

func concatenable(v Value) bool {
	return v.IsStr() || v.IsInt() || v.IsFloat()
}

func powValues(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() && b.AsInt() >= 0 {
		return IntVal(intPow(a.AsInt(), b.AsInt())), nil
	}
	if (a.IsInt() || a.IsFloat()) && (b.IsInt() || b.IsFloat()) {
		return FloatVal(math.Pow(numAsFloat(a), numAsFloat(b))), nil
	}
	return NilVal(), typeMismatch("exponentiate", a, b)
}

func intPow(base, exp int64) int64 {
	var result int64 = 1
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// intersectValues implements & : set intersection only.
func intersectValues(a, b Value, inPlace bool) (Value, error) {
	sa, okA := setOf(a)
	sb, okB := setOf(b)
	if !okA || !okB {
		return NilVal(), typeMismatch("intersect", a, b)
	}
	common := make(map[mapKey]Value)
	for k, val := range sa.entries {
		if _, present := sb.entries[k]; present {
			common[k] = val
		}
	}
	if inPlace {
		sa.entries = common
		return a, nil
	}
	return ObjVal(&ObjSet{entries: common}), nil
}

func setOf(v Value) (*ObjSet, bool) {
	if v.Type != ValObj {
		return nil, false
	}
	s, ok := v.Obj.(*ObjSet)
	return s, ok
}

func negate(a Value) (Value, error) {
	if a.IsInt() {
		return IntVal(-a.AsInt()), nil
	}
	if a.IsFloat() {
		return FloatVal(-a.AsFloat()), nil
	}
	return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
		Message: fmt.Sprintf("Type mismatch: Cannot negate type '%s'", a.Kind())}
}

// compareValues orders two values of the same kind. Numbers compare
// across int/float; sequences compare lexicographically.
func compareValues(a, b Value) (int, error) {
	if (a.IsInt() || a.IsFloat()) && (b.IsInt() || b.IsFloat()) {
		if a.IsInt() && b.IsInt() {
			switch {
			case a.AsInt() < b.AsInt():
				return -1, nil
			case a.AsInt() > b.AsInt():
				return 1, nil
			}
			return 0, nil
		}
		fa, fb := numAsFloat(a), numAsFloat(b)
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		}
		return 0, nil
	}
	if a.IsStr() && b.IsStr() {
		return strings.Compare(a.AsStr(), b.AsStr()), nil
	}
	if a.Type == ValObj && b.Type == ValObj {
		if la, ok := a.Obj.(*ObjList); ok {
			if lb, ok := b.Obj.(*ObjList); ok {
				return compareElements(la.Elements, lb.Elements)
			}
		}
		if ta, ok := a.Obj.(*ObjTuple); ok {
			if tb, ok := b.Obj.(*ObjTuple); ok {
				return compareElements(ta.Elements, tb.Elements)
			}
		}
	}
	return 0, typeMismatch("compare", a, b)
}

func compareElements(a, b []Value) (int, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		cmp, err := compareValues(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if cmp != 0 {
			return cmp, nil
		}
	}
	switch {
	case len(a) < len(b):
		return -1, nil
	case len(a) > len(b):
		return 1, nil
	}
	return 0, nil
}

// containsValue implements `a in b`.
func containsValue(a, b Value) (Value, error) {
	if b.Type == ValObj {
		switch o := b.Obj.(type) {
		case *ObjString:
			if a.IsStr() {
				return BoolVal(strings.Contains(o.Value, a.AsStr())), nil
			}
		case *ObjList:
			return BoolVal(containsElement(o.Elements, a)), nil
		case *ObjTuple:
			return BoolVal(containsElement(o.Elements, a)), nil
		case *ObjSet:
			return BoolVal(o.Has(a)), nil
		case *ObjMap:
			return BoolVal(o.Has(a)), nil
		case *ObjRange:
			if a.IsInt() {
				if o.OpenEnded {
					return BoolVal(a.AsInt() >= o.Start), nil
				}
				start, end := o.Bounds()
				n := a.AsInt()
				return BoolVal(n >= start && n < end), nil
			}
		}
	}
	return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
		Message: fmt.Sprintf("Type mismatch: Cannot check membership of type '%s' in type '%s'", a.Kind(), b.Kind())}
}

func containsElement(elements []Value, needle Value) bool {
	for _, el := range elements {
		if el.Equals(needle) {
			return true
		}
	}
	return false
}

// resolveIndex maps a possibly negative index into [0, length).
func resolveIndex(i, length int64) (int64, error) {
	resolved := i
	if resolved < 0 {
		resolved += length
	}
	if resolved < 0 || resolved >= length {
		return 0, &RuntimeError{Kind: ErrIndexOutOfRange,
			Message: fmt.Sprintf("Index %d out of bounds, length is %d", i, length)}
	}
	return resolved, nil
}

// resolveSliceBounds maps a range onto [start, end) slice bounds,
// clamping to the sequence.
func resolveSliceBounds(r *ObjRange, length int64) (int64, int64) {
	start := r.Start
	if start < 0 {
		start += length
	}
	end := length
	if !r.OpenEnded {
		end = r.End
		if end < 0 {
			end += length
		}
		if r.Inclusive {
			end++
		}
	}
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start > end {
		start = end
	}
	return start, end
}

func indexValue(obj, key Value) (Value, error) {
	if obj.Type == ValObj {
		switch o := obj.Obj.(type) {
		case *ObjList:
			return indexSequence(o.Elements, key, func(els []Value) Value {
				return ObjVal(&ObjList{Elements: els})
			})
		case *ObjTuple:
			return indexSequence(o.Elements, key, func(els []Value) Value {
				return ObjVal(&ObjTuple{Elements: els})
			})
		case *ObjString:
			runes := []rune(o.Value)
			if key.IsInt() {
				i, err := resolveIndex(key.AsInt(), int64(len(runes)))
				if err != nil {
					return NilVal(), err
				}
				return StrVal(string(runes[i])), nil
			}
			if r, ok := rangeOf(key); ok {
				start, end := resolveSliceBounds(r, int64(len(runes)))
				return StrVal(string(runes[start:end])), nil
			}
		case *ObjMap:
			val, ok := o.Get(key)
			if !ok {
				return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
					Message: fmt.Sprintf("Cannot use type '%s' as a map key", key.Kind())}
			}
			return val, nil
		}
	}
	return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
		Message: fmt.Sprintf("Type mismatch: Cannot index type '%s' with type '%s'", obj.Kind(), key.Kind())}
}

func indexSequence(elements []Value, key Value, rebuild func([]Value) Value) (Value, error) {
	if key.IsInt() {
		i, err := resolveIndex(key.AsInt(), int64(len(elements)))
		if err != nil {
			return NilVal(), err
		}
		return elements[i], nil
	}
	if r, ok := rangeOf(key); ok {
		start, end := resolveSliceBounds(r, int64(len(elements)))
		return rebuild(append([]Value(nil), elements[start:end]...)), nil
	}
	return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
		Message: fmt.Sprintf("Type mismatch: Cannot index a sequence with type '%s'", key.Kind())}
}

func rangeOf(v Value) (*ObjRange, bool) {
	if v.Type != ValObj {
		return nil, false
	}
	r, ok := v.Obj.(*ObjRange)
	return r, ok
}

func setIndexValue(obj, key, val Value) error {
	if obj.Type == ValObj {
		switch o := obj.Obj.(type) {
		case *ObjList:
			if !key.IsInt() {
				return &RuntimeError{Kind: ErrTypeMismatch,
					Message: fmt.Sprintf("Type mismatch: Cannot index a list with type '%s'", key.Kind())}
			}
			i, err := resolveIndex(key.AsInt(), int64(len(o.Elements)))
			if err != nil {
				return err
			}
			o.Elements[i] = val
			return nil
		case *ObjMap:
			if !o.Set(key, val) {
				return &RuntimeError{Kind: ErrTypeMismatch,
					Message: fmt.Sprintf("Cannot use type '%s' as a map key", key.Kind())}
			}
			return nil
		}
	}
	return &RuntimeError{Kind: ErrTypeMismatch,
		Message: fmt.Sprintf("Type mismatch: Cannot assign into type '%s'", obj.Kind())}
}

// spreadValue unpacks a sequence for destructuring.
func spreadValue(val Value, n int) ([]Value, error) {
	var elements []Value
	if val.Type == ValObj {
		switch o := val.Obj.(type) {
		case *ObjList:
			elements = o.Elements
		case *ObjTuple:
			elements = o.Elements
		case *ObjString:
			runes := []rune(o.Value)
			elements = make([]Value, len(runes))
			for i, r := range runes {
				elements[i] = StrVal(string(r))
			}
		}
	}
	if elements == nil {
		return nil, &RuntimeError{Kind: ErrTypeMismatch,
			Message: fmt.Sprintf("Cannot destructure type '%s'", val.Kind())}
	}
	if len(elements) != n {
		return nil, &RuntimeError{Kind: ErrValue,
			Message: fmt.Sprintf("Cannot unpack %d values into %d targets", len(elements), n)}
	}
	return elements, nil
}
