package vm

import "fmt"

// makeIterator coerces a value to an iterator. Lists and tuples
// iterate over a snapshot, sets and maps in their deterministic order;
// maps yield keys.
func makeIterator(v Value) (*ObjIterator, error) {
	if v.Type == ValObj {
		switch o := v.Obj.(type) {
		case *ObjIterator:
			return o, nil
		case *ObjList:
			return sliceIterator(append([]Value(nil), o.Elements...)), nil
		case *ObjTuple:
			return sliceIterator(o.Elements), nil
		case *ObjSet:
			return sliceIterator(o.Values()), nil
		case *ObjMap:
			return sliceIterator(o.Keys()), nil
		case *ObjString:
			runes := []rune(o.Value)
			i := 0
			return &ObjIterator{next: func() (Value, bool) {
				if i >= len(runes) {
					return NilVal(), false
				}
				s := string(runes[i])
				i++
				return StrVal(s), true
			}}, nil
		case *ObjRange:
			if o.OpenEnded {
				return nil, &RuntimeError{Kind: ErrValue,
					Message: "Cannot iterate over an open-ended range"}
			}
			cur, end := o.Bounds()
			return &ObjIterator{next: func() (Value, bool) {
				if cur >= end {
					return NilVal(), false
				}
				n := cur
				cur++
				return IntVal(n), true
			}}, nil
		}
	}
	return nil, &RuntimeError{Kind: ErrTypeMismatch,
		Message: fmt.Sprintf("Cannot iterate over type '%s'", v.Kind())}
}

func sliceIterator(elements []Value) *ObjIterator {
	i := 0
	return &ObjIterator{next: func() (Value, bool) {
		if i >= len(elements) {
			return NilVal(), false
		}
		el := elements[i]
		i++
		return el, true
	}}
}

// drain collects all remaining elements of an iterable value.
func drain(v Value) ([]Value, error) {
	it, err := makeIterator(v)
	if err != nil {
		return nil, err
	}
	var out []Value
	for {
		el, ok := it.Next()
		if !ok {
			return out, nil
		}
		out = append(out, el)
	}
}
