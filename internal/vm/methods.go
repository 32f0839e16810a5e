package vm

import (
	"fmt"
	"sort"
	"strings"
)

func methodError(name string, recv Value) error {
	return &RuntimeError{Kind: ErrTypeMismatch,
		Message: fmt.Sprintf("Cannot call method '%s' on type '%s'", name, recv.Kind())}
}

func methodArity(name string, want, got int) error {
	return &RuntimeError{Kind: ErrArityMismatch,
		Message: fmt.Sprintf("Method '%s' expects %d arguments, got %d", name, want, got)}
}

// callMethod dispatches a method call by receiver kind and name.
func callMethod(v *VM, recv Value, name string, args []Value) (Value, error) {
	switch name {
	case "append":
		return methodAppend(recv, name, args)
	case "add":
		return methodAdd(recv, name, args)
	case "upper", "lower":
		return methodCase(recv, name, args)
	case "split":
		return methodSplit(recv, name, args)
	case "lines":
		return methodLines(recv, name, args)
	case "len":
		return methodLen(recv, name, args)
	case "count":
		return methodCount(recv, name, args)
	case "join":
		return methodJoin(recv, name, args)
	case "contains":
		return methodContains(recv, name, args)
	case "sort":
		return methodSort(v, recv, args)
	case "enumerate":
		return methodEnumerate(recv, name, args)
	case "find", "find_all", "is_match":
		return NilVal(), methodArity(name, 1, len(args))
	}
	return NilVal(), methodError(name, recv)
}

func methodAppend(recv Value, name string, args []Value) (Value, error) {
	if len(args) != 1 {
		return NilVal(), methodArity(name, 1, len(args))
	}
	list, ok := listOf(recv)
	if !ok {
		return NilVal(), methodError(name, recv)
	}
	list.Elements = append(list.Elements, args[0])
	return recv, nil
}

func methodAdd(recv Value, name string, args []Value) (Value, error) {
	if len(args) != 1 {
		return NilVal(), methodArity(name, 1, len(args))
	}
	set, ok := setOf(recv)
	if !ok {
		return NilVal(), methodError(name, recv)
	}
	if !set.Add(args[0]) {
		return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
			Message: fmt.Sprintf("Cannot use type '%s' as a set member", args[0].Kind())}
	}
	return recv, nil
}

func methodCase(recv Value, name string, args []Value) (Value, error) {
	if len(args) != 0 {
		return NilVal(), methodArity(name, 0, len(args))
	}
	if !recv.IsStr() {
		return NilVal(), methodError(name, recv)
	}
	if name == "upper" {
		return StrVal(strings.ToUpper(recv.AsStr())), nil
	}
	return StrVal(strings.ToLower(recv.AsStr())), nil
}

func methodSplit(recv Value, name string, args []Value) (Value, error) {
	if len(args) != 1 {
		return NilVal(), methodArity(name, 1, len(args))
	}
	if !recv.IsStr() {
		return NilVal(), methodError(name, recv)
	}
	if !args[0].IsStr() {
		return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
			Message: fmt.Sprintf("Method 'split' expects a str separator, got '%s'", args[0].Kind())}
	}
	parts := strings.Split(recv.AsStr(), args[0].AsStr())
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = StrVal(p)
	}
	return ObjVal(&ObjList{Elements: out}), nil
}

func methodLines(recv Value, name string, args []Value) (Value, error) {
	if len(args) != 0 {
		return NilVal(), methodArity(name, 0, len(args))
	}
	if !recv.IsStr() {
		return NilVal(), methodError(name, recv)
	}
	s := recv.AsStr()
	var out []Value
	if s != "" {
		s = strings.TrimSuffix(s, "\n")
		for _, line := range strings.Split(s, "\n") {
			out = append(out, StrVal(strings.TrimSuffix(line, "\r")))
		}
	}
	return ObjVal(&ObjList{Elements: out}), nil
}

func methodLen(recv Value, name string, args []Value) (Value, error) {
	if len(args) != 0 {
		return NilVal(), methodArity(name, 0, len(args))
	}
	if recv.Type == ValObj {
		switch o := recv.Obj.(type) {
		case *ObjString:
			return IntVal(int64(len([]rune(o.Value)))), nil
		case *ObjList:
			return IntVal(int64(len(o.Elements))), nil
		case *ObjTuple:
			return IntVal(int64(len(o.Elements))), nil
		case *ObjSet:
			return IntVal(int64(o.Len())), nil
		case *ObjMap:
			return IntVal(int64(o.Len())), nil
		case *ObjRange:
			if o.OpenEnded {
				return NilVal(), &RuntimeError{Kind: ErrValue,
					Message: "Cannot take the length of an open-ended range"}
			}
			start, end := o.Bounds()
			if end < start {
				return IntVal(0), nil
			}
			return IntVal(end - start), nil
		}
	}
	return NilVal(), methodError(name, recv)
}

func methodCount(recv Value, name string, args []Value) (Value, error) {
	if len(args) != 1 {
		return NilVal(), methodArity(name, 1, len(args))
	}
	if recv.IsStr() {
		if !args[0].IsStr() {
			return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
				Message: fmt.Sprintf("Method 'count' expects a str argument, got '%s'", args[0].Kind())}
		}
		return IntVal(int64(strings.Count(recv.AsStr(), args[0].AsStr()))), nil
	}
	if list, ok := listOf(recv); ok {
		var n int64
		for _, el := range list.Elements {
			if el.Equals(args[0]) {
				n++
			}
		}
		return IntVal(n), nil
	}
	return NilVal(), methodError(name, recv)
}

func methodJoin(recv Value, name string, args []Value) (Value, error) {
	if len(args) > 1 {
		return NilVal(), methodArity(name, 1, len(args))
	}
	sep := ""
	if len(args) == 1 {
		if !args[0].IsStr() {
			return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
				Message: fmt.Sprintf("Method 'join' expects a str separator, got '%s'", args[0].Kind())}
		}
		sep = args[0].AsStr()
	}
	elements, ok := sequenceOf(recv)
	if !ok {
		return NilVal(), methodError(name, recv)
	}
	parts := make([]string, len(elements))
	for i, el := range elements {
		parts[i] = el.Display()
	}
	return StrVal(strings.Join(parts, sep)), nil
}

func methodContains(recv Value, name string, args []Value) (Value, error) {
	if len(args) != 1 {
		return NilVal(), methodArity(name, 1, len(args))
	}
	result, err := containsValue(args[0], recv)
	if err != nil {
		return NilVal(), methodError(name, recv)
	}
	return result, nil
}

// methodSort sorts a list in place and returns it. An optional key
// function maps each element to its sort key.
func methodSort(v *VM, recv Value, args []Value) (Value, error) {
	if len(args) > 1 {
		return NilVal(), methodArity("sort", 1, len(args))
	}
	list, ok := listOf(recv)
	if !ok {
		return NilVal(), methodError("sort", recv)
	}

	keys := list.Elements
	if len(args) == 1 {
		keyFn := args[0]
		keys = make([]Value, len(list.Elements))
		for i, el := range list.Elements {
			k, err := v.callFunctionValue(keyFn, []Value{el})
			if err != nil {
				return NilVal(), err
			}
			keys[i] = k
		}
	}

	indices := make([]int, len(list.Elements))
	for i := range indices {
		indices[i] = i
	}
	var sortErr error
	sort.SliceStable(indices, func(i, j int) bool {
		cmp, err := compareValues(keys[indices[i]], keys[indices[j]])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return cmp < 0
	})
	if sortErr != nil {
		return NilVal(), sortErr
	}

	sorted := make([]Value, len(list.Elements))
	for i, idx := range indices {
		sorted[i] = list.Elements[idx]
	}
	list.Elements = sorted
	return recv, nil
}

func methodEnumerate(recv Value, name string, args []Value) (Value, error) {
	if len(args) != 0 {
		return NilVal(), methodArity(name, 0, len(args))
	}
	elements, err := drain(recv)
	if err != nil {
		return NilVal(), methodError(name, recv)
	}
	var i int64
	n := 0
	return ObjVal(&ObjIterator{next: func() (Value, bool) {
		if n >= len(elements) {
			return NilVal(), false
		}
		pair := &ObjTuple{Elements: []Value{IntVal(i), elements[n]}}
		i++
		n++
		return ObjVal(pair), true
	}}), nil
}

func listOf(v Value) (*ObjList, bool) {
	if v.Type != ValObj {
		return nil, false
	}
	l, ok := v.Obj.(*ObjList)
	return l, ok
}

func sequenceOf(v Value) ([]Value, bool) {
	if v.Type != ValObj {
		return nil, false
	}
	switch o := v.Obj.(type) {
	case *ObjList:
		return o.Elements, true
	case *ObjTuple:
		return o.Elements, true
	}
	return nil, false
}
