package vm

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/linefeed-lang/linefeed/internal/config"
)

func builtinArity(name string, want, got int) error {
	return &RuntimeError{Kind: ErrArityMismatch,
		Message: fmt.Sprintf("Builtin '%s' expects %d arguments, got %d", name, want, got)}
}

var builtinImpls = map[string]func(v *VM, args []Value) (Value, error){
	"print":      builtinPrint,
	"input":      builtinInput,
	"int":        builtinInt,
	"str":        builtinStr,
	"repr":       builtinRepr,
	"list":       builtinList,
	"tuple":      builtinTuple,
	"map":        builtinMap,
	"defaultmap": builtinDefaultMap,
	"set":        builtinSet,
	"sum":        builtinSum,
	"mul":        builtinMul,
	"all":        builtinAll,
	"any":        builtinAny,
	"max":        builtinMax,
	"min":        builtinMin,
	"abs":        builtinAbs,
}

// builtinRegistry is indexed the same way the resolver indexes builtin
// references, via config.Builtins.
var builtinRegistry = func() []*ObjBuiltin {
	out := make([]*ObjBuiltin, len(config.Builtins))
	for i, name := range config.Builtins {
		fn, ok := builtinImpls[name]
		if !ok {
			panic("missing builtin implementation: " + name)
		}
		out[i] = &ObjBuiltin{Name: name, Fn: fn}
	}
	return out
}()

func builtinByIndex(i int) *ObjBuiltin {
	return builtinRegistry[i]
}

func builtinPrint(v *VM, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Display()
	}
	if _, err := fmt.Fprintln(v.stdout, strings.Join(parts, " ")); err != nil {
		return NilVal(), &RuntimeError{Kind: ErrInternal, Message: err.Error()}
	}
	return NilVal(), nil
}

func builtinInput(v *VM, args []Value) (Value, error) {
	if len(args) != 0 {
		return NilVal(), builtinArity("input", 0, len(args))
	}
	text, err := io.ReadAll(v.stdin)
	if err != nil {
		return NilVal(), &RuntimeError{Kind: ErrInternal, Message: err.Error()}
	}
	return StrVal(string(text)), nil
}

func builtinInt(_ *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return NilVal(), builtinArity("int", 1, len(args))
	}
	a := args[0]
	switch {
	case a.IsInt():
		return a, nil
	case a.IsFloat():
		return IntVal(int64(a.AsFloat())), nil
	case a.IsBool():
		if a.AsBool() {
			return IntVal(1), nil
		}
		return IntVal(0), nil
	case a.IsStr():
		n, err := strconv.ParseInt(strings.TrimSpace(a.AsStr()), 10, 64)
		if err != nil {
			return NilVal(), &RuntimeError{Kind: ErrValue,
				Message: fmt.Sprintf("Cannot convert %s to int", a.Repr())}
		}
		return IntVal(n), nil
	}
	return NilVal(), &RuntimeError{Kind: ErrValue,
		Message: fmt.Sprintf("Cannot convert %s to int", a.Repr())}
}

func builtinStr(_ *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return NilVal(), builtinArity("str", 1, len(args))
	}
	return StrVal(args[0].Display()), nil
}

func builtinRepr(_ *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return NilVal(), builtinArity("repr", 1, len(args))
	}
	return StrVal(args[0].Repr()), nil
}

func builtinList(_ *VM, args []Value) (Value, error) {
	elements, err := optionalIterable("list", args)
	if err != nil {
		return NilVal(), err
	}
	return ObjVal(&ObjList{Elements: elements}), nil
}

func builtinTuple(_ *VM, args []Value) (Value, error) {
	elements, err := optionalIterable("tuple", args)
	if err != nil {
		return NilVal(), err
	}
	return ObjVal(&ObjTuple{Elements: elements}), nil
}

func builtinMap(_ *VM, args []Value) (Value, error) {
	m := NewMap()
	elements, err := optionalIterable("map", args)
	if err != nil {
		return NilVal(), err
	}
	for _, el := range elements {
		pair, ok := sequenceOf(el)
		if !ok || len(pair) != 2 {
			return NilVal(), &RuntimeError{Kind: ErrValue,
				Message: "map() expects an iterable of key/value pairs"}
		}
		if !m.Set(pair[0], pair[1]) {
			return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
				Message: fmt.Sprintf("Cannot use type '%s' as a map key", pair[0].Kind())}
		}
	}
	return ObjVal(m), nil
}

func builtinDefaultMap(_ *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return NilVal(), builtinArity("defaultmap", 1, len(args))
	}
	return ObjVal(NewDefaultMap(args[0])), nil
}

func builtinSet(_ *VM, args []Value) (Value, error) {
	elements, err := optionalIterable("set", args)
	if err != nil {
		return NilVal(), err
	}
	s := NewSet()
	for _, el := range elements {
		if !s.Add(el) {
			return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
				Message: fmt.Sprintf("Cannot use type '%s' as a set member", el.Kind())}
		}
	}
	return ObjVal(s), nil
}

func builtinSum(_ *VM, args []Value) (Value, error) {
	items, err := itemsOf(args)
	if err != nil {
		return NilVal(), err
	}
	acc := IntVal(0)
	for _, item := range items {
		acc, err = addValues(acc, item, false)
		if err != nil {
			return NilVal(), err
		}
	}
	return acc, nil
}

func builtinMul(_ *VM, args []Value) (Value, error) {
	items, err := itemsOf(args)
	if err != nil {
		return NilVal(), err
	}
	acc := IntVal(1)
	for _, item := range items {
		acc, err = arith(acc, item, "multiply",
			func(x, y int64) (int64, error) { return x * y, nil },
			func(x, y float64) float64 { return x * y })
		if err != nil {
			return NilVal(), err
		}
	}
	return acc, nil
}

func builtinAll(_ *VM, args []Value) (Value, error) {
	items, err := itemsOf(args)
	if err != nil {
		return NilVal(), err
	}
	for _, item := range items {
		if !item.Truthy() {
			return BoolVal(false), nil
		}
	}
	return BoolVal(true), nil
}

func builtinAny(_ *VM, args []Value) (Value, error) {
	items, err := itemsOf(args)
	if err != nil {
		return NilVal(), err
	}
	for _, item := range items {
		if item.Truthy() {
			return BoolVal(true), nil
		}
	}
	return BoolVal(false), nil
}

func builtinMax(_ *VM, args []Value) (Value, error) {
	return extremum(args, "maximum", 1)
}

func builtinMin(_ *VM, args []Value) (Value, error) {
	return extremum(args, "minimum", -1)
}

func extremum(args []Value, what string, direction int) (Value, error) {
	items, err := itemsOf(args)
	if err != nil {
		return NilVal(), err
	}
	if len(items) == 0 {
		return NilVal(), &RuntimeError{Kind: ErrValue,
			Message: fmt.Sprintf("Received empty iterator, cannot find %s", what)}
	}
	best := items[0]
	for _, item := range items[1:] {
		cmp, err := compareValues(item, best)
		if err != nil {
			return NilVal(), err
		}
		if cmp*direction > 0 {
			best = item
		}
	}
	return best, nil
}

func builtinAbs(_ *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return NilVal(), builtinArity("abs", 1, len(args))
	}
	a := args[0]
	if a.IsInt() {
		n := a.AsInt()
		if n < 0 {
			n = -n
		}
		return IntVal(n), nil
	}
	if a.IsFloat() {
		return FloatVal(math.Abs(a.AsFloat())), nil
	}
	return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
		Message: fmt.Sprintf("Type mismatch: Cannot take the absolute value of type '%s'", a.Kind())}
}

// optionalIterable implements the zero-or-one-iterable constructors.
func optionalIterable(name string, args []Value) ([]Value, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		return drain(args[0])
	}
	return nil, builtinArity(name, 1, len(args))
}

// itemsOf implements the variadic-or-iterable convention of the
// aggregate builtins: a single iterable argument is iterated, anything
// else is taken as the items themselves.
func itemsOf(args []Value) ([]Value, error) {
	if len(args) == 1 && isIterable(args[0]) {
		return drain(args[0])
	}
	return args, nil
}

func isIterable(v Value) bool {
	if v.Type != ValObj {
		return false
	}
	switch v.Obj.(type) {
	case *ObjList, *ObjTuple, *ObjSet, *ObjMap, *ObjString, *ObjRange, *ObjIterator:
		return true
	}
	return false
}
