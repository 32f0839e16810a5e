package vm

import (
	"regexp"
	"sort"
)

// Object is the interface for heap-allocated runtime values.
// Kind returns the user-facing type name used in error messages.
type Object interface {
	Kind() string
}

type ObjString struct {
	Value string
}

func (s *ObjString) Kind() string { return "str" }

type ObjList struct {
	Elements []Value
}

func (l *ObjList) Kind() string { return "list" }

type ObjTuple struct {
	Elements []Value
}

func (t *ObjTuple) Kind() string { return "tuple" }

// ObjSet stores members keyed by their hashable form; the original
// value is kept so iteration and display can reproduce it.
type ObjSet struct {
	entries map[mapKey]Value
}

func NewSet() *ObjSet {
	return &ObjSet{entries: make(map[mapKey]Value)}
}

func (s *ObjSet) Kind() string { return "set" }

func (s *ObjSet) Len() int { return len(s.entries) }

func (s *ObjSet) Add(v Value) bool {
	k, ok := hashKey(v)
	if !ok {
		return false
	}
	s.entries[k] = v
	return true
}

func (s *ObjSet) Has(v Value) bool {
	k, ok := hashKey(v)
	if !ok {
		return false
	}
	_, present := s.entries[k]
	return present
}

// Values returns the members in a deterministic order.
func (s *ObjSet) Values() []Value {
	out := make([]Value, 0, len(s.entries))
	for _, v := range s.entries {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return valueLess(out[i], out[j]) })
	return out
}

func (s *ObjSet) Clone() *ObjSet {
	out := NewSet()
	for k, v := range s.entries {
		out.entries[k] = v
	}
	return out
}

type mapEntry struct {
	key   Value
	value Value
}

// ObjMap is the map runtime value. A map created with defaultmap
// carries a default used for missing keys.
type ObjMap struct {
	entries    map[mapKey]mapEntry
	defaultVal Value
	hasDefault bool
}

func NewMap() *ObjMap {
	return &ObjMap{entries: make(map[mapKey]mapEntry)}
}

func NewDefaultMap(def Value) *ObjMap {
	return &ObjMap{entries: make(map[mapKey]mapEntry), defaultVal: def, hasDefault: true}
}

func (m *ObjMap) Kind() string { return "map" }

func (m *ObjMap) Len() int { return len(m.entries) }

func (m *ObjMap) Set(key, val Value) bool {
	k, ok := hashKey(key)
	if !ok {
		return false
	}
	m.entries[k] = mapEntry{key: key, value: val}
	return true
}

// Get returns the value for key. Missing keys yield the map's default
// (a fresh copy for mutable defaults) or null.
func (m *ObjMap) Get(key Value) (Value, bool) {
	k, ok := hashKey(key)
	if !ok {
		return NilVal(), false
	}
	if e, present := m.entries[k]; present {
		return e.value, true
	}
	if m.hasDefault {
		return copyValue(m.defaultVal), true
	}
	return NilVal(), true
}

func (m *ObjMap) Has(key Value) bool {
	k, ok := hashKey(key)
	if !ok {
		return false
	}
	_, present := m.entries[k]
	return present
}

// Keys returns the map keys in a deterministic order.
func (m *ObjMap) Keys() []Value {
	out := make([]Value, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.key)
	}
	sort.Slice(out, func(i, j int) bool { return valueLess(out[i], out[j]) })
	return out
}

// copyValue shallow-copies mutable containers so defaultmap defaults
// do not end up shared between keys.
func copyValue(v Value) Value {
	if v.Type != ValObj {
		return v
	}
	switch o := v.Obj.(type) {
	case *ObjList:
		return ObjVal(&ObjList{Elements: append([]Value(nil), o.Elements...)})
	case *ObjSet:
		return ObjVal(o.Clone())
	case *ObjMap:
		out := &ObjMap{entries: make(map[mapKey]mapEntry, len(o.entries)), defaultVal: o.defaultVal, hasDefault: o.hasDefault}
		for k, e := range o.entries {
			out.entries[k] = e
		}
		return ObjVal(out)
	}
	return v
}

// ObjRange is a numeric range. An open-ended range (a..) has no End;
// it only makes sense as a slice bound.
type ObjRange struct {
	Start     int64
	End       int64
	Inclusive bool
	OpenEnded bool
}

func (r *ObjRange) Kind() string { return "range" }

// Bounds returns the half-open [start, end) form of the range.
func (r *ObjRange) Bounds() (int64, int64) {
	end := r.End
	if r.Inclusive {
		end++
	}
	return r.Start, end
}

// ObjRegex is a compiled regex literal. ParseNums is set by the n
// flag: integral capture groups convert to ints.
type ObjRegex struct {
	Pattern   string
	Flags     string
	Re        *regexp.Regexp
	ParseNums bool
}

func (r *ObjRegex) Kind() string { return "regex" }

// CompiledFunction represents a function compiled to bytecode
type CompiledFunction struct {
	Arity        int    // Number of parameters
	Chunk        *Chunk // Bytecode
	Name         string // Function name (for debugging; "" for lambdas)
	LocalCount   int    // Number of frame slots (params included)
	UpvalueCount int    // Number of upvalues this function captures
}

func (f *CompiledFunction) Kind() string { return "function" }

// ObjClosure wraps a CompiledFunction with its captured upvalues
type ObjClosure struct {
	Function *CompiledFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) Kind() string { return "function" }

// ObjUpvalue represents a captured variable from an enclosing scope.
// It is "open" while the variable still lives on the stack and holds
// the value directly once closed.
type ObjUpvalue struct {
	// When open: Location is the absolute stack slot index.
	// When closed: Location is -1 and Closed holds the value.
	Location int
	Closed   Value

	// For the VM's open upvalue list (singly linked, sorted by location)
	Next *ObjUpvalue
}

// ObjBuiltin wraps a Go function as a callable value
type ObjBuiltin struct {
	Name string
	Fn   func(v *VM, args []Value) (Value, error)
}

func (b *ObjBuiltin) Kind() string { return "function" }

// ObjIterator is a live iteration over a sequence
type ObjIterator struct {
	next func() (Value, bool)
}

func (i *ObjIterator) Kind() string { return "iterator" }

// Next returns the next element, or false when exhausted.
func (i *ObjIterator) Next() (Value, bool) {
	return i.next()
}
