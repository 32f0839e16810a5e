package vm

import (
	"math"
	"testing"
)

func TestValueEquality(t *testing.T) {
	tests := []struct {
		a, b  Value
		equal bool
	}{
		{IntVal(1), IntVal(1), true},
		{IntVal(1), FloatVal(1.0), true},
		{FloatVal(0.5), FloatVal(0.5), true},
		{IntVal(1), IntVal(2), false},
		{NilVal(), NilVal(), true},
		{NilVal(), IntVal(0), false},
		{BoolVal(true), BoolVal(true), true},
		{BoolVal(true), IntVal(1), false},
		{StrVal("a"), StrVal("a"), true},
		{StrVal("a"), StrVal("b"), false},
	}
	for _, tt := range tests {
		if got := tt.a.Equals(tt.b); got != tt.equal {
			t.Errorf("%s == %s: got %v, want %v", tt.a.Repr(), tt.b.Repr(), got, tt.equal)
		}
	}
}

func TestCollectionEquality(t *testing.T) {
	listA := ObjVal(&ObjList{Elements: []Value{IntVal(1), IntVal(2)}})
	listB := ObjVal(&ObjList{Elements: []Value{IntVal(1), IntVal(2)}})
	listC := ObjVal(&ObjList{Elements: []Value{IntVal(2), IntVal(1)}})
	if !listA.Equals(listB) {
		t.Error("equal lists compare unequal")
	}
	if listA.Equals(listC) {
		t.Error("differently ordered lists compare equal")
	}

	setA := NewSet()
	setA.Add(IntVal(1))
	setA.Add(IntVal(2))
	setB := NewSet()
	setB.Add(IntVal(2))
	setB.Add(IntVal(1))
	if !ObjVal(setA).Equals(ObjVal(setB)) {
		t.Error("sets with the same members compare unequal")
	}
}

func TestIntegralFloatsShareMapSlot(t *testing.T) {
	m := NewMap()
	if !m.Set(FloatVal(1.0), StrVal("x")) {
		t.Fatal("1.0 should be hashable")
	}
	got, _ := m.Get(IntVal(1))
	if !got.Equals(StrVal("x")) {
		t.Errorf("m[1] after m[1.0]=x: got %v", got.Repr())
	}
}

func TestTupleMapKeys(t *testing.T) {
	m := NewMap()
	key := ObjVal(&ObjTuple{Elements: []Value{IntVal(1), StrVal("a")}})
	if !m.Set(key, IntVal(42)) {
		t.Fatal("tuple of hashables should be hashable")
	}
	same := ObjVal(&ObjTuple{Elements: []Value{IntVal(1), StrVal("a")}})
	got, _ := m.Get(same)
	if !got.Equals(IntVal(42)) {
		t.Errorf("tuple key lookup failed: got %v", got.Repr())
	}
	other := ObjVal(&ObjTuple{Elements: []Value{IntVal(1), StrVal("b")}})
	if m.Has(other) {
		t.Error("distinct tuple keys collide")
	}
}

func TestUnhashableKeysRejected(t *testing.T) {
	m := NewMap()
	list := ObjVal(&ObjList{Elements: []Value{IntVal(1)}})
	if m.Set(list, IntVal(1)) {
		t.Error("list accepted as map key")
	}
	s := NewSet()
	if s.Add(ObjVal(NewMap())) {
		t.Error("map accepted as set member")
	}
}

func TestTruthiness(t *testing.T) {
	falsy := []Value{
		NilVal(), BoolVal(false), IntVal(0), FloatVal(0.0), StrVal(""),
		ObjVal(&ObjList{}), ObjVal(&ObjTuple{}), ObjVal(NewSet()), ObjVal(NewMap()),
	}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("%s should be falsy", v.Repr())
		}
	}
	truthy := []Value{
		BoolVal(true), IntVal(-1), FloatVal(0.1), StrVal(" "),
		ObjVal(&ObjList{Elements: []Value{NilVal()}}),
	}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("%s should be truthy", v.Repr())
		}
	}
}

func TestDisplayAndRepr(t *testing.T) {
	tests := []struct {
		value   Value
		display string
		repr    string
	}{
		{IntVal(42), "42", "42"},
		{FloatVal(1.5), "1.5", "1.5"},
		{FloatVal(1.0), "1", "1"},
		{FloatVal(math.NaN()), "NaN", "NaN"},
		{StrVal("hi"), "hi", `"hi"`},
		{StrVal("a\"b"), `a"b`, `"a\"b"`},
		{NilVal(), "null", "null"},
		{BoolVal(true), "true", "true"},
		{ObjVal(&ObjTuple{Elements: []Value{IntVal(1)}}), "(1,)", "(1,)"},
		{ObjVal(&ObjRange{Start: 1, End: 5}), "1..5", "1..5"},
		{ObjVal(&ObjRange{Start: 1, End: 5, Inclusive: true}), "1..=5", "1..=5"},
		{ObjVal(&ObjRange{Start: 3, OpenEnded: true}), "3..", "3.."},
	}
	for _, tt := range tests {
		if got := tt.value.Display(); got != tt.display {
			t.Errorf("Display: got %q, want %q", got, tt.display)
		}
		if got := tt.value.Repr(); got != tt.repr {
			t.Errorf("Repr: got %q, want %q", got, tt.repr)
		}
	}
}

func TestValueOrderingByKindThenValue(t *testing.T) {
	// Sorted iteration interleaves kinds in a fixed rank order.
	ordered := []Value{
		NilVal(),
		BoolVal(false),
		BoolVal(true),
		IntVal(1),
		FloatVal(1.5),
		IntVal(2),
		StrVal("a"),
		StrVal("b"),
	}
	for i := 0; i < len(ordered)-1; i++ {
		if !valueLess(ordered[i], ordered[i+1]) {
			t.Errorf("%s should sort before %s", ordered[i].Repr(), ordered[i+1].Repr())
		}
		if valueLess(ordered[i+1], ordered[i]) {
			t.Errorf("%s should not sort before %s", ordered[i+1].Repr(), ordered[i].Repr())
		}
	}
}

func TestSetValuesSorted(t *testing.T) {
	s := NewSet()
	for _, v := range []Value{IntVal(3), IntVal(1), StrVal("a"), IntVal(2)} {
		if !s.Add(v) {
			t.Fatalf("failed to add %s", v.Repr())
		}
	}
	got := s.Values()
	want := []Value{IntVal(1), IntVal(2), IntVal(3), StrVal("a")}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equals(want[i]) {
			t.Errorf("Values()[%d] = %s, want %s", i, got[i].Repr(), want[i].Repr())
		}
	}
}
