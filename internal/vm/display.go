package vm

import (
	"math"
	"strconv"
	"strings"
)

// Display renders a value the way print shows it: strings appear bare.
func (v Value) Display() string {
	if v.IsStr() {
		return v.AsStr()
	}
	return v.Repr()
}

// Repr renders a value the way it appears inside collections: strings
// are quoted, everything else matches Display.
func (v Value) Repr() string {
	switch v.Type {
	case ValNil:
		return "null"
	case ValBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case ValInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case ValFloat:
		return formatFloat(v.AsFloat())
	case ValObj:
		return objRepr(v.Obj)
	default:
		return "<?>"
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func objRepr(o Object) string {
	switch o := o.(type) {
	case *ObjString:
		return strconv.Quote(o.Value)
	case *ObjList:
		return "[" + joinReprs(o.Elements) + "]"
	case *ObjTuple:
		if len(o.Elements) == 1 {
			return "(" + o.Elements[0].Repr() + ",)"
		}
		return "(" + joinReprs(o.Elements) + ")"
	case *ObjSet:
		return "{" + joinReprs(o.Values()) + "}"
	case *ObjMap:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, key := range o.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			val, _ := o.Get(key)
			sb.WriteString(key.Repr())
			sb.WriteString(": ")
			sb.WriteString(val.Repr())
		}
		sb.WriteByte('}')
		return sb.String()
	case *ObjRange:
		start := strconv.FormatInt(o.Start, 10)
		if o.OpenEnded {
			return start + ".."
		}
		op := ".."
		if o.Inclusive {
			op = "..="
		}
		return start + op + strconv.FormatInt(o.End, 10)
	case *ObjRegex:
		return "/" + o.Pattern + "/" + o.Flags
	case *CompiledFunction:
		if o.Name != "" {
			return "<fn " + o.Name + ">"
		}
		return "<fn>"
	case *ObjClosure:
		return objRepr(o.Function)
	case *ObjBuiltin:
		return "<builtin " + o.Name + ">"
	case *ObjIterator:
		return "<iterator>"
	default:
		return "<" + o.Kind() + ">"
	}
}

func joinReprs(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.Repr()
	}
	return strings.Join(parts, ", ")
}

var kindRank = map[string]int{
	"null":     0,
	"boolean":  1,
	"number":   2,
	"str":      3,
	"regex":    4,
	"range":    5,
	"tuple":    6,
	"list":     7,
	"set":      8,
	"map":      9,
	"function": 10,
	"iterator": 11,
}

// valueLess is the deterministic ordering used for set and map
// iteration. Values of the same kind compare naturally, different
// kinds order by kind rank.
func valueLess(a, b Value) bool {
	ra, rb := kindRank[a.Kind()], kindRank[b.Kind()]
	if ra != rb {
		return ra < rb
	}
	switch {
	case (a.IsInt() || a.IsFloat()) && (b.IsInt() || b.IsFloat()):
		return numAsFloat(a) < numAsFloat(b)
	case a.IsStr() && b.IsStr():
		return a.AsStr() < b.AsStr()
	case a.IsBool() && b.IsBool():
		return !a.AsBool() && b.AsBool()
	}
	if at, ok := a.Obj.(*ObjTuple); ok {
		if bt, ok := b.Obj.(*ObjTuple); ok {
			return elementsLess(at.Elements, bt.Elements)
		}
	}
	return a.Repr() < b.Repr()
}

func elementsLess(a, b []Value) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if valueLess(a[i], b[i]) {
			return true
		}
		if valueLess(b[i], a[i]) {
			return false
		}
	}
	return len(a) < len(b)
}

func numAsFloat(v Value) float64 {
	if v.IsInt() {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}
