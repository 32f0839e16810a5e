package vm

import (
	"fmt"
	"regexp"
	"strconv"
)

var integralRe = regexp.MustCompile(`^-?\d+$`)

// regexOp implements find, find_all and is_match: a string receiver
// matched against a regex argument.
func regexOp(op Opcode, subject, pattern Value) (Value, error) {
	if !subject.IsStr() {
		return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
			Message: fmt.Sprintf("Cannot call method '%s' on type '%s'", regexOpName(op), subject.Kind())}
	}
	re, ok := regexObj(pattern)
	if !ok {
		return NilVal(), &RuntimeError{Kind: ErrTypeMismatch,
			Message: fmt.Sprintf("Method '%s' expects a regex argument, got '%s'", regexOpName(op), pattern.Kind())}
	}
	s := subject.AsStr()

	switch op {
	case OP_IS_MATCH:
		return BoolVal(re.Re.MatchString(s)), nil
	case OP_FIND:
		m := re.Re.FindStringSubmatchIndex(s)
		if m == nil {
			return NilVal(), nil
		}
		return matchValue(re, s, m), nil
	case OP_FIND_ALL:
		ms := re.Re.FindAllStringSubmatchIndex(s, -1)
		out := make([]Value, 0, len(ms))
		for _, m := range ms {
			out = append(out, matchValue(re, s, m))
		}
		return ObjVal(&ObjList{Elements: out}), nil
	}
	return NilVal(), &RuntimeError{Kind: ErrInternal, Message: fmt.Sprintf("bad regex opcode %d", op)}
}

func regexOpName(op Opcode) string {
	switch op {
	case OP_FIND:
		return "find"
	case OP_FIND_ALL:
		return "find_all"
	default:
		return "is_match"
	}
}

func regexObj(v Value) (*ObjRegex, bool) {
	if v.Type != ValObj {
		return nil, false
	}
	r, ok := v.Obj.(*ObjRegex)
	return r, ok
}

// matchValue converts one submatch index vector into a runtime value.
// A pattern without groups yields the matched string; with groups it
// yields a tuple of the groups with the full match appended last.
// Unmatched optional groups become null.
func matchValue(re *ObjRegex, s string, m []int) Value {
	groups := len(m)/2 - 1
	full := groupValue(re, s, m, 0)
	if groups == 0 {
		return full
	}
	elements := make([]Value, 0, groups+1)
	for g := 1; g <= groups; g++ {
		elements = append(elements, groupValue(re, s, m, g))
	}
	elements = append(elements, full)
	return ObjVal(&ObjTuple{Elements: elements})
}

func groupValue(re *ObjRegex, s string, m []int, g int) Value {
	lo, hi := m[2*g], m[2*g+1]
	if lo < 0 {
		return NilVal()
	}
	text := s[lo:hi]
	if re.ParseNums && integralRe.MatchString(text) {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return IntVal(n)
		}
	}
	return StrVal(text)
}
