package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/linefeed-lang/linefeed/internal/lexer"
	"github.com/linefeed-lang/linefeed/internal/parser"
	"github.com/linefeed-lang/linefeed/internal/resolver"
)

func compileSource(t *testing.T, src string) *CompiledFunction {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	program := p.ParseProgram()
	program.File = "test.lf"
	if len(l.Errors) > 0 {
		t.Fatalf("lex error: %v", l.Errors[0])
	}
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse error: %v", errs[0])
	}
	if errs := resolver.Resolve(program); len(errs) > 0 {
		t.Fatalf("resolve error: %v", errs[0])
	}
	fn, err := Compile(program)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return fn
}

func runSource(t *testing.T, src string) (Value, string) {
	t.Helper()
	fn := compileSource(t, src)
	var out bytes.Buffer
	machine := New(WithStdout(&out), WithStdin(strings.NewReader("")))
	result, err := machine.Interpret(fn)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return result, out.String()
}

func runExpectError(t *testing.T, src string) *RuntimeError {
	t.Helper()
	fn := compileSource(t, src)
	machine := New(WithStdout(&bytes.Buffer{}), WithStdin(strings.NewReader("")))
	_, err := machine.Interpret(fn)
	if err == nil {
		t.Fatalf("expected runtime error, got none")
	}
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T: %v", err, err)
	}
	return re
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"7 / 2", "3"},
		{"-7 / 2", "-3"},
		{"7.0 / 2", "3.5"},
		{"7 // 2", "3"},
		{"-7 // 2", "-4"},
		{"7 % 3", "1"},
		{"7.5 % 2", "1.5"},
		{"2 ** 10", "1024"},
		{"2 ** -1", "0.5"},
		{"-(3 + 4)", "-7"},
		{"1.5 + 1", "2.5"},
		{"10 - 2 - 3", "5"},
		{"2 ** 3 ** 2", "512"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestStringOperations(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{`"foo" + "bar"`, `"foobar"`},
		{`"n=" + 42`, `"n=42"`},
		{`1 + "x"`, `"1x"`},
		{`"hello"[1]`, `"e"`},
		{`"hello"[-1]`, `"o"`},
		{`"hello"[1..3]`, `"el"`},
		{`"hello"[1..]`, `"ello"`},
		{`"hello"[0..=2]`, `"hel"`},
		{`"Hi".upper()`, `"HI"`},
		{`"Hi".lower()`, `"hi"`},
		{`"a,b,c".split(",")`, `["a", "b", "c"]`},
		{`"a\nb\n".lines()`, `["a", "b"]`},
		{`"banana".count("an")`, "2"},
		{`"hello".len()`, "5"},
		{`["a", "b"].join("-")`, `"a-b"`},
		{`[1, 2].join(", ")`, `"1, 2"`},
		{`"ell" in "hello"`, "true"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestTruthinessAndLogic(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"not null", "true"},
		{"not 0", "true"},
		{`not ""`, "true"},
		{"not []", "true"},
		{"not 5", "false"},
		{"1 and 2", "2"},
		{"0 and 2", "false"},
		{"null or 5", "5"},
		{"false or 5", "5"},
		{"0 or 5", "5"},
		{`"" or 5`, "5"},
		{"[] or 5", "5"},
		{`"x" or 5`, `"x"`},
		{"1 or 5", "1"},
		{"true xor false", "true"},
		{"true xor true", "false"},
		{"1 == 1.0", "true"},
		{"1 != 2", "true"},
		{`"a" < "b"`, "true"},
		{"[1, 2] < [1, 3]", "true"},
		{"(1, 2) == (1, 2)", "true"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestShortCircuit(t *testing.T) {
	src := `
hits = 0
fn bump() { hits += 1; true }
false and bump()
null or bump()
hits
`
	result, _ := runSource(t, src)
	if got := result.Repr(); got != "1" {
		t.Errorf("got %s, want 1", got)
	}
}

func TestRangesAndComprehensions(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"[x for x in 1..=5]", "[1, 2, 3, 4, 5]"},
		{"[x for x in 1..5]", "[1, 2, 3, 4]"},
		{"[x * x for x in 1..4]", "[1, 4, 9]"},
		{"[x for x in 1..=10 if x % 2 == 0]", "[2, 4, 6, 8, 10]"},
		{"3 in 1..5", "true"},
		{"5 in 1..5", "false"},
		{"5 in 1..=5", "true"},
		{"7 in 3..", "true"},
		{"(1..=5).len()", "5"},
		{"[y for y in [x + 1 for x in 1..3]]", "[2, 3]"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestCollections(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"l = [1, 2]; l.append(3); l", "[1, 2, 3]"},
		{"l = [1, 2] + [3]; l", "[1, 2, 3]"},
		{"[1, 2, 3][-1]", "3"},
		{"[1, 2, 3, 4][1..3]", "[2, 3]"},
		{"l = [1, 2, 3]; l[0] = 9; l", "[9, 2, 3]"},
		{"l = [1, 2, 3]; l[1] += 10; l", "[1, 12, 3]"},
		{"(1, 2, 3)[1]", "2"},
		{`m = {"a": 1}; m["b"] = 2; m["a"] + m["b"]`, "3"},
		{`m = {"a": 1}; m["missing"]`, "null"},
		{`m = defaultmap(0); m["x"] += 1; m["x"] += 1; m["x"]`, "2"},
		{`m = defaultmap([]); m["x"]`, "[]"},
		{"s = set([1, 2, 2, 3]); s.len()", "3"},
		{"set([1, 2]) + set([2, 3])", "{1, 2, 3}"},
		{"set([1, 2, 3]) & set([2, 3, 4])", "{2, 3}"},
		{"2 in set([1, 2])", "true"},
		{`"a" in {"a": 1}`, "true"},
		{"2 not in [1, 3]", "true"},
		{"[1, 2].contains(2)", "true"},
		{"[1, 1, 2].count(1)", "2"},
		{"{1: true, 2: false}.len()", "2"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestSetCompoundAssignMutatesSharedCell(t *testing.T) {
	src := `
s = set([1, 2, 3])
alias = s
s += set([4, 5])
s &= set([2, 3, 4, 9])
alias
`
	result, _ := runSource(t, src)
	if got := result.Repr(); got != "{2, 3, 4}" {
		t.Errorf("got %s, want {2, 3, 4}", got)
	}
}

func TestDestructuring(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"a, b = (1, 2); a + b", "3"},
		{"a, b = [10, 20]; b - a", "10"},
		{`a, b, c = "123"; (a, b, c)`, `("1", "2", "3")`},
		{`a, b, c = "123"; int(a) + int(b) + int(c)`, "6"},
		{"a, b = (1, 2); a, b = (b, a); (a, b)", "(2, 1)"},
		{`pairs = [(1, "a"), (2, "b")]; [k for k, _v in pairs]`, "[1, 2]"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestControlFlow(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"if 1 < 2 { 10 } else { 20 }", "10"},
		{"if 1 > 2 { 10 }", "null"},
		{"if false { 1 } else if true { 2 } else { 3 }", "2"},
		{"x = 0; x = 5 if true; x", "5"},
		{"x = 0; x = 5 if false; x", "0"},
		{"x = 0; x = 5 unless true; x", "0"},
		{"n = 0; while n < 5 { n += 1 }; n", "5"},
		{"n = 0; while true { n += 1; break if n == 3 }; n", "3"},
		{"total = 0; for x in 1..=4 { continue if x == 2; total += x }; total", "8"},
		{"total = 0; for x in [1, 2, 3] { total += x }; total", "6"},
		{`out = ""; for c in "abc" { out = c + out }; out`, `"cba"`},
		{"total = 0; for i in 1..=3 { for j in 1..=3 { break if j == 2; total += 1 } }; total", "3"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestMapIterationYieldsSortedKeys(t *testing.T) {
	src := `
m = {"b": 2, "a": 1, "c": 3}
[k for k in m]
`
	result, _ := runSource(t, src)
	if got := result.Repr(); got != `["a", "b", "c"]` {
		t.Errorf("got %s", got)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{`match 2 {1 => "one", 2 => "two", _ => "many"}`, `"two"`},
		{`match 9 {1 => "one", _ => "many"}`, `"many"`},
		{`match "hi" {"hi" => 1, "bye" => 2}`, "1"},
		{`match -1 {-1 => "neg", 0 => "zero", _ => "pos"}`, `"neg"`},
		{`match (1, 2) {(0, 0) => "origin", (1, 2) => "here", _ => "?"}`, `"here"`},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestMatchFailure(t *testing.T) {
	re := runExpectError(t, `match 3 {1 => "one", 2 => "two"}`)
	if re.Kind != ErrPatternMatchFailure {
		t.Errorf("kind = %s, want %s", re.Kind, ErrPatternMatchFailure)
	}
	if !strings.Contains(re.Message, "3") {
		t.Errorf("message %q should name the value", re.Message)
	}
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"fn add(a, b) { a + b }; add(2, 3)", "5"},
		{"fn double(x) x * 2; double(21)", "42"},
		{"inc = |x| x + 1; inc(41)", "42"},
		{"konst = || 7; konst()", "7"},
		{"fn fib(n) { return n if n < 2; fib(n - 1) + fib(n - 2) }; fib(10)", "55"},
		{"fn sign(n) { return \"neg\" if n < 0; return \"zero\" if n == 0; \"pos\" }; sign(-5)", `"neg"`},
		{"apply = |f, x| f(x); apply(|n| n * n, 6)", "36"},
		{"fn outer() { x = 1; fn inner() { x + 1 }; inner() }; outer()", "2"},
		{"fn early() { return; 99 }; early()", "null"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestClosuresShareCapturedCell(t *testing.T) {
	src := `
fn pair() {
	n = 0
	inc = || { n += 1; n }
	get = || n
	[inc, get]
}
fns = pair()
fns[0]()
fns[0]()
fns[1]()
`
	result, _ := runSource(t, src)
	if got := result.Repr(); got != "2" {
		t.Errorf("got %s, want 2", got)
	}
}

func TestCounterClosure(t *testing.T) {
	src := `
fn counter() {
	n = 0
	|| { n += 1; n }
}
c = counter()
c()
c()
c()
`
	result, _ := runSource(t, src)
	if got := result.Repr(); got != "3" {
		t.Errorf("got %s, want 3", got)
	}
}

func TestTopLevelReturn(t *testing.T) {
	result, _ := runSource(t, `x = 1; return x + 1; x = 99`)
	if got := result.Repr(); got != "2" {
		t.Errorf("got %s, want 2", got)
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"sum([1, 2, 3])", "6"},
		{"sum(1, 2, 3)", "6"},
		{"sum([])", "0"},
		{"mul([2, 3, 4])", "24"},
		{"mul([])", "1"},
		{"all([1, true, \"x\"])", "true"},
		{"all([1, 0])", "false"},
		{"any([0, \"\", 3])", "true"},
		{"any([])", "false"},
		{"max([3, 1, 4])", "4"},
		{"max(3, 1, 4)", "4"},
		{"min([3, 1, 4])", "1"},
		{"abs(-5)", "5"},
		{"abs(-2.5)", "2.5"},
		{`int("42")`, "42"},
		{"int(3.9)", "3"},
		{"int(true)", "1"},
		{"str(42)", `"42"`},
		{"str(1.5)", `"1.5"`},
		{`repr("hi")`, `"\"hi\""`},
		{"list(1..=3)", "[1, 2, 3]"},
		{"list(set([2, 1]))", "[1, 2]"},
		{"tuple([1, 2])", "(1, 2)"},
		{`list("ab")`, `["a", "b"]`},
		{`map([("a", 1), ("b", 2)])["b"]`, "2"},
		{"sum(1..=100)", "5050"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestSortAndEnumerate(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"[3, 1, 2].sort()", "[1, 2, 3]"},
		{`["bb", "a", "ccc"].sort(|s| s.len())`, `["a", "bb", "ccc"]`},
		{"[3, 1, 2].sort(|n| -n)", "[3, 2, 1]"},
		{"l = [2, 1]; l.sort(); l", "[1, 2]"},
		{`[(i, c) for i, c in "ab".enumerate()]`, `[(0, "a"), (1, "b")]`},
		{"list([10, 20].enumerate())", "[(0, 10), (1, 20)]"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestRegexMatching(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{`"190cm".is_match(r/^\d+cm$/)`, "true"},
		{`"190in".is_match(r/^\d+cm$/)`, "false"},
		{`"year 2024".find(r/\d+/)`, `"2024"`},
		{`"abc".find(r/\d+/)`, "null"},
		{`"190cm".find(r/^(\d+)(cm|in)$/n)`, `(190, "cm", "190cm")`},
		{`"190cm".find(r/^(\d+)(cm|in)$/)`, `("190", "cm", "190cm")`},
		{`"a1 b22".find_all(r/\d+/n)`, "[1, 22]"},
		{`"k=v,x=y".find_all(r/(\w+)=(\w+)/)`, `[("k", "v", "k=v"), ("x", "y", "x=y")]`},
		{`"HELLO".is_match(r/hello/i)`, "true"},
		{`"ab".find(r/(a)(c)?(b)/)[1]`, "null"},
	}
	for _, tt := range tests {
		result, _ := runSource(t, tt.source)
		if got := result.Repr(); got != tt.expected {
			t.Errorf("%s: got %s, want %s", tt.source, got, tt.expected)
		}
	}
}

func TestPrintOutput(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{`print("hello")`, "hello\n"},
		{`print("Part 1:", 42)`, "Part 1: 42\n"},
		{`print(1.0)`, "1\n"},
		{`print([1, "a", null])`, "[1, \"a\", null]\n"},
		{`print({"k": "v"})`, "{\"k\": \"v\"}\n"},
		{`print(set([3, 1, 2]))`, "{1, 2, 3}\n"},
		{`print(1..5)`, "1..5\n"},
		{`print(r/a+/i)`, "/a+/i\n"},
	}
	for _, tt := range tests {
		_, out := runSource(t, tt.source)
		if out != tt.expected {
			t.Errorf("%s: got %q, want %q", tt.source, out, tt.expected)
		}
	}
}

func TestInputDrivenScript(t *testing.T) {
	src := `
valid = 0
heights = 0
for line in input().lines() {
	m = line.find(r/^(\d+)(cm|in)$/n)
	continue if m == null
	valid += 1
	h, unit, _full = m
	ok = (unit == "cm" and 150 <= h and h <= 193) or (unit == "in" and 59 <= h and h <= 76)
	heights += 1 if ok
}
print("Part 1:", valid)
print("Part 2:", heights)
`
	fn := compileSource(t, src)
	var out bytes.Buffer
	machine := New(WithStdout(&out), WithStdin(strings.NewReader("190cm\n75in\nabc\n200cm\n")))
	if _, err := machine.Interpret(fn); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	want := "Part 1: 3\nPart 2: 2\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestInputReadsWholeStream(t *testing.T) {
	fn := compileSource(t, "input()")
	var out bytes.Buffer
	machine := New(WithStdout(&out), WithStdin(strings.NewReader("line1\nline2\n")))
	result, err := machine.Interpret(fn)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if !result.IsStr() || result.AsStr() != "line1\nline2\n" {
		t.Errorf("input() = %s, want the full stream", result.Repr())
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		source  string
		kind    ErrorKind
		message string
	}{
		{"[1, 2][5]", ErrIndexOutOfRange, "Index 5 out of bounds, length is 2"},
		{"[1, 2][-3]", ErrIndexOutOfRange, "Index -3 out of bounds, length is 2"},
		{"1 / 0", ErrDivideByZero, "Division by zero"},
		{"7 % 0", ErrDivideByZero, "Division by zero"},
		{"1 + [2]", ErrTypeMismatch, "Cannot add types 'number' and 'list'"},
		{"[1] & [2]", ErrTypeMismatch, "Cannot intersect types 'list' and 'list'"},
		{"1 xor 2", ErrTypeMismatch, "Cannot xor types 'number' and 'number'"},
		{`"a" < 1`, ErrTypeMismatch, "Cannot compare types 'str' and 'number'"},
		{"5(1)", ErrTypeMismatch, "Cannot call type 'number'"},
		{"(|a| a)(1, 2)", ErrArityMismatch, "Expected 1 arguments, got 2"},
		{`"x".append(1)`, ErrTypeMismatch, "Cannot call method 'append' on type 'str'"},
		{"[].frobnicate()", ErrTypeMismatch, "Cannot call method 'frobnicate' on type 'list'"},
		{"a, b = [1, 2, 3]", ErrValue, "Cannot unpack 3 values into 2 targets"},
		{`int("abc")`, ErrValue, `Cannot convert "abc" to int`},
		{"max([])", ErrValue, "Received empty iterator, cannot find maximum"},
		{"min([])", ErrValue, "Received empty iterator, cannot find minimum"},
		{"for x in 5 { x }", ErrTypeMismatch, "Cannot iterate over type 'number'"},
	}
	for _, tt := range tests {
		re := runExpectError(t, tt.source)
		if re.Kind != tt.kind {
			t.Errorf("%s: kind = %s, want %s", tt.source, re.Kind, tt.kind)
		}
		if tt.message != "" && !strings.Contains(re.Message, tt.message) {
			t.Errorf("%s: message %q should contain %q", tt.source, re.Message, tt.message)
		}
	}
}

func TestUnhashableMapKey(t *testing.T) {
	re := runExpectError(t, `{[1]: 2}; null`)
	if re.Kind != ErrTypeMismatch {
		t.Errorf("kind = %s, want %s", re.Kind, ErrTypeMismatch)
	}
	if !strings.Contains(re.Message, "map key") {
		t.Errorf("message %q should mention map key", re.Message)
	}
}

func TestErrorsCarryPositions(t *testing.T) {
	re := runExpectError(t, "x = 1\ny = x + [2]\n")
	if re.File != "test.lf" {
		t.Errorf("file = %q, want test.lf", re.File)
	}
	if re.Line != 2 {
		t.Errorf("line = %d, want 2", re.Line)
	}
}

func TestOrInterceptsEarlyReturn(t *testing.T) {
	src := `
fn parse(s) {
	m = s.find(r/^(\d+)(cm|in)$/n) or return false
	h, unit, _full = m
	unit == "cm" and h >= 150
}
answers = [parse("190cm"), parse("abc"), parse("120cm")]
answers
`
	result, _ := runSource(t, src)
	if got := result.Repr(); got != "[true, false, false]" {
		t.Errorf("result = %s, want [true, false, false]", got)
	}
}

func TestOneBasedCheckShortCircuits(t *testing.T) {
	// check(4) on a 3-char password must short-circuit before indexing.
	src := `
password = "abc"
char = "z"
fn check(i) i <= password.len() and password[i - 1] == char;
(check(3), check(4))
`
	result, _ := runSource(t, src)
	if got := result.Repr(); got != "(false, false)" {
		t.Errorf("result = %s, want (false, false)", got)
	}
}

func TestPasswordPolicyScript(t *testing.T) {
	src := `
valid1 = 0
valid2 = 0
for line in input().lines() {
	m = line.find(r/^(\d+)-(\d+) (\w): (\w+)$/n) or continue
	lo, hi, char, password, _full = m
	n = password.count(char)
	valid1 += 1 if lo <= n and n <= hi
	fn check(i) i <= password.len() and password[i - 1] == char
	valid2 += 1 if check(lo) != check(hi)
}
print("Part 1:", valid1)
print("Part 2:", valid2)
`
	fn := compileSource(t, src)
	var out bytes.Buffer
	input := "1-3 a: abcde\n1-3 b: cdefg\nnot a rule\n2-9 c: ccccccccc\n"
	machine := New(WithStdout(&out), WithStdin(strings.NewReader(input)))
	if _, err := machine.Interpret(fn); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	want := "Part 1: 2\nPart 2: 1\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestDeepRecursionOverflows(t *testing.T) {
	re := runExpectError(t, "fn loop(n) { loop(n + 1) }; loop(0)")
	if !strings.Contains(re.Message, "stack overflow") {
		t.Errorf("message = %q, want stack overflow", re.Message)
	}
}
