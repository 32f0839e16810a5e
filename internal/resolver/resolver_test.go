package resolver

import (
	"strings"
	"testing"

	"github.com/linefeed-lang/linefeed/internal/ast"
	"github.com/linefeed-lang/linefeed/internal/lexer"
	"github.com/linefeed-lang/linefeed/internal/parser"
)

func parseAndResolve(t *testing.T, src string) (*ast.Program, []*Error) {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("%s: parse error: %v", src, errs[0])
	}
	return program, Resolve(program)
}

func mustResolve(t *testing.T, src string) *ast.Program {
	t.Helper()
	program, errs := parseAndResolve(t, src)
	if len(errs) > 0 {
		t.Fatalf("%s: resolve error: %v", src, errs[0])
	}
	return program
}

func TestLocalsGetSequentialSlots(t *testing.T) {
	program := mustResolve(t, "a = 1; b = 2; a + b")
	if program.LocalCount != 2 {
		t.Fatalf("LocalCount = %d, want 2", program.LocalCount)
	}
	a := program.Exprs[0].(*ast.AssignExpression).Name
	b := program.Exprs[1].(*ast.AssignExpression).Name
	if a.Scope != ast.ScopeLocal || a.Slot != 0 {
		t.Errorf("a: scope %v slot %d, want local 0", a.Scope, a.Slot)
	}
	if b.Scope != ast.ScopeLocal || b.Slot != 1 {
		t.Errorf("b: scope %v slot %d, want local 1", b.Scope, b.Slot)
	}
}

func TestAssignmentMutatesEnclosingBinding(t *testing.T) {
	program := mustResolve(t, "x = 1; if true { x = 2 }; x")
	if program.LocalCount != 1 {
		t.Errorf("LocalCount = %d, want 1 (inner assignment mutates the outer x)", program.LocalCount)
	}
	inner := program.Exprs[1].(*ast.IfExpression).
		Then.(*ast.BlockExpression).
		Exprs[0].(*ast.AssignExpression).Name
	if inner.Scope != ast.ScopeLocal || inner.Slot != 0 {
		t.Errorf("inner x: scope %v slot %d, want local 0", inner.Scope, inner.Slot)
	}
}

func TestBlockLocalsDoNotEscape(t *testing.T) {
	_, errs := parseAndResolve(t, "if true { y = 1 }; y")
	if len(errs) == 0 {
		t.Fatal("expected an undefined-variable error")
	}
	if !strings.Contains(errs[0].Message, "undefined variable 'y'") {
		t.Errorf("message = %q", errs[0].Message)
	}
}

func TestFunctionParamsAndLocals(t *testing.T) {
	program := mustResolve(t, "fn add(a, b) { c = a + b; c }; add")
	fl := program.Exprs[0].(*ast.AssignExpression).Value.(*ast.FunctionLiteral)
	if fl.LocalCount != 3 {
		t.Errorf("LocalCount = %d, want 3 (two params plus c)", fl.LocalCount)
	}
	if fl.Params[0].Slot != 0 || fl.Params[1].Slot != 1 {
		t.Errorf("param slots = %d, %d, want 0, 1", fl.Params[0].Slot, fl.Params[1].Slot)
	}
}

func TestLambdaCapturesUpvalue(t *testing.T) {
	program := mustResolve(t, "fn outer() { n = 0; || { n += 1; n } }; outer")
	outer := program.Exprs[0].(*ast.AssignExpression).Value.(*ast.FunctionLiteral)
	lambda := outer.Body.(*ast.BlockExpression).Exprs[1].(*ast.FunctionLiteral)
	if len(lambda.Upvalues) != 1 {
		t.Fatalf("upvalues = %d, want 1", len(lambda.Upvalues))
	}
	uv := lambda.Upvalues[0]
	if !uv.IsLocal || uv.Index != 0 {
		t.Errorf("upvalue = {IsLocal: %v, Index: %d}, want local slot 0", uv.IsLocal, uv.Index)
	}
	read := lambda.Body.(*ast.BlockExpression).Exprs[1].(*ast.Identifier)
	if read.Scope != ast.ScopeUpvalue || read.Slot != 0 {
		t.Errorf("n read: scope %v slot %d, want upvalue 0", read.Scope, read.Slot)
	}
}

func TestTransitiveCaptureThreadsThroughMiddleFunction(t *testing.T) {
	program := mustResolve(t, "fn a() { x = 1; fn b() { fn c() { x }; c }; b }; a")
	fa := program.Exprs[0].(*ast.AssignExpression).Value.(*ast.FunctionLiteral)
	fb := fa.Body.(*ast.BlockExpression).Exprs[1].(*ast.AssignExpression).Value.(*ast.FunctionLiteral)
	fc := fb.Body.(*ast.BlockExpression).Exprs[0].(*ast.AssignExpression).Value.(*ast.FunctionLiteral)
	if len(fb.Upvalues) != 1 || !fb.Upvalues[0].IsLocal {
		t.Errorf("b should capture x from a's locals, got %+v", fb.Upvalues)
	}
	if len(fc.Upvalues) != 1 || fc.Upvalues[0].IsLocal {
		t.Errorf("c should capture x through b's upvalues, got %+v", fc.Upvalues)
	}
}

func TestSharedCaptureIsDeduplicated(t *testing.T) {
	program := mustResolve(t, "fn f() { n = 0; || n + n }; f")
	fl := program.Exprs[0].(*ast.AssignExpression).Value.(*ast.FunctionLiteral)
	lambda := fl.Body.(*ast.BlockExpression).Exprs[1].(*ast.FunctionLiteral)
	if len(lambda.Upvalues) != 1 {
		t.Errorf("upvalues = %d, want 1 (same cell captured once)", len(lambda.Upvalues))
	}
}

func TestBuiltinResolution(t *testing.T) {
	program := mustResolve(t, `print("hi")`)
	callee := program.Exprs[0].(*ast.CallExpression).Callee.(*ast.Identifier)
	if callee.Scope != ast.ScopeBuiltin {
		t.Errorf("print scope = %v, want builtin", callee.Scope)
	}
}

func TestBuiltinCanBeShadowedByLocal(t *testing.T) {
	program := mustResolve(t, "print = 5; print")
	read := program.Exprs[1].(*ast.Identifier)
	if read.Scope != ast.ScopeLocal {
		t.Errorf("shadowed print scope = %v, want local", read.Scope)
	}
}

func TestHoistingAllowsMutualRecursion(t *testing.T) {
	src := `
fn isEven(n) { return true if n == 0; isOdd(n - 1) }
fn isOdd(n) { return false if n == 0; isEven(n - 1) }
isEven(10)
`
	mustResolve(t, src)
}

func TestForLoopTargetIsLocal(t *testing.T) {
	program := mustResolve(t, "for x in [1, 2] { x }")
	fe := program.Exprs[0].(*ast.ForExpression)
	target := fe.Target.(*ast.Identifier)
	if target.Scope != ast.ScopeLocal {
		t.Errorf("loop target scope = %v, want local", target.Scope)
	}
	if program.LocalCount != 1 {
		t.Errorf("LocalCount = %d, want 1", program.LocalCount)
	}
}

func TestResolutionErrors(t *testing.T) {
	tests := []struct {
		source  string
		message string
	}{
		{"missing", "undefined variable 'missing'"},
		{"x = y + 1", "undefined variable 'y'"},
		{"break", "cannot break outside of loop"},
		{"continue", "cannot continue outside of loop"},
		{"if true { break }", "cannot break outside of loop"},
		{"f = || break; f", "cannot break outside of loop"},
		{"match x { y => 1 }", "match pattern must be a constant"},
		{"match 1 { [a] => 1 }", "match pattern must be a constant"},
	}
	for _, tt := range tests {
		_, errs := parseAndResolve(t, tt.source)
		found := false
		for _, e := range errs {
			if strings.Contains(e.Message, tt.message) {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: expected error containing %q, got %v", tt.source, tt.message, errs)
		}
	}
}

func TestBreakInsideLoopBodyLambdaIsRejected(t *testing.T) {
	// loopDepth is per function: a lambda created in a loop body cannot
	// break the enclosing loop.
	_, errs := parseAndResolve(t, "while true { f = || break; f() }")
	found := false
	for _, e := range errs {
		if strings.Contains(e.Message, "cannot break outside of loop") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected break-outside-loop error, got %v", errs)
	}
}
