// Package resolver assigns every identifier a storage location before
// compilation: a local slot, an upvalue index, or a builtin table index.
// It implements the declare-or-mutate rule: an assignment target is looked
// up through the whole enclosing scope chain and mutates the first binding
// found; only when no binding exists anywhere is a new local created in the
// innermost scope. Assignment targets are hoisted to their scope's entry so
// functions can refer to bindings made later in the same scope.
package resolver

import (
	"fmt"

	"github.com/linefeed-lang/linefeed/internal/ast"
	"github.com/linefeed-lang/linefeed/internal/config"
	"github.com/linefeed-lang/linefeed/internal/token"
)

// Error is a scoping or control-flow-context violation, detected before
// execution.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolution error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// funcScope tracks one function body (or the program) during resolution.
// Slots are never reused: a block's locals stay allocated for the rest of
// the frame, which keeps upvalue capture by slot index simple.
type funcScope struct {
	enclosing *funcScope
	blocks    []map[string]int
	nLocals   int
	upvalues  []ast.UpvalueRef
	loopDepth int
}

func newFuncScope(enclosing *funcScope) *funcScope {
	return &funcScope{
		enclosing: enclosing,
		blocks:    []map[string]int{{}},
	}
}

func (fs *funcScope) beginBlock() {
	fs.blocks = append(fs.blocks, map[string]int{})
}

func (fs *funcScope) endBlock() {
	fs.blocks = fs.blocks[:len(fs.blocks)-1]
}

func (fs *funcScope) declare(name string) int {
	slot := fs.nLocals
	fs.nLocals++
	fs.blocks[len(fs.blocks)-1][name] = slot
	return slot
}

func (fs *funcScope) resolveLocal(name string) (int, bool) {
	for i := len(fs.blocks) - 1; i >= 0; i-- {
		if slot, ok := fs.blocks[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

// resolveUpvalue walks the enclosing functions looking for name, recording
// the capture chain on the way back. Returns -1 if no enclosing function
// binds the name.
func (fs *funcScope) resolveUpvalue(name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if slot, ok := fs.enclosing.resolveLocal(name); ok {
		return fs.addUpvalue(slot, true)
	}
	if idx := fs.enclosing.resolveUpvalue(name); idx >= 0 {
		return fs.addUpvalue(idx, false)
	}
	return -1
}

// addUpvalue deduplicates captures: each distinct outer cell is captured
// once no matter how often it is referenced.
func (fs *funcScope) addUpvalue(index int, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.Index == index && uv.IsLocal == isLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, ast.UpvalueRef{Index: index, IsLocal: isLocal})
	return len(fs.upvalues) - 1
}

// existsInChain reports whether any scope in the chain binds name, without
// creating captures. Used by hoisting to decide declare-vs-mutate.
func existsInChain(fs *funcScope, name string) bool {
	for s := fs; s != nil; s = s.enclosing {
		if _, ok := s.resolveLocal(name); ok {
			return true
		}
	}
	return false
}

type Resolver struct {
	errors []*Error
}

// Resolve annotates the program in place and returns any resolution errors.
func Resolve(program *ast.Program) []*Error {
	r := &Resolver{}
	fs := newFuncScope(nil)
	r.hoist(fs, program.Exprs)
	for _, e := range program.Exprs {
		r.resolve(fs, e)
	}
	program.LocalCount = fs.nLocals
	return r.errors
}

func (r *Resolver) addError(tok token.Token, msg string) {
	r.errors = append(r.errors, &Error{Line: tok.Line, Column: tok.Column, Message: msg})
}

func (r *Resolver) resolve(fs *funcScope, expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Identifier:
		r.resolveRead(fs, e)

	case *ast.AssignExpression:
		r.resolve(fs, e.Value)
		r.resolveAssignTarget(fs, e.Name)

	case *ast.IndexAssignExpression:
		r.resolve(fs, e.Object)
		r.resolve(fs, e.Index)
		r.resolve(fs, e.Value)

	case *ast.DestructureExpression:
		if e.Value != nil {
			r.resolve(fs, e.Value)
		}
		for _, t := range e.Targets {
			if id, ok := t.(*ast.Identifier); ok {
				r.resolveAssignTarget(fs, id)
			}
		}

	case *ast.PrefixExpression:
		r.resolve(fs, e.Right)

	case *ast.InfixExpression:
		r.resolve(fs, e.Left)
		r.resolve(fs, e.Right)

	case *ast.RangeExpression:
		r.resolve(fs, e.Start)
		if e.End != nil {
			r.resolve(fs, e.End)
		}

	case *ast.IndexExpression:
		r.resolve(fs, e.Object)
		r.resolve(fs, e.Index)

	case *ast.ListLiteral:
		for _, el := range e.Elements {
			r.resolve(fs, el)
		}

	case *ast.TupleLiteral:
		for _, el := range e.Elements {
			r.resolve(fs, el)
		}

	case *ast.MapLiteral:
		for _, pair := range e.Pairs {
			r.resolve(fs, pair.Key)
			r.resolve(fs, pair.Value)
		}

	case *ast.CallExpression:
		r.resolve(fs, e.Callee)
		for _, a := range e.Args {
			r.resolve(fs, a)
		}

	case *ast.MethodCallExpression:
		r.resolve(fs, e.Receiver)
		for _, a := range e.Args {
			r.resolve(fs, a)
		}

	case *ast.FunctionLiteral:
		r.resolveFunction(fs, e)

	case *ast.BlockExpression:
		fs.beginBlock()
		r.hoist(fs, e.Exprs)
		for _, ex := range e.Exprs {
			r.resolve(fs, ex)
		}
		fs.endBlock()

	case *ast.SequenceExpression:
		for _, ex := range e.Exprs {
			r.resolve(fs, ex)
		}

	case *ast.IfExpression:
		r.resolve(fs, e.Condition)
		r.resolve(fs, e.Then)
		if e.Else != nil {
			r.resolve(fs, e.Else)
		}

	case *ast.WhileExpression:
		r.resolve(fs, e.Condition)
		fs.loopDepth++
		r.resolve(fs, e.Body)
		fs.loopDepth--

	case *ast.ForExpression:
		r.resolve(fs, e.Iterable)
		switch t := e.Target.(type) {
		case *ast.Identifier:
			r.resolveAssignTarget(fs, t)
		case *ast.DestructureExpression:
			r.resolve(fs, t)
		}
		fs.loopDepth++
		r.resolve(fs, e.Body)
		fs.loopDepth--

	case *ast.ReturnExpression:
		if e.Value != nil {
			r.resolve(fs, e.Value)
		}

	case *ast.BreakExpression:
		if fs.loopDepth == 0 {
			r.addError(e.Token, "cannot break outside of loop")
		}

	case *ast.ContinueExpression:
		if fs.loopDepth == 0 {
			r.addError(e.Token, "cannot continue outside of loop")
		}

	case *ast.MatchExpression:
		r.resolve(fs, e.Subject)
		for _, arm := range e.Arms {
			r.validatePattern(arm.Pattern)
			r.resolve(fs, arm.Body)
		}
	}
}

func (r *Resolver) resolveRead(fs *funcScope, id *ast.Identifier) {
	if slot, ok := fs.resolveLocal(id.Name); ok {
		id.Scope, id.Slot = ast.ScopeLocal, slot
		return
	}
	if idx := fs.resolveUpvalue(id.Name); idx >= 0 {
		id.Scope, id.Slot = ast.ScopeUpvalue, idx
		return
	}
	if idx := config.BuiltinIndex(id.Name); idx >= 0 {
		id.Scope, id.Slot = ast.ScopeBuiltin, idx
		return
	}
	r.addError(id.Token, fmt.Sprintf("undefined variable '%s'", id.Name))
}

// resolveAssignTarget binds an assignment target per declare-or-mutate.
// Hoisting has already declared genuinely new names, so a miss here only
// happens for targets hoisting could not see; they become fresh locals.
func (r *Resolver) resolveAssignTarget(fs *funcScope, id *ast.Identifier) {
	if slot, ok := fs.resolveLocal(id.Name); ok {
		id.Scope, id.Slot = ast.ScopeLocal, slot
		return
	}
	if idx := fs.resolveUpvalue(id.Name); idx >= 0 {
		id.Scope, id.Slot = ast.ScopeUpvalue, idx
		return
	}
	id.Scope, id.Slot = ast.ScopeLocal, fs.declare(id.Name)
}

func (r *Resolver) resolveFunction(fs *funcScope, fl *ast.FunctionLiteral) {
	child := newFuncScope(fs)
	for _, param := range fl.Params {
		param.Scope = ast.ScopeLocal
		param.Slot = child.declare(param.Name)
	}

	if block, ok := fl.Body.(*ast.BlockExpression); ok {
		// Resolve the block's expressions directly in the function's top
		// scope so sibling bindings hoist to frame entry.
		r.hoist(child, block.Exprs)
		for _, ex := range block.Exprs {
			r.resolve(child, ex)
		}
	} else {
		r.hoist(child, []ast.Expression{fl.Body})
		r.resolve(child, fl.Body)
	}

	fl.LocalCount = child.nLocals
	fl.Upvalues = child.upvalues
}

func (r *Resolver) validatePattern(pattern ast.Expression) {
	switch pat := pattern.(type) {
	case *ast.IntLiteral, *ast.FloatLiteral, *ast.StringLiteral,
		*ast.BoolLiteral, *ast.NullLiteral, *ast.RegexLiteral:
	case *ast.Identifier:
		if pat.Name != "_" {
			r.addError(pat.Token, fmt.Sprintf("match pattern must be a constant, found variable '%s'", pat.Name))
		}
	case *ast.PrefixExpression:
		if pat.Operator != token.MINUS {
			r.addError(pat.Token, "match pattern must be a constant")
			return
		}
		r.validatePattern(pat.Right)
	case *ast.TupleLiteral:
		for _, el := range pat.Elements {
			r.validatePattern(el)
		}
	case *ast.ListLiteral:
		for _, el := range pat.Elements {
			r.validatePattern(el)
		}
	default:
		r.addError(pattern.GetToken(), "match pattern must be a constant")
	}
}

// hoist declares, at scope entry, every assignment target in exprs that is
// not already bound somewhere in the scope chain. It walks expression trees
// but stops at nested blocks and function literals, which hoist their own
// targets when resolved.
func (r *Resolver) hoist(fs *funcScope, exprs []ast.Expression) {
	for _, e := range exprs {
		r.scanTargets(fs, e)
	}
}

func (r *Resolver) scanTargets(fs *funcScope, expr ast.Expression) {
	maybeDeclare := func(name string) {
		if !existsInChain(fs, name) {
			fs.declare(name)
		}
	}

	switch e := expr.(type) {
	case *ast.AssignExpression:
		maybeDeclare(e.Name.Name)
		r.scanTargets(fs, e.Value)

	case *ast.DestructureExpression:
		for _, t := range e.Targets {
			if id, ok := t.(*ast.Identifier); ok {
				maybeDeclare(id.Name)
			}
		}
		if e.Value != nil {
			r.scanTargets(fs, e.Value)
		}

	case *ast.ForExpression:
		switch t := e.Target.(type) {
		case *ast.Identifier:
			maybeDeclare(t.Name)
		case *ast.DestructureExpression:
			for _, tt := range t.Targets {
				if id, ok := tt.(*ast.Identifier); ok {
					maybeDeclare(id.Name)
				}
			}
		}
		r.scanTargets(fs, e.Iterable)

	case *ast.IndexAssignExpression:
		r.scanTargets(fs, e.Object)
		r.scanTargets(fs, e.Index)
		r.scanTargets(fs, e.Value)

	case *ast.PrefixExpression:
		r.scanTargets(fs, e.Right)

	case *ast.InfixExpression:
		r.scanTargets(fs, e.Left)
		r.scanTargets(fs, e.Right)

	case *ast.RangeExpression:
		r.scanTargets(fs, e.Start)
		if e.End != nil {
			r.scanTargets(fs, e.End)
		}

	case *ast.IndexExpression:
		r.scanTargets(fs, e.Object)
		r.scanTargets(fs, e.Index)

	case *ast.ListLiteral:
		for _, el := range e.Elements {
			r.scanTargets(fs, el)
		}

	case *ast.TupleLiteral:
		for _, el := range e.Elements {
			r.scanTargets(fs, el)
		}

	case *ast.MapLiteral:
		for _, pair := range e.Pairs {
			r.scanTargets(fs, pair.Key)
			r.scanTargets(fs, pair.Value)
		}

	case *ast.CallExpression:
		r.scanTargets(fs, e.Callee)
		for _, a := range e.Args {
			r.scanTargets(fs, a)
		}

	case *ast.MethodCallExpression:
		r.scanTargets(fs, e.Receiver)
		for _, a := range e.Args {
			r.scanTargets(fs, a)
		}

	case *ast.SequenceExpression:
		for _, ex := range e.Exprs {
			r.scanTargets(fs, ex)
		}

	case *ast.IfExpression:
		r.scanTargets(fs, e.Condition)
		r.scanTargets(fs, e.Then)
		if e.Else != nil {
			r.scanTargets(fs, e.Else)
		}

	case *ast.WhileExpression:
		r.scanTargets(fs, e.Condition)

	case *ast.ReturnExpression:
		if e.Value != nil {
			r.scanTargets(fs, e.Value)
		}

	case *ast.MatchExpression:
		r.scanTargets(fs, e.Subject)
		for _, arm := range e.Arms {
			r.scanTargets(fs, arm.Body)
		}
	}
}
