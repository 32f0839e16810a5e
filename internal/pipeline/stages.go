package pipeline

import (
	"github.com/linefeed-lang/linefeed/internal/lexer"
	"github.com/linefeed-lang/linefeed/internal/parser"
	"github.com/linefeed-lang/linefeed/internal/resolver"
	"github.com/linefeed-lang/linefeed/internal/vm"
)

// ParseStage lexes and parses the source into an AST.
type ParseStage struct{}

func (ParseStage) Process(ctx *Context) *Context {
	l := lexer.New(ctx.Source)
	p := parser.New(l)
	program := p.ParseProgram()
	program.File = ctx.File

	for _, err := range l.Errors {
		ctx.Errors = append(ctx.Errors, err)
	}
	for _, err := range p.Errors() {
		ctx.Errors = append(ctx.Errors, err)
	}
	if !ctx.Failed() {
		ctx.Program = program
	}
	return ctx
}

// ResolveStage binds identifiers to frame slots and upvalues.
type ResolveStage struct{}

func (ResolveStage) Process(ctx *Context) *Context {
	if ctx.Failed() {
		return ctx
	}
	for _, err := range resolver.Resolve(ctx.Program) {
		ctx.Errors = append(ctx.Errors, err)
	}
	return ctx
}

// CompileStage lowers the resolved AST to bytecode.
type CompileStage struct{}

func (CompileStage) Process(ctx *Context) *Context {
	if ctx.Failed() {
		return ctx
	}
	fn, err := vm.Compile(ctx.Program)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Function = fn
	return ctx
}
