// Package pipeline wires the frontend stages: source text goes in, a
// compiled top-level function comes out.
package pipeline

import (
	"github.com/linefeed-lang/linefeed/internal/ast"
	"github.com/linefeed-lang/linefeed/internal/vm"
)

// Context carries a compilation unit through the stages.
type Context struct {
	File   string
	Source string

	Program  *ast.Program
	Function *vm.CompiledFunction

	// Errors collected so far. A stage that finds the context already
	// failed passes it through untouched.
	Errors []error
}

func (c *Context) Failed() bool { return len(c.Errors) > 0 }

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}

// Compile runs the default parse/resolve/compile pipeline on a source
// string.
func Compile(file, source string) (*vm.CompiledFunction, []error) {
	ctx := New(ParseStage{}, ResolveStage{}, CompileStage{}).Run(&Context{
		File:   file,
		Source: source,
	})
	if ctx.Failed() {
		return nil, ctx.Errors
	}
	return ctx.Function, nil
}
