package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

const maxFrames = 1024

// callFrame is one function activation. base indexes the first local
// slot; the callee value sits at base-1.
type callFrame struct {
	closure *ObjClosure
	ip      int
	base    int
}

// VM executes compiled chunks
type VM struct {
	frames []callFrame
	stack  []Value

	// Open upvalues, sorted by stack location (highest first)
	openUpvalues *ObjUpvalue

	stdout io.Writer
	stdin  *bufio.Reader

	profiler *Profiler
}

// Option configures a VM
type Option func(*VM)

// WithStdout redirects print output
func WithStdout(w io.Writer) Option {
	return func(v *VM) { v.stdout = w }
}

// WithStdin supplies the source for the input builtin
func WithStdin(r io.Reader) Option {
	return func(v *VM) { v.stdin = bufio.NewReader(r) }
}

// WithProfiler attaches an execution profiler
func WithProfiler(p *Profiler) Option {
	return func(v *VM) { v.profiler = p }
}

func New(opts ...Option) *VM {
	v := &VM{
		stack:  make([]Value, 0, 256),
		stdout: os.Stdout,
		stdin:  bufio.NewReader(os.Stdin),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Interpret runs a compiled script and returns its final value.
func (v *VM) Interpret(fn *CompiledFunction) (Value, error) {
	v.frames = v.frames[:0]
	v.stack = v.stack[:0]
	v.openUpvalues = nil

	closure := &ObjClosure{Function: fn}
	v.push(ObjVal(closure))
	base := len(v.stack)
	for i := 0; i < fn.LocalCount; i++ {
		v.push(NilVal())
	}
	v.frames = append(v.frames, callFrame{closure: closure, base: base})

	return v.run(1)
}

// Stack helpers

func (v *VM) push(val Value) {
	v.stack = append(v.stack, val)
}

func (v *VM) pop() Value {
	val := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return val
}

func (v *VM) peek(distance int) Value {
	return v.stack[len(v.stack)-1-distance]
}

// callValue invokes a callable with argc arguments already on the
// stack. Closures push a frame; builtins run synchronously.
func (v *VM) callValue(callee Value, argc int) error {
	if callee.Type == ValObj {
		switch obj := callee.Obj.(type) {
		case *ObjClosure:
			fn := obj.Function
			if argc != fn.Arity {
				return &RuntimeError{Kind: ErrArityMismatch,
					Message: fmt.Sprintf("Expected %d arguments, got %d", fn.Arity, argc)}
			}
			if len(v.frames) >= maxFrames {
				return &RuntimeError{Kind: ErrInternal, Message: "stack overflow"}
			}
			base := len(v.stack) - argc
			for i := argc; i < fn.LocalCount; i++ {
				v.push(NilVal())
			}
			v.frames = append(v.frames, callFrame{closure: obj, base: base})
			return nil
		case *ObjBuiltin:
			args := make([]Value, argc)
			copy(args, v.stack[len(v.stack)-argc:])
			v.stack = v.stack[:len(v.stack)-argc-1]
			result, err := obj.Fn(v, args)
			if err != nil {
				return err
			}
			v.push(result)
			return nil
		}
	}
	return &RuntimeError{Kind: ErrTypeMismatch,
		Message: fmt.Sprintf("Cannot call type '%s'", callee.Kind())}
}

// callFunctionValue calls a linefeed function from native code (sort
// key functions) and runs it to completion.
func (v *VM) callFunctionValue(fn Value, args []Value) (Value, error) {
	depth := len(v.frames)
	v.push(fn)
	for _, a := range args {
		v.push(a)
	}
	if err := v.callValue(fn, len(args)); err != nil {
		return NilVal(), err
	}
	if len(v.frames) == depth {
		// Builtin: result is already on the stack.
		return v.pop(), nil
	}
	return v.run(depth + 1)
}

// Upvalue bookkeeping

func (v *VM) captureUpvalue(location int) *ObjUpvalue {
	var prev *ObjUpvalue
	uv := v.openUpvalues
	for uv != nil && uv.Location > location {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.Location == location {
		return uv
	}
	created := &ObjUpvalue{Location: location, Next: uv}
	if prev == nil {
		v.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

func (v *VM) closeUpvalues(from int) {
	for v.openUpvalues != nil && v.openUpvalues.Location >= from {
		uv := v.openUpvalues
		uv.Closed = v.stack[uv.Location]
		uv.Location = -1
		v.openUpvalues = uv.Next
		uv.Next = nil
	}
}

func (v *VM) readUpvalue(uv *ObjUpvalue) Value {
	if uv.Location >= 0 {
		return v.stack[uv.Location]
	}
	return uv.Closed
}

func (v *VM) writeUpvalue(uv *ObjUpvalue, val Value) {
	if uv.Location >= 0 {
		v.stack[uv.Location] = val
	} else {
		uv.Closed = val
	}
}

// errAt attaches the source position of the instruction at offset to a
// runtime error.
func (v *VM) errAt(chunk *Chunk, offset int, err error) error {
	re, ok := err.(*RuntimeError)
	if !ok {
		re = &RuntimeError{Kind: ErrInternal, Message: err.Error()}
	}
	if re.Line == 0 && offset < len(chunk.Lines) {
		re.File = chunk.File
		re.Line = chunk.Lines[offset]
		re.Column = chunk.Columns[offset]
	}
	return re
}
