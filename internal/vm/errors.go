package vm

import "fmt"

// ErrorKind classifies runtime failures
type ErrorKind string

const (
	ErrTypeMismatch        ErrorKind = "TypeMismatch"
	ErrIndexOutOfRange     ErrorKind = "IndexOutOfRange"
	ErrDivideByZero        ErrorKind = "DivideByZero"
	ErrArityMismatch       ErrorKind = "ArityMismatch"
	ErrPatternMatchFailure ErrorKind = "PatternMatchFailure"
	ErrValue               ErrorKind = "ValueError"
	ErrInternal            ErrorKind = "Internal"
)

// RuntimeError is an execution failure with its source position
type RuntimeError struct {
	Kind    ErrorKind
	File    string
	Line    int
	Column  int
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Kind, e.Message)
}

// CompileError is a bytecode-generation failure (for example a regex
// literal that does not compile)
type CompileError struct {
	Line    int
	Column  int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %d:%d: %s", e.Line, e.Column, e.Message)
}
