// Package ast defines the expression nodes produced by the parser.
// Everything in linefeed is an expression; there is no statement interface.
// The resolver writes its binding decisions directly into the nodes
// (Identifier.Scope/Slot, FunctionLiteral.LocalCount/Upvalues).
package ast

import (
	"strings"

	"github.com/linefeed-lang/linefeed/internal/token"
)

// Expression is the base interface for all AST nodes.
type Expression interface {
	expressionNode()
	GetToken() token.Token
	String() string
}

// VarScope says where a resolved name lives at runtime.
type VarScope int

const (
	ScopeUnresolved VarScope = iota
	ScopeLocal               // slot in the current frame
	ScopeUpvalue             // index into the current closure's upvalues
	ScopeBuiltin             // index into the builtin table
)

// UpvalueRef describes one captured variable of a function: either a local
// slot of the immediately enclosing function, or an upvalue index of it.
type UpvalueRef struct {
	Index   int
	IsLocal bool
}

// Program is the root node: the top-level expression sequence of a script.
// The resolver treats it as the outermost function frame.
type Program struct {
	File       string
	Exprs      []Expression
	LocalCount int
}

func (p *Program) String() string {
	var out strings.Builder
	for i, e := range p.Exprs {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(e.String())
	}
	return out.String()
}

// Identifier is a variable reference. Scope and Slot are filled in by the
// resolver.
type Identifier struct {
	Token token.Token
	Name  string
	Scope VarScope
	Slot  int
}

func (i *Identifier) expressionNode()       {}
func (i *Identifier) GetToken() token.Token { return i.Token }
func (i *Identifier) String() string        { return i.Name }

type NullLiteral struct {
	Token token.Token
}

func (n *NullLiteral) expressionNode()       {}
func (n *NullLiteral) GetToken() token.Token { return n.Token }
func (n *NullLiteral) String() string        { return "null" }

type BoolLiteral struct {
	Token token.Token
	Value bool
}

func (b *BoolLiteral) expressionNode()       {}
func (b *BoolLiteral) GetToken() token.Token { return b.Token }
func (b *BoolLiteral) String() string        { return b.Token.Lexeme }

type IntLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntLiteral) expressionNode()       {}
func (il *IntLiteral) GetToken() token.Token { return il.Token }
func (il *IntLiteral) String() string        { return il.Token.Lexeme }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()       {}
func (fl *FloatLiteral) GetToken() token.Token { return fl.Token }
func (fl *FloatLiteral) String() string        { return fl.Token.Lexeme }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }
func (sl *StringLiteral) String() string        { return sl.Token.Lexeme }

// RegexLiteral is r/pattern/flags (or bare /pattern/flags). Flags may
// contain 'i' (case-insensitive) and 'n' (parse integral groups).
type RegexLiteral struct {
	Token   token.Token
	Pattern string
	Flags   string
}

func (rl *RegexLiteral) expressionNode()       {}
func (rl *RegexLiteral) GetToken() token.Token { return rl.Token }
func (rl *RegexLiteral) String() string        { return "/" + rl.Pattern + "/" + rl.Flags }

func joinExprs(exprs []Expression, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}
