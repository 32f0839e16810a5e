package ast

import (
	"strings"

	"github.com/linefeed-lang/linefeed/internal/token"
)

// PrefixExpression is unary negation or `not`.
type PrefixExpression struct {
	Token    token.Token
	Operator token.TokenType
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()       {}
func (pe *PrefixExpression) GetToken() token.Token { return pe.Token }
func (pe *PrefixExpression) String() string {
	op := pe.Token.Lexeme
	if pe.Operator == token.NOT {
		op = "not "
	}
	return "(" + op + pe.Right.String() + ")"
}

// InfixExpression covers arithmetic, comparison, `in`, and the logical
// operators. `and`/`or` short-circuit; the compiler special-cases them.
type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator token.TokenType
	Right    Expression
}

func (ie *InfixExpression) expressionNode()       {}
func (ie *InfixExpression) GetToken() token.Token { return ie.Token }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Token.Lexeme + " " + ie.Right.String() + ")"
}

// RangeExpression is a..b or a..=b.
type RangeExpression struct {
	Token     token.Token
	Start     Expression
	End       Expression
	Inclusive bool
}

func (re *RangeExpression) expressionNode()       {}
func (re *RangeExpression) GetToken() token.Token { return re.Token }
func (re *RangeExpression) String() string {
	op := ".."
	if re.Inclusive {
		op = "..="
	}
	end := ""
	if re.End != nil {
		end = re.End.String()
	}
	return "(" + re.Start.String() + op + end + ")"
}

type ListLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()       {}
func (ll *ListLiteral) GetToken() token.Token { return ll.Token }
func (ll *ListLiteral) String() string        { return "[" + joinExprs(ll.Elements, ", ") + "]" }

type TupleLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (tl *TupleLiteral) expressionNode()       {}
func (tl *TupleLiteral) GetToken() token.Token { return tl.Token }
func (tl *TupleLiteral) String() string        { return "(" + joinExprs(tl.Elements, ", ") + ")" }

type MapPair struct {
	Key   Expression
	Value Expression
}

type MapLiteral struct {
	Token token.Token
	Pairs []MapPair
}

func (ml *MapLiteral) expressionNode()       {}
func (ml *MapLiteral) GetToken() token.Token { return ml.Token }
func (ml *MapLiteral) String() string {
	parts := make([]string, len(ml.Pairs))
	for i, p := range ml.Pairs {
		parts[i] = p.Key.String() + ": " + p.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// AssignExpression binds or mutates a single name, following the
// declare-or-mutate rule. The resolver fills in Name.Scope/Name.Slot.
// Operator is token.ASSIGN for plain `=`; for compound forms (`+=` etc.)
// it is the underlying binary operator, kept so the compiler can emit
// in-place set union/intersection for `+=`/`&=`.
type AssignExpression struct {
	Token    token.Token
	Name     *Identifier
	Operator token.TokenType
	Value    Expression
}

func (ae *AssignExpression) expressionNode()       {}
func (ae *AssignExpression) GetToken() token.Token { return ae.Token }
func (ae *AssignExpression) String() string        { return ae.Name.String() + " " + ae.Token.Lexeme + " " + ae.Value.String() }

// IndexAssignExpression is obj[idx] = value (or a compound form).
type IndexAssignExpression struct {
	Token    token.Token
	Object   Expression
	Index    Expression
	Operator token.TokenType
	Value    Expression
}

func (ia *IndexAssignExpression) expressionNode()       {}
func (ia *IndexAssignExpression) GetToken() token.Token { return ia.Token }
func (ia *IndexAssignExpression) String() string {
	return ia.Object.String() + "[" + ia.Index.String() + "] " + ia.Token.Lexeme + " " + ia.Value.String()
}

// DestructureExpression is a, b, c = value. Targets are Identifiers or
// nested DestructureExpressions (with a nil Value).
type DestructureExpression struct {
	Token   token.Token
	Targets []Expression
	Value   Expression
}

func (de *DestructureExpression) expressionNode()       {}
func (de *DestructureExpression) GetToken() token.Token { return de.Token }
func (de *DestructureExpression) String() string {
	s := joinExprs(de.Targets, ", ")
	if de.Value != nil {
		s += " = " + de.Value.String()
	}
	return s
}

type IndexExpression struct {
	Token  token.Token
	Object Expression
	Index  Expression
}

func (ie *IndexExpression) expressionNode()       {}
func (ie *IndexExpression) GetToken() token.Token { return ie.Token }
func (ie *IndexExpression) String() string {
	return ie.Object.String() + "[" + ie.Index.String() + "]"
}

type CallExpression struct {
	Token  token.Token
	Callee Expression
	Args   []Expression
}

func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) GetToken() token.Token { return ce.Token }
func (ce *CallExpression) String() string {
	return ce.Callee.String() + "(" + joinExprs(ce.Args, ", ") + ")"
}

type MethodCallExpression struct {
	Token    token.Token
	Receiver Expression
	Method   string
	Args     []Expression
}

func (mc *MethodCallExpression) expressionNode()       {}
func (mc *MethodCallExpression) GetToken() token.Token { return mc.Token }
func (mc *MethodCallExpression) String() string {
	return mc.Receiver.String() + "." + mc.Method + "(" + joinExprs(mc.Args, ", ") + ")"
}

// FunctionLiteral is fn name(a, b) body, anonymous fn(a, b) body, or a
// lambda |a, b| body. LocalCount and Upvalues are filled in by the resolver.
type FunctionLiteral struct {
	Token      token.Token
	Name       string // "" for anonymous functions and lambdas
	Params     []*Identifier
	Body       Expression
	LocalCount int
	Upvalues   []UpvalueRef
}

func (fl *FunctionLiteral) expressionNode()       {}
func (fl *FunctionLiteral) GetToken() token.Token { return fl.Token }
func (fl *FunctionLiteral) String() string {
	params := make([]string, len(fl.Params))
	for i, p := range fl.Params {
		params[i] = p.Name
	}
	name := fl.Name
	if name != "" {
		name = " " + name
	}
	return "fn" + name + "(" + strings.Join(params, ", ") + ") " + fl.Body.String()
}
