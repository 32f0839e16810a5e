package ast

import (
	"strings"

	"github.com/linefeed-lang/linefeed/internal/token"
)

// BlockExpression is { e1; e2; ... }. Blocks introduce a scope; the value of
// a block is the value of its last expression.
type BlockExpression struct {
	Token token.Token
	Exprs []Expression
}

func (be *BlockExpression) expressionNode()       {}
func (be *BlockExpression) GetToken() token.Token { return be.Token }
func (be *BlockExpression) String() string        { return "{ " + joinExprs(be.Exprs, "; ") + " }" }

// SequenceExpression is a parenthesised `;`-chain. Unlike a block it does
// not introduce a scope.
type SequenceExpression struct {
	Token token.Token
	Exprs []Expression
}

func (se *SequenceExpression) expressionNode()       {}
func (se *SequenceExpression) GetToken() token.Token { return se.Token }
func (se *SequenceExpression) String() string        { return "(" + joinExprs(se.Exprs, "; ") + ")" }

// IfExpression: a missing else branch produces null.
type IfExpression struct {
	Token     token.Token
	Condition Expression
	Then      Expression
	Else      Expression // may be nil
}

func (ie *IfExpression) expressionNode()       {}
func (ie *IfExpression) GetToken() token.Token { return ie.Token }
func (ie *IfExpression) String() string {
	s := "if " + ie.Condition.String() + " " + ie.Then.String()
	if ie.Else != nil {
		s += " else " + ie.Else.String()
	}
	return s
}

type WhileExpression struct {
	Token     token.Token
	Condition Expression
	Body      Expression
}

func (we *WhileExpression) expressionNode()       {}
func (we *WhileExpression) GetToken() token.Token { return we.Token }
func (we *WhileExpression) String() string {
	return "while " + we.Condition.String() + " " + we.Body.String()
}

// ForExpression: Target is an *Identifier or a *DestructureExpression
// (with nil Value) bound on each iteration.
type ForExpression struct {
	Token    token.Token
	Target   Expression
	Iterable Expression
	Body     Expression
}

func (fe *ForExpression) expressionNode()       {}
func (fe *ForExpression) GetToken() token.Token { return fe.Token }
func (fe *ForExpression) String() string {
	return "for " + fe.Target.String() + " in " + fe.Iterable.String() + " " + fe.Body.String()
}

type ReturnExpression struct {
	Token token.Token
	Value Expression // may be nil; a bare return yields null
}

func (re *ReturnExpression) expressionNode()       {}
func (re *ReturnExpression) GetToken() token.Token { return re.Token }
func (re *ReturnExpression) String() string {
	if re.Value == nil {
		return "return"
	}
	return "return " + re.Value.String()
}

type BreakExpression struct {
	Token token.Token
}

func (be *BreakExpression) expressionNode()       {}
func (be *BreakExpression) GetToken() token.Token { return be.Token }
func (be *BreakExpression) String() string        { return "break" }

type ContinueExpression struct {
	Token token.Token
}

func (ce *ContinueExpression) expressionNode()       {}
func (ce *ContinueExpression) GetToken() token.Token { return ce.Token }
func (ce *ContinueExpression) String() string        { return "continue" }

type MatchArm struct {
	Pattern Expression
	Body    Expression
}

// MatchExpression compares the subject against constant patterns in order.
// No matching arm is a runtime pattern-match failure.
type MatchExpression struct {
	Token   token.Token
	Subject Expression
	Arms    []MatchArm
}

func (me *MatchExpression) expressionNode()       {}
func (me *MatchExpression) GetToken() token.Token { return me.Token }
func (me *MatchExpression) String() string {
	parts := make([]string, len(me.Arms))
	for i, arm := range me.Arms {
		parts[i] = arm.Pattern.String() + " => " + arm.Body.String()
	}
	return "match " + me.Subject.String() + " {" + strings.Join(parts, ", ") + "}"
}
