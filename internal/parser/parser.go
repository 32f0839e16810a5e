// Package parser builds the AST from the token stream. It is a Pratt parser
// with one token of lookahead; comprehensions, postfix conditionals and
// compound assignments are desugared here.
package parser

import (
	"fmt"

	"github.com/linefeed-lang/linefeed/internal/ast"
	"github.com/linefeed-lang/linefeed/internal/lexer"
	"github.com/linefeed-lang/linefeed/internal/token"
)

// Error is a syntax error with its source position.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// Operator precedence, low to high.
const (
	_ int = iota
	LOWEST
	POSTFIX // expr if cond, expr unless cond
	ASSIGN  // = += -= *= /= %= &=
	LOGICAL // or and xor
	CONTAINS
	COMPARE
	RANGE
	SUM
	PRODUCT
	POW
	PREFIX
	CALL // foo(x), foo[x], foo.bar(x)
)

var precedences = map[token.TokenType]int{
	token.IF:     POSTFIX,
	token.UNLESS: POSTFIX,

	token.ASSIGN:          ASSIGN,
	token.PLUS_ASSIGN:     ASSIGN,
	token.MINUS_ASSIGN:    ASSIGN,
	token.ASTERISK_ASSIGN: ASSIGN,
	token.SLASH_ASSIGN:    ASSIGN,
	token.PERCENT_ASSIGN:  ASSIGN,
	token.AMP_ASSIGN:      ASSIGN,

	token.OR:  LOGICAL,
	token.AND: LOGICAL,
	token.XOR: LOGICAL,

	token.IN:  CONTAINS,
	token.NOT: CONTAINS, // "not in"

	token.EQ:     COMPARE,
	token.NOT_EQ: COMPARE,
	token.LT:     COMPARE,
	token.LTE:    COMPARE,
	token.GT:     COMPARE,
	token.GTE:    COMPARE,

	token.DOT_DOT:    RANGE,
	token.DOT_DOT_EQ: RANGE,

	token.PLUS:  SUM,
	token.MINUS: SUM,

	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.SLASH2:   PRODUCT,
	token.PERCENT:  PRODUCT,
	token.AMP:      PRODUCT,

	token.POWER: POW,

	token.LPAREN:   CALL,
	token.LBRACKET: CALL,
	token.DOT:      CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	errors []*Error

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:    p.parseIdentifier,
		token.INT:      p.parseIntLiteral,
		token.FLOAT:    p.parseFloatLiteral,
		token.STRING:   p.parseStringLiteral,
		token.REGEX:    p.parseRegexLiteral,
		token.TRUE:     p.parseBoolLiteral,
		token.FALSE:    p.parseBoolLiteral,
		token.NULL:     p.parseNullLiteral,
		token.MINUS:    p.parsePrefixExpression,
		token.NOT:      p.parsePrefixExpression,
		token.LPAREN:   p.parseParenExpression,
		token.LBRACKET: p.parseListOrComprehension,
		token.LBRACE:   p.parseBlockOrMap,
		token.IF:       p.parseIfExpression,
		token.WHILE:    p.parseWhileExpression,
		token.FOR:      p.parseForExpression,
		token.FN:       p.parseFunctionLiteral,
		token.PIPE:     p.parseLambda,
		token.MATCH:    p.parseMatchExpression,
		token.RETURN:   p.parseReturnExpression,
		token.BREAK:    p.parseBreakExpression,
		token.CONTINUE: p.parseContinueExpression,
	}

	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.IF:     p.parsePostfixIf,
		token.UNLESS: p.parsePostfixUnless,

		token.ASSIGN:          p.parseAssignExpression,
		token.PLUS_ASSIGN:     p.parseAssignExpression,
		token.MINUS_ASSIGN:    p.parseAssignExpression,
		token.ASTERISK_ASSIGN: p.parseAssignExpression,
		token.SLASH_ASSIGN:    p.parseAssignExpression,
		token.PERCENT_ASSIGN:  p.parseAssignExpression,
		token.AMP_ASSIGN:      p.parseAssignExpression,

		token.OR:  p.parseInfixExpression,
		token.AND: p.parseInfixExpression,
		token.XOR: p.parseInfixExpression,

		token.IN:  p.parseInfixExpression,
		token.NOT: p.parseNotIn,

		token.EQ:     p.parseInfixExpression,
		token.NOT_EQ: p.parseInfixExpression,
		token.LT:     p.parseInfixExpression,
		token.LTE:    p.parseInfixExpression,
		token.GT:     p.parseInfixExpression,
		token.GTE:    p.parseInfixExpression,

		token.DOT_DOT:    p.parseRangeExpression,
		token.DOT_DOT_EQ: p.parseRangeExpression,

		token.PLUS:     p.parseInfixExpression,
		token.MINUS:    p.parseInfixExpression,
		token.ASTERISK: p.parseInfixExpression,
		token.SLASH:    p.parseInfixExpression,
		token.SLASH2:   p.parseInfixExpression,
		token.PERCENT:  p.parseInfixExpression,
		token.AMP:      p.parseInfixExpression,
		token.POWER:    p.parsePowerExpression,

		token.LPAREN:   p.parseCallExpression,
		token.LBRACKET: p.parseIndexExpression,
		token.DOT:      p.parseMethodCall,
	}

	// Read two tokens so curToken and peekToken are both set.
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) Errors() []*Error { return p.errors }

// modeAfter picks the lexing mode for the token following prev: after a
// token that can end an operand, '/' is division; everywhere else it opens
// a regex literal.
func modeAfter(prev token.Token) lexer.Mode {
	switch prev.Type {
	case token.IDENT, token.INT, token.FLOAT, token.STRING, token.REGEX,
		token.TRUE, token.FALSE, token.NULL,
		token.RPAREN, token.RBRACKET, token.RBRACE,
		token.BREAK, token.CONTINUE:
		return lexer.ModeOperator
	}
	return lexer.ModeExprStart
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken(modeAfter(p.curToken))
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.TokenType) {
	p.addError(p.peekToken, fmt.Sprintf("expected %s, found %s", t, describe(p.peekToken)))
}

func (p *Parser) addError(tok token.Token, msg string) {
	p.errors = append(p.errors, &Error{Line: tok.Line, Column: tok.Column, Message: msg})
}

func describeType(t token.TokenType) string {
	if t == token.EOF {
		return "end of input"
	}
	return string(t)
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.INT, token.FLOAT, token.STRING:
		return fmt.Sprintf("%s %q", tok.Type, tok.Lexeme)
	default:
		return fmt.Sprintf("%q", tok.Lexeme)
	}
}

// ParseProgram parses the whole source as a `;`-separated sequence.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	program.Exprs = p.parseSequence(token.EOF)
	return program
}

// parseSequence parses `;`-separated expressions until the end token.
// Trailing and repeated semicolons are allowed.
func (p *Parser) parseSequence(end token.TokenType) []ast.Expression {
	var exprs []ast.Expression

	for p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}

	for !p.curTokenIs(end) && !p.curTokenIs(token.EOF) {
		expr := p.parseSequenceItem()
		if expr != nil {
			exprs = append(exprs, expr)
		} else {
			p.skipToSequenceBoundary(end)
		}

		if !p.peekTokenIs(token.SEMICOLON) {
			break
		}
		for p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		p.nextToken()
	}

	if !p.curTokenIs(end) {
		p.nextToken()
		if !p.curTokenIs(end) {
			p.addError(p.curToken, fmt.Sprintf("expected %s, found %s", describeType(end), describe(p.curToken)))
		}
	}

	return exprs
}

// parseSequenceItem parses one element of a sequence. Destructuring
// assignment (a, b = v) only exists at this level.
func (p *Parser) parseSequenceItem() ast.Expression {
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COMMA) {
		return p.parseDestructure()
	}
	return p.parseExpression(LOWEST)
}

// skipToSequenceBoundary advances past the broken expression so one syntax
// error does not cascade.
func (p *Parser) skipToSequenceBoundary(end token.TokenType) {
	for !p.curTokenIs(token.EOF) && !p.curTokenIs(end) && !p.peekTokenIs(token.SEMICOLON) {
		if p.peekTokenIs(end) || p.peekTokenIs(token.EOF) {
			return
		}
		p.nextToken()
	}
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.addError(p.curToken, fmt.Sprintf("expected expression, found %s", describe(p.curToken)))
		return nil
	}
	leftExp := prefix()

	for leftExp != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) peekPrecedence() int {
	// `not` is only an operator as part of `not in`.
	if p.peekToken.Type == token.NOT {
		return CONTAINS
	}
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}
