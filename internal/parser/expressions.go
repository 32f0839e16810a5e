package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/linefeed-lang/linefeed/internal/ast"
	"github.com/linefeed-lang/linefeed/internal/token"
)

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal}
}

func (p *Parser) parseIntLiteral() ast.Expression {
	lit := strings.ReplaceAll(p.curToken.Literal, "_", "")
	value, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		p.addError(p.curToken, fmt.Sprintf("could not parse %q as integer", p.curToken.Lexeme))
		return nil
	}
	return &ast.IntLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := strings.ReplaceAll(p.curToken.Literal, "_", "")
	value, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.addError(p.curToken, fmt.Sprintf("could not parse %q as float", p.curToken.Lexeme))
		return nil
	}
	return &ast.FloatLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseRegexLiteral() ast.Expression {
	pattern, flags, _ := strings.Cut(p.curToken.Literal, "\x00")
	return &ast.RegexLiteral{Token: p.curToken, Pattern: pattern, Flags: flags}
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNullLiteral() ast.Expression {
	return &ast.NullLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Type}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Type,
	}
	precedence := precedences[p.curToken.Type]
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	return expr
}

// parsePowerExpression makes ** right-associative.
func (p *Parser) parsePowerExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Type,
	}
	p.nextToken()
	expr.Right = p.parseExpression(POW - 1)
	return expr
}

// parseNotIn handles the two-keyword operator `not in`.
func (p *Parser) parseNotIn(left ast.Expression) ast.Expression {
	notTok := p.curToken
	if !p.expectPeek(token.IN) {
		return nil
	}
	inner := &ast.InfixExpression{Token: p.curToken, Left: left, Operator: token.IN}
	p.nextToken()
	inner.Right = p.parseExpression(CONTAINS)
	return &ast.PrefixExpression{Token: notTok, Operator: token.NOT, Right: inner}
}

// parseRangeExpression parses a..b and a..=b. The end may be omitted when
// the next token cannot start an expression, giving an unbounded range.
func (p *Parser) parseRangeExpression(left ast.Expression) ast.Expression {
	expr := &ast.RangeExpression{
		Token:     p.curToken,
		Start:     left,
		Inclusive: p.curTokenIs(token.DOT_DOT_EQ),
	}
	switch p.peekToken.Type {
	case token.RBRACKET, token.RPAREN, token.RBRACE, token.LBRACE,
		token.SEMICOLON, token.COMMA, token.EOF:
		return expr
	}
	p.nextToken()
	expr.End = p.parseExpression(RANGE)
	return expr
}

var compoundOps = map[token.TokenType]token.TokenType{
	token.ASSIGN:          token.ASSIGN,
	token.PLUS_ASSIGN:     token.PLUS,
	token.MINUS_ASSIGN:    token.MINUS,
	token.ASTERISK_ASSIGN: token.ASTERISK,
	token.SLASH_ASSIGN:    token.SLASH,
	token.PERCENT_ASSIGN:  token.PERCENT,
	token.AMP_ASSIGN:      token.AMP,
}

func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	op := compoundOps[tok.Type]
	p.nextToken()
	value := p.parseExpression(ASSIGN - 1)

	switch target := left.(type) {
	case *ast.Identifier:
		return &ast.AssignExpression{Token: tok, Name: target, Operator: op, Value: value}
	case *ast.IndexExpression:
		return &ast.IndexAssignExpression{
			Token:    tok,
			Object:   target.Object,
			Index:    target.Index,
			Operator: op,
			Value:    value,
		}
	default:
		p.addError(tok, "invalid assignment target")
		return nil
	}
}

// parseDestructure parses `a, b, c = value` at sequence level.
func (p *Parser) parseDestructure() ast.Expression {
	expr := &ast.DestructureExpression{Token: p.curToken}
	expr.Targets = append(expr.Targets, &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal})

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		expr.Targets = append(expr.Targets, &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal})
	}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	expr.Value = p.parseExpression(LOWEST)
	return expr
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	expr := &ast.CallExpression{Token: p.curToken, Callee: callee}
	expr.Args = p.parseExpressionList(token.RPAREN)
	return expr
}

func (p *Parser) parseIndexExpression(object ast.Expression) ast.Expression {
	expr := &ast.IndexExpression{Token: p.curToken, Object: object}
	p.nextToken()
	expr.Index = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return expr
}

func (p *Parser) parseMethodCall(receiver ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	method := p.curToken.Literal
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	return &ast.MethodCallExpression{
		Token:    tok,
		Receiver: receiver,
		Method:   method,
		Args:     p.parseExpressionList(token.RPAREN),
	}
}

// parseExpressionList parses a comma-separated list; curToken is the opening
// delimiter. Trailing commas are allowed.
func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}

	if !p.expectPeek(end) {
		return nil
	}
	return list
}

// parseParenExpression handles grouping, tuples and parenthesised
// `;`-sequences, which are disambiguated by the first separator.
func (p *Parser) parseParenExpression() ast.Expression {
	tok := p.curToken

	if p.peekTokenIs(token.RPAREN) {
		p.addError(p.peekToken, "expected expression, found \")\"")
		p.nextToken()
		return nil
	}

	p.nextToken()
	first := p.parseExpression(LOWEST)

	switch p.peekToken.Type {
	case token.COMMA:
		tuple := &ast.TupleLiteral{Token: tok, Elements: []ast.Expression{first}}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RPAREN) {
				break
			}
			p.nextToken()
			tuple.Elements = append(tuple.Elements, p.parseExpression(LOWEST))
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return tuple

	case token.SEMICOLON:
		seq := &ast.SequenceExpression{Token: tok, Exprs: []ast.Expression{first}}
		for p.peekTokenIs(token.SEMICOLON) {
			for p.peekTokenIs(token.SEMICOLON) {
				p.nextToken()
			}
			if p.peekTokenIs(token.RPAREN) {
				break
			}
			p.nextToken()
			seq.Exprs = append(seq.Exprs, p.parseSequenceItem())
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return seq

	default:
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return first
	}
}

// parseListOrComprehension parses [a, b, c] or [expr for x in iter if cond].
func (p *Parser) parseListOrComprehension() ast.Expression {
	tok := p.curToken

	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return &ast.ListLiteral{Token: tok}
	}

	p.nextToken()
	first := p.parseExpression(LOWEST)

	if !p.peekTokenIs(token.FOR) {
		list := &ast.ListLiteral{Token: tok, Elements: []ast.Expression{first}}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RBRACKET) {
				break
			}
			p.nextToken()
			list.Elements = append(list.Elements, p.parseExpression(LOWEST))
		}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return list
	}

	// Comprehension: [first for target in iter] with an optional filter.
	p.nextToken()
	target := p.parseLoopTarget()
	if target == nil {
		return nil
	}
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	iter := p.parseExpression(POSTFIX)

	var filter ast.Expression
	if p.peekTokenIs(token.IF) {
		p.nextToken()
		p.nextToken()
		filter = p.parseExpression(LOWEST)
	}

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}

	return desugarComprehension(tok, first, target, iter, filter)
}

// parseLoopTarget parses the binding target of a for loop or comprehension:
// a single identifier or a comma-separated destructuring list. curToken must
// be the first identifier.
func (p *Parser) parseLoopTarget() ast.Expression {
	if !p.curTokenIs(token.IDENT) {
		p.addError(p.curToken, fmt.Sprintf("expected identifier, found %s", describe(p.curToken)))
		return nil
	}
	first := &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal}
	if !p.peekTokenIs(token.COMMA) {
		return first
	}

	de := &ast.DestructureExpression{Token: p.curToken, Targets: []ast.Expression{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		de.Targets = append(de.Targets, &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal})
	}
	return de
}

// accName cannot collide with user identifiers: '!' never lexes into one.
const accName = "!acc"

// desugarComprehension lowers a comprehension to an immediately-called
// function wrapping a for loop that appends into a fresh list.
func desugarComprehension(tok token.Token, body, target, iter, filter ast.Expression) ast.Expression {
	accTok := token.Token{Type: token.IDENT, Lexeme: accName, Literal: accName, Line: tok.Line, Column: tok.Column}
	assignTok := token.Token{Type: token.ASSIGN, Lexeme: "=", Line: tok.Line, Column: tok.Column}
	acc := func() *ast.Identifier {
		return &ast.Identifier{Token: accTok, Name: accName}
	}

	var loopBody ast.Expression = &ast.MethodCallExpression{
		Token:    tok,
		Receiver: acc(),
		Method:   "append",
		Args:     []ast.Expression{body},
	}
	if filter != nil {
		loopBody = &ast.IfExpression{Token: tok, Condition: filter, Then: loopBody}
	}

	fn := &ast.FunctionLiteral{
		Token: tok,
		Body: &ast.BlockExpression{
			Token: tok,
			Exprs: []ast.Expression{
				&ast.AssignExpression{
					Token:    assignTok,
					Name:     acc(),
					Operator: token.ASSIGN,
					Value:    &ast.ListLiteral{Token: tok},
				},
				&ast.ForExpression{
					Token:    tok,
					Target:   target,
					Iterable: iter,
					Body:     &ast.BlockExpression{Token: tok, Exprs: []ast.Expression{loopBody}},
				},
				acc(),
			},
		},
	}

	return &ast.CallExpression{Token: tok, Callee: fn}
}

// parseBlockOrMap disambiguates `{ ... }`: `{}` and `{k: v}` are maps,
// anything else is a block. The decision is made after the first expression.
func (p *Parser) parseBlockOrMap() ast.Expression {
	tok := p.curToken

	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return &ast.MapLiteral{Token: tok}
	}

	// A leading `ident,` can only be a destructuring assignment, so this is
	// a block.
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		if p.peekTokenIs(token.COMMA) {
			first := p.parseDestructure()
			return p.parseBlockRest(tok, first)
		}
		first := p.parseExpression(LOWEST)
		if p.peekTokenIs(token.COLON) {
			return p.parseMapRest(tok, first)
		}
		return p.parseBlockRest(tok, first)
	}

	for p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if p.peekTokenIs(token.COLON) {
		return p.parseMapRest(tok, first)
	}
	return p.parseBlockRest(tok, first)
}

func (p *Parser) parseMapRest(tok token.Token, firstKey ast.Expression) ast.Expression {
	ml := &ast.MapLiteral{Token: tok}

	p.nextToken() // the ':'
	p.nextToken()
	ml.Pairs = append(ml.Pairs, ast.MapPair{Key: firstKey, Value: p.parseExpression(LOWEST)})

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACE) {
			break
		}
		p.nextToken()
		key := p.parseExpression(LOWEST)
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		ml.Pairs = append(ml.Pairs, ast.MapPair{Key: key, Value: p.parseExpression(LOWEST)})
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return ml
}

func (p *Parser) parseBlockRest(tok token.Token, first ast.Expression) ast.Expression {
	block := &ast.BlockExpression{Token: tok}
	if first != nil {
		block.Exprs = append(block.Exprs, first)
	}

	for p.peekTokenIs(token.SEMICOLON) {
		for p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		if p.peekTokenIs(token.RBRACE) {
			break
		}
		p.nextToken()
		expr := p.parseSequenceItem()
		if expr == nil {
			break
		}
		block.Exprs = append(block.Exprs, expr)
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return block
}
