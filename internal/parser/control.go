package parser

import (
	"github.com/linefeed-lang/linefeed/internal/ast"
	"github.com/linefeed-lang/linefeed/internal/token"
)

func (p *Parser) parseIfExpression() ast.Expression {
	expr := &ast.IfExpression{Token: p.curToken}

	p.nextToken()
	expr.Condition = p.parseExpression(LOWEST)

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expr.Then = p.parseBlockOrMap()

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			expr.Else = p.parseIfExpression()
		} else {
			if !p.expectPeek(token.LBRACE) {
				return nil
			}
			expr.Else = p.parseBlockOrMap()
		}
	}

	return expr
}

func (p *Parser) parseWhileExpression() ast.Expression {
	expr := &ast.WhileExpression{Token: p.curToken}

	p.nextToken()
	expr.Condition = p.parseExpression(LOWEST)

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expr.Body = p.parseBlockOrMap()

	return expr
}

func (p *Parser) parseForExpression() ast.Expression {
	expr := &ast.ForExpression{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expr.Target = p.parseLoopTarget()
	if expr.Target == nil {
		return nil
	}

	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	expr.Iterable = p.parseExpression(LOWEST)

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expr.Body = p.parseBlockOrMap()

	return expr
}

// parseFunctionLiteral parses `fn name(a, b) body` and `fn(a, b) body`.
// A named function is sugar for assigning the literal to the name.
func (p *Parser) parseFunctionLiteral() ast.Expression {
	fn := &ast.FunctionLiteral{Token: p.curToken}

	var nameTok token.Token
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		nameTok = p.curToken
		fn.Name = p.curToken.Literal
	}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	fn.Params = p.parseFunctionParams()
	if fn.Params == nil {
		return nil
	}

	fn.Body = p.parseFunctionBody()
	if fn.Body == nil {
		return nil
	}

	if fn.Name == "" {
		return fn
	}
	assignTok := token.Token{Type: token.ASSIGN, Lexeme: "=", Line: nameTok.Line, Column: nameTok.Column}
	return &ast.AssignExpression{
		Token:    assignTok,
		Name:     &ast.Identifier{Token: nameTok, Name: fn.Name},
		Operator: token.ASSIGN,
		Value:    fn,
	}
}

// parseFunctionParams parses `a, b, c)` with curToken on the '('.
func (p *Parser) parseFunctionParams() []*ast.Identifier {
	params := []*ast.Identifier{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	params = append(params, &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal})

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RPAREN) {
			break
		}
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		params = append(params, &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal})
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return params
}

// parseFunctionBody accepts either a block or a single inline expression.
func (p *Parser) parseFunctionBody() ast.Expression {
	if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		return p.parseBlockOrMap()
	}
	p.nextToken()
	return p.parseExpression(LOWEST)
}

// parseLambda parses `|a, b| body` and `|| body`.
func (p *Parser) parseLambda() ast.Expression {
	fn := &ast.FunctionLiteral{Token: p.curToken}
	fn.Params = []*ast.Identifier{}

	if !p.peekTokenIs(token.PIPE) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		fn.Params = append(fn.Params, &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal})
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			fn.Params = append(fn.Params, &ast.Identifier{Token: p.curToken, Name: p.curToken.Literal})
		}
	}

	if !p.expectPeek(token.PIPE) {
		return nil
	}

	fn.Body = p.parseFunctionBody()
	if fn.Body == nil {
		return nil
	}
	return fn
}

func (p *Parser) parseMatchExpression() ast.Expression {
	expr := &ast.MatchExpression{Token: p.curToken}

	p.nextToken()
	expr.Subject = p.parseExpression(LOWEST)

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		p.nextToken()
		pattern := p.parseExpression(LOWEST)
		if !p.expectPeek(token.FAT_ARROW) {
			return nil
		}
		p.nextToken()
		body := p.parseExpression(LOWEST)
		expr.Arms = append(expr.Arms, ast.MatchArm{Pattern: pattern, Body: body})

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return expr
}

// endsExpression reports whether t cannot start an expression, so a bare
// `return` before it carries no value.
func endsExpression(t token.TokenType) bool {
	switch t {
	case token.SEMICOLON, token.RBRACE, token.RPAREN, token.RBRACKET,
		token.COMMA, token.EOF:
		return true
	}
	return false
}

func (p *Parser) parseReturnExpression() ast.Expression {
	expr := &ast.ReturnExpression{Token: p.curToken}
	if endsExpression(p.peekToken.Type) || p.peekTokenIs(token.IF) || p.peekTokenIs(token.UNLESS) {
		return expr
	}
	p.nextToken()
	expr.Value = p.parseExpression(POSTFIX)
	return expr
}

func (p *Parser) parseBreakExpression() ast.Expression {
	return &ast.BreakExpression{Token: p.curToken}
}

func (p *Parser) parseContinueExpression() ast.Expression {
	return &ast.ContinueExpression{Token: p.curToken}
}

// parsePostfixIf wraps an already-parsed expression: `expr if cond`.
func (p *Parser) parsePostfixIf(left ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(POSTFIX)
	return &ast.IfExpression{Token: tok, Condition: cond, Then: left}
}

// parsePostfixUnless is the inverse modifier: `expr unless cond`.
func (p *Parser) parsePostfixUnless(left ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(POSTFIX)
	return &ast.IfExpression{
		Token:     tok,
		Condition: &ast.PrefixExpression{Token: tok, Operator: token.NOT, Right: cond},
		Then:      left,
	}
}
