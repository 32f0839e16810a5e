package lexer

import (
	"testing"

	"github.com/linefeed-lang/linefeed/internal/token"
)

func TestNextTokenOperators(t *testing.T) {
	input := `= + - * / // % ** & == != < <= > >= .. ..= => | , ; : . ( ) [ ] { } += -= *= /= %= &=`

	tests := []token.TokenType{
		token.ASSIGN, token.PLUS, token.MINUS, token.ASTERISK, token.SLASH,
		token.SLASH2, token.PERCENT, token.POWER, token.AMP,
		token.EQ, token.NOT_EQ, token.LT, token.LTE, token.GT, token.GTE,
		token.DOT_DOT, token.DOT_DOT_EQ, token.FAT_ARROW, token.PIPE,
		token.COMMA, token.SEMICOLON, token.COLON, token.DOT,
		token.LPAREN, token.RPAREN, token.LBRACKET, token.RBRACKET,
		token.LBRACE, token.RBRACE,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.ASTERISK_ASSIGN,
		token.SLASH_ASSIGN, token.PERCENT_ASSIGN, token.AMP_ASSIGN,
		token.EOF,
	}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken(ModeOperator)
		if tok.Type != want {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q (%q)", i, want, tok.Type, tok.Lexeme)
		}
	}
	if len(l.Errors) != 0 {
		t.Fatalf("unexpected lex errors: %v", l.Errors)
	}
}

func TestNextTokenKeywordsAndLiterals(t *testing.T) {
	input := `if else unless while for in fn return break continue match and or xor not true false null
total_count 42 3.14 "hi\n" r"a\b"`

	tests := []struct {
		wantType    token.TokenType
		wantLiteral string
	}{
		{token.IF, "if"}, {token.ELSE, "else"}, {token.UNLESS, "unless"},
		{token.WHILE, "while"}, {token.FOR, "for"}, {token.IN, "in"},
		{token.FN, "fn"}, {token.RETURN, "return"}, {token.BREAK, "break"},
		{token.CONTINUE, "continue"}, {token.MATCH, "match"},
		{token.AND, "and"}, {token.OR, "or"}, {token.XOR, "xor"}, {token.NOT, "not"},
		{token.TRUE, "true"}, {token.FALSE, "false"}, {token.NULL, "null"},
		{token.IDENT, "total_count"},
		{token.INT, "42"},
		{token.FLOAT, "3.14"},
		{token.STRING, "hi\n"},
		{token.STRING, `a\b`},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken(ModeExprStart)
		if tok.Type != tt.wantType {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q", i, tt.wantType, tok.Type)
		}
		if tok.Literal != tt.wantLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q", i, tt.wantLiteral, tok.Literal)
		}
	}
}

func TestRangeDoesNotLexAsFloat(t *testing.T) {
	l := New("1..5")

	tok := l.NextToken(ModeExprStart)
	if tok.Type != token.INT || tok.Literal != "1" {
		t.Fatalf("expected INT 1, got %q %q", tok.Type, tok.Literal)
	}
	tok = l.NextToken(ModeOperator)
	if tok.Type != token.DOT_DOT {
		t.Fatalf("expected .., got %q", tok.Type)
	}
	tok = l.NextToken(ModeExprStart)
	if tok.Type != token.INT || tok.Literal != "5" {
		t.Fatalf("expected INT 5, got %q %q", tok.Type, tok.Literal)
	}
}

func TestRegexLiterals(t *testing.T) {
	tests := []struct {
		input       string
		mode        Mode
		wantType    token.TokenType
		wantLiteral string
	}{
		{`r/^(\d+)(cm|in)$/n`, ModeOperator, token.REGEX, `^(\d+)(cm|in)$` + "\x00n"},
		{`/abc/i`, ModeExprStart, token.REGEX, "abc\x00i"},
		{`/a\/b/`, ModeExprStart, token.REGEX, `a\/b` + "\x00"},
		{`/abc/`, ModeOperator, token.SLASH, ""},
	}

	for i, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken(tt.mode)
		if tok.Type != tt.wantType {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q", i, tt.wantType, tok.Type)
		}
		if tt.wantType == token.REGEX && tok.Literal != tt.wantLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q", i, tt.wantLiteral, tok.Literal)
		}
	}
}

func TestCommentsAndPositions(t *testing.T) {
	input := "a = 1 # trailing comment\nb = 2"

	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken(ModeOperator)
		if tok.Type == token.EOF {
			break
		}
		toks = append(toks, tok)
	}

	if len(toks) != 6 {
		t.Fatalf("expected 6 tokens, got %d: %v", len(toks), toks)
	}
	if toks[3].Lexeme != "b" || toks[3].Line != 2 || toks[3].Column != 1 {
		t.Fatalf("expected b at 2:1, got %q at %d:%d", toks[3].Lexeme, toks[3].Line, toks[3].Column)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		input  string
		reason string
	}{
		{`"abc`, "unterminated string literal"},
		{"/abc\n", "unterminated regex literal"},
		{"@", `unexpected character '@'`},
	}

	for i, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken(ModeExprStart)
		if tok.Type != token.ILLEGAL {
			t.Fatalf("tests[%d] - expected ILLEGAL, got %q", i, tok.Type)
		}
		if len(l.Errors) != 1 {
			t.Fatalf("tests[%d] - expected 1 error, got %d", i, len(l.Errors))
		}
		if l.Errors[0].Reason != tt.reason {
			t.Fatalf("tests[%d] - wrong reason. expected=%q, got=%q", i, tt.reason, l.Errors[0].Reason)
		}
	}
}
