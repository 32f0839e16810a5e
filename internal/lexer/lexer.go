// Package lexer turns linefeed source text into tokens.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/linefeed-lang/linefeed/internal/token"
)

// Mode tells the lexer what the parser expects next. A '/' at the start of an
// expression opens a regex literal; after an operand it is division.
type Mode int

const (
	ModeExprStart Mode = iota
	ModeOperator
)

// Error is a lexing failure with its source position.
type Error struct {
	Line   int
	Column int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Column, e.Reason)
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position (after current char)
	ch           rune // current char under examination
	line         int
	column       int

	Errors []*Error
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// NextToken returns the next token. The mode only affects how '/' is lexed.
func (l *Lexer) NextToken(mode Mode) token.Token {
	var tok token.Token

	l.skipWhitespaceAndComments()

	line, col := l.line, l.column

	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF, Line: line, Column: col}
	case '=':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = twoCharToken(token.EQ, line, col)
		case '>':
			l.readChar()
			tok = twoCharToken(token.FAT_ARROW, line, col)
		default:
			tok = newToken(token.ASSIGN, l.ch, line, col)
		}
	case '+':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.PLUS_ASSIGN, line, col)
		} else {
			tok = newToken(token.PLUS, l.ch, line, col)
		}
	case '-':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.MINUS_ASSIGN, line, col)
		} else {
			tok = newToken(token.MINUS, l.ch, line, col)
		}
	case '*':
		switch l.peekChar() {
		case '*':
			l.readChar()
			tok = twoCharToken(token.POWER, line, col)
		case '=':
			l.readChar()
			tok = twoCharToken(token.ASTERISK_ASSIGN, line, col)
		default:
			tok = newToken(token.ASTERISK, l.ch, line, col)
		}
	case '/':
		if mode == ModeExprStart {
			return l.readRegex(line, col)
		}
		switch l.peekChar() {
		case '/':
			l.readChar()
			tok = twoCharToken(token.SLASH2, line, col)
		case '=':
			l.readChar()
			tok = twoCharToken(token.SLASH_ASSIGN, line, col)
		default:
			tok = newToken(token.SLASH, l.ch, line, col)
		}
	case '%':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.PERCENT_ASSIGN, line, col)
		} else {
			tok = newToken(token.PERCENT, l.ch, line, col)
		}
	case '&':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.AMP_ASSIGN, line, col)
		} else {
			tok = newToken(token.AMP, l.ch, line, col)
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.NOT_EQ, line, col)
		} else {
			return l.illegal(line, col, "unexpected character '!'")
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.LTE, line, col)
		} else {
			tok = newToken(token.LT, l.ch, line, col)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = twoCharToken(token.GTE, line, col)
		} else {
			tok = newToken(token.GT, l.ch, line, col)
		}
	case '.':
		if l.peekChar() == '.' {
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				tok = twoCharToken(token.DOT_DOT_EQ, line, col)
			} else {
				tok = twoCharToken(token.DOT_DOT, line, col)
			}
		} else {
			tok = newToken(token.DOT, l.ch, line, col)
		}
	case '|':
		tok = newToken(token.PIPE, l.ch, line, col)
	case ',':
		tok = newToken(token.COMMA, l.ch, line, col)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, line, col)
	case ':':
		tok = newToken(token.COLON, l.ch, line, col)
	case '(':
		tok = newToken(token.LPAREN, l.ch, line, col)
	case ')':
		tok = newToken(token.RPAREN, l.ch, line, col)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, line, col)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, line, col)
	case '{':
		tok = newToken(token.LBRACE, l.ch, line, col)
	case '}':
		tok = newToken(token.RBRACE, l.ch, line, col)
	case '"':
		return l.readString(line, col)
	default:
		if l.ch == 'r' && l.peekChar() == '/' {
			l.readChar()
			return l.readRegex(line, col)
		}
		if l.ch == 'r' && l.peekChar() == '"' {
			l.readChar()
			return l.readRawString(line, col)
		}
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			return token.Token{
				Type:    token.LookupIdent(ident),
				Lexeme:  ident,
				Literal: ident,
				Line:    line,
				Column:  col,
			}
		}
		if unicode.IsDigit(l.ch) {
			return l.readNumber(line, col)
		}
		return l.illegal(line, col, fmt.Sprintf("unexpected character %q", l.ch))
	}

	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '#' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || unicode.IsDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber(line, col int) token.Token {
	start := l.position
	typ := token.INT

	for unicode.IsDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}

	// A '.' only continues a number when followed by a digit, so that
	// "1..5" lexes as INT DOT_DOT INT.
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		typ = token.FLOAT
		l.readChar()
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}

	lexeme := l.input[start:l.position]
	return token.Token{Type: typ, Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}
}

func (l *Lexer) readString(line, col int) token.Token {
	l.readChar() // opening quote

	var out []rune
	for l.ch != '"' {
		if l.ch == 0 {
			return l.illegal(line, col, "unterminated string literal")
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '\\':
				out = append(out, '\\')
			case '"':
				out = append(out, '"')
			case '0':
				out = append(out, 0)
			default:
				return l.illegal(line, col, fmt.Sprintf("unknown escape sequence '\\%c'", l.ch))
			}
			l.readChar()
			continue
		}
		out = append(out, l.ch)
		l.readChar()
	}
	l.readChar() // closing quote

	s := string(out)
	return token.Token{Type: token.STRING, Lexeme: fmt.Sprintf("%q", s), Literal: s, Line: line, Column: col}
}

func (l *Lexer) readRawString(line, col int) token.Token {
	l.readChar() // opening quote

	start := l.position
	for l.ch != '"' {
		if l.ch == 0 {
			return l.illegal(line, col, "unterminated string literal")
		}
		l.readChar()
	}
	s := l.input[start:l.position]
	l.readChar() // closing quote

	return token.Token{Type: token.STRING, Lexeme: "r" + fmt.Sprintf("%q", s), Literal: s, Line: line, Column: col}
}

// readRegex lexes a regex literal starting at the opening '/'. The literal
// payload is "pattern\x00flags".
func (l *Lexer) readRegex(line, col int) token.Token {
	l.readChar() // opening '/'

	start := l.position
	for l.ch != '/' {
		if l.ch == 0 || l.ch == '\n' {
			return l.illegal(line, col, "unterminated regex literal")
		}
		if l.ch == '\\' {
			l.readChar() // keep escapes intact, including '\/'
		}
		l.readChar()
	}
	pattern := l.input[start:l.position]
	l.readChar() // closing '/'

	flagStart := l.position
	for l.ch == 'i' || l.ch == 'n' {
		l.readChar()
	}
	flags := l.input[flagStart:l.position]

	if isLetter(l.ch) {
		return l.illegal(line, col, fmt.Sprintf("unknown regex flag %q", l.ch))
	}

	return token.Token{
		Type:    token.REGEX,
		Lexeme:  "/" + pattern + "/" + flags,
		Literal: pattern + "\x00" + flags,
		Line:    line,
		Column:  col,
	}
}

func (l *Lexer) illegal(line, col int, reason string) token.Token {
	l.Errors = append(l.Errors, &Error{Line: line, Column: col, Reason: reason})
	tok := token.Token{Type: token.ILLEGAL, Lexeme: string(l.ch), Line: line, Column: col}
	l.readChar()
	return tok
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func newToken(tokenType token.TokenType, ch rune, line, col int) token.Token {
	return token.Token{Type: tokenType, Lexeme: string(ch), Literal: string(ch), Line: line, Column: col}
}

func twoCharToken(tokenType token.TokenType, line, col int) token.Token {
	s := string(tokenType)
	return token.Token{Type: tokenType, Lexeme: s, Literal: s, Line: line, Column: col}
}
