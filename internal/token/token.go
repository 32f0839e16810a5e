// Package token defines the lexical tokens of linefeed.
package token

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers and literals
	IDENT  TokenType = "IDENT"
	INT    TokenType = "INT"
	FLOAT  TokenType = "FLOAT"
	STRING TokenType = "STRING"
	REGEX  TokenType = "REGEX"

	// Operators
	ASSIGN   TokenType = "="
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	SLASH2   TokenType = "//"
	PERCENT  TokenType = "%"
	POWER    TokenType = "**"
	AMP      TokenType = "&"

	PLUS_ASSIGN     TokenType = "+="
	MINUS_ASSIGN    TokenType = "-="
	ASTERISK_ASSIGN TokenType = "*="
	SLASH_ASSIGN    TokenType = "/="
	PERCENT_ASSIGN  TokenType = "%="
	AMP_ASSIGN      TokenType = "&="

	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LT     TokenType = "<"
	LTE    TokenType = "<="
	GT     TokenType = ">"
	GTE    TokenType = ">="

	DOT_DOT    TokenType = ".."
	DOT_DOT_EQ TokenType = "..="

	FAT_ARROW TokenType = "=>"
	PIPE      TokenType = "|"

	// Delimiters
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	COLON     TokenType = ":"
	DOT       TokenType = "."
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"

	// Keywords
	IF       TokenType = "IF"
	ELSE     TokenType = "ELSE"
	UNLESS   TokenType = "UNLESS"
	WHILE    TokenType = "WHILE"
	FOR      TokenType = "FOR"
	IN       TokenType = "IN"
	FN       TokenType = "FN"
	RETURN   TokenType = "RETURN"
	BREAK    TokenType = "BREAK"
	CONTINUE TokenType = "CONTINUE"
	MATCH    TokenType = "MATCH"
	AND      TokenType = "AND"
	OR       TokenType = "OR"
	XOR      TokenType = "XOR"
	NOT      TokenType = "NOT"
	TRUE     TokenType = "TRUE"
	FALSE    TokenType = "FALSE"
	NULL     TokenType = "NULL"
)

// Token is a single lexical unit with its source position.
// Literal holds the decoded payload (e.g. unescaped string contents,
// or "pattern\x00flags" for regex literals); Lexeme is the raw text.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal string
	Line    int
	Column  int
}

var keywords = map[string]TokenType{
	"if":       IF,
	"else":     ELSE,
	"unless":   UNLESS,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"fn":       FN,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
	"match":    MATCH,
	"and":      AND,
	"or":       OR,
	"xor":      XOR,
	"not":      NOT,
	"true":     TRUE,
	"false":    FALSE,
	"null":     NULL,
}

// LookupIdent returns the keyword type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}
