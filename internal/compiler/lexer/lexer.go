// Package lexer provides lexical analysis for wire schema source.
// It tokenizes .wire files into a stream of tokens for the parser.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
)

// Lexer tokenizes wire schema source.
//
// Lexer instances are not safe for concurrent use; create one per document.
type Lexer struct {
	source  string     // Source code to tokenize
	start   int        // Start position of current token
	current int        // Current position in source
	line    int        // Current line number (1-indexed)
	column  int        // Current column number (1-indexed)
	tokens  []Token    // Collected tokens
	errors  []LexError // Collected errors

	startLine   int
	startColumn int
}

// New creates a new Lexer for the given source code
func New(source string) *Lexer {
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0),
		errors: make([]LexError, 0),
	}
}

// ScanTokens tokenizes the entire source and returns tokens and errors
func (l *Lexer) ScanTokens() ([]Token, []LexError) {
	for !l.isAtEnd() {
		l.start = l.current
		l.startLine = l.line
		l.startColumn = l.column
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Type:   TOKEN_EOF,
		Offset: len(l.source),
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, l.errors
}

func (l *Lexer) scanToken() {
	c := l.advance()

	switch c {
	case ' ', '\t', '\r', '\n':
		return
	case '(':
		l.addToken(TOKEN_LPAREN)
	case ')':
		l.addToken(TOKEN_RPAREN)
	case '{':
		l.addToken(TOKEN_LBRACE)
	case '}':
		l.addToken(TOKEN_RBRACE)
	case '[':
		l.addToken(TOKEN_LBRACKET)
	case ']':
		l.addToken(TOKEN_RBRACKET)
	case ':':
		l.addToken(TOKEN_COLON)
	case ',':
		l.addToken(TOKEN_COMMA)
	case '=':
		l.addToken(TOKEN_EQUAL)
	case '?':
		l.addToken(TOKEN_QUESTION)
	case '.':
		l.scanDots()
	case '-':
		l.scanMinus()
	case '"':
		l.string()
	default:
		switch {
		case isDigit(c):
			l.number()
		case isAlpha(c):
			l.identifier()
		default:
			l.addError(fmt.Sprintf("Unexpected character '%c'", c))
		}
	}
}

// scanDots handles '..' and '...'
func (l *Lexer) scanDots() {
	if !l.match('.') {
		l.addError("Unexpected '.', expected '..'")
		return
	}
	if l.match('.') {
		l.addToken(TOKEN_ELLIPSIS)
		return
	}
	l.addToken(TOKEN_DOTDOT)
}

// scanMinus handles comments ('--' and '--[[ ]]') and negative numbers
func (l *Lexer) scanMinus() {
	switch {
	case l.peek() == '-':
		l.advance()
		if l.peek() == '[' && l.peekNext() == '[' {
			l.multilineComment()
			return
		}
		l.comment()
	case isDigit(l.peek()):
		l.advance()
		l.number()
	default:
		l.addError("Unexpected '-'")
	}
}

// comment skips a single-line comment
func (l *Lexer) comment() {
	for l.peek() != '\n' && !l.isAtEnd() {
		l.advance()
	}
}

// multilineComment skips a --[[ ... ]] block
func (l *Lexer) multilineComment() {
	l.advance() // [
	l.advance() // [

	for !l.isAtEnd() {
		if l.peek() == ']' && l.peekNext() == ']' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}

	l.addError("Unterminated block comment")
}

// string handles string literals with simple escapes
func (l *Lexer) string() {
	value := strings.Builder{}

	for !l.isAtEnd() && l.peek() != '"' && l.peek() != '\n' {
		if l.peek() == '\\' {
			l.advance()
			if l.isAtEnd() {
				break
			}
			escaped := l.advance()
			switch escaped {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case '\\':
				value.WriteByte('\\')
			case '"':
				value.WriteByte('"')
			default:
				value.WriteByte('\\')
				value.WriteByte(escaped)
			}
			continue
		}
		value.WriteByte(l.advance())
	}

	if l.isAtEnd() || l.peek() == '\n' {
		l.addError("Unterminated string")
		return
	}

	l.advance() // closing "
	l.addTokenWithLiteral(TOKEN_STRING, value.String())
}

// number handles integer and decimal literals. A leading '-' has already
// been consumed when present.
func (l *Lexer) number() {
	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	// "0..10" is a range, not a decimal
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if !isDigit(l.peek()) {
			l.addError("Invalid number: expected digits after exponent")
			return
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	lexeme := l.source[l.start:l.current]
	value, err := strconv.ParseFloat(strings.ReplaceAll(lexeme, "_", ""), 64)
	if err != nil {
		l.addError(fmt.Sprintf("Invalid number literal: %s", lexeme))
		return
	}
	l.addTokenWithLiteral(TOKEN_NUMBER, value)
}

// identifier handles identifiers and keywords
func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) {
		l.advance()
	}

	text := l.source[l.start:l.current]
	tokenType, isKeyword := Keywords[text]
	if !isKeyword {
		l.addToken(TOKEN_WORD)
		return
	}

	switch tokenType {
	case TOKEN_TRUE:
		l.addTokenWithLiteral(tokenType, true)
	case TOKEN_FALSE:
		l.addTokenWithLiteral(tokenType, false)
	default:
		l.addToken(tokenType)
	}
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	c := l.source[l.current]
	l.current++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func (l *Lexer) addToken(tokenType TokenType) {
	l.addTokenWithLiteral(tokenType, nil)
}

func (l *Lexer) addTokenWithLiteral(tokenType TokenType, literal interface{}) {
	l.tokens = append(l.tokens, Token{
		Type:    tokenType,
		Lexeme:  l.source[l.start:l.current],
		Literal: literal,
		Offset:  l.start,
		Line:    l.startLine,
		Column:  l.startColumn,
	})
}

// addError records a lexical error spanning the current lexeme
func (l *Lexer) addError(message string) {
	l.errors = append(l.errors, LexError{
		Message: message,
		Offset:  l.start,
		Line:    l.startLine,
		Column:  l.startColumn,
		Lexeme:  l.source[l.start:l.current],
	})
}
