package lexer

import "fmt"

// TokenType represents the type of a token in a wire schema
type TokenType int

const (
	// TOKEN_EOF marks the end of the token stream.
	TOKEN_EOF TokenType = iota
	// TOKEN_ERROR represents a lexical error encountered during scanning.
	TOKEN_ERROR

	// TOKEN_OPT marks the 'opt' keyword for global options.
	TOKEN_OPT
	// TOKEN_TYPE marks the 'type' keyword for named type declarations.
	TOKEN_TYPE
	// TOKEN_EVENT marks the 'event' keyword for event declarations.
	TOKEN_EVENT
	// TOKEN_STRUCT marks the 'struct' keyword for record types.
	TOKEN_STRUCT
	// TOKEN_ENUM marks the 'enum' keyword for unit and tagged enums.
	TOKEN_ENUM
	// TOKEN_MAP marks the 'map' keyword for map types.
	TOKEN_MAP
	// TOKEN_TRUE is the boolean literal 'true'.
	TOKEN_TRUE
	// TOKEN_FALSE is the boolean literal 'false'.
	TOKEN_FALSE

	// TOKEN_WORD is any identifier that is not a keyword.
	TOKEN_WORD
	// TOKEN_NUMBER is a numeric literal, possibly negative.
	TOKEN_NUMBER
	// TOKEN_STRING is a double-quoted string literal.
	TOKEN_STRING

	TOKEN_LPAREN   // (
	TOKEN_RPAREN   // )
	TOKEN_LBRACE   // {
	TOKEN_RBRACE   // }
	TOKEN_LBRACKET // [
	TOKEN_RBRACKET // ]
	TOKEN_COLON    // :
	TOKEN_COMMA    // ,
	TOKEN_EQUAL    // =
	TOKEN_QUESTION // ?
	TOKEN_DOTDOT   // ..
	TOKEN_ELLIPSIS // ...
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:      "EOF",
	TOKEN_ERROR:    "ERROR",
	TOKEN_OPT:      "OPT",
	TOKEN_TYPE:     "TYPE",
	TOKEN_EVENT:    "EVENT",
	TOKEN_STRUCT:   "STRUCT",
	TOKEN_ENUM:     "ENUM",
	TOKEN_MAP:      "MAP",
	TOKEN_TRUE:     "TRUE",
	TOKEN_FALSE:    "FALSE",
	TOKEN_WORD:     "WORD",
	TOKEN_NUMBER:   "NUMBER",
	TOKEN_STRING:   "STRING",
	TOKEN_LPAREN:   "LPAREN",
	TOKEN_RPAREN:   "RPAREN",
	TOKEN_LBRACE:   "LBRACE",
	TOKEN_RBRACE:   "RBRACE",
	TOKEN_LBRACKET: "LBRACKET",
	TOKEN_RBRACKET: "RBRACKET",
	TOKEN_COLON:    "COLON",
	TOKEN_COMMA:    "COMMA",
	TOKEN_EQUAL:    "EQUAL",
	TOKEN_QUESTION: "QUESTION",
	TOKEN_DOTDOT:   "DOTDOT",
	TOKEN_ELLIPSIS: "ELLIPSIS",
}

// String returns the name of the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token
type Token struct {
	Type    TokenType   // The type of the token
	Lexeme  string      // The raw text of the token
	Literal interface{} // The parsed value (float64 for numbers, string for strings, bool for booleans)
	Offset  int         // Byte offset of the first character
	Line    int         // Line number (1-indexed)
	Column  int         // Column number (1-indexed)
}

// End returns the byte offset just past the token
func (t Token) End() int {
	return t.Offset + len(t.Lexeme)
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s '%s' (%v) at %d:%d",
			t.Type.String(), t.Lexeme, t.Literal, t.Line, t.Column)
	}
	return fmt.Sprintf("%s '%s' at %d:%d",
		t.Type.String(), t.Lexeme, t.Line, t.Column)
}

// IsKeyword reports whether the token is a reserved word. Keywords are still
// accepted as field and option names by the parser.
func (t Token) IsKeyword() bool {
	_, ok := Keywords[t.Lexeme]
	return ok && t.Type != TOKEN_WORD
}

// Keywords maps reserved words to their token types
var Keywords = map[string]TokenType{
	"opt":    TOKEN_OPT,
	"type":   TOKEN_TYPE,
	"event":  TOKEN_EVENT,
	"struct": TOKEN_STRUCT,
	"enum":   TOKEN_ENUM,
	"map":    TOKEN_MAP,
	"true":   TOKEN_TRUE,
	"false":  TOKEN_FALSE,
}

// LexError represents an error encountered during lexical analysis
type LexError struct {
	Message string // Error message
	Offset  int    // Byte offset where the problem starts
	Line    int    // Line number where error occurred
	Column  int    // Column number where error occurred
	Lexeme  string // The problematic text
}

// Error implements the error interface
func (e LexError) Error() string {
	return fmt.Sprintf("Lexical error at %d:%d: %s (near '%s')",
		e.Line, e.Column, e.Message, e.Lexeme)
}
