// Package parser implements the wire schema parser, turning token streams
// into syntax trees. It uses recursive descent with panic mode recovery at
// declaration boundaries so that one bad declaration does not hide errors
// in the rest of the file.
package parser

import (
	"fmt"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/lexer"
)

// ParseError represents an error encountered during parsing
type ParseError struct {
	Message  string
	Expected string // what the parser wanted, when a specific token was required
	Token    lexer.Token
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("Parse error at %d:%d: %s (near '%s')",
		e.Token.Line, e.Token.Column, e.Message, e.Token.Lexeme)
}

// Span returns the source range of the offending token
func (e *ParseError) Span() ast.Span {
	return ast.Span{Start: e.Token.Offset, End: e.Token.End()}
}

// Diagnostic converts the parse error into a compiler diagnostic
func (e *ParseError) Diagnostic() *errors.CompilerError {
	switch {
	case e.Token.Type == lexer.TOKEN_EOF:
		return errors.NewUnexpectedEOF(e.Span(), e.Message)
	case e.Expected != "":
		return errors.NewExpectedToken(e.Span(), e.Expected, e.Token.Lexeme)
	default:
		return errors.NewUnexpectedToken(e.Span(), e.Token.Lexeme, e.Message)
	}
}

// NewParseError creates a new parse error
func NewParseError(message string, token lexer.Token) ParseError {
	return ParseError{Message: message, Token: token}
}

// ParseSource lexes and parses text. The returned schema is never nil; on
// errors it holds whatever declarations could be recovered.
func ParseSource(name, text string) (*ast.Schema, *ast.SourceFile, errors.ErrorList) {
	file := ast.NewSourceFile(name, text)

	var diags errors.ErrorList
	tokens, lexErrs := lexer.New(text).ScanTokens()
	for _, le := range lexErrs {
		span := ast.Span{Start: le.Offset, End: le.Offset + len(le.Lexeme)}
		diags = append(diags, errors.NewInvalidToken(span, le.Message))
	}

	schema, parseErrs := New(tokens).Parse()
	for i := range parseErrs {
		diags = append(diags, parseErrs[i].Diagnostic())
	}

	diags.Sort()
	return schema, file, diags.Locate(file)
}
