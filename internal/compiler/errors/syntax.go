package errors

import (
	"fmt"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
)

// Syntax error codes (SYN001-099)
const (
	// ErrInvalidToken indicates the lexer could not form a token
	ErrInvalidToken ErrorCode = "SYN001"
	// ErrUnexpectedToken indicates a token that does not fit the grammar
	ErrUnexpectedToken ErrorCode = "SYN010"
	// ErrExpectedToken indicates a required token is missing
	ErrExpectedToken ErrorCode = "SYN011"
	// ErrUnexpectedEOF indicates the file ended in the middle of a declaration
	ErrUnexpectedEOF ErrorCode = "SYN012"
)

// NewInvalidToken creates a SYN001 error
func NewInvalidToken(span ast.Span, message string) *CompilerError {
	return newError(
		ErrInvalidToken,
		"invalid_token",
		CategorySyntax,
		SeverityError,
		message,
		span,
	)
}

// NewUnexpectedToken creates a SYN010 error
func NewUnexpectedToken(span ast.Span, lexeme string, message string) *CompilerError {
	return newError(
		ErrUnexpectedToken,
		"unexpected_token",
		CategorySyntax,
		SeverityError,
		fmt.Sprintf("%s, found %s", message, quote(lexeme)),
		span,
	)
}

// NewExpectedToken creates a SYN011 error
func NewExpectedToken(span ast.Span, expected string, lexeme string) *CompilerError {
	return newError(
		ErrExpectedToken,
		"expected_token",
		CategorySyntax,
		SeverityError,
		fmt.Sprintf("Expected %s, found %s", expected, quote(lexeme)),
		span,
	).WithSuggestion(fmt.Sprintf("Insert %s here", expected))
}

// NewUnexpectedEOF creates a SYN012 error
func NewUnexpectedEOF(span ast.Span, message string) *CompilerError {
	return newError(
		ErrUnexpectedEOF,
		"unexpected_eof",
		CategorySyntax,
		SeverityError,
		message+" before end of file",
		span,
	)
}
