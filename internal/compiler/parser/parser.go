package parser

import (
	"fmt"

	"github.com/wirec-lang/wirec/internal/compiler/ast"
	"github.com/wirec-lang/wirec/internal/compiler/lexer"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// Parser transforms a stream of tokens into a syntax tree
type Parser struct {
	tokens  []lexer.Token
	current int
	errors  []ParseError
}

// New creates a new parser for the given token stream
func New(tokens []lexer.Token) *Parser {
	return &Parser{
		tokens: tokens,
		errors: make([]ParseError, 0),
	}
}

// Parse parses the token stream and returns the syntax tree and any errors
func (p *Parser) Parse() (*ast.Schema, []ParseError) {
	file := &ast.Schema{
		Opts:   make([]*ast.OptDecl, 0),
		Types:  make([]*ast.TypeDecl, 0),
		Events: make([]*ast.EventDecl, 0),
	}

	for !p.isAtEnd() {
		switch {
		case p.check(lexer.TOKEN_OPT):
			if opt := p.parseOpt(); opt != nil {
				file.Opts = append(file.Opts, opt)
				continue
			}
		case p.check(lexer.TOKEN_TYPE):
			if decl := p.parseTypeDecl(); decl != nil {
				file.Types = append(file.Types, decl)
				continue
			}
		case p.check(lexer.TOKEN_EVENT):
			if decl := p.parseEventDecl(); decl != nil {
				file.Events = append(file.Events, decl)
				continue
			}
		default:
			p.error(p.peek(), "Expected 'type', 'event', or 'opt'")
		}
		p.synchronize()
	}

	file.Loc = ast.Span{Start: 0, End: p.peek().Offset}
	return file, p.errors
}

// parseOpt parses `opt name = value`
func (p *Parser) parseOpt() *ast.OptDecl {
	start := p.advance()

	name, ok := p.consumeName("option name")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TOKEN_EQUAL, "'='"); !ok {
		return nil
	}

	opt := &ast.OptDecl{Name: name}
	tok := p.peek()
	switch tok.Type {
	case lexer.TOKEN_STRING:
		p.advance()
		opt.Value = &ast.OptValue{Kind: ast.OptString, Raw: tok.Lexeme, Str: tok.Literal.(string), Loc: tokenSpan(tok)}
	case lexer.TOKEN_NUMBER:
		p.advance()
		opt.Value = &ast.OptValue{Kind: ast.OptNumber, Raw: tok.Lexeme, Num: tok.Literal.(float64), Loc: tokenSpan(tok)}
	case lexer.TOKEN_TRUE, lexer.TOKEN_FALSE:
		p.advance()
		opt.Value = &ast.OptValue{Kind: ast.OptBool, Raw: tok.Lexeme, Bool: tok.Literal.(bool), Loc: tokenSpan(tok)}
	case lexer.TOKEN_WORD:
		p.advance()
		opt.Value = &ast.OptValue{Kind: ast.OptWord, Raw: tok.Lexeme, Str: tok.Lexeme, Loc: tokenSpan(tok)}
	}

	opt.Loc = p.spanFrom(start)
	return opt
}

// parseTypeDecl parses `type Name = <type>`
func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	start := p.advance()

	name, ok := p.consumeWord("type name")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TOKEN_EQUAL, "'='"); !ok {
		return nil
	}

	ty := p.parseType()
	if ty == nil {
		return nil
	}

	return &ast.TypeDecl{Name: name, Type: ty, Loc: p.spanFrom(start)}
}

// parseEventDecl parses `event Name = { from: ..., type: ..., call: ..., data: ... }`
func (p *Parser) parseEventDecl() *ast.EventDecl {
	start := p.advance()

	name, ok := p.consumeWord("event name")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TOKEN_EQUAL, "'='"); !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TOKEN_LBRACE, "'{'"); !ok {
		return nil
	}

	decl := &ast.EventDecl{Name: name, Fields: make([]*ast.EventField, 0, 4)}
	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		field := p.parseEventField()
		if field == nil {
			return nil
		}
		decl.Fields = append(decl.Fields, field)
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if _, ok := p.expect(lexer.TOKEN_RBRACE, "'}' after event fields"); !ok {
		return nil
	}

	decl.Loc = p.spanFrom(start)
	return decl
}

func (p *Parser) parseEventField() *ast.EventField {
	keyTok := p.peek()
	key, ok := p.consumeName("event field name")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TOKEN_COLON, "':'"); !ok {
		return nil
	}

	field := &ast.EventField{Key: key}
	if key.Name == "data" {
		field.Type = p.parseType()
		if field.Type == nil {
			return nil
		}
	} else {
		word, ok := p.consumeWord("a value for '" + key.Name + "'")
		if !ok {
			return nil
		}
		field.Word = &word
	}

	field.Loc = p.spanFrom(keyTok)
	return field
}

// parseType parses a base type followed by any number of `[range]` and `?`
// suffixes.
func (p *Parser) parseType() ast.TypeNode {
	start := p.peek()
	ty := p.parseBaseType()
	if ty == nil {
		return nil
	}

	for {
		switch {
		case p.match(lexer.TOKEN_LBRACKET):
			r, ok := p.parseRange(lexer.TOKEN_RBRACKET)
			if !ok {
				return nil
			}
			ty = &ast.ArrType{Elem: ty, Range: r, Loc: p.spanFrom(start)}
		case p.match(lexer.TOKEN_QUESTION):
			ty = &ast.OptType{Inner: ty, Loc: p.spanFrom(start)}
		default:
			return ty
		}
	}
}

func (p *Parser) parseBaseType() ast.TypeNode {
	tok := p.peek()

	switch tok.Type {
	case lexer.TOKEN_STRUCT:
		p.advance()
		body := p.parseStructBody()
		if body == nil {
			return nil
		}
		body.Loc = p.spanFrom(tok)
		return body
	case lexer.TOKEN_ENUM:
		return p.parseEnum()
	case lexer.TOKEN_MAP:
		return p.parseMap()
	case lexer.TOKEN_WORD:
		return p.parseNamedType()
	}

	p.errorExpected(tok, "a type")
	return nil
}

// parseNamedType handles numeric kinds, string, buffer, and references
func (p *Parser) parseNamedType() ast.TypeNode {
	tok := p.advance()
	name := ast.Ident{Name: tok.Lexeme, Loc: tokenSpan(tok)}

	if _, ok := schema.ParseNumKind(tok.Lexeme); ok || tok.Lexeme == "string" || tok.Lexeme == "buffer" {
		var r *ast.RangeNode
		if p.match(lexer.TOKEN_LPAREN) {
			var ok bool
			if r, ok = p.parseRange(lexer.TOKEN_RPAREN); !ok {
				return nil
			}
		}
		switch tok.Lexeme {
		case "string":
			return &ast.StrType{Range: r, Loc: p.spanFrom(tok)}
		case "buffer":
			return &ast.BufType{Range: r, Loc: p.spanFrom(tok)}
		}
		return &ast.NumType{Kind: name, Range: r, Loc: p.spanFrom(tok)}
	}

	ref := &ast.RefType{Name: name}
	if p.match(lexer.TOKEN_LPAREN) {
		arg, ok := p.consumeWord("a class name")
		if !ok {
			return nil
		}
		if _, ok := p.expect(lexer.TOKEN_RPAREN, "')'"); !ok {
			return nil
		}
		ref.Arg = &arg
	}
	ref.Loc = p.spanFrom(tok)
	return ref
}

// parseRange parses the inside of `(...)` or `[...]` up to and including
// the closing token. An empty range yields nil.
func (p *Parser) parseRange(closing lexer.TokenType) (*ast.RangeNode, bool) {
	start := p.peek()
	if p.match(closing) {
		return nil, true
	}

	r := &ast.RangeNode{}
	if p.check(lexer.TOKEN_NUMBER) {
		r.Min = p.numLit(p.advance())
		if !p.check(lexer.TOKEN_DOTDOT) {
			r.Max = r.Min
		}
	}
	if p.match(lexer.TOKEN_DOTDOT) {
		if p.check(lexer.TOKEN_NUMBER) {
			r.Max = p.numLit(p.advance())
		}
	} else if r.Min == nil {
		p.errorExpected(p.peek(), "a number or '..'")
		return nil, false
	}

	r.Loc = p.spanFrom(start)
	if _, ok := p.expect(closing, fmt.Sprintf("'%s' to close the range", closingText(closing))); !ok {
		return nil, false
	}
	return r, true
}

func (p *Parser) numLit(tok lexer.Token) *ast.NumLit {
	return &ast.NumLit{Value: tok.Literal.(float64), Raw: tok.Lexeme, Loc: tokenSpan(tok)}
}

// parseStructBody parses `{ name: type, ... }`
func (p *Parser) parseStructBody() *ast.StructType {
	start := p.peek()
	if _, ok := p.expect(lexer.TOKEN_LBRACE, "'{'"); !ok {
		return nil
	}

	st := &ast.StructType{Fields: make([]*ast.Field, 0)}
	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		nameTok := p.peek()
		name, ok := p.consumeName("field name")
		if !ok {
			return nil
		}
		if _, ok := p.expect(lexer.TOKEN_COLON, "':' after field name"); !ok {
			return nil
		}
		ty := p.parseType()
		if ty == nil {
			return nil
		}
		st.Fields = append(st.Fields, &ast.Field{Name: name, Type: ty, Loc: p.spanFrom(nameTok)})
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if _, ok := p.expect(lexer.TOKEN_RBRACE, "'}' after struct fields"); !ok {
		return nil
	}
	st.Loc = p.spanFrom(start)
	return st
}

// parseEnum parses unit enums and tagged enums
func (p *Parser) parseEnum() ast.TypeNode {
	start := p.advance()

	if p.check(lexer.TOKEN_STRING) {
		return p.parseTaggedEnum(start)
	}

	if _, ok := p.expect(lexer.TOKEN_LBRACE, "'{' or a tag string after 'enum'"); !ok {
		return nil
	}

	enum := &ast.EnumType{Variants: make([]ast.Ident, 0)}
	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		v, ok := p.consumeWord("variant name")
		if !ok {
			return nil
		}
		enum.Variants = append(enum.Variants, v)
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if _, ok := p.expect(lexer.TOKEN_RBRACE, "'}' after enum variants"); !ok {
		return nil
	}
	enum.Loc = p.spanFrom(start)
	return enum
}

func (p *Parser) parseTaggedEnum(start lexer.Token) ast.TypeNode {
	tagTok := p.advance()
	enum := &ast.TaggedEnumType{
		Tag:   ast.Ident{Name: tagTok.Literal.(string), Loc: tokenSpan(tagTok)},
		Cases: make([]*ast.EnumCase, 0),
	}

	if _, ok := p.expect(lexer.TOKEN_LBRACE, "'{' after enum tag"); !ok {
		return nil
	}

	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		if p.check(lexer.TOKEN_ELLIPSIS) {
			dots := p.advance()
			if enum.CatchAll != nil {
				p.error(dots, "Only one catch-all case is allowed")
				return nil
			}
			body := p.parseStructBody()
			if body == nil {
				return nil
			}
			enum.CatchAll = body
		} else {
			caseTok := p.peek()
			name, ok := p.consumeWord("case name")
			if !ok {
				return nil
			}
			body := p.parseStructBody()
			if body == nil {
				return nil
			}
			enum.Cases = append(enum.Cases, &ast.EnumCase{Name: name, Body: body, Loc: p.spanFrom(caseTok)})
		}
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}

	if _, ok := p.expect(lexer.TOKEN_RBRACE, "'}' after enum cases"); !ok {
		return nil
	}
	enum.Loc = p.spanFrom(start)
	return enum
}

// parseMap parses `map { [K]: V }`
func (p *Parser) parseMap() ast.TypeNode {
	start := p.advance()

	if _, ok := p.expect(lexer.TOKEN_LBRACE, "'{' after 'map'"); !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TOKEN_LBRACKET, "'[' before map key type"); !ok {
		return nil
	}
	key := p.parseType()
	if key == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TOKEN_RBRACKET, "']' after map key type"); !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TOKEN_COLON, "':' before map value type"); !ok {
		return nil
	}
	val := p.parseType()
	if val == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TOKEN_RBRACE, "'}' after map value type"); !ok {
		return nil
	}

	return &ast.MapType{Key: key, Val: val, Loc: p.spanFrom(start)}
}

// Helper methods

func tokenSpan(tok lexer.Token) ast.Span {
	return ast.Span{Start: tok.Offset, End: tok.End()}
}

// spanFrom returns the span from start through the last consumed token
func (p *Parser) spanFrom(start lexer.Token) ast.Span {
	return ast.Span{Start: start.Offset, End: p.previous().End()}
}

func closingText(t lexer.TokenType) string {
	if t == lexer.TOKEN_RPAREN {
		return ")"
	}
	return "]"
}

// consumeWord consumes a plain identifier
func (p *Parser) consumeWord(what string) (ast.Ident, bool) {
	tok := p.peek()
	if tok.Type != lexer.TOKEN_WORD {
		p.errorExpected(tok, what)
		return ast.Ident{}, false
	}
	p.advance()
	return ast.Ident{Name: tok.Lexeme, Loc: tokenSpan(tok)}, true
}

// consumeName consumes an identifier or a keyword used as a name, as in
// `type: Reliable` inside an event or a struct field called `map`.
func (p *Parser) consumeName(what string) (ast.Ident, bool) {
	tok := p.peek()
	if tok.Type != lexer.TOKEN_WORD && !tok.IsKeyword() {
		p.errorExpected(tok, what)
		return ast.Ident{}, false
	}
	p.advance()
	return ast.Ident{Name: tok.Lexeme, Loc: tokenSpan(tok)}, true
}

func (p *Parser) expect(tokenType lexer.TokenType, what string) (lexer.Token, bool) {
	if p.check(tokenType) {
		return p.advance(), true
	}
	p.errorExpected(p.peek(), what)
	return lexer.Token{Type: lexer.TOKEN_ERROR}, false
}

// peek returns the current token without consuming it
func (p *Parser) peek() lexer.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) lexer.Token {
	if len(p.tokens) == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

// previous returns the most recently consumed token
func (p *Parser) previous() lexer.Token {
	if len(p.tokens) == 0 || p.current == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current-1]
}

// advance consumes the current token and returns it
func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

// check returns true if the current token matches the given type
func (p *Parser) check(tokenType lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

// match consumes the token if it matches any of the given types
func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// isAtEnd returns true if we've reached the end of the token stream
func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens) || p.tokens[p.current].Type == lexer.TOKEN_EOF
}

// error records a parse error
func (p *Parser) error(token lexer.Token, message string) {
	p.errors = append(p.errors, NewParseError(message, token))
}

func (p *Parser) errorExpected(token lexer.Token, what string) {
	err := NewParseError("Expected "+what, token)
	err.Expected = what
	p.errors = append(p.errors, err)
}

// atDeclaration reports whether the current token starts a top-level
// declaration. `type` is also an event field key, so a keyword only counts
// when followed by a name.
func (p *Parser) atDeclaration() bool {
	switch p.peek().Type {
	case lexer.TOKEN_TYPE, lexer.TOKEN_EVENT, lexer.TOKEN_OPT:
		next := p.peekAt(1)
		return next.Type == lexer.TOKEN_WORD || next.IsKeyword()
	}
	return false
}

// synchronize implements panic mode error recovery. Every caller has
// consumed at least one token of the failed declaration, so stopping at the
// current token when it starts a declaration still makes progress.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.atDeclaration() {
			return
		}
		p.advance()
	}
}
