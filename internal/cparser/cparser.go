// Copyright 2026 The perlmacrogen Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cparser turns a preprocessed token stream (as produced by
// internal/preprocessor.ProcessFile, with directives already consumed
// and macros already expanded) into internal/ast declarations: typedefs,
// struct/union/enum definitions, variable declarations, and function
// prototypes/definitions — including the "static inline" functions this
// tool's whole purpose is to reify as Go wrappers.
//
// It understands enough of the C grammar to recover every declaration's
// shape, not enough to be a standalone C compiler front end: initializer
// expressions beyond a simple scalar are preserved as opaque markers,
// function-pointer declarators are approximated as a plain pointer (see
// DESIGN.md), and multi-dimensional arrays keep only their first
// dimension, matching what internal/unitype.Type can represent.
package cparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/cexpr"
	"github.com/hkoba/perlmacrogen/internal/collections"
	"github.com/hkoba/perlmacrogen/internal/lexer"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

// Parser walks a flat token slice with one token of structure: a set of
// typedef names seen so far, needed to tell "MyInt x;" (a declaration)
// from "foo(x);" (an expression statement) with no separate symbol
// table.
type Parser struct {
	toks     []lexer.Token
	pos      int
	typedefs collections.Set[string]
}

// New constructs a Parser over toks, which should already have directive
// and trivia tokens removed (internal/preprocessor's output satisfies
// this).
func New(toks []lexer.Token) *Parser {
	return &Parser{toks: toks, typedefs: collections.SetOf[string]()}
}

// Parse consumes every external declaration in the token stream and
// returns them as one TranslationUnit.
func (p *Parser) Parse() (*ast.TranslationUnit, error) {
	var decls []ast.Decl
	err := p.ParseEach(func(d ast.Decl) error {
		decls = append(decls, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ast.TranslationUnit{Decls: decls}, nil
}

// ParseEach parses one external declaration at a time, invoking fn for
// each as soon as it's recognized, so a caller that only wants (say)
// struct definitions doesn't have to hold the whole translation unit in
// memory. fn returning an error aborts parsing.
func (p *Parser) ParseEach(fn func(ast.Decl) error) error {
	for !p.eof() {
		decls, err := p.parseExternalDecl()
		if err != nil {
			return err
		}
		for _, d := range decls {
			if err := fn(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// ---- token cursor ----

func (p *Parser) eof() bool { return p.pos >= len(p.toks) }

func (p *Parser) cur() lexer.Token {
	if p.eof() {
		return lexer.TokenEOF
	}
	return p.toks[p.pos]
}

func (p *Parser) at(tt lexer.TokenType) bool { return !p.eof() && p.cur().Type == tt }

func (p *Parser) atKeyword(kw string) bool {
	return !p.eof() && p.cur().Type == lexer.TokenIdentifier && p.cur().Content == kw
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if !p.eof() {
		p.pos++
	}
	return t
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if !p.at(tt) {
		return lexer.Token{}, fmt.Errorf("line %d: expected token type %v, found %q", p.cur().Location.Line, tt, p.cur().Content)
	}
	return p.advance(), nil
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.atKeyword(kw) {
		return fmt.Errorf("line %d: expected %q, found %q", p.cur().Location.Line, kw, p.cur().Content)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	tok, err := p.expect(lexer.TokenIdentifier)
	if err != nil {
		return "", err
	}
	return tok.Content, nil
}

// ---- declaration specifiers ----

var storageClassKeywords = collections.SetOf("typedef", "extern", "static", "auto", "register", "_Thread_local")
var inlineKeywords = collections.SetOf("inline", "__inline", "__inline__", "__forceinline")
var primitiveTypeKeywords = collections.SetOf(
	"void", "char", "short", "int", "long", "float", "double", "signed", "unsigned", "_Bool", "_Complex",
)

type declSpecs struct {
	Storage     string
	IsInline    bool
	IsConst     bool
	IsVolatile  bool
	TypeWords   []string
	StructDecl  *ast.StructDecl
	EnumDecl    *ast.EnumDecl
	Attributes  []string
}

// baseText renders the accumulated specifiers as a C type spelling
// internal/unitype.FromCString understands, e.g. "const unsigned int" or
// "struct Point".
func (s declSpecs) baseText() string {
	words := s.TypeWords
	if len(words) == 0 {
		words = []string{"int"} // implicit-int, as K&R and old Perl headers still use
	}
	text := strings.Join(words, " ")
	if s.IsConst {
		text = "const " + text
	}
	return text
}

// parseDeclSpecifiers consumes storage-class keywords, qualifiers,
// "inline", attributes, and exactly one type-specifier group (primitive
// keywords, a struct/union/enum definition or reference, a typedef name,
// or a __typeof__(...) operand), stopping at the first token that cannot
// extend the specifier list.
func (p *Parser) parseDeclSpecifiers() (declSpecs, error) {
	var specs declSpecs
	haveType := false
specLoop:
	for !p.eof() {
		tok := p.cur()
		if tok.Type != lexer.TokenIdentifier {
			break
		}
		switch {
		case storageClassKeywords.Contains(tok.Content):
			specs.Storage = tok.Content
			p.advance()
		case tok.Content == "const":
			specs.IsConst = true
			p.advance()
		case tok.Content == "volatile":
			specs.IsVolatile = true
			p.advance()
		case inlineKeywords.Contains(tok.Content):
			specs.IsInline = true
			p.advance()
		case tok.Content == "__attribute__" || tok.Content == "__attribute":
			attr, err := p.parseAttribute()
			if err != nil {
				return specs, err
			}
			specs.Attributes = append(specs.Attributes, attr)
		case primitiveTypeKeywords.Contains(tok.Content):
			specs.TypeWords = append(specs.TypeWords, tok.Content)
			haveType = true
			p.advance()
		case tok.Content == "struct" || tok.Content == "union":
			decl, err := p.parseStructOrUnion()
			if err != nil {
				return specs, err
			}
			specs.StructDecl = decl
			kw := "struct"
			if decl.IsUnion {
				kw = "union"
			}
			specs.TypeWords = []string{kw, decl.Name}
			haveType = true
			break specLoop
		case tok.Content == "enum":
			decl, err := p.parseEnum()
			if err != nil {
				return specs, err
			}
			specs.EnumDecl = decl
			specs.TypeWords = []string{"enum", decl.Name}
			haveType = true
			break specLoop
		case tok.Content == "__typeof__" || tok.Content == "typeof":
			p.advance()
			if err := p.skipBalanced(lexer.TokenParenLeft, lexer.TokenParenRight); err != nil {
				return specs, err
			}
			specs.TypeWords = []string{"__typeof__"}
			haveType = true
			break specLoop
		default:
			if haveType {
				break specLoop
			}
			if p.typedefs.Contains(tok.Content) {
				specs.TypeWords = append(specs.TypeWords, tok.Content)
				p.advance()
				haveType = true
				break specLoop
			}
			break specLoop
		}
	}
	if !haveType && specs.Storage == "" && !specs.IsConst && !specs.IsVolatile && !specs.IsInline {
		return specs, fmt.Errorf("line %d: expected a declaration, found %q", p.cur().Location.Line, p.cur().Content)
	}
	return specs, nil
}

// parseAttribute consumes a GCC "__attribute__((...))" and returns its
// raw parenthesized text, since the code generator only pattern-matches a
// handful of known spellings (pure, noreturn, ...) rather than needing a
// structured representation.
func (p *Parser) parseAttribute() (string, error) {
	p.advance() // __attribute__
	start := p.pos
	if err := p.skipBalanced(lexer.TokenParenLeft, lexer.TokenParenRight); err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := start; i < p.pos; i++ {
		sb.WriteString(p.toks[i].Content)
		sb.WriteByte(' ')
	}
	return strings.TrimSpace(sb.String()), nil
}

// skipBalanced consumes a single open/close-delimited group starting at
// the current token (which must be open), advancing past its matching
// close.
func (p *Parser) skipBalanced(open, close lexer.TokenType) error {
	if _, err := p.expect(open); err != nil {
		return err
	}
	depth := 1
	for !p.eof() && depth > 0 {
		switch p.cur().Type {
		case open:
			depth++
		case close:
			depth--
		}
		p.advance()
	}
	if depth != 0 {
		return fmt.Errorf("unbalanced group starting at line %d", p.cur().Location.Line)
	}
	return nil
}

// skipAttributesOpportunistically consumes zero or more trailing
// __attribute__((...)) groups, which GCC allows after a declarator, a
// parameter, or before a statement's terminating ';'.
func (p *Parser) skipAttributesOpportunistically() error {
	for p.atKeyword("__attribute__") || p.atKeyword("__attribute") {
		if _, err := p.parseAttribute(); err != nil {
			return err
		}
	}
	return nil
}

// ---- struct / union / enum ----

func (p *Parser) parseStructOrUnion() (*ast.StructDecl, error) {
	kw := p.advance().Content // "struct" or "union"
	isUnion := kw == "union"

	if err := p.skipAttributesOpportunistically(); err != nil {
		return nil, err
	}

	name := ""
	if p.at(lexer.TokenIdentifier) && !p.at(lexer.TokenBraceLeft) {
		name = p.advance().Content
	}

	if !p.at(lexer.TokenBraceLeft) {
		// Forward reference or a plain "struct Name" type usage; no body.
		return &ast.StructDecl{Name: name, IsUnion: isUnion, Opaque: true}, nil
	}

	p.advance() // '{'
	var fields []ast.StructField
	for !p.at(lexer.TokenBraceRight) && !p.eof() {
		memberFields, err := p.parseStructMember()
		if err != nil {
			return nil, err
		}
		fields = append(fields, memberFields...)
	}
	if _, err := p.expect(lexer.TokenBraceRight); err != nil {
		return nil, err
	}
	if err := p.skipAttributesOpportunistically(); err != nil {
		return nil, err
	}
	return &ast.StructDecl{Name: name, Fields: fields, IsUnion: isUnion}, nil
}

func (p *Parser) parseStructMember() ([]ast.StructField, error) {
	specs, err := p.parseDeclSpecifiers()
	if err != nil {
		return nil, err
	}
	baseText := specs.baseText()

	var fields []ast.StructField
	if p.at(lexer.TokenSemicolon) {
		// Anonymous nested struct/union member with no declarator, e.g.
		// "struct { int x; int y; };" inside an enclosing struct.
		p.advance()
		if specs.StructDecl != nil {
			for _, f := range specs.StructDecl.Fields {
				fields = append(fields, ast.StructField{Name: f.Name, Type: f.Type, BitWidth: -1, Anonymous: true})
			}
		}
		return fields, nil
	}

	for {
		d, err := p.parseDeclarator(baseText)
		if err != nil {
			return nil, err
		}
		bitWidth := -1
		if p.at(lexer.TokenColon) {
			p.advance()
			tok, err := p.expect(lexer.TokenLiteralInteger)
			if err != nil {
				return nil, err
			}
			if n, convErr := strconv.Atoi(tok.Content); convErr == nil {
				bitWidth = n
			}
		}
		if err := p.skipAttributesOpportunistically(); err != nil {
			return nil, err
		}
		fields = append(fields, ast.StructField{Name: d.Name, Type: d.Type, BitWidth: bitWidth})
		if p.at(lexer.TokenComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *Parser) parseEnum() (*ast.EnumDecl, error) {
	p.advance() // "enum"
	if err := p.skipAttributesOpportunistically(); err != nil {
		return nil, err
	}
	name := ""
	if p.at(lexer.TokenIdentifier) {
		name = p.advance().Content
	}
	if !p.at(lexer.TokenBraceLeft) {
		return &ast.EnumDecl{Name: name}, nil
	}
	p.advance() // '{'
	var members []ast.EnumMember
	next := int64(0)
	for !p.at(lexer.TokenBraceRight) && !p.eof() {
		memberName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		m := ast.EnumMember{Name: memberName, Value: next}
		if p.at(lexer.TokenAssign) {
			p.advance()
			toks := p.collectUntil(lexer.TokenComma, lexer.TokenBraceRight)
			if v, err := evalConstIntExpr(toks); err == nil {
				m.Value = v
				m.HasValue = true
			}
		}
		members = append(members, m)
		next = m.Value + 1
		if p.at(lexer.TokenComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenBraceRight); err != nil {
		return nil, err
	}
	return &ast.EnumDecl{Name: name, Members: members}, nil
}

// evalConstIntExpr parses toks as an expression and evaluates it with
// foldInt, which handles integer literals, unary '-', '+' and '~',
// parentheses, and the binary operators + - * << and | — enough for the
// overwhelming majority of enumerator initializers ("= 0", "= -1",
// "= 1 << 3"). Any other operator is an error, and the enumerator keeps
// its positional default, which only affects debug/display output, never
// type inference.
func evalConstIntExpr(toks []lexer.Token) (int64, error) {
	e, err := cexpr.ParseExpr(toks)
	if err != nil {
		return 0, err
	}
	return foldInt(e)
}

func foldInt(e ast.Expr) (int64, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		v, err := strconv.ParseInt(strings.TrimRight(n.Text, "uUlL"), 0, 64)
		return v, err
	case *ast.Unary:
		v, err := foldInt(n.Operand)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case "-":
			return -v, nil
		case "+":
			return v, nil
		case "~":
			return ^v, nil
		}
	case *ast.Paren:
		return foldInt(n.Inner)
	case *ast.Binary:
		l, err := foldInt(n.Left)
		if err != nil {
			return 0, err
		}
		r, err := foldInt(n.Right)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case "+":
			return l + r, nil
		case "-":
			return l - r, nil
		case "*":
			return l * r, nil
		case "<<":
			return l << uint(r), nil
		case "|":
			return l | r, nil
		}
	}
	return 0, fmt.Errorf("not a constant integer expression")
}

// collectUntil returns the tokens from the current position up to (not
// including) the first token at paren/brace/bracket depth 0 whose type
// matches one of stop, advancing the cursor past the returned span.
func (p *Parser) collectUntil(stop ...lexer.TokenType) []lexer.Token {
	start := p.pos
	depth := 0
	for !p.eof() {
		t := p.cur()
		if depth == 0 {
			for _, s := range stop {
				if t.Type == s {
					return p.toks[start:p.pos]
				}
			}
		}
		switch t.Type {
		case lexer.TokenParenLeft, lexer.TokenBraceLeft, lexer.TokenBracketLeft:
			depth++
		case lexer.TokenParenRight, lexer.TokenBraceRight, lexer.TokenBracketRight:
			depth--
		}
		p.advance()
	}
	return p.toks[start:p.pos]
}
