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

// Package cexpr parses a bare token sequence as a single C expression,
// with no symbol table: identifiers are always opaque (they might be a
// macro parameter, a global, or a typedef name used in a cast — the
// caller decides what to do with an *ast.Ident). Both internal/cparser
// (statement and initializer bodies) and internal/macroanalysis (macro
// bodies) share this parser rather than each maintaining their own,
// since the grammar and the cast/grouping ambiguity they have to resolve
// are identical in both places.
package cexpr

import (
	"fmt"

	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/fileset"
	"github.com/hkoba/perlmacrogen/internal/lexer"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

// parser parses a token sequence into an ast.Expr.
type parser struct {
	toks []lexer.Token
	pos  int
	loc  fileset.Location
}

func newParser(toks []lexer.Token) *parser {
	return &parser{toks: toks}
}

func (p *parser) at(t lexer.TokenType) bool {
	return p.pos < len(p.toks) && p.toks[p.pos].Type == t
}

func (p *parser) peek() (lexer.Token, bool) {
	if p.pos >= len(p.toks) {
		return lexer.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() lexer.Token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) loc1() fileset.Location {
	if p.pos < len(p.toks) {
		c := p.toks[p.pos].Location
		return fileset.Location{Line: c.Line, Column: c.Column}
	}
	return fileset.Location{}
}

// ParseExpr parses toks as a single C expression, using the comma
// operator only inside a call's argument list (a top-level comma is left
// unconsumed so callers that split on commas themselves, like a
// declarator list, still work). It returns an error if tokens remain
// unconsumed.
func ParseExpr(toks []lexer.Token) (ast.Expr, error) {
	p := newParser(toks)
	e, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("trailing tokens after expression at %q", p.toks[p.pos].Content)
	}
	return e, nil
}

func (p *parser) parseAssign() (ast.Expr, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok && isAssignOp(tok.Type) {
		p.next()
		right, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Op: tok.Content, Left: left, Right: right}, nil
	}
	return left, nil
}

func isAssignOp(t lexer.TokenType) bool {
	switch t {
	case lexer.TokenAssign, lexer.TokenAddAssign, lexer.TokenSubAssign, lexer.TokenMulAssign,
		lexer.TokenDivAssign, lexer.TokenModAssign, lexer.TokenAndAssign, lexer.TokenOrAssign,
		lexer.TokenXorAssign, lexer.TokenShlAssign, lexer.TokenShrAssign:
		return true
	}
	return false
}

func (p *parser) parseTernary() (ast.Expr, error) {
	cond, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if p.at(lexer.TokenQuestion) {
		p.next()
		then, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		if !p.at(lexer.TokenColon) {
			return nil, fmt.Errorf("expected ':' in ternary expression")
		}
		p.next()
		elseExpr, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ast.Ternary{Cond: cond, Then: then, Else: elseExpr}, nil
	}
	return cond, nil
}

var binaryPrecedence = map[lexer.TokenType]int{
	lexer.TokenLogicalOr: 1, lexer.TokenLogicalAnd: 2,
	lexer.TokenPipe: 3, lexer.TokenCaret: 4, lexer.TokenAmp: 5,
	lexer.TokenEq: 6, lexer.TokenNe: 6,
	lexer.TokenLess: 7, lexer.TokenGreater: 7, lexer.TokenLe: 7, lexer.TokenGe: 7,
	lexer.TokenShl: 8, lexer.TokenShr: 8,
	lexer.TokenPlus: 9, lexer.TokenMinus: 9,
	lexer.TokenStar: 10, lexer.TokenSlash: 10, lexer.TokenPercent: 10,
}

func (p *parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		prec, isBin := binaryPrecedence[tok.Type]
		if !isBin || prec < minPrec {
			break
		}
		p.next()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: tok.Content, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch tok.Type {
	case lexer.TokenBang, lexer.TokenTilde, lexer.TokenMinus, lexer.TokenPlus, lexer.TokenStar, lexer.TokenAmp:
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: tok.Content, Operand: operand}, nil
	case lexer.TokenIncrement, lexer.TokenDecrement:
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: tok.Content, Operand: operand}, nil
	case lexer.TokenIdentifier:
		if tok.Content == "sizeof" {
			p.next()
			if p.at(lexer.TokenParenLeft) {
				if typ, ok := p.tryParseParenType(); ok {
					return &ast.SizeofType{Type: typ}, nil
				}
			}
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.SizeofExpr{Operand: operand}, nil
		}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		switch tok.Type {
		case lexer.TokenDot:
			p.next()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			e = &ast.Member{Target: e, Field: name, Arrow: false}
		case lexer.TokenArrow:
			p.next()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			e = &ast.Member{Target: e, Field: name, Arrow: true}
		case lexer.TokenBracketLeft:
			p.next()
			idx, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			if !p.at(lexer.TokenBracketRight) {
				return nil, fmt.Errorf("expected ']'")
			}
			p.next()
			e = &ast.Index{Target: e, Subscript: idx}
		case lexer.TokenParenLeft:
			p.next()
			var args []ast.Expr
			if !p.at(lexer.TokenParenRight) {
				for {
					arg, err := p.parseAssign()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if p.at(lexer.TokenComma) {
						p.next()
						continue
					}
					break
				}
			}
			if !p.at(lexer.TokenParenRight) {
				return nil, fmt.Errorf("expected ')' in call argument list")
			}
			p.next()
			e = &ast.Call{Callee: e, Args: args}
		case lexer.TokenIncrement, lexer.TokenDecrement:
			p.next()
			e = &ast.Unary{Op: tok.Content, Operand: e, Postfix: true}
		case lexer.TokenComma:
			// Comma is only a sequence operator at top-level call-arg
			// scope, handled by the caller; stop here.
			return e, nil
		default:
			return e, nil
		}
	}
}

func (p *parser) expectIdent() (string, error) {
	tok, ok := p.peek()
	if !ok || tok.Type != lexer.TokenIdentifier {
		return "", fmt.Errorf("expected identifier")
	}
	p.next()
	return tok.Content, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch tok.Type {
	case lexer.TokenIdentifier:
		p.next()
		return &ast.Ident{Name: tok.Content}, nil
	case lexer.TokenLiteralInteger:
		p.next()
		return &ast.IntLit{Text: tok.Content}, nil
	case lexer.TokenLiteralFloat:
		p.next()
		return &ast.FloatLit{Text: tok.Content}, nil
	case lexer.TokenLiteralString:
		p.next()
		return &ast.StringLit{Value: tok.Content}, nil
	case lexer.TokenLiteralChar:
		p.next()
		return &ast.CharLit{Value: tok.Content}, nil
	case lexer.TokenParenLeft:
		if typ, ok := p.tryParseParenType(); ok {
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.Cast{Type: typ, Target: operand}, nil
		}
		p.next()
		inner, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		if !p.at(lexer.TokenParenRight) {
			return nil, fmt.Errorf("expected ')'")
		}
		p.next()
		return &ast.Paren{Inner: inner}, nil
	}
	return nil, fmt.Errorf("unexpected token %q in expression", tok.Content)
}

// typeKeywordSet lists tokens that can only begin a type name, used to
// disambiguate "(T) x" casts from "(a + b)" grouping without a symbol
// table: a parenthesized sequence that starts with one of these words (or
// matches "Name *"/"Name **") is treated as a cast.
var typeKeywordSet = map[string]bool{
	"void": true, "char": true, "int": true, "long": true, "short": true,
	"unsigned": true, "signed": true, "float": true, "double": true,
	"const": true, "struct": true, "union": true, "enum": true,
}

// tryParseParenType attempts to parse "(" typeText ")" as a cast target
// type starting at the current '(' token. It only commits (advancing p)
// when the parenthesized content looks exactly like a type: a run of
// identifiers/keywords/'*' with no operators. On failure it rewinds and
// returns ok=false so the caller falls back to parsing a grouped
// expression.
func (p *parser) tryParseParenType() (unitype.Type, bool) {
	start := p.pos
	p.next() // consume '('
	var textToks []string
	sawKeyword := false
	sawName := false
	for {
		tok, ok := p.peek()
		if !ok {
			p.pos = start
			return unitype.Type{}, false
		}
		if tok.Type == lexer.TokenParenRight {
			break
		}
		switch tok.Type {
		case lexer.TokenIdentifier:
			if typeKeywordSet[tok.Content] {
				sawKeyword = true
			} else if !sawName {
				// One unknown identifier is allowed: a typedef name (e.g.
				// "(SV *)x"), the tag after "struct"/"union"/"enum", or the
				// start of an expression like "(foo)". Without a type
				// keyword the text must end in '*' to commit as a cast.
				sawName = true
			} else {
				p.pos = start
				return unitype.Type{}, false
			}
			textToks = append(textToks, tok.Content)
		case lexer.TokenStar:
			textToks = append(textToks, "*")
		default:
			p.pos = start
			return unitype.Type{}, false
		}
		p.next()
	}
	if len(textToks) == 0 {
		p.pos = start
		return unitype.Type{}, false
	}
	hasStar := textToks[len(textToks)-1] == "*"
	if !sawKeyword && !hasStar {
		p.pos = start
		return unitype.Type{}, false
	}
	p.next() // consume ')'
	text := ""
	for i, t := range textToks {
		if i > 0 && t != "*" {
			text += " "
		}
		text += t
	}
	return unitype.FromCString(text), true
}
