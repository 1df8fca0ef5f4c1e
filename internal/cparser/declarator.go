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

package cparser

import (
	"fmt"
	"strings"

	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/cexpr"
	"github.com/hkoba/perlmacrogen/internal/lexer"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

// declarator is one parsed declarator: a name (possibly empty for an
// abstract declarator in a parameter list), its full unitype.Type, and
// function-declarator details when applicable.
type declarator struct {
	Name       string
	Type       unitype.Type
	IsFunction bool
	Params     []ast.Param
	Variadic   bool
}

// parseDeclarator parses one declarator and composes its full type from
// baseText (the already-parsed declaration-specifier spelling, e.g.
// "const int" or "struct Point"). It handles pointer prefixes, a single
// array-suffix dimension, and a function-parameter suffix; a
// parenthesized function-pointer declarator like "(*cb)(int)" is
// recognized but its parameter list is discarded and the result reported
// as a plain pointer (see the package doc comment's scope note).
func (p *Parser) parseDeclarator(baseText string) (declarator, error) {
	stars := 0
	constOnFirstStar := false
	for p.at(lexer.TokenStar) {
		p.advance()
		stars++
		isConst := false
		for p.atKeyword("const") || p.atKeyword("volatile") || p.atKeyword("restrict") || p.atKeyword("__restrict") {
			if p.cur().Content == "const" {
				isConst = true
			}
			p.advance()
		}
		if stars == 1 {
			constOnFirstStar = isConst
		}
	}

	name := ""
	isFuncPointer := false
	if p.at(lexer.TokenParenLeft) {
		save := p.pos
		p.advance() // '('
		innerStars := 0
		for p.at(lexer.TokenStar) {
			p.advance()
			innerStars++
		}
		if p.at(lexer.TokenIdentifier) {
			name = p.advance().Content
			if _, err := p.expect(lexer.TokenParenRight); err != nil {
				return declarator{}, err
			}
			stars += innerStars
			isFuncPointer = innerStars > 0
		} else {
			// Plain parenthesized grouping around an abstract declarator,
			// e.g. "int (x);"; rewind and fall through to the no-name case
			// rather than mis-parse it as a function pointer.
			p.pos = save
		}
	} else if p.at(lexer.TokenIdentifier) {
		name = p.advance().Content
	}

	if err := p.skipAttributesOpportunistically(); err != nil {
		return declarator{}, err
	}

	arrayDim := -1
	haveArray := false
	isFunc := false
	var params []ast.Param
	var variadic bool

	for {
		if p.at(lexer.TokenBracketLeft) {
			p.advance()
			haveArray = true
			if !p.at(lexer.TokenBracketRight) {
				toks := p.collectUntil(lexer.TokenBracketRight)
				if n, err := evalConstIntExpr(toks); err == nil {
					arrayDim = int(n)
				}
			}
			if _, err := p.expect(lexer.TokenBracketRight); err != nil {
				return declarator{}, err
			}
			continue
		}
		if p.at(lexer.TokenParenLeft) {
			var err error
			params, variadic, err = p.parseParamList()
			if err != nil {
				return declarator{}, err
			}
			isFunc = true
			break
		}
		break
	}

	if isFuncPointer {
		// "fp" is a variable whose type is pointer-to-function; the
		// parameter list describes what it points to, not fp's own
		// declarator shape.
		isFunc = false
	}

	typeText := baseText
	if stars > 0 {
		star := strings.Repeat("*", stars)
		if constOnFirstStar {
			typeText = "const " + typeText
		}
		typeText = typeText + " " + star
	}
	if haveArray && !isFunc {
		if arrayDim >= 0 {
			typeText += fmt.Sprintf("[%d]", arrayDim)
		} else {
			typeText += "[]"
		}
	}

	return declarator{
		Name:       name,
		Type:       unitype.FromCString(typeText),
		IsFunction: isFunc,
		Params:     params,
		Variadic:   variadic,
	}, nil
}

// parseParamList parses a parenthesized, comma-separated parameter list,
// including the C "(void)" no-parameters spelling and a trailing "...".
// The opening '(' must be the current token.
func (p *Parser) parseParamList() ([]ast.Param, bool, error) {
	if _, err := p.expect(lexer.TokenParenLeft); err != nil {
		return nil, false, err
	}
	if p.at(lexer.TokenParenRight) {
		p.advance()
		return nil, false, nil
	}
	if p.atKeyword("void") {
		save := p.pos
		p.advance()
		if p.at(lexer.TokenParenRight) {
			p.advance()
			return nil, false, nil
		}
		p.pos = save
	}

	var params []ast.Param
	variadic := false
	for {
		if p.at(lexer.TokenEllipsis) {
			p.advance()
			variadic = true
			break
		}
		specs, err := p.parseDeclSpecifiers()
		if err != nil {
			return nil, false, err
		}
		d, err := p.parseDeclarator(specs.baseText())
		if err != nil {
			return nil, false, err
		}
		if err := p.skipAttributesOpportunistically(); err != nil {
			return nil, false, err
		}
		params = append(params, ast.Param{Name: d.Name, Type: d.Type})
		if p.at(lexer.TokenComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenParenRight); err != nil {
		return nil, false, err
	}
	return params, variadic, nil
}

// parseInitializer parses the right-hand side of "= ..." in a declarator.
// A scalar initializer is parsed as a real expression (reusing the same
// grammar macro bodies use); a brace initializer list is preserved only
// as a presence marker, since the code generator never needs to replay
// an aggregate initializer, only to know a variable was initialized.
func (p *Parser) parseInitializer() (ast.Expr, error) {
	if p.at(lexer.TokenBraceLeft) {
		if err := p.skipBalanced(lexer.TokenBraceLeft, lexer.TokenBraceRight); err != nil {
			return nil, err
		}
		return &ast.Ident{Name: "<initializer>"}, nil
	}
	toks := p.collectUntil(lexer.TokenComma, lexer.TokenSemicolon)
	if len(toks) == 0 {
		return nil, fmt.Errorf("line %d: expected initializer expression", p.cur().Location.Line)
	}
	e, err := cexpr.ParseExpr(toks)
	if err != nil {
		// A malformed/unsupported initializer (e.g. a designated
		// initializer or compound literal) still shouldn't fail the whole
		// declaration; record its presence and move on.
		return &ast.Ident{Name: "<initializer>"}, nil
	}
	return e, nil
}
