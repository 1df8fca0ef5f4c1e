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
	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/lexer"
)

// parseExternalDecl parses one top-level declaration, which may expand
// into several ast.Decl values: a comma-separated declarator list
// ("int x, y, z;") is returned as one VarDecl/TypedefDecl per name, since
// internal/fields and internal/infer both key off individual names rather
// than a C-style grouped declaration.
func (p *Parser) parseExternalDecl() ([]ast.Decl, error) {
	specs, err := p.parseDeclSpecifiers()
	if err != nil {
		return nil, err
	}

	if p.at(lexer.TokenSemicolon) {
		p.advance()
		if specs.StructDecl != nil {
			return []ast.Decl{specs.StructDecl}, nil
		}
		if specs.EnumDecl != nil {
			return []ast.Decl{specs.EnumDecl}, nil
		}
		return nil, nil
	}

	baseText := specs.baseText()
	first, err := p.parseDeclarator(baseText)
	if err != nil {
		return nil, err
	}

	if first.IsFunction && p.at(lexer.TokenBraceLeft) {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return []ast.Decl{&ast.FuncDecl{
			Name:       first.Name,
			ReturnType: first.Type,
			Params:     first.Params,
			Body:       body,
			IsStatic:   specs.Storage == "static",
			IsInline:   specs.IsInline,
			Attributes: specs.Attributes,
		}}, nil
	}

	var decls []ast.Decl
	isTypedef := specs.Storage == "typedef"
	appendDecl := func(d declarator) error {
		if err := p.skipAttributesOpportunistically(); err != nil {
			return err
		}
		switch {
		case isTypedef:
			decls = append(decls, &ast.TypedefDecl{Name: d.Name, Type: d.Type})
			p.typedefs.Add(d.Name)
		case d.IsFunction:
			decls = append(decls, &ast.FuncDecl{
				Name: d.Name, ReturnType: d.Type, Params: d.Params,
				IsStatic: specs.Storage == "static", IsInline: specs.IsInline, Attributes: specs.Attributes,
			})
		default:
			var init ast.Expr
			if p.at(lexer.TokenAssign) {
				p.advance()
				v, err := p.parseInitializer()
				if err != nil {
					return err
				}
				init = v
			}
			decls = append(decls, &ast.VarDecl{Name: d.Name, Type: d.Type, Init: init})
		}
		return nil
	}

	if err := appendDecl(first); err != nil {
		return nil, err
	}
	for p.at(lexer.TokenComma) {
		p.advance()
		d, err := p.parseDeclarator(baseText)
		if err != nil {
			return nil, err
		}
		if err := appendDecl(d); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	return decls, nil
}
