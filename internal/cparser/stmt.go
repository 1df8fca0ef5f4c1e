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

	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/cexpr"
	"github.com/hkoba/perlmacrogen/internal/lexer"
)

// parseBlock parses a "{ ... }" compound statement. The opening brace
// must be the current token.
func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	if _, err := p.expect(lexer.TokenBraceLeft); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.at(lexer.TokenBraceRight) && !p.eof() {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	if _, err := p.expect(lexer.TokenBraceRight); err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Stmts: stmts}, nil
}

// parseStatement parses exactly one statement, including a label or
// declaration statement.
func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.at(lexer.TokenBraceLeft):
		return p.parseBlock()
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("while"):
		return p.parseWhile()
	case p.atKeyword("do"):
		return p.parseDoWhile()
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("switch"):
		return p.parseSwitch()
	case p.atKeyword("case"):
		return p.parseCase()
	case p.atKeyword("default"):
		p.advance()
		if _, err := p.expect(lexer.TokenColon); err != nil {
			return nil, err
		}
		return &ast.DefaultClause{}, nil
	case p.atKeyword("break"):
		p.advance()
		if _, err := p.expect(lexer.TokenSemicolon); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{}, nil
	case p.atKeyword("continue"):
		p.advance()
		if _, err := p.expect(lexer.TokenSemicolon); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{}, nil
	case p.atKeyword("goto"):
		p.advance()
		label, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenSemicolon); err != nil {
			return nil, err
		}
		return &ast.GotoStmt{Label: label}, nil
	case p.atKeyword("return"):
		return p.parseReturn()
	case p.at(lexer.TokenSemicolon):
		p.advance()
		return nil, nil
	}

	if p.at(lexer.TokenIdentifier) && p.peekIsColon() {
		label := p.advance().Content
		p.advance() // ':'
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.LabeledStmt{Label: label, Stmt: stmt}, nil
	}

	if p.looksLikeDeclaration() {
		decls, err := p.parseExternalDecl()
		if err != nil {
			return nil, err
		}
		if len(decls) == 0 {
			return nil, nil
		}
		// A block-scope "int a, b;" becomes one DeclStmt per name; callers
		// that need them all see a run of DeclStmts in source order.
		if len(decls) == 1 {
			return &ast.DeclStmt{Decl: decls[0]}, nil
		}
		return &ast.BlockStmt{Stmts: declStmts(decls)}, nil
	}

	toks := p.collectUntil(lexer.TokenSemicolon)
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, nil
	}
	e, err := cexpr.ParseExpr(toks)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: e}, nil
}

func declStmts(decls []ast.Decl) []ast.Stmt {
	stmts := make([]ast.Stmt, len(decls))
	for i, d := range decls {
		stmts[i] = &ast.DeclStmt{Decl: d}
	}
	return stmts
}

// peekIsColon reports whether the token after the current identifier is
// ':', distinguishing a label ("done:") from an expression statement
// starting with an identifier, without consuming either token.
func (p *Parser) peekIsColon() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	return p.toks[p.pos+1].Type == lexer.TokenColon
}

// looksLikeDeclaration reports whether the current position begins a
// declaration rather than an expression statement: a storage-class
// keyword, a qualifier, a primitive type keyword, struct/union/enum, or a
// name already registered as a typedef.
func (p *Parser) looksLikeDeclaration() bool {
	if !p.at(lexer.TokenIdentifier) {
		return false
	}
	word := p.cur().Content
	switch {
	case storageClassKeywords.Contains(word):
		return true
	case word == "const" || word == "volatile":
		return true
	case inlineKeywords.Contains(word):
		return true
	case primitiveTypeKeywords.Contains(word):
		return true
	case word == "struct" || word == "union" || word == "enum":
		return true
	case word == "__typeof__" || word == "typeof":
		return true
	case p.typedefs.Contains(word):
		return true
	}
	return false
}

func (p *Parser) parseParenExpr() (ast.Expr, error) {
	if _, err := p.expect(lexer.TokenParenLeft); err != nil {
		return nil, err
	}
	toks := p.collectUntilBalanced()
	if _, err := p.expect(lexer.TokenParenRight); err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("line %d: expected expression", p.cur().Location.Line)
	}
	return cexpr.ParseExpr(toks)
}

// collectUntilBalanced returns the tokens up to (not including) the
// close-paren that matches the already-consumed open-paren, without
// consuming it.
func (p *Parser) collectUntilBalanced() []lexer.Token {
	start := p.pos
	depth := 0
	for !p.eof() {
		t := p.cur()
		switch t.Type {
		case lexer.TokenParenRight:
			if depth == 0 {
				return p.toks[start:p.pos]
			}
			depth--
		case lexer.TokenParenLeft:
			depth++
		}
		p.advance()
	}
	return p.toks[start:p.pos]
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	p.advance() // "if"
	cond, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Cond: cond, Then: then}
	if p.atKeyword("else") {
		p.advance()
		elseStmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseStmt
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	p.advance() // "while"
	cond, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body}, nil
}

func (p *Parser) parseDoWhile() (ast.Stmt, error) {
	p.advance() // "do"
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("while"); err != nil {
		return nil, err
	}
	cond, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body, DoWhile: true}, nil
}

// parseFor parses "for (init; cond; post) body". init may be a
// declaration or an expression statement or empty; cond and post may be
// empty.
func (p *Parser) parseFor() (ast.Stmt, error) {
	p.advance() // "for"
	if _, err := p.expect(lexer.TokenParenLeft); err != nil {
		return nil, err
	}

	var initStmt ast.Stmt
	if p.at(lexer.TokenSemicolon) {
		p.advance()
	} else if p.looksLikeDeclaration() {
		decls, err := p.parseExternalDecl()
		if err != nil {
			return nil, err
		}
		if len(decls) > 0 {
			initStmt = &ast.DeclStmt{Decl: decls[0]}
		}
	} else {
		toks := p.collectUntil(lexer.TokenSemicolon)
		if _, err := p.expect(lexer.TokenSemicolon); err != nil {
			return nil, err
		}
		if len(toks) > 0 {
			e, err := cexpr.ParseExpr(toks)
			if err != nil {
				return nil, err
			}
			initStmt = &ast.ExprStmt{X: e}
		}
	}

	var cond ast.Expr
	if !p.at(lexer.TokenSemicolon) {
		toks := p.collectUntil(lexer.TokenSemicolon)
		e, err := cexpr.ParseExpr(toks)
		if err != nil {
			return nil, err
		}
		cond = e
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}

	var post ast.Expr
	if !p.at(lexer.TokenParenRight) {
		toks := p.collectUntil(lexer.TokenParenRight)
		e, err := cexpr.ParseExpr(toks)
		if err != nil {
			return nil, err
		}
		post = e
	}
	if _, err := p.expect(lexer.TokenParenRight); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Init: initStmt, Cond: cond, Post: post, Body: body}, nil
}

func (p *Parser) parseSwitch() (ast.Stmt, error) {
	p.advance() // "switch"
	tag, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.SwitchStmt{Tag: tag, Body: body}, nil
}

func (p *Parser) parseCase() (ast.Stmt, error) {
	p.advance() // "case"
	toks := p.collectUntil(lexer.TokenColon)
	if _, err := p.expect(lexer.TokenColon); err != nil {
		return nil, err
	}
	e, err := cexpr.ParseExpr(toks)
	if err != nil {
		return nil, err
	}
	return &ast.CaseClause{Value: e}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	p.advance() // "return"
	if p.at(lexer.TokenSemicolon) {
		p.advance()
		return &ast.ReturnStmt{}, nil
	}
	toks := p.collectUntil(lexer.TokenSemicolon)
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	e, err := cexpr.ParseExpr(toks)
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Result: e}, nil
}
