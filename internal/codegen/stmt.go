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

package codegen

import (
	"fmt"

	"github.com/hkoba/perlmacrogen/internal/ast"
)

// stmtToGo translates one C statement into zero or more lines of Go
// source (without leading indentation; the caller indents uniformly).
func stmtToGo(ctx *exprCtx, s ast.Stmt) ([]string, error) {
	switch n := s.(type) {
	case *ast.BlockStmt:
		var lines []string
		lines = append(lines, "{")
		for _, inner := range n.Stmts {
			innerLines, err := stmtToGo(ctx, inner)
			if err != nil {
				return nil, err
			}
			lines = append(lines, innerLines...)
		}
		lines = append(lines, "}")
		return lines, nil
	case *ast.ExprStmt:
		return exprStmtToGo(ctx, n.X)
	case *ast.ReturnStmt:
		if n.Result == nil {
			return []string{"return"}, nil
		}
		v, err := exprToGo(ctx, n.Result)
		if err != nil {
			return nil, err
		}
		return []string{"return " + v}, nil
	case *ast.DeclStmt:
		return declStmtToGo(ctx, n.Decl)
	case *ast.IfStmt:
		cond, err := exprToGo(ctx, n.Cond)
		if err != nil {
			return nil, err
		}
		thenLines, err := stmtToGo(ctx, n.Then)
		if err != nil {
			return nil, err
		}
		lines := []string{"if " + cond + " {"}
		lines = append(lines, thenLines...)
		if n.Else != nil {
			elseLines, err := stmtToGo(ctx, n.Else)
			if err != nil {
				return nil, err
			}
			lines = append(lines, "} else {")
			lines = append(lines, elseLines...)
		}
		lines = append(lines, "}")
		return lines, nil
	case *ast.WhileStmt:
		return whileToGo(ctx, n)
	case *ast.ForStmt:
		return forToGo(ctx, n)
	case *ast.SwitchStmt:
		return switchToGo(ctx, n)
	case *ast.CaseClause:
		v, err := exprToGo(ctx, n.Value)
		if err != nil {
			return nil, err
		}
		return []string{"case " + v + ":"}, nil
	case *ast.DefaultClause:
		return []string{"default:"}, nil
	case *ast.BreakStmt:
		return []string{"break"}, nil
	case *ast.ContinueStmt:
		return []string{"continue"}, nil
	case *ast.GotoStmt:
		return []string{"goto " + n.Label}, nil
	case *ast.LabeledStmt:
		inner, err := stmtToGo(ctx, n.Stmt)
		if err != nil {
			return nil, err
		}
		if len(inner) == 0 {
			return []string{n.Label + ":"}, nil
		}
		inner[0] = n.Label + ": " + inner[0]
		return inner, nil
	}
	return nil, fmt.Errorf("unsupported statement node %T", s)
}

// exprStmtToGo translates an expression used as a full statement (its
// value, if any, is discarded). An assignment renders as the bare "lhs op
// rhs" Go statement; a comma sequence renders each sub-expression as its
// own discarded-value statement in order; anything else renders as a
// single statement line, which is only valid Go if that expression is a
// function call — the common case for a statement-shaped macro body.
func exprStmtToGo(ctx *exprCtx, e ast.Expr) ([]string, error) {
	switch n := e.(type) {
	case *ast.Binary:
		if assignOps[n.Op] {
			lhs, err := exprToGo(ctx, n.Left)
			if err != nil {
				return nil, err
			}
			rhs, err := exprToGo(ctx, n.Right)
			if err != nil {
				return nil, err
			}
			return []string{fmt.Sprintf("%s %s %s", lhs, n.Op, rhs)}, nil
		}
	case *ast.Comma:
		var lines []string
		for _, sub := range n.Exprs {
			subLines, err := exprStmtToGo(ctx, sub)
			if err != nil {
				return nil, err
			}
			lines = append(lines, subLines...)
		}
		return lines, nil
	case *ast.Paren:
		return exprStmtToGo(ctx, n.Inner)
	case *ast.Unary:
		if n.Op == "++" || n.Op == "--" {
			operand, err := exprToGo(ctx, n.Operand)
			if err != nil {
				return nil, err
			}
			return []string{operand + n.Op}, nil
		}
	}
	v, err := exprToGo(ctx, e)
	if err != nil {
		return nil, err
	}
	return []string{v}, nil
}

func declStmtToGo(ctx *exprCtx, d ast.Decl) ([]string, error) {
	v, ok := d.(*ast.VarDecl)
	if !ok {
		// A nested typedef/struct declaration inside a function body is
		// vanishingly rare in Perl's inline functions; treat it as
		// unsupported rather than silently dropping it.
		return nil, fmt.Errorf("unsupported block-scope declaration kind %T", d)
	}
	goType := goTypeOrPointer(v.Type)
	name := sanitizeIdent(v.Name)
	if v.Init == nil {
		return []string{fmt.Sprintf("var %s %s", name, goType)}, nil
	}
	stmts, final, err := exprToStmts(ctx, v.Init)
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, fmt.Sprintf("var %s %s = %s", name, goType, final))
	return stmts, nil
}

func whileToGo(ctx *exprCtx, n *ast.WhileStmt) ([]string, error) {
	cond, err := exprToGo(ctx, n.Cond)
	if err != nil {
		return nil, err
	}
	bodyLines, err := stmtToGo(ctx, n.Body)
	if err != nil {
		return nil, err
	}
	if n.DoWhile {
		lines := []string{"for {"}
		lines = append(lines, bodyLines...)
		lines = append(lines, fmt.Sprintf("if !(%s) { break }", cond))
		lines = append(lines, "}")
		return lines, nil
	}
	lines := []string{"for " + cond + " {"}
	lines = append(lines, bodyLines...)
	lines = append(lines, "}")
	return lines, nil
}

func forToGo(ctx *exprCtx, n *ast.ForStmt) ([]string, error) {
	var preStmts []string
	initClause := ""
	if n.Init != nil {
		lines, err := stmtToGo(ctx, n.Init)
		if err != nil {
			return nil, err
		}
		// A single-line expression statement ("i = 0") sits directly in
		// Go's for-clause. A declaration ("for (int i = 0; ...)")
		// translates to a "var" statement, which Go's for-clause does not
		// accept, so it is hoisted ahead of the loop, as is any
		// multi-line translation.
		if _, isDecl := n.Init.(*ast.DeclStmt); len(lines) == 1 && !isDecl {
			initClause = lines[0]
		} else {
			preStmts = append(preStmts, lines...)
		}
	}
	condText := ""
	if n.Cond != nil {
		c, err := exprToGo(ctx, n.Cond)
		if err != nil {
			return nil, err
		}
		condText = c
	}
	postText := ""
	if n.Post != nil {
		p, err := exprToGo(ctx, n.Post)
		if err != nil {
			return nil, err
		}
		postText = p
	}
	bodyLines, err := stmtToGo(ctx, n.Body)
	if err != nil {
		return nil, err
	}
	header := fmt.Sprintf("for %s; %s; %s {", initClause, condText, postText)
	lines := append(preStmts, header)
	lines = append(lines, bodyLines...)
	lines = append(lines, "}")
	return lines, nil
}

// switchToGo renders a C switch whose body interleaves CaseClause/
// DefaultClause labels with statements as a Go switch with the same
// label placement; Go's implicit no-fallthrough semantics differ from
// C's fallthrough-by-default, so a translated switch whose cases rely on
// falling through needs a manual "fallthrough" statement, which this
// translation does not attempt to infer from the original control flow.
func switchToGo(ctx *exprCtx, n *ast.SwitchStmt) ([]string, error) {
	tag, err := exprToGo(ctx, n.Tag)
	if err != nil {
		return nil, err
	}
	lines := []string{"switch " + tag + " {"}
	// The switch body's own "{ }" braces (it is almost always a
	// BlockStmt) are the switch statement's braces; unlike a plain
	// nested block, they must not be doubled here.
	block, ok := n.Body.(*ast.BlockStmt)
	if !ok {
		bodyLines, err := stmtToGo(ctx, n.Body)
		if err != nil {
			return nil, err
		}
		lines = append(lines, bodyLines...)
		lines = append(lines, "}")
		return lines, nil
	}
	for _, inner := range block.Stmts {
		innerLines, err := stmtToGo(ctx, inner)
		if err != nil {
			return nil, err
		}
		lines = append(lines, innerLines...)
	}
	lines = append(lines, "}")
	return lines, nil
}
