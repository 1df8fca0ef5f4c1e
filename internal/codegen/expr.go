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
	"strings"

	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

// exprCtx carries per-translation state: which names are this macro's own
// parameters (rendered verbatim, never prefixed), and whether a ternary
// was used (so the caller knows to emit the iif[T] helper once).
type exprCtx struct {
	gen         *Generator
	paramSet    map[string]bool
	usedTernary bool
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"<<=": true, ">>=": true, "&=": true, "|=": true, "^=": true,
}

// exprToStmts translates e into zero or more preceding Go statements plus
// a final value expression, so constructs C allows as expressions but Go
// does not (assignment, the comma operator, a GCC statement-expression)
// can still be expressed inside a Go function's block body. A plain
// expression with no such construct produces no statements, just a value.
func exprToStmts(ctx *exprCtx, e ast.Expr) ([]string, string, error) {
	switch n := e.(type) {
	case *ast.Binary:
		if assignOps[n.Op] {
			lhs, err := exprToGo(ctx, n.Left)
			if err != nil {
				return nil, "", err
			}
			rhs, err := exprToGo(ctx, n.Right)
			if err != nil {
				return nil, "", err
			}
			return []string{fmt.Sprintf("%s %s %s", lhs, n.Op, rhs)}, lhs, nil
		}
	case *ast.Comma:
		var stmts []string
		var final string
		for i, sub := range n.Exprs {
			subStmts, val, err := exprToStmts(ctx, sub)
			if err != nil {
				return nil, "", err
			}
			stmts = append(stmts, subStmts...)
			if i < len(n.Exprs)-1 && val != "" {
				stmts = append(stmts, val)
			} else {
				final = val
			}
		}
		return stmts, final, nil
	case *ast.Paren:
		return exprToStmts(ctx, n.Inner)
	case *ast.StatementExpr:
		var stmts []string
		var final string
		for i, s := range n.Body.Stmts {
			if i == len(n.Body.Stmts)-1 {
				if exprStmt, ok := s.(*ast.ExprStmt); ok {
					subStmts, val, err := exprToStmts(ctx, exprStmt.X)
					if err != nil {
						return nil, "", err
					}
					stmts = append(stmts, subStmts...)
					final = val
					continue
				}
			}
			lines, err := stmtToGo(ctx, s)
			if err != nil {
				return nil, "", err
			}
			stmts = append(stmts, lines...)
		}
		return stmts, final, nil
	}

	val, err := exprToGo(ctx, e)
	if err != nil {
		return nil, "", err
	}
	return nil, val, nil
}

// exprToGo translates e to a single Go expression string. It returns an
// error for constructs that have no direct Go expression equivalent
// (prefix/postfix ++/--, a compound literal), which become the macro's
// FAILED reason rather than a wrong/unsafe guess.
func exprToGo(ctx *exprCtx, e ast.Expr) (string, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return sanitizeIdent(n.Name), nil
	case *ast.IntLit:
		return stripIntSuffix(n.Text), nil
	case *ast.FloatLit:
		return strings.TrimRight(n.Text, "fFlL"), nil
	case *ast.StringLit:
		return fmt.Sprintf("%q", n.Value), nil
	case *ast.CharLit:
		return fmt.Sprintf("'%s'", n.Value), nil
	case *ast.Unary:
		return unaryToGo(ctx, n)
	case *ast.Binary:
		left, err := exprToGo(ctx, n.Left)
		if err != nil {
			return "", err
		}
		right, err := exprToGo(ctx, n.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, n.Op, right), nil
	case *ast.Ternary:
		cond, err := exprToGo(ctx, n.Cond)
		if err != nil {
			return "", err
		}
		then, err := exprToGo(ctx, n.Then)
		if err != nil {
			return "", err
		}
		els, err := exprToGo(ctx, n.Else)
		if err != nil {
			return "", err
		}
		ctx.usedTernary = true
		return fmt.Sprintf("iif(%s, %s, %s)", cond, then, els), nil
	case *ast.Call:
		return callToGo(ctx, n)
	case *ast.Member:
		target, err := exprToGo(ctx, n.Target)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.%s", target, n.Field), nil
	case *ast.Index:
		target, err := exprToGo(ctx, n.Target)
		if err != nil {
			return "", err
		}
		sub, err := exprToGo(ctx, n.Subscript)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", target, sub), nil
	case *ast.Cast:
		return castToGo(ctx, n)
	case *ast.SizeofType:
		return fmt.Sprintf("unsafe.Sizeof(*new(%s))", goTypeOrPointer(n.Type)), nil
	case *ast.SizeofExpr:
		operand, err := exprToGo(ctx, n.Operand)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("unsafe.Sizeof(%s)", operand), nil
	case *ast.Paren:
		inner, err := exprToGo(ctx, n.Inner)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case *ast.Comma:
		// A bare comma expression reaching exprToGo (rather than
		// exprToStmts) only happens nested inside another expression,
		// e.g. a function argument; Go has no comma operator there.
		return "", fmt.Errorf("comma operator not supported in this position")
	}
	return "", fmt.Errorf("unsupported expression node %T", e)
}

func unaryToGo(ctx *exprCtx, n *ast.Unary) (string, error) {
	if n.Op == "++" || n.Op == "--" {
		return "", fmt.Errorf("%s as an expression (not a standalone statement) is not representable in Go", n.Op)
	}
	operand, err := exprToGo(ctx, n.Operand)
	if err != nil {
		return "", err
	}
	switch n.Op {
	case "!":
		return fmt.Sprintf("!(%s)", operand), nil
	case "-", "~", "*", "&":
		op := n.Op
		if op == "~" {
			op = "^"
		}
		return fmt.Sprintf("%s(%s)", op, operand), nil
	case "+":
		return operand, nil
	}
	return "", fmt.Errorf("unsupported unary operator %q", n.Op)
}

func callToGo(ctx *exprCtx, n *ast.Call) (string, error) {
	callee, err := exprToGo(ctx, n.Callee)
	if err != nil {
		return "", err
	}
	args := make([]string, 0, len(n.Args)+1)
	if ident, ok := n.Callee.(*ast.Ident); ok && !ctx.paramSet[ident.Name] && ctx.gen.needsContext(ident.Name) {
		args = append(args, ContextParamName)
	}
	for _, a := range n.Args {
		av, err := exprToGo(ctx, a)
		if err != nil {
			return "", err
		}
		args = append(args, av)
	}
	return fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", ")), nil
}

func castToGo(ctx *exprCtx, n *ast.Cast) (string, error) {
	target, err := exprToGo(ctx, n.Target)
	if err != nil {
		return "", err
	}
	if n.Type.Kind == unitype.Void {
		// A "(void)expr" cast discards the value for a lint tool's
		// benefit; Go has no such cast, so the expression stands alone.
		return target, nil
	}
	if n.Type.IsPointer() {
		return fmt.Sprintf("(%s)(unsafe.Pointer(%s))", goTypeOrPointer(n.Type), target), nil
	}
	return fmt.Sprintf("%s(%s)", goTypeOrPointer(n.Type), target), nil
}
