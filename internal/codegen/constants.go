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

import "github.com/hkoba/perlmacrogen/internal/ast"

// collectUsedConstants walks e for Ident references that name one of
// g.ConstantMacros, so the caller only needs to hoist the constants a
// given fragment actually references rather than every constant macro
// ever seen in the translation unit.
func collectUsedConstants(g *Generator, e ast.Expr) []string {
	var out []string
	walkExprIdents(e, func(name string) {
		if _, ok := g.ConstantMacros[name]; ok {
			out = append(out, name)
		}
	})
	return out
}

func collectUsedConstantsInStmt(g *Generator, s ast.Stmt) []string {
	var out []string
	walkStmtIdents(s, func(name string) {
		if _, ok := g.ConstantMacros[name]; ok {
			out = append(out, name)
		}
	})
	return out
}

func walkExprIdents(e ast.Expr, visit func(string)) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.Ident:
		visit(n.Name)
	case *ast.Unary:
		walkExprIdents(n.Operand, visit)
	case *ast.Binary:
		walkExprIdents(n.Left, visit)
		walkExprIdents(n.Right, visit)
	case *ast.Ternary:
		walkExprIdents(n.Cond, visit)
		walkExprIdents(n.Then, visit)
		walkExprIdents(n.Else, visit)
	case *ast.Call:
		walkExprIdents(n.Callee, visit)
		for _, a := range n.Args {
			walkExprIdents(a, visit)
		}
	case *ast.Member:
		walkExprIdents(n.Target, visit)
	case *ast.Index:
		walkExprIdents(n.Target, visit)
		walkExprIdents(n.Subscript, visit)
	case *ast.Cast:
		walkExprIdents(n.Target, visit)
	case *ast.SizeofExpr:
		walkExprIdents(n.Operand, visit)
	case *ast.Paren:
		walkExprIdents(n.Inner, visit)
	case *ast.Comma:
		for _, sub := range n.Exprs {
			walkExprIdents(sub, visit)
		}
	case *ast.StatementExpr:
		for _, s := range n.Body.Stmts {
			walkStmtIdents(s, visit)
		}
	}
}

func walkStmtIdents(s ast.Stmt, visit func(string)) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *ast.BlockStmt:
		for _, inner := range n.Stmts {
			walkStmtIdents(inner, visit)
		}
	case *ast.ExprStmt:
		walkExprIdents(n.X, visit)
	case *ast.ReturnStmt:
		walkExprIdents(n.Result, visit)
	case *ast.IfStmt:
		walkExprIdents(n.Cond, visit)
		walkStmtIdents(n.Then, visit)
		walkStmtIdents(n.Else, visit)
	case *ast.WhileStmt:
		walkExprIdents(n.Cond, visit)
		walkStmtIdents(n.Body, visit)
	case *ast.ForStmt:
		walkStmtIdents(n.Init, visit)
		walkExprIdents(n.Cond, visit)
		walkExprIdents(n.Post, visit)
		walkStmtIdents(n.Body, visit)
	case *ast.SwitchStmt:
		walkExprIdents(n.Tag, visit)
		walkStmtIdents(n.Body, visit)
	case *ast.CaseClause:
		walkExprIdents(n.Value, visit)
	case *ast.LabeledStmt:
		walkStmtIdents(n.Stmt, visit)
	case *ast.DeclStmt:
		if v, ok := n.Decl.(*ast.VarDecl); ok {
			walkExprIdents(v.Init, visit)
		}
	}
}
