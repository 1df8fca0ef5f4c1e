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

// Package macroanalysis classifies preprocessor macro definitions and
// recovers as much static information about them as can be determined
// without knowing their callers: whether a macro denotes a constant, a
// pure expression, or a sequence of statements; which functions it calls;
// and which of its parameters are used in positions that hint at a type.
// The results feed internal/infer, which turns those hints into concrete
// unitype.Type assignments.
package macroanalysis

import (
	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/cexpr"
	"github.com/hkoba/perlmacrogen/internal/collections"
	"github.com/hkoba/perlmacrogen/internal/lexer"
	"github.com/hkoba/perlmacrogen/internal/preprocessor"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

// Category classifies a macro's shape.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryConstant
	CategoryExpression
	CategoryStatement
)

func (c Category) String() string {
	switch c {
	case CategoryConstant:
		return "constant"
	case CategoryExpression:
		return "expression"
	case CategoryStatement:
		return "statement"
	default:
		return "unknown"
	}
}

// Info is everything recovered about one macro.
type Info struct {
	Name       string
	Category   Category
	Params     []string
	Variadic   bool
	Body       ast.Expr // non-nil only for CategoryExpression/CategoryConstant
	BodyText   string
	// CalledFunctions are every identifier this macro invokes as a
	// function call.
	CalledFunctions *collections.Set[string]
	// ParamHints accumulates, per parameter, every unitype.Type its usage
	// sites within the body suggest (e.g. "passed as the 2nd arg to
	// SvPV, whose embed.fnc signature says STRLEN*"). The inference
	// engine reduces these hints to a single confirmed type.
	ParamHints map[string][]unitype.Type
	// NeedsContext is true if the macro's body calls any function that
	// NeedsContextOf (embed.fnc, then the bindings file) marks as
	// requiring the interpreter context. An unresolved callee is
	// conservatively assumed to need context (see DESIGN.md's THX
	// propagation note). Other macros' analyses are not consulted: a
	// macro callee is known only if NeedsContextOf knows its name.
	NeedsContext bool
}

// Analyzer drives classification of every macro in a preprocessor's
// table, using an apidoc.Dict-shaped type-hint source supplied by the
// caller through ParamTypeOf to avoid an import cycle with internal/apidoc.
type Analyzer struct {
	// ParamTypeOf, if non-nil, returns the declared type of the n'th
	// (0-based) parameter of calleeName (in the pipeline: from embed.fnc,
	// then the cgo bindings file) and whether such a type is known.
	ParamTypeOf func(calleeName string, argIndex int) (unitype.Type, bool)
	NeedsContextOf func(calleeName string) (needs bool, known bool)
	// FieldTypeOf, if non-nil, returns the pointer-to-struct type that
	// uniquely owns fieldName (as internal/fields.Dict.ResolveUnique
	// does), letting a parameter used as "param->field" or "param.field"
	// be hinted from field ownership alone, without any call site ever
	// passing it to a documented function.
	FieldTypeOf func(fieldName string) (unitype.Type, bool)
}

// Analyze classifies every macro in macros and returns one Info per
// macro, keyed by name.
func (a *Analyzer) Analyze(macros map[string]*preprocessor.Macro) map[string]*Info {
	out := make(map[string]*Info, len(macros))
	for name, m := range macros {
		out[name] = a.analyzeOne(m)
	}
	return out
}

func (a *Analyzer) analyzeOne(m *preprocessor.Macro) *Info {
	info := &Info{
		Name:            m.Name,
		Params:          m.Params,
		Variadic:        m.Variadic,
		BodyText:        m.BodyText,
		CalledFunctions: collections.SetOf[string](),
		ParamHints:      make(map[string][]unitype.Type),
	}

	body := stripBraces(m.Body)
	if looksLikeStatement(body) {
		info.Category = CategoryStatement
		a.scanForCalls(body, info)
		return info
	}

	expr, err := cexpr.ParseExpr(body)
	if err != nil {
		info.Category = CategoryUnknown
		a.scanForCalls(body, info)
		return info
	}
	info.Body = expr
	if len(m.Params) == 0 && !m.Variadic && isConstantExpr(expr) {
		info.Category = CategoryConstant
	} else {
		info.Category = CategoryExpression
	}
	a.walkCalls(expr, info)
	return info
}

// looksLikeStatement reports whether a macro body's raw tokens indicate a
// statement sequence rather than a single expression: a leading '{'
// (a GCC statement-expression's outer braces already stripped by
// stripBraces would not trigger this; a *bare* compound-statement body
// like "do { ... } while(0)" or multiple top-level ';'-separated
// statements would), or a leading control-flow keyword.
func looksLikeStatement(toks []lexer.Token) bool {
	if len(toks) == 0 {
		return false
	}
	if toks[0].Type == lexer.TokenIdentifier {
		switch toks[0].Content {
		case "do", "if", "while", "for", "switch", "return":
			return true
		}
	}
	if toks[0].Type == lexer.TokenBraceLeft {
		return true
	}
	depth := 0
	for _, t := range toks {
		switch t.Type {
		case lexer.TokenParenLeft, lexer.TokenBraceLeft, lexer.TokenBracketLeft:
			depth++
		case lexer.TokenParenRight, lexer.TokenBraceRight, lexer.TokenBracketRight:
			depth--
		case lexer.TokenSemicolon:
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// stripBraces returns toks unchanged: neither a "do { ... } while (0)"
// wrapper (which remains a statement macro) nor a GCC
// statement-expression "({ ... })" is unwrapped. It is kept as a
// separate, named step of analyzeOne.
func stripBraces(toks []lexer.Token) []lexer.Token {
	return toks
}

func isConstantExpr(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.CharLit, *ast.StringLit:
		return true
	case *ast.Unary:
		return isConstantExpr(n.Operand)
	case *ast.Paren:
		return isConstantExpr(n.Inner)
	case *ast.Binary:
		return isConstantExpr(n.Left) && isConstantExpr(n.Right)
	case *ast.Cast:
		return isConstantExpr(n.Target)
	}
	return false
}

// scanForCalls is the token-level fallback used for macro bodies that did
// not parse as a single expression (statement-shaped or malformed
// bodies): it still extracts "identifier(" call sites by a simple scan so
// NeedsContext and CalledFunctions are not lost just
// because the body is a statement sequence.
func (a *Analyzer) scanForCalls(toks []lexer.Token, info *Info) {
	isParam := func(name string) bool {
		for _, p := range info.Params {
			if p == name {
				return true
			}
		}
		return false
	}
	for i := 0; i < len(toks); i++ {
		if toks[i].Type != lexer.TokenIdentifier || isParam(toks[i].Content) {
			continue
		}
		if i+1 < len(toks) && toks[i+1].Type == lexer.TokenParenLeft {
			name := toks[i].Content
			info.CalledFunctions.Add(name)
			a.noteContext(name, info)
		}
	}
}

func (a *Analyzer) walkCalls(e ast.Expr, info *Info) {
	switch n := e.(type) {
	case *ast.Call:
		if ident, ok := n.Callee.(*ast.Ident); ok {
			info.CalledFunctions.Add(ident.Name)
			a.noteContext(ident.Name, info)
			a.noteArgHints(ident.Name, n.Args, info)
		}
		for _, arg := range n.Args {
			a.walkCalls(arg, info)
		}
	case *ast.Binary:
		a.walkCalls(n.Left, info)
		a.walkCalls(n.Right, info)
	case *ast.Unary:
		a.walkCalls(n.Operand, info)
	case *ast.Ternary:
		a.walkCalls(n.Cond, info)
		a.walkCalls(n.Then, info)
		a.walkCalls(n.Else, info)
	case *ast.Member:
		a.noteFieldHint(n, info)
		a.walkCalls(n.Target, info)
	case *ast.Index:
		a.walkCalls(n.Target, info)
		a.walkCalls(n.Subscript, info)
	case *ast.Cast:
		a.walkCalls(n.Target, info)
	case *ast.Paren:
		a.walkCalls(n.Inner, info)
	case *ast.SizeofExpr:
		a.walkCalls(n.Operand, info)
	}
}

// noteFieldHint hints a parameter's type from "param->field" or
// "param.field" access, when field is uniquely owned by one struct: a
// macro never declares its parameter types, but a field name like
// sv_flags that only ever appears on one struct pins down what the
// parameter accessing it must point to just as surely as an apidoc call
// site would.
func (a *Analyzer) noteFieldHint(n *ast.Member, info *Info) {
	if a.FieldTypeOf == nil {
		return
	}
	ident, ok := unwrapParen(n.Target).(*ast.Ident)
	if !ok {
		return
	}
	for _, p := range info.Params {
		if p != ident.Name {
			continue
		}
		if typ, ok := a.FieldTypeOf(n.Field); ok {
			info.ParamHints[p] = append(info.ParamHints[p], typ)
		}
		return
	}
}

func unwrapParen(e ast.Expr) ast.Expr {
	for {
		p, ok := e.(*ast.Paren)
		if !ok {
			return e
		}
		e = p.Inner
	}
}

func (a *Analyzer) noteContext(calleeName string, info *Info) {
	if info.NeedsContext {
		return
	}
	if a.NeedsContextOf == nil {
		info.NeedsContext = true // conservative default, see DESIGN.md
		return
	}
	needs, known := a.NeedsContextOf(calleeName)
	if !known || needs {
		info.NeedsContext = true
	}
}

func (a *Analyzer) noteArgHints(calleeName string, args []ast.Expr, info *Info) {
	if a.ParamTypeOf == nil {
		return
	}
	isParam := func(name string) (string, bool) {
		for _, p := range info.Params {
			if p == name {
				return p, true
			}
		}
		return "", false
	}
	for i, arg := range args {
		ident, ok := arg.(*ast.Ident)
		if !ok {
			continue
		}
		paramName, ok := isParam(ident.Name)
		if !ok {
			continue
		}
		if typ, ok := a.ParamTypeOf(calleeName, i); ok {
			info.ParamHints[paramName] = append(info.ParamHints[paramName], typ)
		}
	}
}
