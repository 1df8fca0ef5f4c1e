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

// Package codegen translates a macro's (or inline function's) typed
// intermediate representation into a Go/cgo wrapper function. Translation
// never hard-fails: a construct it cannot render becomes a Fragment whose
// Issues are non-empty, and the caller emits the fragment's code as a
// "// FAILED: name - reason" comment block instead of live source, so one
// unsupported macro never blocks the rest of a run.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/infer"
	"github.com/hkoba/perlmacrogen/internal/macroanalysis"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

// ContextParamName is the identifier the generator uses for the leading
// Perl-interpreter-context parameter, matching the spelling
// internal/godecl already recognizes in a hand-maintained bindings file.
const ContextParamName = "my_perl"

// ContextParamType is the cgo type of the context parameter.
const ContextParamType = "*C.PerlInterpreter"

// Fragment is one generated wrapper's code plus any issues found while
// generating it.
type Fragment struct {
	Code          string
	Issues        []string
	UsedConstants []string
	UsesTernary   bool
}

// HasIssues reports whether Code should be emitted as a commented-out
// failure block rather than live source.
func (f Fragment) HasIssues() bool { return len(f.Issues) > 0 }

// IssuesSummary joins Issues into one diagnostic line, mirroring the
// "// FAILED: name - reason" shape used throughout the pack's own
// lenient-failure conventions.
func (f Fragment) IssuesSummary() string {
	return strings.Join(f.Issues, "; ")
}

// Generator holds the cross-macro context needed to translate a single
// macro or inline function: which callees are known to require the
// interpreter context, and which macros are known constants (so a
// reference to one renders as a bare identifier rather than being
// re-expanded inline).
type Generator struct {
	// CalleeNeedsContext reports whether calling name requires threading
	// ContextParamName as its first argument. A nil entry (callee
	// unknown) is treated as needing context, matching
	// internal/macroanalysis's conservative default.
	CalleeNeedsContext func(name string) (needs bool, known bool)
	// ConstantMacros lists macro names classified as
	// macroanalysis.CategoryConstant, hoisted as "const Name = Value"
	// declarations ahead of the function bodies that reference them.
	ConstantMacros map[string]*macroanalysis.Info
}

// New returns a Generator with no known callees or constants; set its
// fields (or construct one directly) once the macro analyzer's results
// are available.
func New() *Generator {
	return &Generator{ConstantMacros: make(map[string]*macroanalysis.Info)}
}

func (g *Generator) needsContext(name string) bool {
	if g.CalleeNeedsContext == nil {
		return true
	}
	needs, known := g.CalleeNeedsContext(name)
	return !known || needs
}

// MacroToFunc translates a function-like macro's parsed body into a Go
// wrapper function. info carries the macro's classification and call
// graph; sig carries the inference engine's resolved parameter/return
// types (possibly still containing Unknown entries for parameters no
// hint ever touched, which render as "unsafe.Pointer").
func (g *Generator) MacroToFunc(name string, info *macroanalysis.Info, sig *infer.Signature) Fragment {
	if info.Body == nil {
		return Fragment{Issues: []string{"macro body did not parse as an expression"}}
	}

	ctx := &exprCtx{gen: g, paramSet: paramSet(info.Params)}
	stmts, final, err := exprToStmts(ctx, info.Body)
	if err != nil {
		return Fragment{Issues: []string{err.Error()}}
	}
	used := collectUsedConstants(g, info.Body)

	retType := "unsafe.Pointer"
	if sig != nil && sig.ReturnType.Kind != unitype.Unknown {
		retType = sig.ReturnType.ToGoString() // "" for Void is the correct no-result spelling
	}

	params := make([]string, 0, len(info.Params)+1)
	needsCtx := info.NeedsContext
	if needsCtx {
		params = append(params, ContextParamName+" "+ContextParamType)
	}
	for _, p := range info.Params {
		t := unitype.Type{Kind: unitype.Unknown}
		if sig != nil {
			if ps, ok := sig.Params[p]; ok {
				t = ps.Type
			}
		}
		params = append(params, sanitizeIdent(p)+" "+goTypeOrPointer(t))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// %s is a macro function.\n", name)
	if needsCtx {
		fmt.Fprintf(&b, "// Threads the interpreter context (THX).\n")
	}
	fmt.Fprintf(&b, "func %s(%s)", sanitizeIdent(name), strings.Join(params, ", "))
	if retType != "" {
		fmt.Fprintf(&b, " %s", retType)
	}
	b.WriteString(" {\n")
	for _, s := range stmts {
		fmt.Fprintf(&b, "\t%s\n", s)
	}
	if retType != "" {
		fmt.Fprintf(&b, "\treturn %s\n", final)
	} else if final != "" {
		fmt.Fprintf(&b, "\t%s\n", final)
	}
	b.WriteString("}\n")

	return Fragment{Code: b.String(), UsesTernary: ctx.usedTernary, UsedConstants: used}
}

// InlineFuncToFunc translates a "static inline" C function definition into
// a Go wrapper with the same body shape, following the original source's
// convention of threading the context parameter whenever the function (or
// anything it calls) needs it.
func (g *Generator) InlineFuncToFunc(fn *ast.FuncDecl, needsContext bool) Fragment {
	if fn.Body == nil {
		return Fragment{Issues: []string{"inline function has no body"}}
	}
	ctx := &exprCtx{gen: g, paramSet: paramSetFromParams(fn.Params)}

	var stmtLines []string
	var used []string
	for _, s := range fn.Body.Stmts {
		lines, err := stmtToGo(ctx, s)
		if err != nil {
			return Fragment{Issues: []string{err.Error()}}
		}
		stmtLines = append(stmtLines, lines...)
		used = append(used, collectUsedConstantsInStmt(g, s)...)
	}

	retType := fn.ReturnType.ToGoString()
	params := make([]string, 0, len(fn.Params)+1)
	if needsContext {
		params = append(params, ContextParamName+" "+ContextParamType)
	}
	for _, p := range fn.Params {
		name := p.Name
		if name == "" {
			name = "_"
		}
		params = append(params, sanitizeIdent(name)+" "+goTypeOrPointer(p.Type))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// %s is an inline function.\n", fn.Name)
	if needsContext {
		fmt.Fprintf(&b, "// Threads the interpreter context (THX).\n")
	}
	fmt.Fprintf(&b, "func %s(%s)", sanitizeIdent(fn.Name), strings.Join(params, ", "))
	if retType != "" {
		fmt.Fprintf(&b, " %s", retType)
	}
	b.WriteString(" {\n")
	for _, l := range stmtLines {
		fmt.Fprintf(&b, "\t%s\n", l)
	}
	b.WriteString("}\n")

	return Fragment{Code: b.String(), UsesTernary: ctx.usedTernary, UsedConstants: used}
}

// ConstantDecl renders a constant macro as a top-level Go "const"
// declaration; the value is emitted as the macro's raw body text since a
// constant macro's defining property is that its body folds to a literal
// without needing type inference.
func ConstantDecl(name string, info *macroanalysis.Info) string {
	return fmt.Sprintf("const %s = %s", sanitizeIdent(name), rewriteConstantText(info.BodyText))
}

// rewriteConstantText strips C integer-literal suffixes (U/L/UL/LL/...)
// that are not valid in Go numeric literals, leaving everything else
// (operators, parens, hex/octal prefixes) untouched, since Go accepts the
// same arithmetic/bitwise operator spellings C does.
func rewriteConstantText(text string) string {
	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = stripIntSuffix(f)
	}
	return strings.Join(fields, " ")
}

func stripIntSuffix(tok string) string {
	if tok == "" {
		return tok
	}
	isDigitOrHex := tok[0] >= '0' && tok[0] <= '9'
	if !isDigitOrHex {
		return tok
	}
	end := len(tok)
	for end > 0 {
		c := tok[end-1]
		if c == 'u' || c == 'U' || c == 'l' || c == 'L' {
			end--
			continue
		}
		break
	}
	if end == 0 {
		return tok
	}
	return tok[:end]
}

// ternaryHelperSource is emitted once, at most, into a generated file when
// any translated macro needed the "cond ? then : else" operator: Go has no
// ternary expression, so a small generic helper stands in for it, matching
// the pattern real Go codebases reach for instead of duplicating if/else
// at every call site.
const ternaryHelperSource = `func iif[T any](cond bool, then, els T) T {
	if cond {
		return then
	}
	return els
}
`

// TernaryHelperSource returns the iif[T] helper's source, for a caller
// that needs to emit it once ahead of any function using it.
func TernaryHelperSource() string { return ternaryHelperSource }

func paramSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func paramSetFromParams(params []ast.Param) map[string]bool {
	m := make(map[string]bool, len(params))
	for _, p := range params {
		m[p.Name] = true
	}
	return m
}

// goKeywords are identifiers that collide with Go reserved words or
// predeclared identifiers commonly used as C macro parameter/field names
// (len, type, range, ...); sanitizeIdent appends an underscore to avoid a
// syntax error in the emitted source.
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	"len": true, "cap": true, "new": true, "make": true, "copy": true, "append": true,
}

// goTypeOrPointer renders t's Go spelling, substituting unsafe.Pointer for
// Unknown (a type no hint ever resolved) rather than unitype's generic
// "any", since a cgo wrapper parameter needs a concrete pointer-sized type
// to stay assignable to/from the C side.
func goTypeOrPointer(t unitype.Type) string {
	if t.Kind == unitype.Unknown {
		return "unsafe.Pointer"
	}
	return t.ToGoString()
}

func sanitizeIdent(name string) string {
	if goKeywords[name] {
		return name + "_"
	}
	return name
}

// sortedNames returns m's keys in sorted order, used wherever generated
// output order must be deterministic (map iteration order is not).
func sortedNames(m map[string]*macroanalysis.Info) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SortedConstantDecls renders every entry of g.ConstantMacros as a
// "const" declaration, in sorted name order for deterministic output.
func (g *Generator) SortedConstantDecls() []string {
	names := sortedNames(g.ConstantMacros)
	decls := make([]string, 0, len(names))
	for _, n := range names {
		decls = append(decls, ConstantDecl(n, g.ConstantMacros[n]))
	}
	return decls
}
