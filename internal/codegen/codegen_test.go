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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/infer"
	"github.com/hkoba/perlmacrogen/internal/lexer"
	"github.com/hkoba/perlmacrogen/internal/macroanalysis"
	"github.com/hkoba/perlmacrogen/internal/preprocessor"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

func lexBody(t *testing.T, src string) []lexer.Token {
	t.Helper()
	lx := lexer.NewLexer([]byte(src))
	var toks []lexer.Token
	for tok := range lx.AllTokens() {
		if !tok.IsTrivia() {
			toks = append(toks, tok)
		}
	}
	return toks
}

func analyzeOne(t *testing.T, name string, params []string, body string, needsContext map[string]bool) *macroanalysis.Info {
	t.Helper()
	a := &macroanalysis.Analyzer{
		NeedsContextOf: func(callee string) (bool, bool) {
			needs, ok := needsContext[callee]
			return needs, ok
		},
	}
	macros := map[string]*preprocessor.Macro{
		name: {Name: name, IsFuncLike: len(params) > 0, Params: params, Body: lexBody(t, body), BodyText: body},
	}
	infos := a.Analyze(macros)
	return infos[name]
}

func TestMacroToFuncSimplePointerReturn(t *testing.T) {
	info := analyzeOne(t, "SvTYPE", []string{"sv"}, "(((sv)->sv_flags) & SVTYPEMASK)", map[string]bool{})
	sig := &infer.Signature{
		Params: map[string]*infer.ParamState{
			"sv": {Type: unitype.FromCString("SV *"), Confirmed: true},
		},
		ReturnType: unitype.FromCString("svtype"),
	}
	g := New()
	frag := g.MacroToFunc("SvTYPE", info, sig)
	require.False(t, frag.HasIssues(), "%v", frag.Issues)
	assert.Contains(t, frag.Code, "func SvTYPE(sv *C.SV) C.svtype")
	assert.Contains(t, frag.Code, "return")
}

func TestMacroToFuncThreadsContext(t *testing.T) {
	info := analyzeOne(t, "HvFILL", []string{"hv"}, "Perl_hv_fill(hv)", map[string]bool{"Perl_hv_fill": true})
	require.True(t, info.NeedsContext)
	sig := &infer.Signature{
		Params: map[string]*infer.ParamState{
			"hv": {Type: unitype.FromCString("HV *"), Confirmed: true},
		},
		ReturnType: unitype.FromCString("STRLEN"),
	}
	g := New()
	g.CalleeNeedsContext = func(name string) (bool, bool) { return name == "Perl_hv_fill", true }
	frag := g.MacroToFunc("HvFILL", info, sig)
	require.False(t, frag.HasIssues(), "%v", frag.Issues)
	assert.Contains(t, frag.Code, "my_perl *C.PerlInterpreter")
	assert.Contains(t, frag.Code, "Perl_hv_fill(my_perl, hv)")
}

func TestMacroToFuncTernary(t *testing.T) {
	info := analyzeOne(t, "MAX", []string{"a", "b"}, "((a) > (b) ? (a) : (b))", map[string]bool{})
	sig := &infer.Signature{
		Params: map[string]*infer.ParamState{
			"a": {Type: unitype.FromCString("int"), Confirmed: true},
			"b": {Type: unitype.FromCString("int"), Confirmed: true},
		},
		ReturnType: unitype.FromCString("int"),
	}
	g := New()
	frag := g.MacroToFunc("MAX", info, sig)
	require.False(t, frag.HasIssues(), "%v", frag.Issues)
	assert.Contains(t, frag.Code, "iif(")
	assert.True(t, frag.UsesTernary)
}

func TestMacroToFuncUnparsedBodyReportsIssue(t *testing.T) {
	info := &macroanalysis.Info{Name: "BAD", Category: macroanalysis.CategoryUnknown}
	g := New()
	frag := g.MacroToFunc("BAD", info, nil)
	assert.True(t, frag.HasIssues())
}

func TestMacroToFuncUnsupportedPostfixIncrementReportsIssue(t *testing.T) {
	info := analyzeOne(t, "INCR", []string{"x"}, "(x++)", map[string]bool{})
	g := New()
	frag := g.MacroToFunc("INCR", info, nil)
	assert.True(t, frag.HasIssues())
}

func TestInlineFuncToFuncBasic(t *testing.T) {
	fn := &ast.FuncDecl{
		Name:       "Perl_CvDEPTH",
		ReturnType: unitype.FromCString("I32 *"),
		Params:     []ast.Param{{Name: "sv", Type: unitype.FromCString("CV *")}},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Result: &ast.Ident{Name: "sv"}},
		}},
	}
	g := New()
	frag := g.InlineFuncToFunc(fn, false)
	require.False(t, frag.HasIssues(), "%v", frag.Issues)
	assert.Contains(t, frag.Code, "func Perl_CvDEPTH(sv *C.CV) *C.I32")
	assert.Contains(t, frag.Code, "return sv")
}

func TestInlineFuncToFuncThreadsContext(t *testing.T) {
	fn := &ast.FuncDecl{
		Name:       "helper",
		ReturnType: unitype.FromCString("void"),
		Body:       &ast.BlockStmt{},
	}
	g := New()
	frag := g.InlineFuncToFunc(fn, true)
	require.False(t, frag.HasIssues())
	assert.Contains(t, frag.Code, "my_perl *C.PerlInterpreter")
}

func TestConstantDeclStripsIntSuffix(t *testing.T) {
	info := &macroanalysis.Info{BodyText: "256UL"}
	decl := ConstantDecl("MAX_LEN", info)
	assert.Equal(t, "const MAX_LEN = 256", decl)
}

func TestSanitizeIdentAvoidsGoKeywords(t *testing.T) {
	assert.Equal(t, "len_", sanitizeIdent("len"))
	assert.Equal(t, "sv", sanitizeIdent("sv"))
}

func TestMacroToFuncUsesConstant(t *testing.T) {
	info := analyzeOne(t, "DOUBLE_MAX", []string{"x"}, "(x * MAX_LEN)", map[string]bool{})
	g := New()
	g.ConstantMacros["MAX_LEN"] = &macroanalysis.Info{BodyText: "256"}
	sig := &infer.Signature{
		Params: map[string]*infer.ParamState{
			"x": {Type: unitype.FromCString("int"), Confirmed: true},
		},
		ReturnType: unitype.FromCString("int"),
	}
	frag := g.MacroToFunc("DOUBLE_MAX", info, sig)
	require.False(t, frag.HasIssues(), "%v", frag.Issues)
	assert.Contains(t, frag.UsedConstants, "MAX_LEN")
}
