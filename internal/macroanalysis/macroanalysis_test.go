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

package macroanalysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkoba/perlmacrogen/internal/lexer"
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

func TestClassifyConstantMacro(t *testing.T) {
	a := &Analyzer{}
	macros := map[string]*preprocessor.Macro{
		"MAX_LEN": {Name: "MAX_LEN", Body: lexBody(t, "256")},
	}
	infos := a.Analyze(macros)
	assert.Equal(t, CategoryConstant, infos["MAX_LEN"].Category)
}

func TestClassifyExpressionMacro(t *testing.T) {
	a := &Analyzer{}
	macros := map[string]*preprocessor.Macro{
		"HvFILL": {Name: "HvFILL", IsFuncLike: true, Params: []string{"hv"}, Body: lexBody(t, "HvTOTALKEYS(hv)")},
	}
	infos := a.Analyze(macros)
	info := infos["HvFILL"]
	require.Equal(t, CategoryExpression, info.Category)
	assert.True(t, info.CalledFunctions.Contains("HvTOTALKEYS"))
}

func TestClassifyStatementMacro(t *testing.T) {
	a := &Analyzer{}
	macros := map[string]*preprocessor.Macro{
		"SWAP": {
			Name: "SWAP", IsFuncLike: true, Params: []string{"a", "b"},
			Body: lexBody(t, "do { int t = a; a = b; b = t; } while (0)"),
		},
	}
	infos := a.Analyze(macros)
	assert.Equal(t, CategoryStatement, infos["SWAP"].Category)
}

func TestNeedsContextPropagation(t *testing.T) {
	a := &Analyzer{
		NeedsContextOf: func(name string) (bool, bool) {
			return name == "Perl_sv_2pv_flags", true
		},
	}
	macros := map[string]*preprocessor.Macro{
		"SvPV_nolen": {
			Name: "SvPV_nolen", IsFuncLike: true, Params: []string{"sv"},
			Body: lexBody(t, "Perl_sv_2pv_flags(sv)"),
		},
	}
	infos := a.Analyze(macros)
	assert.True(t, infos["SvPV_nolen"].NeedsContext)
}

func TestParamHintFromKnownCallee(t *testing.T) {
	a := &Analyzer{
		ParamTypeOf: func(callee string, idx int) (unitype.Type, bool) {
			if callee == "SvPV" && idx == 0 {
				return unitype.FromCString("SV *"), true
			}
			return unitype.Type{}, false
		},
	}
	macros := map[string]*preprocessor.Macro{
		"WRAP": {Name: "WRAP", IsFuncLike: true, Params: []string{"x"}, Body: lexBody(t, "SvPV(x)")},
	}
	infos := a.Analyze(macros)
	hints := infos["WRAP"].ParamHints["x"]
	require.Len(t, hints, 1)
	assert.True(t, hints[0].IsPointer())
}
