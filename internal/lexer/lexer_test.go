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

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tokenTypes(src string) []TokenType {
	lx := NewLexer([]byte(src))
	var types []TokenType
	for tok := range lx.AllTokens() {
		if tok.IsTrivia() {
			continue
		}
		types = append(types, tok.Type)
	}
	return types
}

func TestLexSimpleDeclaration(t *testing.T) {
	types := tokenTypes("int x = 5;")
	assert.Equal(t, []TokenType{
		TokenIdentifier, TokenIdentifier, TokenAssign, TokenLiteralInteger, TokenSemicolon,
	}, types)
}

func TestLexDirective(t *testing.T) {
	types := tokenTypes("#define FOO(x) ((x)+1)\n")
	assert.Equal(t, TokenPreprocessorDefine, types[0])
	assert.Equal(t, TokenIdentifier, types[1])
	assert.Equal(t, TokenParenLeft, types[2])
}

func TestLexStringizeVsPaste(t *testing.T) {
	types := tokenTypes("#define S(x) #x\n#define P(a,b) a##b\n")
	assert.Contains(t, types, TokenPreprocessorStringize)
	assert.Contains(t, types, TokenPreprocessorHash)
}

func TestLexArrowAndIncrement(t *testing.T) {
	types := tokenTypes("p->field++;")
	assert.Equal(t, []TokenType{
		TokenIdentifier, TokenArrow, TokenIdentifier, TokenIncrement, TokenSemicolon,
	}, types)
}

func TestLexCharAndString(t *testing.T) {
	types := tokenTypes(`char c = 'a'; char *s = "hi\"there";`)
	assert.Contains(t, types, TokenLiteralChar)
	assert.Contains(t, types, TokenLiteralString)
}
