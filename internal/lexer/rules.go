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

// multiCharOperators lists fixed punctuation sequences, longest first, so a
// simple linear scan never mistakes a prefix of a longer operator (e.g. "<")
// for the operator itself (e.g. "<<=").
var multiCharOperators = []struct {
	text string
	typ  TokenType
}{
	{"<<=", TokenShlAssign},
	{">>=", TokenShrAssign},
	{"...", TokenEllipsis},
	{"->", TokenArrow},
	{"++", TokenIncrement},
	{"--", TokenDecrement},
	{"<<", TokenShl},
	{">>", TokenShr},
	{"<=", TokenLe},
	{">=", TokenGe},
	{"==", TokenEq},
	{"!=", TokenNe},
	{"&&", TokenLogicalAnd},
	{"||", TokenLogicalOr},
	{"+=", TokenAddAssign},
	{"-=", TokenSubAssign},
	{"*=", TokenMulAssign},
	{"/=", TokenDivAssign},
	{"%=", TokenModAssign},
	{"&=", TokenAndAssign},
	{"|=", TokenOrAssign},
	{"^=", TokenXorAssign},
	{"##", TokenPreprocessorHash},
}

var singleCharOperators = map[byte]TokenType{
	'<': TokenLess,
	'>': TokenGreater,
	'=': TokenAssign,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'%': TokenPercent,
	'&': TokenAmp,
	'|': TokenPipe,
	'^': TokenCaret,
	'~': TokenTilde,
	'!': TokenBang,
	'?': TokenQuestion,
	':': TokenColon,
	';': TokenSemicolon,
	',': TokenComma,
	'.': TokenDot,
	'(': TokenParenLeft,
	')': TokenParenRight,
	'{': TokenBraceLeft,
	'}': TokenBraceRight,
	'[': TokenBracketLeft,
	']': TokenBracketRight,
	'#': TokenPreprocessorHash,
}

// preprocessorDirectives maps a directive keyword following '#' to its
// token type. Longer keywords are listed first so that, e.g., "elifdef" is
// not mistaken for "elif" plus a stray identifier.
var preprocessorDirectives = []struct {
	keyword string
	typ     TokenType
}{
	{"include_next", TokenPreprocessorIncludeNext},
	{"elifndef", TokenPreprocessorElifndef},
	{"elifdef", TokenPreprocessorElifdef},
	{"include", TokenPreprocessorInclude},
	{"define", TokenPreprocessorDefine},
	{"ifndef", TokenPreprocessorIfndef},
	{"warning", TokenPreprocessorWarning},
	{"pragma", TokenPreprocessorPragma},
	{"endif", TokenPreprocessorEndif},
	{"ifdef", TokenPreprocessorIfdef},
	{"undef", TokenPreprocessorUndef},
	{"error", TokenPreprocessorError},
	{"elif", TokenPreprocessorElif},
	{"else", TokenPreprocessorElse},
	{"line", TokenPreprocessorLine},
	{"if", TokenPreprocessorIf},
}
