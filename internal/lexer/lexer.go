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

// Package lexer turns C source bytes into a flat Token stream. It is
// shared by the preprocessor (which consumes everything, including
// directives and trivia) and re-used internally by the directive/#if
// expression scanner.
//
// Tokens are classified by type (to make filtering whitespace/comments or
// dispatching on an exact operator trivial) and carry their source Cursor
// for diagnostics.
package lexer

import (
	"bytes"
	"iter"
	"regexp"
	"strings"
)

var (
	reContinueLine           = regexp.MustCompile(`^\\[\t\v\f\r ]*\n`)
	rePreprocessorSystemPath = regexp.MustCompile(`^<[^<>\n]*>`)
	reLiteralFloat           = regexp.MustCompile(`^(?i)(?:[0-9]+\.[0-9]*|\.[0-9]+|[0-9]+)(?:e[-+]?[0-9]+)?[fl]?`)
	reLiteralInteger         = regexp.MustCompile(`^(?i)0x[0-9a-f]+(?:u|l|ul|lu|ull|llu)?|0b[01]+(?:u|l)?|0[0-7]+(?:u|l)?|[0-9]+(?:u|l|ul|lu|ull|llu)?`)
	reLiteralString          = regexp.MustCompile(`^(?:u8|[uUL])?"(?:[^"\\\n]|\\.)*"`)
	reLiteralChar            = regexp.MustCompile(`^[uUL]?'(?:[^'\\\n]|\\.)+'`)
	reIdentifier             = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*`)
)

type (
	// Lexer scans a single in-memory source buffer.
	Lexer struct {
		dataLeft []byte
		cursor   Cursor
		// atLineStart tracks whether the next '#' would begin a directive;
		// only whitespace may precede it on its line. It also stays set
		// right after an #include/#include_next token (see
		// expectingHeaderName).
		atLineStart bool
	}
	lexeme struct {
		tokenType TokenType
		length    int
	}
)

// NewLexer returns a Lexer positioned at the start of sourceCode.
func NewLexer(sourceCode []byte) *Lexer {
	return &Lexer{dataLeft: sourceCode, cursor: CursorInit, atLineStart: true}
}

func findNonWhitespace(data []byte) int {
	for i, b := range data {
		if !strings.ContainsAny(string(b), " \t\v\f\r") {
			return i
		}
	}
	return len(data)
}

func (lx *Lexer) consume(lxm lexeme) Token {
	token := Token{
		Type:     lxm.tokenType,
		Location: lx.cursor,
		Content:  string(lx.dataLeft[:lxm.length]),
	}
	lx.dataLeft = lx.dataLeft[lxm.length:]
	lx.cursor = lx.cursor.AdvancedBy(token.Content)

	switch token.Type {
	case TokenNewline:
		lx.atLineStart = true
	case TokenWhitespace, TokenContinueLine, TokenCommentMultiLine:
		// line-start status is unaffected by leading whitespace/comments
	case TokenPreprocessorInclude, TokenPreprocessorIncludeNext:
		// left set so that expectingHeaderName accepts the "<...>"
		// header name that follows on the same line
	default:
		lx.atLineStart = false
	}
	return token
}

// NextToken returns the next token from the input, or TokenEOF once
// exhausted. Malformed input (an unterminated comment or string) is
// returned as a best-effort token spanning the remainder of the buffer;
// callers needing strict validation should check Token.Content against the
// expected closing sequence.
func (lx *Lexer) NextToken() Token {
	if len(lx.dataLeft) == 0 {
		return TokenEOF
	}

	data := lx.dataLeft
	lxm := lexeme{tokenType: TokenUnassigned, length: 1}

	switch data[0] {
	case '\n':
		lxm = lexeme{tokenType: TokenNewline, length: 1}
	case '\t', '\v', '\f', '\r', ' ':
		lxm = lexeme{tokenType: TokenWhitespace, length: findNonWhitespace(data)}
	case '\\':
		if match := reContinueLine.Find(data); match != nil {
			lxm = lexeme{tokenType: TokenContinueLine, length: len(match)}
		}
	case '"':
		if match := reLiteralString.Find(data); match != nil {
			lxm = lexeme{tokenType: TokenLiteralString, length: len(match)}
		} else {
			lxm = lexeme{tokenType: TokenLiteralString, length: len(data)}
		}
	case '\'':
		if match := reLiteralChar.Find(data); match != nil {
			lxm = lexeme{tokenType: TokenLiteralChar, length: len(match)}
		}
	case '/':
		if bytes.HasPrefix(data, []byte("//")) {
			end := bytes.IndexByte(data, '\n')
			if end == -1 {
				end = len(data)
			}
			lxm = lexeme{tokenType: TokenCommentSingleLine, length: end}
		} else if bytes.HasPrefix(data, []byte("/*")) {
			if end := bytes.Index(data, []byte("*/")); end >= 0 {
				lxm = lexeme{tokenType: TokenCommentMultiLine, length: end + 2}
			} else {
				lxm = lexeme{tokenType: TokenCommentMultiLine, length: len(data)}
			}
		} else if bytes.HasPrefix(data, []byte("/=")) {
			lxm = lexeme{tokenType: TokenDivAssign, length: 2}
		} else {
			lxm = lexeme{tokenType: TokenSlash, length: 1}
		}
	case '#':
		if lx.atLineStart {
			begin := findNonWhitespace(data[1:]) + 1
			matched := false
			for _, directive := range preprocessorDirectives {
				if bytes.HasPrefix(data[begin:], []byte(directive.keyword)) {
					end := begin + len(directive.keyword)
					if end >= len(data) || !isIdentContinue(data[end]) {
						lxm = lexeme{tokenType: directive.typ, length: end}
						matched = true
						break
					}
				}
			}
			if !matched {
				lxm = lexeme{tokenType: TokenPreprocessorHash, length: 1}
			}
		} else if bytes.HasPrefix(data, []byte("##")) {
			lxm = lexeme{tokenType: TokenPreprocessorHash, length: 2}
		} else {
			lxm = lexeme{tokenType: TokenPreprocessorStringize, length: 1}
		}
	case '<':
		if match := rePreprocessorSystemPath.Find(data); match != nil && lx.expectingHeaderName() {
			lxm = lexeme{tokenType: TokenPreprocessorSystemPath, length: len(match)}
			break
		}
		lxm = lx.matchOperatorOrDefault(data, '<')
	default:
		if op, length := matchMultiCharOperator(data); length > 0 {
			lxm = lexeme{tokenType: op, length: length}
		} else if typ, ok := singleCharOperators[data[0]]; ok {
			lxm = lexeme{tokenType: typ, length: 1}
		} else if match := reIdentifier.Find(data); match != nil {
			word := string(match)
			if word == "defined" {
				lxm = lexeme{tokenType: TokenPreprocessorDefined, length: len(match)}
			} else {
				lxm = lexeme{tokenType: TokenIdentifier, length: len(match)}
			}
		} else if match := reLiteralFloat.FindString(string(data)); match != "" && strings.ContainsAny(match, ".eE") {
			lxm = lexeme{tokenType: TokenLiteralFloat, length: len(match)}
		} else if match := reLiteralInteger.Find(data); match != nil {
			lxm = lexeme{tokenType: TokenLiteralInteger, length: len(match)}
		}
	}

	if lxm.tokenType == TokenUnassigned {
		lxm.length = 1
	}
	return lx.consume(lxm)
}

// expectingHeaderName is a narrow heuristic: a '<' right after an #include
// or #include_next token (or at the start of a line) begins a system
// header path, not a less-than comparison. consume leaves atLineStart set
// across those two directive tokens, so that flag answers both cases.
func (lx *Lexer) expectingHeaderName() bool {
	return lx.atLineStart
}

func (lx *Lexer) matchOperatorOrDefault(data []byte, b byte) lexeme {
	if op, length := matchMultiCharOperator(data); length > 0 {
		return lexeme{tokenType: op, length: length}
	}
	return lexeme{tokenType: singleCharOperators[b], length: 1}
}

func matchMultiCharOperator(data []byte) (TokenType, int) {
	for _, op := range multiCharOperators {
		if bytes.HasPrefix(data, []byte(op.text)) {
			return op.typ, len(op.text)
		}
	}
	return 0, 0
}

func isIdentContinue(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// AllTokens iterates every token in the buffer, in order.
func (lx *Lexer) AllTokens() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for len(lx.dataLeft) > 0 {
			if !yield(lx.NextToken()) {
				return
			}
		}
	}
}
