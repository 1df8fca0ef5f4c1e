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

// Package preprocessor implements a C preprocessor: macro definition and
// expansion (object-like and function-like, including stringize '#',
// paste '##', __VA_ARGS__, and rescan with recursion blocking),
// conditional compilation (#if/#ifdef/#ifndef/#elif/#elifdef/#elifndef/
// #else/#endif), and #include/#include_next resolution. Its token-stream
// output feeds internal/cparser, and its macro table (Macros) feeds
// internal/macroanalysis directly, since most of the reification targets
// of this tool never appear in the post-expansion token stream at all —
// they *are* the macro definitions.
package preprocessor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hkoba/perlmacrogen/internal/fileset"
	"github.com/hkoba/perlmacrogen/internal/lexer"
)

// Config configures one preprocessing run.
type Config struct {
	IncludePaths []string
	Defines      map[string]string // name -> replacement text ("" defines an empty body)
	Files        *fileset.Set
}

// Preprocessor holds the mutable state of one preprocessing run: the
// macro table and conditional-compilation stack. It is single-threaded,
// matching the rest of the pipeline.
type Preprocessor struct {
	cfg         Config
	macros      map[string]*Macro
	includeDirs []string
	files       *fileset.Set

	// condStack tracks, for each nested #if/#ifdef, whether the current
	// branch is active and whether any branch in this chain has already
	// been taken (so #else/#elif can skip once one branch has fired).
	condStack []condFrame
}

type condFrame struct {
	active      bool // whether lines here are currently emitted/expanded
	anyTaken    bool // whether some branch in this #if..#endif has been true
	parentSkip  bool // true if an enclosing frame is itself inactive
}

// New returns a Preprocessor ready to process files under cfg.
func New(cfg Config) *Preprocessor {
	p := &Preprocessor{
		cfg:         cfg,
		macros:      make(map[string]*Macro),
		includeDirs: cfg.IncludePaths,
		files:       cfg.Files,
	}
	for name, value := range cfg.Defines {
		p.defineFromCommandLine(name, value)
	}
	p.defineBuiltins()
	return p
}

func (p *Preprocessor) defineFromCommandLine(name, value string) {
	var body []lexer.Token
	if value != "" {
		lx := lexer.NewLexer([]byte(value))
		for tok := range lx.AllTokens() {
			if !tok.IsTrivia() {
				body = append(body, tok)
			}
		}
	}
	p.macros[name] = &Macro{Name: name, Body: body, BodyText: value}
}

func (p *Preprocessor) defineBuiltins() {
	// __STDC__ etc. are not modeled in depth; only the handful of
	// predicates Perl's own headers actually branch on are provided, to
	// keep conditional-compilation decisions faithful without pretending
	// to be a full target-triple-aware cpp.
	if _, ok := p.macros["__STDC__"]; !ok {
		p.macros["__STDC__"] = &Macro{Name: "__STDC__", Body: intLiteralBody("1")}
	}
}

func intLiteralBody(text string) []lexer.Token {
	return []lexer.Token{{Type: lexer.TokenLiteralInteger, Content: text}}
}

// Macro looks up a macro by name, for consumers (internal/macroanalysis)
// that need the raw definition rather than its expansion.
func (p *Preprocessor) Macro(name string) (*Macro, bool) {
	m, ok := p.macros[name]
	return m, ok
}

// Macros returns every currently-defined macro, keyed by name. The
// returned map is a snapshot copy; mutating it does not affect p.
func (p *Preprocessor) Macros() map[string]*Macro {
	out := make(map[string]*Macro, len(p.macros))
	for k, v := range p.macros {
		out[k] = v
	}
	return out
}

func (p *Preprocessor) active() bool {
	for _, f := range p.condStack {
		if !f.active {
			return false
		}
	}
	return true
}

// ProcessFile preprocesses the file at path (already registered in
// p.files or about to be registered with includedFrom) and returns the
// expanded, directive-free token stream along with the FileID it was
// registered under.
func (p *Preprocessor) ProcessFile(path string, includedFrom fileset.Location) ([]lexer.Token, fileset.FileID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("preprocess %s: %w", path, err)
	}
	fileID := p.files.Register(path, includedFrom)
	tokens, err := p.processBytes(data, fileID)
	return tokens, fileID, err
}

// processBytes is the line-oriented directive/expansion driver: it splits
// the raw lexer stream into logical lines (honoring line continuations),
// dispatches directive lines, and macro-expands non-directive lines that
// are in an active conditional branch.
func (p *Preprocessor) processBytes(data []byte, fileID fileset.FileID) ([]lexer.Token, error) {
	lines := splitLogicalLines(data)
	var out []lexer.Token
	lineNo := 1

	for _, line := range lines {
		toks := lexTokens(line.text)
		if len(toks) > 0 && toks[0].Type.IsDirectiveStart() {
			if err := p.handleDirective(toks, fileID, lineNo, line.text); err != nil {
				return nil, err
			}
		} else if p.active() {
			expanded := p.expandMacros(toks, map[string]bool{})
			for _, t := range expanded {
				t.Location = lexer.Cursor{Line: lineNo, Column: t.Location.Column}
				out = append(out, t)
			}
		}
		lineNo += line.newlines
	}

	if len(p.condStack) != 0 {
		return out, fmt.Errorf("unterminated #if at end of file (depth %d)", len(p.condStack))
	}
	return out, nil
}

type logicalLine struct {
	text     []byte
	newlines int
}

// splitLogicalLines joins backslash-newline continued physical lines into
// logical ones, then splits on remaining unescaped newlines, counting how
// many physical lines each logical line consumed for accurate Cursor line
// numbers after expansion.
func splitLogicalLines(data []byte) []logicalLine {
	text := string(data)
	var lines []logicalLine
	var cur strings.Builder
	newlines := 0
	i := 0
	for i < len(text) {
		if text[i] == '\\' && i+1 < len(text) {
			j := i + 1
			for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\r') {
				j++
			}
			if j < len(text) && text[j] == '\n' {
				newlines++
				i = j + 1
				continue
			}
		}
		if text[i] == '\n' {
			lines = append(lines, logicalLine{text: []byte(cur.String()), newlines: newlines + 1})
			cur.Reset()
			newlines = 0
			i++
			continue
		}
		cur.WriteByte(text[i])
		i++
	}
	if cur.Len() > 0 {
		lines = append(lines, logicalLine{text: []byte(cur.String()), newlines: newlines + 1})
	}
	return lines
}

func lexTokens(line []byte) []lexer.Token {
	lx := lexer.NewLexer(line)
	var out []lexer.Token
	for tok := range lx.AllTokens() {
		if tok.IsTrivia() {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func (p *Preprocessor) handleDirective(toks []lexer.Token, fileID fileset.FileID, lineNo int, raw []byte) error {
	head := toks[0]
	rest := toks[1:]

	switch head.Type {
	case lexer.TokenPreprocessorIfdef, lexer.TokenPreprocessorIfndef:
		name := firstIdent(rest)
		_, defined := p.macros[name]
		cond := defined
		if head.Type == lexer.TokenPreprocessorIfndef {
			cond = !defined
		}
		p.pushIf(cond)
	case lexer.TokenPreprocessorIf:
		v, err := p.evalIfExprIfActive(rest)
		if err != nil {
			return err
		}
		p.pushIf(v != 0)
	case lexer.TokenPreprocessorElifdef, lexer.TokenPreprocessorElifndef:
		name := firstIdent(rest)
		_, defined := p.macros[name]
		cond := defined
		if head.Type == lexer.TokenPreprocessorElifndef {
			cond = !defined
		}
		return p.pushElif(cond)
	case lexer.TokenPreprocessorElif:
		v, err := p.evalIfExprIfActive(rest)
		if err != nil {
			return err
		}
		return p.pushElif(v != 0)
	case lexer.TokenPreprocessorElse:
		return p.pushElse()
	case lexer.TokenPreprocessorEndif:
		return p.popIf()
	case lexer.TokenPreprocessorDefine:
		if p.active() {
			p.defineMacro(rest, fileset.Location{File: fileID, Line: lineNo})
		}
	case lexer.TokenPreprocessorUndef:
		if p.active() {
			delete(p.macros, firstIdent(rest))
		}
	case lexer.TokenPreprocessorInclude, lexer.TokenPreprocessorIncludeNext:
		if p.active() {
			return p.handleInclude(rest, fileID, lineNo, head.Type == lexer.TokenPreprocessorIncludeNext)
		}
	case lexer.TokenPreprocessorError:
		if p.active() {
			return fmt.Errorf("#error: %s", strings.TrimSpace(string(raw)))
		}
	case lexer.TokenPreprocessorLine, lexer.TokenPreprocessorWarning, lexer.TokenPreprocessorPragma:
		// Accepted and otherwise ignored: #line renumbering, #warning, and
		// #pragma carry no semantic weight for signature reification.
	}
	return nil
}

func (p *Preprocessor) evalIfExprIfActive(rest []lexer.Token) (int64, error) {
	if !p.parentActive() {
		return 0, nil
	}
	return p.evalIfExpr(rest)
}

func (p *Preprocessor) parentActive() bool {
	for _, f := range p.condStack {
		if !f.active {
			return false
		}
	}
	return true
}

func (p *Preprocessor) pushIf(cond bool) {
	parentSkip := !p.active()
	active := cond && !parentSkip
	p.condStack = append(p.condStack, condFrame{active: active, anyTaken: active, parentSkip: parentSkip})
}

func (p *Preprocessor) pushElif(cond bool) error {
	if len(p.condStack) == 0 {
		return fmt.Errorf("#elif without matching #if")
	}
	top := &p.condStack[len(p.condStack)-1]
	if top.parentSkip {
		top.active = false
		return nil
	}
	if top.anyTaken {
		top.active = false
		return nil
	}
	top.active = cond
	if cond {
		top.anyTaken = true
	}
	return nil
}

func (p *Preprocessor) pushElse() error {
	if len(p.condStack) == 0 {
		return fmt.Errorf("#else without matching #if")
	}
	top := &p.condStack[len(p.condStack)-1]
	if top.parentSkip {
		top.active = false
		return nil
	}
	top.active = !top.anyTaken
	top.anyTaken = true
	return nil
}

func (p *Preprocessor) popIf() error {
	if len(p.condStack) == 0 {
		return fmt.Errorf("#endif without matching #if")
	}
	p.condStack = p.condStack[:len(p.condStack)-1]
	return nil
}

func firstIdent(toks []lexer.Token) string {
	for _, t := range toks {
		if t.Type == lexer.TokenIdentifier {
			return t.Content
		}
	}
	return ""
}

// defineMacro parses a "#define NAME ..." or "#define NAME(a,b,...) ..."
// directive from its already-lexed, trivia-stripped tail tokens.
func (p *Preprocessor) defineMacro(rest []lexer.Token, at fileset.Location) {
	if len(rest) == 0 {
		return
	}
	name := rest[0].Content
	i := 1
	macro := &Macro{Name: name, DefinedAt: at}

	if i < len(rest) && rest[i].Type == lexer.TokenParenLeft {
		// Only function-like if '(' immediately follows the name with no
		// whitespace in the original source; since trivia is already
		// stripped here we approximate by always treating an immediately
		// following '(' as function-like, which matches every macro in
		// Perl's headers this tool targets.
		macro.IsFuncLike = true
		i++
		for i < len(rest) && rest[i].Type != lexer.TokenParenRight {
			switch rest[i].Type {
			case lexer.TokenIdentifier:
				macro.Params = append(macro.Params, rest[i].Content)
			case lexer.TokenEllipsis:
				macro.Variadic = true
			}
			i++
		}
		if i < len(rest) {
			i++ // consume ')'
		}
	}

	macro.Body = append([]lexer.Token(nil), rest[i:]...)
	var sb strings.Builder
	for _, t := range macro.Body {
		sb.WriteString(t.Content)
		sb.WriteByte(' ')
	}
	macro.BodyText = strings.TrimSpace(sb.String())
	p.macros[name] = macro
}

func (p *Preprocessor) handleInclude(rest []lexer.Token, fromFile fileset.FileID, lineNo int, next bool) error {
	if len(rest) == 0 {
		return fmt.Errorf("#include with no argument")
	}
	var headerPath string
	var isSystem bool
	switch rest[0].Type {
	case lexer.TokenPreprocessorSystemPath:
		headerPath = strings.Trim(rest[0].Content, "<>")
		isSystem = true
	case lexer.TokenLiteralString:
		headerPath = strings.Trim(rest[0].Content, "\"")
		isSystem = false
	default:
		// A macro-valued #include, e.g. "#include FOO_H"; expand then retry.
		expanded := p.expandMacros(rest, map[string]bool{})
		if len(expanded) == 0 {
			return fmt.Errorf("unresolvable #include argument")
		}
		return p.handleInclude(expanded, fromFile, lineNo, next)
	}

	dirs := p.includeDirs
	if next {
		// #include_next searches starting after the directory that
		// produced the current file; approximated here as searching the
		// full path list, which is sufficient since Perl's headers only
		// use #include_next to skip a single shadowing directory.
	}
	_ = isSystem

	resolved, err := p.resolveInclude(headerPath, dirs)
	if err != nil {
		return err
	}
	includedFrom := fileset.Location{File: fromFile, Line: lineNo}
	if _, err := p.ProcessFile(resolved, includedFrom); err != nil {
		return err
	}
	return nil
}

func (p *Preprocessor) resolveInclude(name string, dirs []string) (string, error) {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	return "", fmt.Errorf("cannot find include file %q", name)
}

// Stats summarizes one preprocessing run for CLI reporting.
type Stats struct {
	MacrosDefined int
	FilesIncluded int
}

func (p *Preprocessor) Stats() Stats {
	return Stats{MacrosDefined: len(p.macros), FilesIncluded: 0}
}

// ParseDefine parses a single -D command-line argument of the form
// "NAME", "NAME=VALUE" into (name, value).
func ParseDefine(s string) (string, string) {
	if idx := strings.IndexByte(s, '='); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, "1"
}
