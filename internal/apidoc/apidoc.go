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

// Package apidoc parses Perl's embed.fnc API-documentation format, the
// pipe-delimited table (and the "=for apidoc"/"=for apidoc_item" header
// comment blocks that accompany it in perlapi.pod) describing every
// public function Perl's own documentation build knows about. The macro
// analyzer and inference engine consult the resulting Dict as an
// authoritative source of parameter/return types and nullability that
// cannot always be recovered from a macro's body alone.
package apidoc

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Nullability records whether an argument may be NULL, and why the author
// believes so, as indicated by embed.fnc's NN/NULLOK/NZ argument prefixes.
type Nullability int

const (
	// Unspecified means embed.fnc gave no explicit nullability prefix.
	Unspecified Nullability = iota
	// NotNull corresponds to the "NN" prefix: the argument must never be NULL.
	NotNull
	// Nullable corresponds to the "NULLOK" prefix: NULL is a valid input.
	Nullable
	// NonZero corresponds to the "NZ" prefix, used on integer arguments
	// that must not be zero (e.g. a divisor or a length used as a count).
	NonZero
)

// Arg is one parsed argument from an embed.fnc row.
type Arg struct {
	Type        string
	Name        string
	Nullability Nullability
}

// Flags decodes the single-character flag column of an embed.fnc row.
// Most flags are independent booleans; a handful imply another flag per
// Flags.applyImplications, mirroring embed.fnc's own documented
// conventions (both a "pure" ('a') and a "P" function imply 'R', a return
// value that is never NULL).
type Flags struct {
	set map[byte]bool
}

// Known flag letters. This is not an exhaustive transcription of every
// letter embed.fnc has ever used, but covers the set that changes how
// this tool treats a declaration: public-API membership, context
// (THX) requirements, constness, experimental status, and
// return-value nullability.
const (
	FlagPublicAPI       = 'A' // part of the public API (exported from libperl)
	FlagHasMacro        = 'C' // a same-named macro wrapper also exists
	FlagExperimental    = 'X' // experimental, may change or vanish
	FlagNoContext       = 'n' // does not need a PerlInterpreter/THX context
	FlagReturnNeverNull = 'R' // return value is never NULL; callers need not check
	FlagMayChange       = 'M' // signature/behavior may change between Perl releases
	FlagPure            = 'a' // pure function with no visible side effects; implies R
	FlagProtoNoOverride = 'P' // prototype may not be overridden by XS; implies R
	FlagStaticLinkage   = 's' // static linkage, not exported
	FlagUtility         = 'u' // utility function, not part of the documented API surface
)

// implications lists flag => flag rules applied when a row is parsed, so
// that callers can query the implied flag without re-deriving it.
var implications = map[byte]byte{
	FlagPure:           FlagReturnNeverNull,
	FlagProtoNoOverride: FlagReturnNeverNull,
}

func newFlags(raw string) Flags {
	f := Flags{set: make(map[byte]bool, len(raw))}
	for i := 0; i < len(raw); i++ {
		f.set[raw[i]] = true
	}
	for from, to := range implications {
		if f.set[from] {
			f.set[to] = true
		}
	}
	return f
}

// Has reports whether flag letter c was present (directly or via
// implication) on this entry.
func (f Flags) Has(c byte) bool {
	return f.set[c]
}

// Letters returns every flag letter set on f, sorted, for display or
// serialization (e.g. embedfnc2json's JSON export).
func (f Flags) Letters() string {
	letters := make([]byte, 0, len(f.set))
	for c := range f.set {
		letters = append(letters, c)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return string(letters)
}

// NeedsContext reports whether the function requires the Perl interpreter
// context (the "aTHX" convention) to be threaded in by the code generator.
// embed.fnc marks context-free functions with 'n'; everything else is
// assumed to need it, matching Perl's own "most API calls take the
// interpreter unless explicitly marked otherwise" convention.
func (f Flags) NeedsContext() bool {
	return !f.Has(FlagNoContext)
}

// Entry is one parsed embed.fnc row (or "=for apidoc" block) describing a
// function's full signature and flags.
type Entry struct {
	Name        string
	Flags       Flags
	ReturnType  string
	Args        []Arg
	Description string
}

// Dict is the full parsed table, keyed by function name.
type Dict struct {
	entries map[string]*Entry
}

// Stats summarizes one parse for CLI reporting.
type Stats struct {
	Loaded  int
	Skipped int
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{entries: make(map[string]*Entry)}
}

// Lookup returns the parsed entry for name, if any.
func (d *Dict) Lookup(name string) (*Entry, bool) {
	e, ok := d.entries[name]
	return e, ok
}

// Len returns the number of entries loaded.
func (d *Dict) Len() int { return len(d.entries) }

// All returns every entry, sorted by name, for callers that need to
// enumerate the whole dictionary (e.g. serializing it to JSON).
func (d *Dict) All() []*Entry {
	names := make([]string, 0, len(d.entries))
	for name := range d.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Entry, len(names))
	for i, name := range names {
		out[i] = d.entries[name]
	}
	return out
}

// ParseEmbedFnc parses the pipe-delimited embed.fnc table format:
//
//	FLAGS|RETURN_TYPE|NAME|ARG1|ARG2|...
//
// Lines starting with ": " are comments and skipped; a trailing backslash
// continues a row onto the next line. Blank lines and lines that don't
// contain the separator are skipped, matching embed.fnc's own tolerance
// for stray blank/documentation lines interspersed in the table.
func ParseEmbedFnc(r io.Reader) (*Dict, Stats, error) {
	dict := NewDict()
	stats := Stats{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ": ") || strings.TrimSpace(line) == "" {
			continue
		}
		trimmed := strings.TrimRight(line, " \t")
		if strings.HasSuffix(trimmed, "\\") {
			pending.WriteString(strings.TrimSuffix(trimmed, "\\"))
			continue
		}
		pending.WriteString(trimmed)
		full := pending.String()
		pending.Reset()

		if !strings.Contains(full, "|") {
			continue
		}
		entry, err := parseEmbedFncRow(full)
		if err != nil {
			stats.Skipped++
			continue
		}
		dict.entries[entry.Name] = entry
		stats.Loaded++
	}
	if err := scanner.Err(); err != nil {
		return dict, stats, fmt.Errorf("reading embed.fnc: %w", err)
	}
	return dict, stats, nil
}

func parseEmbedFncRow(line string) (*Entry, error) {
	fields := strings.Split(line, "|")
	if len(fields) < 3 {
		return nil, fmt.Errorf("embed.fnc row has too few fields: %q", line)
	}
	flags := newFlags(strings.TrimSpace(fields[0]))
	returnType := strings.TrimSpace(fields[1])
	name := strings.TrimSpace(fields[2])
	if name == "" {
		return nil, fmt.Errorf("embed.fnc row has no name: %q", line)
	}

	entry := &Entry{Name: name, Flags: flags, ReturnType: returnType}
	for _, raw := range fields[3:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		entry.Args = append(entry.Args, parseArgString(raw))
	}
	return entry, nil
}

// typeOnlyTokens lists argument-string tokens that denote a bare type or
// syntactic placeholder with no following parameter name, so the
// name/type splitter does not mistake the token itself for a name.
var typeOnlyTokens = map[string]bool{
	"...":    true,
	"type":   true,
	"cast":   true,
	"block":  true,
	"number": true,
	"token":  true,
}

// parseArgString parses one embed.fnc argument field, e.g. "NN SV* sv",
// "NULLOK const char* const name", "NN I32 len", or bare tokens like
// "...". Nullability prefixes NN/NULLOK/NZ are stripped first; the
// remaining text is split into type and trailing name by taking the
// last whitespace-separated identifier as the name, unless the whole
// string is one of typeOnlyTokens or ends in '*' (indicating the name
// was omitted and only a type was given).
func parseArgString(raw string) Arg {
	nullability := Unspecified
	switch {
	case strings.HasPrefix(raw, "NULLOK "):
		nullability = Nullable
		raw = strings.TrimPrefix(raw, "NULLOK ")
	case strings.HasPrefix(raw, "NN "):
		nullability = NotNull
		raw = strings.TrimPrefix(raw, "NN ")
	case strings.HasPrefix(raw, "NZ "):
		nullability = NonZero
		raw = strings.TrimPrefix(raw, "NZ ")
	}
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, `"`) || typeOnlyTokens[raw] {
		return Arg{Type: raw, Nullability: nullability}
	}

	fields := strings.Fields(raw)
	if len(fields) <= 1 {
		return Arg{Type: raw, Nullability: nullability}
	}
	last := fields[len(fields)-1]
	if strings.HasSuffix(last, "*") || isTypeKeyword(last) {
		return Arg{Type: raw, Nullability: nullability}
	}
	name := last
	typ := strings.TrimSpace(strings.TrimSuffix(raw, last))
	return Arg{Type: typ, Name: name, Nullability: nullability}
}

var typeKeywords = map[string]bool{
	"void": true, "int": true, "char": true, "long": true, "short": true,
	"unsigned": true, "signed": true, "double": true, "float": true,
	"const": true,
}

func isTypeKeyword(s string) bool {
	return typeKeywords[s]
}

// ParseApidocBlocks extracts "=for apidoc name" / "=for apidoc_item name"
// header-comment blocks from a C source file's comments, which document
// functions (including static inline ones) that never appear in
// embed.fnc at all. Each block's following comment lines up to the next
// blank line or "=cut"/"=for" become the entry's Description.
func ParseApidocBlocks(source string) []*Entry {
	var entries []*Entry
	lines := strings.Split(source, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		isHeader := strings.HasPrefix(line, "=for apidoc_item ") || strings.HasPrefix(line, "=for apidoc ")
		if !isHeader {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "=for apidoc_item"), "=for apidoc"))
		name = strings.TrimPrefix(name, " ")
		if name == "" {
			continue
		}
		// A signature-like header ("name(args)") keeps only the identifier.
		if idx := strings.IndexByte(name, '('); idx >= 0 {
			name = name[:idx]
		}
		var desc []string
		for j := i + 1; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" || strings.HasPrefix(next, "=") {
				break
			}
			desc = append(desc, next)
		}
		entries = append(entries, &Entry{Name: name, Description: strings.Join(desc, " ")})
	}
	return entries
}

// Merge adds entries (as from ParseApidocBlocks) into d, not overwriting
// an existing embed.fnc-sourced entry's Flags/ReturnType/Args with a
// documentation-only stub, but filling in Description when it was empty.
func (d *Dict) Merge(entries []*Entry) {
	for _, e := range entries {
		existing, ok := d.entries[e.Name]
		if !ok {
			d.entries[e.Name] = e
			continue
		}
		if existing.Description == "" {
			existing.Description = e.Description
		}
	}
}
