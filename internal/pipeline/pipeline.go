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

// Package pipeline wires every stage together: preprocess, parse, build
// the field-ownership and apidoc dictionaries, classify and analyze
// macros, run type inference to a fixed point, and generate Go/cgo
// wrapper source. cmd/perlmacrogen's main is a thin flag-parsing shell
// around Run; the orchestration itself lives here so it can be tested
// without going through a binary.
package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hkoba/perlmacrogen/internal/apidoc"
	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/codegen"
	"github.com/hkoba/perlmacrogen/internal/cparser"
	"github.com/hkoba/perlmacrogen/internal/fields"
	"github.com/hkoba/perlmacrogen/internal/fileset"
	"github.com/hkoba/perlmacrogen/internal/godecl"
	"github.com/hkoba/perlmacrogen/internal/infer"
	"github.com/hkoba/perlmacrogen/internal/macroanalysis"
	"github.com/hkoba/perlmacrogen/internal/preprocessor"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

// Config is everything one Run needs. Every slice/map field may be left
// nil to fall back to "nothing known" rather than erroring.
type Config struct {
	InputPath     string
	IncludePaths  []string
	Defines       map[string]string
	EmbedFncPath  string // embed.fnc; empty skips apidoc-backed assertions entirely
	BindingsPath  string // existing cgo bindings file; empty skips godecl-backed assertions
	TargetDirs    []string
	// FieldOverrides forces an ambiguous or missing field name to resolve
	// to a specific struct, overriding whatever internal/fields would
	// otherwise infer from the parsed headers alone.
	FieldOverrides []FieldOverride
	OutputPackage  string // defaults to "perlapi"
}

// FieldOverride forces fieldName to resolve to structName regardless of
// how many (or how few) parsed structs actually declare it.
type FieldOverride struct {
	Field  string
	Struct string
}

// Stats summarizes one Run for CLI reporting.
type Stats struct {
	MacrosAnalyzed   int
	MacrosGenerated  int
	MacrosFailed     int
	InlineFuncsFound int
	StructsIndexed   int
	Infer            infer.Stats
}

// Result is Run's full output: the generated Go source plus diagnostics.
type Result struct {
	Source string
	Stats  Stats
}

// Run executes every stage in order and returns the generated source.
func Run(cfg Config) (*Result, error) {
	if cfg.OutputPackage == "" {
		cfg.OutputPackage = "perlapi"
	}

	files := fileset.NewSet()
	pp := preprocessor.New(preprocessor.Config{
		IncludePaths: cfg.IncludePaths,
		Defines:      cfg.Defines,
		Files:        files,
	})
	toks, fileID, err := pp.ProcessFile(cfg.InputPath, fileset.Location{})
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}

	tu, err := cparser.New(toks).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	_ = fileID // the root file; struct declarations are attributed via their own base.Location

	fieldsDict := fields.NewDict()
	var inlineFuncs []*ast.FuncDecl
	structsIndexed := 0
	for _, d := range tu.Decls {
		switch n := d.(type) {
		case *ast.StructDecl:
			if fields.MatchesTargetDir(files.Path(n.Pos().File), cfg.TargetDirs) {
				fieldsDict.AddStruct(n)
				structsIndexed++
			}
		case *ast.FuncDecl:
			if n.IsInline && n.Body != nil {
				inlineFuncs = append(inlineFuncs, n)
			}
		}
	}

	for _, o := range cfg.FieldOverrides {
		fieldsDict.ForceUnique(o.Field, fields.Owner{StructName: o.Struct})
	}

	apidocDict := apidoc.NewDict()
	if cfg.EmbedFncPath != "" {
		f, err := os.Open(cfg.EmbedFncPath)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", cfg.EmbedFncPath, err)
		}
		defer f.Close()
		loaded, _, err := apidoc.ParseEmbedFnc(f)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", cfg.EmbedFncPath, err)
		}
		apidocDict = loaded
	}

	bindings := godecl.NewDict()
	if cfg.BindingsPath != "" {
		loaded, err := godecl.ParseBindingsFile(cfg.BindingsPath)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", cfg.BindingsPath, err)
		}
		bindings = loaded
	}

	analyzer := &macroanalysis.Analyzer{
		ParamTypeOf:    paramTypeOf(apidocDict, bindings),
		NeedsContextOf: needsContextOf(apidocDict, bindings),
		FieldTypeOf:    fieldTypeOf(fieldsDict),
	}
	infos := analyzer.Analyze(pp.Macros())

	asserted := assertedType(apidocDict, bindings)
	sigs, inferStats := infer.Resolve(infos, asserted)

	gen := codegen.New()
	gen.CalleeNeedsContext = analyzer.NeedsContextOf
	for name, info := range infos {
		if info.Category == macroanalysis.CategoryConstant {
			gen.ConstantMacros[name] = info
		}
	}

	var source strings.Builder
	fmt.Fprintf(&source, "// Code generated by perlmacrogen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&source, "package %s\n\n", cfg.OutputPackage)
	source.WriteString("/*\n#include <EXTERN.h>\n#include <perl.h>\n*/\nimport \"C\"\nimport \"unsafe\"\n\n")

	stats := Stats{}
	stats.MacrosAnalyzed = len(infos)
	stats.Infer = inferStats
	stats.InlineFuncsFound = len(inlineFuncs)
	stats.StructsIndexed = structsIndexed

	usesTernary := false
	var fnFragments []string
	for _, name := range sortedMacroNames(infos) {
		info := infos[name]
		if info.Category != macroanalysis.CategoryExpression {
			continue // constants are hoisted separately; statement/unknown bodies are not wrapped
		}
		frag := gen.MacroToFunc(name, info, sigs[name])
		if frag.HasIssues() {
			stats.MacrosFailed++
			fnFragments = append(fnFragments, fmt.Sprintf("// FAILED: %s - %s\n// %s\n", name, frag.IssuesSummary(), info.BodyText))
			continue
		}
		stats.MacrosGenerated++
		usesTernary = usesTernary || frag.UsesTernary
		fnFragments = append(fnFragments, frag.Code)
	}
	for _, fn := range inlineFuncs {
		needs := fn.Name != "" && analyzer.NeedsContextOf != nil && func() bool {
			needs, known := analyzer.NeedsContextOf(fn.Name)
			return known && needs
		}()
		frag := gen.InlineFuncToFunc(fn, needs)
		if frag.HasIssues() {
			stats.MacrosFailed++
			fnFragments = append(fnFragments, fmt.Sprintf("// FAILED: %s - %s\n", fn.Name, frag.IssuesSummary()))
			continue
		}
		stats.MacrosGenerated++
		usesTernary = usesTernary || frag.UsesTernary
		fnFragments = append(fnFragments, frag.Code)
	}

	if usesTernary {
		source.WriteString(codegen.TernaryHelperSource())
		source.WriteString("\n")
	}
	for _, decl := range gen.SortedConstantDecls() {
		source.WriteString(decl)
		source.WriteString("\n")
	}
	if len(gen.ConstantMacros) > 0 {
		source.WriteString("\n")
	}
	for _, frag := range fnFragments {
		source.WriteString(frag)
		source.WriteString("\n")
	}

	return &Result{Source: source.String(), Stats: stats}, nil
}

func sortedMacroNames(infos map[string]*macroanalysis.Info) []string {
	names := make([]string, 0, len(infos))
	for n := range infos {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// paramTypeOf backs macroanalysis.Analyzer.ParamTypeOf: embed.fnc is
// consulted first since it is the canonical signature source, falling
// back to a hand-maintained cgo bindings file for functions embed.fnc
// never documents (mostly static inline helpers).
func paramTypeOf(apidocDict *apidoc.Dict, bindings *godecl.Dict) func(string, int) (unitype.Type, bool) {
	return func(name string, argIndex int) (unitype.Type, bool) {
		if entry, ok := apidocDict.Lookup(name); ok && argIndex < len(entry.Args) {
			return unitype.FromCString(entry.Args[argIndex].Type), true
		}
		if d, ok := bindings.Lookup(name); ok && argIndex < len(d.ParamTypes) {
			return cgoType(d.ParamTypes[argIndex]), true
		}
		return unitype.Type{}, false
	}
}

// fieldTypeOf backs macroanalysis.Analyzer.FieldTypeOf: a field name
// declared by exactly one parsed struct pins down the pointer type of
// whatever expression accesses it, even when that expression's own type is
// never asserted anywhere else (a macro parameter's only declaration is its
// name).
func fieldTypeOf(fieldsDict *fields.Dict) func(string) (unitype.Type, bool) {
	return func(fieldName string) (unitype.Type, bool) {
		owner, ok := fieldsDict.ResolveUnique(fieldName)
		if !ok {
			return unitype.Type{}, false
		}
		named := unitype.Type{Kind: unitype.Named, Name: owner.StructName}
		return unitype.Type{Kind: unitype.Pointer, Inner: &named}, true
	}
}

func needsContextOf(apidocDict *apidoc.Dict, bindings *godecl.Dict) func(string) (bool, bool) {
	return func(name string) (bool, bool) {
		if entry, ok := apidocDict.Lookup(name); ok {
			return entry.Flags.NeedsContext(), true
		}
		if d, ok := bindings.Lookup(name); ok {
			return d.TakesContext, true
		}
		return false, false
	}
}

// assertedType backs infer.AssertedType: embed.fnc's documented argument
// *names* are matched directly against a macro's own parameter names,
// since Perl's macro parameters are conventionally named after the
// underlying function's documented arguments (e.g. SvPV's macro
// parameter "sv" against embed.fnc's "sv" argument for the Perl_SvPV
// function it wraps).
func assertedType(apidocDict *apidoc.Dict, bindings *godecl.Dict) infer.AssertedType {
	return func(name, paramName string) (unitype.Type, bool) {
		entry, ok := apidocDict.Lookup(name)
		if ok {
			if paramName == "" {
				return unitype.FromCString(entry.ReturnType), true
			}
			for _, arg := range entry.Args {
				if arg.Name == paramName {
					return unitype.FromCString(arg.Type), true
				}
			}
		}
		if d, ok := bindings.Lookup(name); ok {
			if paramName == "" && len(d.ResultTypes) == 1 {
				return cgoType(d.ResultTypes[0]), true
			}
		}
		return unitype.Type{}, false
	}
}

// cgoType converts a cgo type spelling recorded by internal/godecl
// ("*C.SV", "C.int", "unsafe.Pointer") to a unitype.Type.
func cgoType(goType string) unitype.Type {
	base := strings.TrimLeft(goType, "*")
	stars := len(goType) - len(base)
	base = strings.TrimPrefix(base, "C.")
	if base == "unsafe.Pointer" {
		base, stars = "void", stars+1
	}
	return unitype.FromCString(base + strings.Repeat(" *", stars))
}
