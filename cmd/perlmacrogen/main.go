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

// Command perlmacrogen reads a C header (after running it through its own
// preprocessor), analyzes every macro and static inline function it
// defines, and emits a Go/cgo source file wrapping each as a callable Go
// function.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/config"
	"github.com/hkoba/perlmacrogen/internal/cparser"
	"github.com/hkoba/perlmacrogen/internal/fields"
	"github.com/hkoba/perlmacrogen/internal/fileset"
	"github.com/hkoba/perlmacrogen/internal/hostconfig"
	"github.com/hkoba/perlmacrogen/internal/pipeline"
	"github.com/hkoba/perlmacrogen/internal/preprocessor"
)

// repeatedFlag accumulates every occurrence of a flag.Var-backed flag,
// e.g. "-I a -I b" into []string{"a", "b"}.
type repeatedFlag struct {
	values []string
}

func (r *repeatedFlag) String() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.values, ",")
}

func (r *repeatedFlag) Set(value string) error {
	r.values = append(r.values, value)
	return nil
}

func main() {
	var includePaths, defines, fieldsDirs repeatedFlag
	flag.Var(&includePaths, "I", "additional include path (repeatable)")
	flag.Var(&defines, "D", "preprocessor define NAME or NAME=VALUE (repeatable)")
	flag.Var(&fieldsDirs, "fields-dir", "directory glob restricting struct field collection (repeatable)")
	output := flag.String("o", "", "output file path (default: stdout)")
	auto := flag.Bool("auto", false, "probe the host perl's own Config.pm for include paths and defines")
	embedFnc := flag.String("embed-fnc", "", "path to perl's embed.fnc, used as the canonical function signature source")
	bindings := flag.String("bindings", "", "path to an existing cgo bindings .go file, consulted for signatures embed.fnc omits")
	configPath := flag.String("config", "", "path to a perlmacrogen.yaml project file (default: ./perlmacrogen.yaml if present)")
	outputPackage := flag.String("output-package", "", "package name for the generated file (default: perlapi, or the config file's output_package)")
	dumpFieldsDict := flag.Bool("dump-fields-dict", false, "print the struct field-ownership dictionary instead of generating code")
	analyzeMacros := flag.Bool("analyze-macros", false, "print each macro's classification and inferred signature instead of generating code")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("exactly one input file is required")
	}
	input := flag.Arg(0)

	projectPath := *configPath
	if projectPath == "" {
		projectPath = "perlmacrogen.yaml"
	}
	project, err := config.Load(projectPath)
	if err != nil {
		log.Fatalf("loading %s: %v", projectPath, err)
	}

	cfg := pipeline.Config{
		InputPath:      input,
		IncludePaths:   includePaths.values,
		Defines:        mergeDefines(defines.values),
		EmbedFncPath:   firstNonEmpty(*embedFnc, project.EmbedFnc),
		BindingsPath:   firstNonEmpty(*bindings, project.BindingsPath),
		TargetDirs:     append(append([]string{}, project.AllTargetDirs()...), fieldsDirs.values...),
		FieldOverrides: fieldOverridesFrom(project.FieldOverrides),
		OutputPackage:  firstNonEmpty(*outputPackage, project.OutputPackage),
	}

	if *auto {
		if len(includePaths.values) > 0 {
			log.Fatalf("--auto cannot be combined with -I")
		}
		hc, err := hostconfig.Probe()
		if err != nil {
			log.Fatalf("probing host perl configuration: %v", err)
		}
		cfg.IncludePaths = hc.IncludePaths
		if cfg.Defines == nil {
			cfg.Defines = make(map[string]string)
		}
		for _, d := range hc.Defines {
			if d.Value != nil {
				cfg.Defines[d.Name] = *d.Value
			} else {
				cfg.Defines[d.Name] = "1"
			}
		}
	}

	if *dumpFieldsDict {
		runDumpFieldsDict(cfg)
		return
	}
	if *analyzeMacros {
		runAnalyzeMacros(cfg)
		return
	}

	result, err := pipeline.Run(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("creating %s: %v", *output, err)
		}
		defer f.Close()
		out = f
	}
	if _, err := out.WriteString(result.Source); err != nil {
		log.Fatalf("writing output: %v", err)
	}
	fmt.Fprintf(os.Stderr, "perlmacrogen: %d macros analyzed, %d generated, %d failed, %d inline functions, %d structs indexed\n",
		result.Stats.MacrosAnalyzed, result.Stats.MacrosGenerated, result.Stats.MacrosFailed,
		result.Stats.InlineFuncsFound, result.Stats.StructsIndexed)
}

func mergeDefines(raw []string) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for _, d := range raw {
		if name, value, ok := strings.Cut(d, "="); ok {
			out[name] = value
		} else {
			out[d] = "1"
		}
	}
	return out
}

func fieldOverridesFrom(overrides []config.FieldOverride) []pipeline.FieldOverride {
	if len(overrides) == 0 {
		return nil
	}
	out := make([]pipeline.FieldOverride, len(overrides))
	for i, o := range overrides {
		out[i] = pipeline.FieldOverride{Field: o.Field, Struct: o.Struct}
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// runDumpFieldsDict runs only the preprocess/parse stages and prints the
// struct field-ownership dictionary, for inspecting why a given field
// name does or doesn't resolve uniquely before running the full pipeline.
func runDumpFieldsDict(cfg pipeline.Config) {
	files := fileset.NewSet()
	pp := preprocessor.New(preprocessor.Config{
		IncludePaths: cfg.IncludePaths,
		Defines:      cfg.Defines,
		Files:        files,
	})
	toks, _, err := pp.ProcessFile(cfg.InputPath, fileset.Location{})
	if err != nil {
		log.Fatalf("%v", err)
	}
	tu, err := cparser.New(toks).Parse()
	if err != nil {
		log.Fatalf("%v", err)
	}

	dict := fields.NewDict()
	var structs []*ast.StructDecl
	for _, d := range tu.Decls {
		if sd, ok := d.(*ast.StructDecl); ok {
			dict.AddStruct(sd)
			structs = append(structs, sd)
		}
	}
	for _, sd := range structs {
		if sd.Name == "" || sd.Opaque {
			continue
		}
		fmt.Printf("struct %s\n", sd.Name)
		for _, f := range sd.Fields {
			if f.Name == "" {
				continue
			}
			owners := dict.Owners(f.Name)
			unique := ""
			if len(owners) > 1 {
				unique = " (ambiguous)"
			}
			fmt.Printf("  %s%s\n", f.Name, unique)
		}
	}
}

func runAnalyzeMacros(cfg pipeline.Config) {
	result, err := pipeline.Run(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("macros analyzed:  %d\n", result.Stats.MacrosAnalyzed)
	fmt.Printf("macros generated: %d\n", result.Stats.MacrosGenerated)
	fmt.Printf("macros failed:    %d\n", result.Stats.MacrosFailed)
	fmt.Printf("inline functions: %d\n", result.Stats.InlineFuncsFound)
	fmt.Printf("structs indexed:  %d\n", result.Stats.StructsIndexed)
	fmt.Printf("inference passes: %d (resolved %d, pending %d)\n",
		result.Stats.Infer.Iterations, result.Stats.Infer.Resolved, result.Stats.Infer.Pending)
}
