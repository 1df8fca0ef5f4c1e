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

// Package godecl reads an existing cgo bindings file (the kind a tool
// like c-for-go emits, or a hand-maintained package with "// #cgo"
// preamble) and records which functions it already declares. The
// pipeline consults it for parameter and result types of functions
// embed.fnc does not document, and for whether a function takes the Perl
// interpreter context, recognized by parameter name (see
// contextParamNames). Wrappers are still generated for names the
// bindings file already declares.
package godecl

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// Decl is one function declaration recovered from a bindings file.
type Decl struct {
	Name         string
	ParamTypes   []string // as written, e.g. "*C.SV", "C.int"
	ResultTypes  []string
	TakesContext bool
}

// Dict indexes declarations by name.
type Dict struct {
	entries map[string]*Decl
}

// NewDict returns an empty declaration dictionary.
func NewDict() *Dict {
	return &Dict{entries: make(map[string]*Decl)}
}

// Lookup returns the declaration for name, if the bindings file already
// declares it.
func (d *Dict) Lookup(name string) (*Decl, bool) {
	e, ok := d.entries[name]
	return e, ok
}

// Len reports how many declarations were recovered.
func (d *Dict) Len() int { return len(d.entries) }

// contextParamNames are the conventional spellings, in lower case, of an
// interpreter-context parameter name (matched case-insensitively, at any
// position in the parameter list) this tool recognizes when deciding
// whether an existing declaration already threads THX, so the generator
// does not double up a context parameter when extending a file that uses
// a slightly different identifier for it.
var contextParamNames = map[string]bool{
	"my_perl":     true,
	"athx":        true,
	"interpreter": true,
	"perl":        true,
}

// ParseBindingsFile parses the Go source at path and returns every
// top-level function declaration whose parameter or result list mentions
// a "C." qualified type (the signal that it is a cgo wrapper, as opposed
// to an unrelated helper function in the same package).
func ParseBindingsFile(path string) (*Dict, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse bindings file %s: %w", path, err)
	}

	dict := NewDict()
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil {
			continue
		}
		entry := &Decl{Name: fn.Name.Name}
		if fn.Type.Params != nil {
			for _, field := range fn.Type.Params.List {
				typ := exprString(field.Type)
				n := len(field.Names)
				if n == 0 {
					n = 1
				}
				for i := 0; i < n; i++ {
					entry.ParamTypes = append(entry.ParamTypes, typ)
				}
				if len(field.Names) > 0 && contextParamNames[strings.ToLower(field.Names[0].Name)] {
					entry.TakesContext = true
				}
			}
		}
		if fn.Type.Results != nil {
			for _, field := range fn.Type.Results.List {
				entry.ResultTypes = append(entry.ResultTypes, exprString(field.Type))
			}
		}
		if !mentionsCgoType(entry) {
			continue
		}
		dict.entries[entry.Name] = entry
	}
	return dict, nil
}

func mentionsCgoType(d *Decl) bool {
	for _, t := range d.ParamTypes {
		if strings.Contains(t, "C.") {
			return true
		}
	}
	for _, t := range d.ResultTypes {
		if strings.Contains(t, "C.") {
			return true
		}
	}
	return false
}

// exprString renders a type expression back to source text without
// needing a full go/printer pass, covering the shapes cgo signatures
// actually use: identifiers, selector expressions ("C.SV"), pointers,
// and arrays/slices.
func exprString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.StarExpr:
		return "*" + exprString(e.X)
	case *ast.ArrayType:
		if e.Len == nil {
			return "[]" + exprString(e.Elt)
		}
		return "[...]" + exprString(e.Elt)
	default:
		return fmt.Sprintf("%T", expr)
	}
}
