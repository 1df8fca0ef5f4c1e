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

// Package fields builds the reverse index from struct/union field name to
// the set of struct types that declare it. The macro analyzer and
// inference engine use this to recover the type of an expression like
// "x->sv_flags" when x's own type is unknown: if sv_flags is declared by
// exactly one struct across every parsed header, x must be a pointer to
// that struct.
package fields

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/collections"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

// Owner is one struct/union that declares a given field.
type Owner struct {
	StructName string
	FieldType  unitype.Type
}

// Dict is the field-name -> owning-structs reverse index.
type Dict struct {
	byField map[string]collections.Set[Owner]
	// forcedUnique overrides ambiguous or missing resolution for specific
	// field names, e.g. when a header defines the same field name on two
	// structs but the tool's caller knows from context which one is meant.
	forcedUnique map[string]Owner
}

// NewDict returns an empty field dictionary.
func NewDict() *Dict {
	return &Dict{
		byField:      make(map[string]collections.Set[Owner]),
		forcedUnique: make(map[string]Owner),
	}
}

// AddStruct registers every field of decl (a parsed struct or union) into
// the dictionary, including fields promoted from an anonymous nested
// struct/union member so "x->field" resolves even when field lives inside
// an anonymous sub-aggregate.
func (d *Dict) AddStruct(decl *ast.StructDecl) {
	if decl.Opaque || decl.Name == "" {
		return
	}
	d.addFields(decl.Name, decl.Fields)
}

func (d *Dict) addFields(structName string, fields []ast.StructField) {
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		owner := Owner{StructName: structName, FieldType: f.Type}
		set, ok := d.byField[f.Name]
		if !ok {
			set = collections.SetOf[Owner]()
			d.byField[f.Name] = set
		}
		set.Add(owner)
	}
}

// ForceUnique overrides resolution of fieldName to always report owner,
// regardless of how many structs actually declare it.
func (d *Dict) ForceUnique(fieldName string, owner Owner) {
	d.forcedUnique[fieldName] = owner
}

// ResolveUnique returns the single struct that declares fieldName, if
// fieldName is declared by exactly one struct (or has a forced-unique
// override). Returns ok=false if the field is unknown or ambiguous.
func (d *Dict) ResolveUnique(fieldName string) (Owner, bool) {
	if o, ok := d.forcedUnique[fieldName]; ok {
		return o, true
	}
	set, ok := d.byField[fieldName]
	if !ok {
		return Owner{}, false
	}
	values := set.Values()
	if len(values) != 1 {
		return Owner{}, false
	}
	return values[0], true
}

// Owners returns every struct known to declare fieldName, for diagnostics
// that want to report an ambiguity rather than silently picking one.
func (d *Dict) Owners(fieldName string) []Owner {
	set, ok := d.byField[fieldName]
	if !ok {
		return nil
	}
	return set.Values()
}

// MatchesTargetDir reports whether relPath should be scanned for field
// declarations under the configured target-directory glob patterns, e.g.
// "*.h" or "CORE/**/*.h". An empty pattern list matches everything.
func MatchesTargetDir(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, relPath); ok {
			return true
		}
	}
	return false
}
