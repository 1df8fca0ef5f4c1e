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

// Package config loads a project's optional perlmacrogen.yaml, which
// lets a repeated run of the tool avoid respelling the same target
// directories, field-ownership overrides, cgo bindings path, embed.fnc
// path and output package on every invocation. Include paths and -D
// defines are not read from it; they come from the command line only.
// Nothing here is required: every field has a zero value that preserves
// the CLI's own flag-only behavior.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldOverride forces a struct field name to resolve to a single owning
// struct, overriding whatever internal/fields would otherwise infer (or
// failing to resolve at all, for a field name shared by several structs).
type FieldOverride struct {
	Field  string `yaml:"field"`
	Struct string `yaml:"struct"`
}

// Project is the parsed shape of perlmacrogen.yaml.
type Project struct {
	// TargetDirs lists source-tree directories (matched by
	// internal/fields.MatchesTargetDir) whose struct definitions seed the
	// field-ownership dictionary, e.g. ["/usr/include/perl5/CORE"].
	TargetDirs []string `yaml:"target_dirs"`
	// FieldsDir is an alias accepted alongside TargetDirs for readability
	// in hand-written configs; both are merged at load time.
	FieldsDir []string `yaml:"fields_dir"`
	// FieldOverrides lists field names whose owning struct is ambiguous
	// or wrongly inferred without help.
	FieldOverrides []FieldOverride `yaml:"field_overrides"`
	// BindingsPath is a pre-existing cgo bindings file (e.g. a prior
	// run's output) internal/godecl should parse for already-known
	// function signatures, used to seed inference's AssertedType.
	BindingsPath string `yaml:"bindings_path"`
	// EmbedFnc is the path to Perl's embed.fnc, the primary apidoc
	// source; when it and the --embed-fnc flag are both empty, no
	// embed.fnc is loaded.
	EmbedFnc string `yaml:"embed_fnc"`
	// OutputPackage names the Go package the generated wrappers belong
	// to; defaults to "perlapi" when empty.
	OutputPackage string `yaml:"output_package"`
}

// AllTargetDirs merges TargetDirs and FieldsDir, since both name the same
// concept under the two spellings users are likely to reach for.
func (p *Project) AllTargetDirs() []string {
	if len(p.FieldsDir) == 0 {
		return p.TargetDirs
	}
	return append(append([]string{}, p.TargetDirs...), p.FieldsDir...)
}

// Load reads and parses a perlmacrogen.yaml at path. A missing file is
// not an error — it returns a zero-value Project so the caller can fall
// back entirely on CLI flags.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &p, nil
}
