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

package preprocessor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkoba/perlmacrogen/internal/fileset"
)

func writeTempHeader(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestObjectMacroExpansion(t *testing.T) {
	dir := t.TempDir()
	path := writeTempHeader(t, dir, "a.h", "#define FOO 42\nint x = FOO;\n")

	p := New(Config{Files: fileset.NewSet()})
	toks, _, err := p.ProcessFile(path, fileset.Location{})
	require.NoError(t, err)

	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.Content)
	}
	assert.Contains(t, texts, "42")
	assert.NotContains(t, texts, "FOO")
}

func TestFunctionMacroExpansionAndStringize(t *testing.T) {
	dir := t.TempDir()
	path := writeTempHeader(t, dir, "a.h",
		"#define STR(x) #x\nchar *s = STR(hello);\n")

	p := New(Config{Files: fileset.NewSet()})
	toks, _, err := p.ProcessFile(path, fileset.Location{})
	require.NoError(t, err)

	found := false
	for _, tok := range toks {
		if tok.Content == `"hello"` {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPasteOperator(t *testing.T) {
	dir := t.TempDir()
	path := writeTempHeader(t, dir, "a.h",
		"#define CAT(a,b) a##b\nint CAT(foo,bar);\n")

	p := New(Config{Files: fileset.NewSet()})
	toks, _, err := p.ProcessFile(path, fileset.Location{})
	require.NoError(t, err)

	found := false
	for _, tok := range toks {
		if tok.Content == "foobar" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestConditionalCompilation(t *testing.T) {
	dir := t.TempDir()
	path := writeTempHeader(t, dir, "a.h",
		"#define FEATURE 1\n#if FEATURE\nint on;\n#else\nint off;\n#endif\n")

	p := New(Config{Files: fileset.NewSet()})
	toks, _, err := p.ProcessFile(path, fileset.Location{})
	require.NoError(t, err)

	var names []string
	for _, tok := range toks {
		names = append(names, tok.Content)
	}
	assert.Contains(t, names, "on")
	assert.NotContains(t, names, "off")
}

func TestRecursiveMacroDoesNotLoop(t *testing.T) {
	dir := t.TempDir()
	path := writeTempHeader(t, dir, "a.h", "#define A A + 1\nint x = A;\n")

	p := New(Config{Files: fileset.NewSet()})
	toks, _, err := p.ProcessFile(path, fileset.Location{})
	require.NoError(t, err)

	count := 0
	for _, tok := range toks {
		if tok.Content == "A" {
			count++
		}
	}
	assert.Equal(t, 1, count, "self-referential macro body keeps exactly one unexpanded occurrence of its own name")
}

func TestIncludeResolution(t *testing.T) {
	dir := t.TempDir()
	writeTempHeader(t, dir, "dep.h", "#define DEP_VALUE 7\n")
	main := writeTempHeader(t, dir, "main.h", `#include "dep.h"`+"\nint y = DEP_VALUE;\n")

	p := New(Config{IncludePaths: []string{dir}, Files: fileset.NewSet()})
	toks, _, err := p.ProcessFile(main, fileset.Location{})
	require.NoError(t, err)

	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.Content)
	}
	assert.Contains(t, texts, "7")
}
