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

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunGeneratesWrapperForSimpleMacro(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "sv.h")
	writeFile(t, header, `
#define SvTYPE(sv) ((sv)->sv_flags)
`)

	embedFnc := filepath.Join(dir, "embed.fnc")
	writeFile(t, embedFnc, "An\t|svtype\t|SvTYPE\t|NN SV* sv\n")

	result, err := Run(Config{
		InputPath:    header,
		EmbedFncPath: embedFnc,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Source, "package perlapi")
	assert.Contains(t, result.Source, "func SvTYPE(sv *C.SV) C.svtype")
	assert.Equal(t, 2, result.Stats.MacrosAnalyzed) // SvTYPE plus the predefined __STDC__
	assert.Equal(t, 1, result.Stats.MacrosGenerated)
	assert.Equal(t, 0, result.Stats.MacrosFailed)
}

func TestRunWithoutEmbedFncStillGeneratesUnsafePointerFallback(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "mystery.h")
	writeFile(t, header, `
#define TakeIt(x) (x)
`)

	result, err := Run(Config{InputPath: header})
	require.NoError(t, err)
	assert.Contains(t, result.Source, "func TakeIt(x unsafe.Pointer) unsafe.Pointer")
	assert.Equal(t, 1, result.Stats.MacrosGenerated)
}

func TestRunFieldAccessHintsParamFromStructDecl(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "perl.h")
	writeFile(t, header, `
struct sv {
	int sv_flags;
};
#define SvFLAGS(sv) ((sv)->sv_flags)
`)

	result, err := Run(Config{InputPath: header})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.StructsIndexed)
	assert.Contains(t, result.Source, "func SvFLAGS(sv *C.sv) C.int")
}

func TestRunReportsFailedMacroAsComment(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "weird.h")
	writeFile(t, header, `
#define POSTINC(x) (x++)
`)

	result, err := Run(Config{InputPath: header})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.MacrosFailed)
	assert.Contains(t, result.Source, "// FAILED: POSTINC")
}

func TestRunDefaultsOutputPackage(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "empty.h")
	writeFile(t, header, "\n")

	result, err := Run(Config{InputPath: header})
	require.NoError(t, err)
	assert.Contains(t, result.Source, "package perlapi")
}

func TestRunMissingInputFileErrors(t *testing.T) {
	_, err := Run(Config{InputPath: filepath.Join(t.TempDir(), "nope.h")})
	assert.Error(t, err)
}
