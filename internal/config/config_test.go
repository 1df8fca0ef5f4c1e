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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Empty(t, p.TargetDirs)
	assert.Empty(t, p.BindingsPath)
}

func TestLoadParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "perlmacrogen.yaml")
	content := `
target_dirs:
  - /usr/lib64/perl5/CORE
field_overrides:
  - field: sv_flags
    struct: sv
bindings_path: perlapi_bindings.go
output_package: perlapi
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/lib64/perl5/CORE"}, p.TargetDirs)
	require.Len(t, p.FieldOverrides, 1)
	assert.Equal(t, "sv_flags", p.FieldOverrides[0].Field)
	assert.Equal(t, "sv", p.FieldOverrides[0].Struct)
	assert.Equal(t, "perlapi_bindings.go", p.BindingsPath)
	assert.Equal(t, "perlapi", p.OutputPackage)
}

func TestAllTargetDirsMergesFieldsDirAlias(t *testing.T) {
	p := &Project{TargetDirs: []string{"a"}, FieldsDir: []string{"b", "c"}}
	assert.Equal(t, []string{"a", "b", "c"}, p.AllTargetDirs())
}

func TestAllTargetDirsNoFieldsDir(t *testing.T) {
	p := &Project{TargetDirs: []string{"a"}}
	assert.Equal(t, []string{"a"}, p.AllTargetDirs())
}
