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

package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hkoba/perlmacrogen/internal/ast"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

func TestResolveUniqueField(t *testing.T) {
	d := NewDict()
	d.AddStruct(&ast.StructDecl{
		Name: "hv",
		Fields: []ast.StructField{
			{Name: "xhv_fill", Type: unitype.FromCString("U32")},
		},
	})

	owner, ok := d.ResolveUnique("xhv_fill")
	assert.True(t, ok)
	assert.Equal(t, "hv", owner.StructName)
}

func TestAmbiguousFieldIsNotUnique(t *testing.T) {
	d := NewDict()
	d.AddStruct(&ast.StructDecl{Name: "hv", Fields: []ast.StructField{{Name: "flags", Type: unitype.FromCString("U32")}}})
	d.AddStruct(&ast.StructDecl{Name: "sv", Fields: []ast.StructField{{Name: "flags", Type: unitype.FromCString("U32")}}})

	_, ok := d.ResolveUnique("flags")
	assert.False(t, ok)
	assert.Len(t, d.Owners("flags"), 2)
}

func TestForceUniqueOverridesAmbiguity(t *testing.T) {
	d := NewDict()
	d.AddStruct(&ast.StructDecl{Name: "hv", Fields: []ast.StructField{{Name: "flags", Type: unitype.FromCString("U32")}}})
	d.AddStruct(&ast.StructDecl{Name: "sv", Fields: []ast.StructField{{Name: "flags", Type: unitype.FromCString("U32")}}})
	d.ForceUnique("flags", Owner{StructName: "sv", FieldType: unitype.FromCString("U32")})

	owner, ok := d.ResolveUnique("flags")
	assert.True(t, ok)
	assert.Equal(t, "sv", owner.StructName)
}

func TestMatchesTargetDir(t *testing.T) {
	assert.True(t, MatchesTargetDir("CORE/hv.h", []string{"CORE/**/*.h", "CORE/*.h"}))
	assert.False(t, MatchesTargetDir("vendor/zlib.h", []string{"CORE/*.h"}))
	assert.True(t, MatchesTargetDir("anything.h", nil))
}
