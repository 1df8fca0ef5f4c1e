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

package unitype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromCStringPrimitives(t *testing.T) {
	assert.Equal(t, Type{Kind: Void}, FromCString("void"))
	assert.Equal(t, Type{Kind: Int, Signed: true, Size: SizeInt}, FromCString("int"))
	assert.Equal(t, Type{Kind: Int, Signed: false, Size: SizeLong}, FromCString("unsigned long"))
	assert.Equal(t, Type{Kind: Char, Signed: true}, FromCString("char"))
}

func TestFromCStringPointer(t *testing.T) {
	got := FromCString("const char *")
	assert.True(t, got.IsPointer())
	assert.True(t, got.IsConst)
	inner, ok := got.InnerType()
	assert.True(t, ok)
	assert.Equal(t, Type{Kind: Char, Signed: true}, inner)
}

func TestFromCStringNamedPointer(t *testing.T) {
	got := FromCString("HV *")
	assert.True(t, got.IsPointer())
	inner, _ := got.InnerType()
	name, ok := inner.AsNamed()
	assert.True(t, ok)
	assert.Equal(t, "HV", name)
}

func TestToCStringRoundTrip(t *testing.T) {
	for _, s := range []string{"void", "int", "unsigned long", "char"} {
		assert.Equal(t, s, FromCString(s).ToCString())
	}
}

func TestToGoString(t *testing.T) {
	assert.Equal(t, "*C.SV", FromCString("SV *").ToGoString())
	assert.Equal(t, "C.int", FromCString("int").ToGoString())
	assert.Equal(t, "C.ulong", FromCString("unsigned long").ToGoString())
}

func TestEqualsIgnoringConst(t *testing.T) {
	a := FromCString("const char *")
	b := FromCString("char *")
	assert.False(t, a.Equals(b))
	assert.True(t, a.EqualsIgnoringConst(b))
}

func TestEqualsIgnoringCase(t *testing.T) {
	a := FromCString("SV *")
	b := FromCString("Sv *")
	assert.False(t, a.Equals(b))
	assert.True(t, a.EqualsIgnoringCase(b))
}

func TestArrayType(t *testing.T) {
	got := FromCString("char[8]")
	assert.Equal(t, Array, got.Kind)
	assert.Equal(t, 8, got.ArrayLen)
}

func TestUnknownIsZeroValue(t *testing.T) {
	var z Type
	assert.Equal(t, Unknown, z.Kind)
	assert.Equal(t, Unknown, FromCString("").Kind)
}
