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

package hostconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleDefineBare(t *testing.T) {
	d := parseSingleDefine("FOO")
	assert.Equal(t, "FOO", d.Name)
	assert.Nil(t, d.Value)
}

func TestParseSingleDefineWithValue(t *testing.T) {
	d := parseSingleDefine("FOO=1")
	assert.Equal(t, "FOO", d.Name)
	require.NotNil(t, d.Value)
	assert.Equal(t, "1", *d.Value)
}

func TestParseSingleDefineGnucVersion(t *testing.T) {
	d := parseSingleDefine("__GNUC__=15")
	assert.Equal(t, "__GNUC__", d.Name)
	require.NotNil(t, d.Value)
	assert.Equal(t, "15", *d.Value)
}

func TestParseCppsymbolsSimple(t *testing.T) {
	result := parseCppsymbols("FOO=1 BAR=2 BAZ")
	require.Len(t, result, 3)
	assert.Equal(t, "FOO", result[0].Name)
	assert.Equal(t, "1", *result[0].Value)
	assert.Equal(t, "BAR", result[1].Name)
	assert.Equal(t, "2", *result[1].Value)
	assert.Equal(t, "BAZ", result[2].Name)
	assert.Nil(t, result[2].Value)
}

func TestParseCppsymbolsWithEscapedSpace(t *testing.T) {
	symbols := `__VERSION__="15.1.1\ 20250521" FOO=1`
	result := parseCppsymbols(symbols)
	require.Len(t, result, 2)
	assert.Equal(t, "__VERSION__", result[0].Name)
	assert.Equal(t, `"15.1.1 20250521"`, *result[0].Value)
	assert.Equal(t, "FOO", result[1].Name)
	assert.Equal(t, "1", *result[1].Value)
}

func TestParseIncpth(t *testing.T) {
	incpth := "/usr/lib/gcc/x86_64-redhat-linux/15/include /usr/local/include /usr/include"
	result := parseIncpth(incpth)
	require.Len(t, result, 3)
	assert.Equal(t, "/usr/lib/gcc/x86_64-redhat-linux/15/include", result[0])
	assert.Equal(t, "/usr/local/include", result[1])
	assert.Equal(t, "/usr/include", result[2])
}

func TestParseIncpthEmpty(t *testing.T) {
	assert.Empty(t, parseIncpth(""))
}
