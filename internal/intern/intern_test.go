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

package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternStable(t *testing.T) {
	tbl := NewTable()
	a := tbl.Intern("SvPV")
	b := tbl.Intern("HvFILL")
	c := tbl.Intern("SvPV")

	assert.Equal(t, a, c)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "SvPV", tbl.String(a))
	assert.Equal(t, "HvFILL", tbl.String(b))
	assert.Equal(t, 2, tbl.Len())
}

func TestLookupMissing(t *testing.T) {
	tbl := NewTable()
	tbl.Intern("newSVpvs")

	_, ok := tbl.Lookup("does_not_exist")
	assert.False(t, ok)

	id, ok := tbl.Lookup("newSVpvs")
	assert.True(t, ok)
	assert.Equal(t, "newSVpvs", tbl.String(id))
}
