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

package fileset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterIsStable(t *testing.T) {
	set := NewSet()
	a := set.Register("perl.h", Location{})
	b := set.Register("XSUB.h", Location{})
	c := set.Register("perl.h", Location{})

	assert.Equal(t, a, c)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "perl.h", set.Path(a))
}

func TestIncludeChain(t *testing.T) {
	set := NewSet()
	root := set.Register("perl.h", Location{})
	hv := set.Register("hv.h", Location{File: root, Line: 10, Column: 1})
	sv := set.Register("sv.h", Location{File: hv, Line: 3, Column: 1})

	chain := set.IncludeChain(sv)
	if assert.Len(t, chain, 2) {
		assert.Equal(t, root, chain[0].File)
		assert.Equal(t, hv, chain[1].File)
	}
}
