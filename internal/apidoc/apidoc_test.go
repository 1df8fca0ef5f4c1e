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

package apidoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmbedFncSimpleRow(t *testing.T) {
	input := `: this is a comment, ignored
Ap	|char*	|SvPV	|NN SV* sv|NN STRLEN* len
`
	dict, stats, err := ParseEmbedFnc(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded)

	entry, ok := dict.Lookup("SvPV")
	require.True(t, ok)
	assert.Equal(t, "char*", entry.ReturnType)
	assert.True(t, entry.Flags.Has(FlagPublicAPI))
	if assert.Len(t, entry.Args, 2) {
		assert.Equal(t, "sv", entry.Args[0].Name)
		assert.Equal(t, NotNull, entry.Args[0].Nullability)
	}
}

func TestParseEmbedFncContinuation(t *testing.T) {
	input := "An    |void   |newSVpvs       |NN const char* \\\n|NN STRLEN len\n"
	dict, stats, err := ParseEmbedFnc(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded)
	_, ok := dict.Lookup("newSVpvs")
	assert.True(t, ok)
}

func TestFlagImplicationPureImpliesReturnNeverNull(t *testing.T) {
	f := newFlags("a")
	assert.True(t, f.Has(FlagPure))
	assert.True(t, f.Has(FlagReturnNeverNull))
}

func TestNeedsContext(t *testing.T) {
	withContext := newFlags("A")
	noContext := newFlags("An")
	assert.True(t, withContext.NeedsContext())
	assert.False(t, noContext.NeedsContext())
}

func TestParseApidocBlocks(t *testing.T) {
	src := `
/*
=for apidoc Perl_CvDEPTH
Returns the recursion depth of a currently-executing coderef CV.
=cut
*/
`
	entries := ParseApidocBlocks(src)
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "Perl_CvDEPTH", entries[0].Name)
		assert.Contains(t, entries[0].Description, "recursion depth")
	}
}

func TestParseArgStringVariadic(t *testing.T) {
	arg := parseArgString("...")
	assert.Equal(t, "...", arg.Type)
	assert.Equal(t, "", arg.Name)
}

func TestDictAllReturnsEntriesSortedByName(t *testing.T) {
	input := "An\t|void\t|zzz\t|NN SV* sv\n" +
		"An\t|void\t|aaa\t|NN SV* sv\n"
	dict, _, err := ParseEmbedFnc(strings.NewReader(input))
	require.NoError(t, err)

	all := dict.All()
	require.Len(t, all, 2)
	assert.Equal(t, "aaa", all[0].Name)
	assert.Equal(t, "zzz", all[1].Name)
}

func TestFlagsLettersIsSortedAndIncludesImplied(t *testing.T) {
	input := "Aa\t|void\t|pure_fn\t|NN SV* sv\n"
	dict, _, err := ParseEmbedFnc(strings.NewReader(input))
	require.NoError(t, err)

	entry, ok := dict.Lookup("pure_fn")
	require.True(t, ok)
	// 'a' (FlagPure) implies 'R' (FlagReturnNeverNull); 'A', 'R', 'a' sort
	// in ASCII order as upper-case before lower-case.
	assert.Equal(t, "ARa", entry.Flags.Letters())
}
