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

package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkoba/perlmacrogen/internal/macroanalysis"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

func TestResolveAgreeingHintsConfirm(t *testing.T) {
	infos := map[string]*macroanalysis.Info{
		"WRAP": {
			Name:   "WRAP",
			Params: []string{"x"},
			ParamHints: map[string][]unitype.Type{
				"x": {unitype.FromCString("SV *"), unitype.FromCString("SV *")},
			},
		},
	}
	sigs, stats := Resolve(infos, nil)
	state := sigs["WRAP"].Params["x"]
	require.True(t, state.Confirmed)
	assert.True(t, state.Type.Equals(unitype.FromCString("SV *")))
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 0, stats.Pending)
}

func TestResolveConflictingHintsStayPendingWithoutAssertion(t *testing.T) {
	infos := map[string]*macroanalysis.Info{
		"WRAP": {
			Name:   "WRAP",
			Params: []string{"x"},
			ParamHints: map[string][]unitype.Type{
				"x": {unitype.FromCString("SV *"), unitype.FromCString("int")},
			},
		},
	}
	sigs, stats := Resolve(infos, nil)
	state := sigs["WRAP"].Params["x"]
	assert.False(t, state.Confirmed)
	assert.Equal(t, 0, stats.Resolved)
	assert.Equal(t, 1, stats.Pending)
}

func TestResolveConflictingHintsBreakTieWithApidoc(t *testing.T) {
	infos := map[string]*macroanalysis.Info{
		"WRAP": {
			Name:   "WRAP",
			Params: []string{"x"},
			ParamHints: map[string][]unitype.Type{
				"x": {unitype.FromCString("SV *"), unitype.FromCString("int")},
			},
		},
	}
	asserted := func(name, param string) (unitype.Type, bool) {
		if name == "WRAP" && param == "x" {
			return unitype.FromCString("SV *"), true
		}
		return unitype.Type{}, false
	}
	sigs, stats := Resolve(infos, asserted)
	state := sigs["WRAP"].Params["x"]
	require.True(t, state.Confirmed)
	assert.True(t, state.Type.Equals(unitype.FromCString("SV *")))
	assert.Equal(t, 1, stats.Resolved)
}

func TestResolveParamWithNoHintsStaysPending(t *testing.T) {
	infos := map[string]*macroanalysis.Info{
		"NOOP": {Name: "NOOP", Params: []string{"x"}, ParamHints: map[string][]unitype.Type{}},
	}
	sigs, stats := Resolve(infos, nil)
	assert.False(t, sigs["NOOP"].Params["x"].Confirmed)
	assert.Equal(t, 1, stats.Pending)
}

func TestResolveNeverRevisitsConfirmedParam(t *testing.T) {
	infos := map[string]*macroanalysis.Info{
		"WRAP": {
			Name:   "WRAP",
			Params: []string{"x"},
			ParamHints: map[string][]unitype.Type{
				"x": {unitype.FromCString("SV *")},
			},
		},
	}
	sigs, _ := Resolve(infos, nil)
	confirmedType := sigs["WRAP"].Params["x"].Type

	// Mutating the hint slice after Resolve has already confirmed the
	// parameter must not be able to flip its type on a subsequent run
	// against a fresh Signature set built from the same Info.
	infos["WRAP"].ParamHints["x"] = append(infos["WRAP"].ParamHints["x"], unitype.FromCString("int"))
	sigs2, _ := Resolve(infos, nil)
	assert.False(t, sigs2["WRAP"].Params["x"].Confirmed, "conflicting hints on a fresh run still can't agree")
	assert.True(t, confirmedType.Equals(unitype.FromCString("SV *")))
}
