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

// Package infer resolves macro parameter types to a fixed point. A
// parameter whose type the AssertedType source (apidoc) declares is
// confirmed with that type up front. Any other parameter is confirmed the
// moment every usage hint collected for it agrees (or, when hints
// conflict, the moment one of them is apidoc-asserted), and otherwise
// left Unknown rather than guessed. The hints are fixed before Resolve
// runs: another macro's resolution adds no hints, so the loop ends after
// the first round that confirms nothing new.
package infer

import (
	"github.com/hkoba/perlmacrogen/internal/collections"
	"github.com/hkoba/perlmacrogen/internal/macroanalysis"
	"github.com/hkoba/perlmacrogen/internal/unitype"
)

// maxIterations bounds the fixed-point loop as a cycle-detection safety
// valve: mutually-recursive macros could otherwise oscillate forever if
// the monotonicity invariant were ever violated by a bug.
const maxIterations = 64

// ParamState is one parameter's resolution state.
type ParamState struct {
	Type      unitype.Type
	Confirmed bool
}

// Signature is the resolved (or partially resolved) type information for
// one macro.
type Signature struct {
	Name         string
	ParamNames   []string
	Params       map[string]*ParamState
	Category     macroanalysis.Category
	NeedsContext bool
	// ReturnType is resolved once, from an apidoc-asserted signature if
	// one exists for this name (paramName ""); it does not participate
	// in the iterative fixed-point loop since nothing about a macro's own
	// body can assert its return type the way argument usage asserts a
	// parameter's, only an external declaration can.
	ReturnType unitype.Type
}

// AssertedType is supplied by the caller (normally backed by an
// apidoc.Dict lookup). Resolve confirms every parameter it answers for
// before looking at any hint, and uses it to break ties when a
// parameter's usage sites imply conflicting types: an apidoc-documented
// signature always wins over an inferred one, since it reflects what the
// function's author actually declared. name is the macro or function
// name, paramName the parameter being resolved ("" for the return type).
type AssertedType func(name, paramName string) (unitype.Type, bool)

// Stats summarizes one Resolve call for CLI reporting.
type Stats struct {
	Iterations int
	Resolved   int
	Pending    int
}

// pendingBinding is one (macro, parameter) pair still awaiting a confirmed
// type within a round, queued by collections.PriorityQueue so each round
// resolves its least-ambiguous bindings first.
type pendingBinding struct {
	macro string
	param string
	hints []unitype.Type
}

// Less orders bindings by hint count, fewest first. Whether a binding's
// hints agree is not looked at here; reduceHints decides that.
func (b *pendingBinding) Less(other *pendingBinding) bool {
	return len(b.hints) < len(other.hints)
}

// Resolve runs the fixed-point loop over infos (as produced by
// macroanalysis.Analyzer.Analyze) and returns one Signature per macro,
// plus Stats describing how many iterations were needed.
func Resolve(infos map[string]*macroanalysis.Info, asserted AssertedType) (map[string]*Signature, Stats) {
	sigs := make(map[string]*Signature, len(infos))
	for name, info := range infos {
		sig := &Signature{
			Name:         name,
			ParamNames:   info.Params,
			Params:       initParamStates(info.Params),
			Category:     info.Category,
			NeedsContext: info.NeedsContext,
		}
		if asserted != nil {
			if t, ok := asserted(name, ""); ok {
				sig.ReturnType = t
			}
			for _, param := range info.Params {
				if t, ok := asserted(name, param); ok {
					sig.Params[param].Type = t
					sig.Params[param].Confirmed = true
				}
			}
		}
		sigs[name] = sig
	}

	stats := Stats{}
	for iteration := 0; iteration < maxIterations; iteration++ {
		stats.Iterations = iteration + 1
		changed := false

		queue := collections.NewEmptyPriorityQueue[*pendingBinding]()
		for name, info := range infos {
			sig := sigs[name]
			for _, param := range info.Params {
				if sig.Params[param].Confirmed {
					continue // monotonicity: never revisit a confirmed parameter
				}
				hints := info.ParamHints[param]
				if len(hints) == 0 {
					continue
				}
				queue.Push(&pendingBinding{macro: name, param: param, hints: hints})
			}
		}

		for !queue.Empty() {
			b := queue.Pop()
			state := sigs[b.macro].Params[b.param]
			resolved, ok := reduceHints(b.hints, b.macro, b.param, asserted)
			if !ok {
				continue
			}
			state.Type = resolved
			state.Confirmed = true
			changed = true
		}

		if !changed {
			break
		}
	}

	for _, sig := range sigs {
		for _, state := range sig.Params {
			if state.Confirmed {
				stats.Resolved++
			} else {
				stats.Pending++
			}
		}
	}
	return sigs, stats
}

func initParamStates(params []string) map[string]*ParamState {
	m := make(map[string]*ParamState, len(params))
	for _, p := range params {
		m[p] = &ParamState{}
	}
	return m
}

// reduceHints decides a single type for a parameter given every hint
// collected about it. All-agreeing hints (by Type.Equals)
// confirm immediately. Disagreeing hints are resolved in favor of
// whichever candidate the apidoc-style AssertedType source confirms for
// this macro/param combination; if none does, the parameter stays
// unconfirmed rather than picking an arbitrary candidate.
func reduceHints(hints []unitype.Type, macroName, paramName string, asserted AssertedType) (unitype.Type, bool) {
	first := hints[0]
	allAgree := true
	for _, h := range hints[1:] {
		if !h.Equals(first) {
			allAgree = false
			break
		}
	}
	if allAgree {
		return first, true
	}
	if asserted == nil {
		return unitype.Type{}, false
	}
	if t, ok := asserted(macroName, paramName); ok {
		for _, h := range hints {
			if h.Equals(t) {
				return t, true
			}
		}
	}
	return unitype.Type{}, false
}
