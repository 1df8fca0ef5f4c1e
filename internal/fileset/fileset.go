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

// Package fileset registers source files by path and hands out stable
// FileIDs, so that a Location (a FileID plus line and column) can be
// resolved back to a path and the originating #include chain for
// diagnostics. The preprocessor records such Locations for #define and
// #include sites; the tokens it emits carry only a lexer.Cursor.
package fileset

import "fmt"

// FileID identifies a registered file. The zero value denotes "unknown
// origin" (e.g. a synthesized location for a built-in macro).
type FileID int

// Entry describes one registered file.
type Entry struct {
	Path string
	// IncludedFrom is the location in the including file where this file
	// was pulled in via #include, or the zero Location for the root file(s)
	// passed on the command line.
	IncludedFrom Location
}

// Location is a source position: a file plus 1-based line and column.
type Location struct {
	File   FileID
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == 0 {
		return "<unknown>"
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Set is the append-only registry of known files. Like internal/intern, it
// assumes single-threaded use by the pipeline.
type Set struct {
	entries []Entry
	byPath  map[string]FileID
}

// NewSet returns an empty file set. ID 0 is reserved for "unknown".
func NewSet() *Set {
	return &Set{
		entries: []Entry{{}},
		byPath:  make(map[string]FileID),
	}
}

// Register returns the FileID for path, registering it if this is the first
// time it is seen. includedFrom records the #include site; it is ignored on
// subsequent registrations of the same path (the first include site wins,
// matching how #include_next and pragma-once guards observe a single
// canonical first inclusion).
func (s *Set) Register(path string, includedFrom Location) FileID {
	if id, ok := s.byPath[path]; ok {
		return id
	}
	id := FileID(len(s.entries))
	s.entries = append(s.entries, Entry{Path: path, IncludedFrom: includedFrom})
	s.byPath[path] = id
	return id
}

// Path returns the path registered for id.
func (s *Set) Path(id FileID) string {
	return s.entries[id].Path
}

// Entry returns the full registered entry for id.
func (s *Set) Entry(id FileID) Entry {
	return s.entries[id]
}

// Lookup returns the FileID already registered for path, if any.
func (s *Set) Lookup(path string) (FileID, bool) {
	id, ok := s.byPath[path]
	return id, ok
}

// IncludeChain returns the chain of locations from the root file down to id,
// innermost last, useful for "included from ... included from ..."
// diagnostics.
func (s *Set) IncludeChain(id FileID) []Location {
	var chain []Location
	for id != 0 {
		entry := s.entries[id]
		if entry.IncludedFrom.File == 0 {
			break
		}
		chain = append([]Location{entry.IncludedFrom}, chain...)
		id = entry.IncludedFrom.File
	}
	return chain
}
