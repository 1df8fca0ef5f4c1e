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

// Package intern provides a single-threaded string interner used to give
// every identifier seen by the lexer, parser, and downstream analyses a
// stable, comparable ID. The pipeline runs on one goroutine (see
// internal/pipeline), so the table is a bare append-only map with no
// locking.
package intern

// ID identifies an interned string. The zero value is never produced by
// Table.Intern; it is reserved so a zero-valued ID field reads as "not yet
// interned" rather than aliasing the first real string.
type ID int

// Table interns strings to small integer IDs so that downstream code can
// compare identifiers with == instead of strings.Compare.
type Table struct {
	ids     map[string]ID
	strings []string
}

// NewTable returns an empty interning table. The zero ID is pre-reserved.
func NewTable() *Table {
	return &Table{
		ids:     make(map[string]ID),
		strings: []string{""},
	}
}

// Intern returns the ID for s, assigning a new one the first time s is seen.
func (t *Table) Intern(s string) ID {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := ID(len(t.strings))
	t.strings = append(t.strings, s)
	t.ids[s] = id
	return id
}

// Lookup returns the ID previously assigned to s, if any.
func (t *Table) Lookup(s string) (ID, bool) {
	id, ok := t.ids[s]
	return id, ok
}

// String returns the string that id was interned from. Panics if id is out
// of range, which indicates an ID from a different table was used.
func (t *Table) String(id ID) string {
	return t.strings[id]
}

// Len returns the number of distinct strings interned so far, excluding the
// reserved zero entry.
func (t *Table) Len() int {
	return len(t.strings) - 1
}
