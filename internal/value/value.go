// Copyright 2012 Google Inc. All Rights Reserved.
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

// Package value defines the one data type every other package in this
// module passes around: a Jam value is always a list of strings
// (spec.md §3), and a rule's positional arguments are a list of lists.
package value

// List is a Jam value: an ordered list of strings. A scalar is the
// one-element List.
type List []string

// LoL is the positional argument vector passed to a rule: LoL[0] is
// $(1), LoL[1] is $(2), and so on.
type LoL []List

// Clone returns an independent copy of l.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Truth implements spec.md §4.4: a list is true iff it is non-empty and
// its first element is non-empty.
func (l List) Truth() bool {
	return len(l) > 0 && l[0] != ""
}

// Join concatenates l with sep between elements, spec.md §4.2 :J=sep.
func (l List) Join(sep string) string {
	if len(l) == 0 {
		return ""
	}
	out := l[0]
	for _, s := range l[1:] {
		out += sep + s
	}
	return out
}

// Subset reports whether every element of a appears in b, used by the
// Jam "in" operator (spec.md §4.4: left list is subset of right list).
func (a List) Subset(b List) bool {
	set := make(map[string]bool, len(b))
	for _, s := range b {
		set[s] = true
	}
	for _, s := range a {
		if !set[s] {
			return false
		}
	}
	return true
}

// Equal is list-lexicographic equality, used for the Jam "=" comparison.
func (a List) Equal(b List) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Less is list-lexicographic ordering (spec.md §4.4 comparisons are
// list-lexicographic), comparing element by element, shorter-is-less on
// a shared prefix.
func (a List) Less(b List) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// At returns the LoL column, or an empty List if idx is out of range
// (rule invocation with fewer actual arguments than $(n) references).
func (l LoL) At(idx int) List {
	if idx < 0 || idx >= len(l) {
		return nil
	}
	return l[idx]
}
