// Copyright 2011 Google Inc. All Rights Reserved.
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

// Package graph is the target graph (spec.md §3, §4.5, §4.6, §4.8):
// named build targets with explicit and discovered dependencies,
// per-target variable scopes, bind/search resolution, and cycle
// elimination. Modeled on the teacher's Node/Edge arena (graph.go,
// state.go) per DESIGN NOTES §9: targets live in a flat arena and are
// referenced by a stable integer handle instead of pointers, which
// turns cycle-breaking into a pure graph operation over handle sets.
package graph

import "github.com/maruel/jamninja/internal/value"

// ID is a stable handle into a Graph's target arena.
type ID int

// Target is one node of the dependency graph: a file or a phony.
// Fields mirror spec.md §3 exactly.
type Target struct {
	ID       ID
	Name     string
	Depends  map[ID]bool
	Includes map[ID]bool

	BoundName string // "" until bound
	Bound     bool

	NotFile   bool
	Temporary bool
	IsDir     bool
	IsHeader  bool
	IsOutput  bool
	Generated bool
	NoCare    bool // original_source supplemental: accept if missing
	Always    bool

	Vars map[string]value.List

	BuildStep *UpdatingAction // at most one
}

func newTarget(id ID, name string) *Target {
	suffix := suffixOf(name)
	return &Target{
		ID:       id,
		Name:     name,
		Depends:  map[ID]bool{},
		Includes: map[ID]bool{},
		Vars:     map[string]value.List{},
		IsHeader: isHeaderSuffix(suffix),
	}
}

func suffixOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		switch name[i] {
		case '.':
			return name[i:]
		case '/', '\\':
			return ""
		}
	}
	return ""
}

func isHeaderSuffix(suffix string) bool {
	switch suffix {
	case ".h", ".hpp", ".hh":
		return true
	}
	return false
}

// BoundNameOrName returns the target's bound filesystem path if it has
// one, otherwise its bare name (an unbound notfile/phony target is
// referred to by name in emitted Ninja text).
func (t *Target) BoundNameOrName() string {
	if t.Bound {
		return t.BoundName
	}
	return t.Name
}

// Var returns the per-target value of name, or nil if unset.
func (t *Target) Var(name string) value.List { return t.Vars[name] }

// SetVar overwrites the per-target value of name.
func (t *Target) SetVar(name string, v value.List) { t.Vars[name] = v }
