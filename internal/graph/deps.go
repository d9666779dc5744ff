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

package graph

import "strings"

const maxIncludeDepth = 10

// collectionName builds the synthetic phony name for an included
// target's aggregated dependency set (spec.md §4.8, GLOSSARY
// "Collection"): "_<name>_", with VMS lowercasing and ':' folded to '_'.
func (g *Graph) collectionName(t *Target) string {
	name := t.Name
	if g.Host != nil && g.Host.IsVMS() {
		name = strings.ToLower(strings.ReplaceAll(name, ":", "_"))
	}
	return "_" + name + "_"
}

// Collections returns the synthetic phony aggregates accumulated by
// GetDependencyList calls so far, keyed by the included target's ID.
// The emitter uses this to emit each collection's phony build
// statement exactly once (spec.md §4.9 step 4).
func (g *Graph) Collections() map[ID]CollectionInfo {
	return g.collections
}

// CollectionInfo is one synthetic phony aggregate: its emitted name and
// the dependency strings it aggregates.
type CollectionInfo struct {
	Name    string
	Members []string
}

// GetDependencyList returns the set of path strings t depends on for
// emission (spec.md §4.8). outputs, when non-nil, is the set of this
// build step's own output paths: a dependency appearing in outputs is
// dropped (Ninja forbids self-loops). A nil or single-element outputs
// set is the "cached form" that may collapse an included target's own
// non-empty dependency set into a synthetic phony.
func (g *Graph) GetDependencyList(t *Target, outputs map[string]bool) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if outputs != nil && outputs[s] {
			return
		}
		if seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	cached := len(outputs) <= 1

	var addDep func(id ID)
	addDep = func(id ID) {
		dep := g.targets[id]
		switch {
		case dep.NotFile:
			add(dep.Name)
		case dep.IsDir && t.Name != "dirs":
			add("dirs")
		case dep.BuildStep == nil && !dep.IsOutput:
			for d := range dep.Depends {
				addDep(d)
			}
		default:
			add(dep.BoundNameOrName())
		}
	}
	for id := range t.Depends {
		addDep(id)
	}

	var addInclude func(id ID, depth int)
	addInclude = func(id ID, depth int) {
		if depth > maxIncludeDepth {
			return
		}
		inc := g.targets[id]
		if cached {
			members := g.GetDependencyList(inc, nil)
			if len(members) > 0 {
				name := g.collectionName(inc)
				if g.collections == nil {
					g.collections = map[ID]CollectionInfo{}
				}
				if _, ok := g.collections[id]; !ok {
					g.collections[id] = CollectionInfo{Name: name, Members: members}
				}
				add(name)
				return
			}
		}
		add(inc.BoundNameOrName())
		for d := range inc.Includes {
			addInclude(d, depth+1)
		}
	}
	for id := range t.Includes {
		addInclude(id, 1)
	}

	return out
}
