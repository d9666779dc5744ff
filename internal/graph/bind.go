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

import (
	"github.com/maruel/jamninja/internal/path"
)

// BindAll runs one bind_location() pass over every target that is not
// yet bound, implementing spec.md §4.6 step 1 (strict=false) or step 3
// (strict=true). Targets already bound are left untouched, preserving
// the "boundname, once non-null, is stable" invariant.
func (g *Graph) BindAll(strict bool) {
	for _, t := range g.targets {
		if t.Bound || t.NotFile {
			continue
		}
		g.bindOne(t, strict)
	}
}

func (g *Graph) bindOne(t *Target, strict bool) {
	name := t.Name
	p := path.Parse(name)
	bare := name
	if p.Grist != "" {
		bare = path.Build(path.Parts{Root: p.Root, Dir: p.Dir, Base: p.Base, Suffix: p.Suffix, Member: p.Member}, true, g.Host)
	}

	if loc := t.Var("LOCATE"); len(loc) > 0 {
		g.bindLocation(t, path.Join(loc[0], bare, g.Host))
		g.afterBind(t)
		return
	}

	// For each SEARCH root, a location that is already a known target
	// wins before the filesystem is asked whether the file exists.
	for _, root := range t.Var("SEARCH") {
		candidate := path.Join(root, bare, g.Host)
		if _, known := g.TargetAt(candidate); known {
			g.bindLocation(t, candidate)
			g.afterBind(t)
			return
		}
		if g.Files != nil && g.Files.Exists(candidate) {
			g.bindLocation(t, candidate)
			g.afterBind(t)
			return
		}
	}

	if strict {
		// Second pass for headers discovered by the scanner: if still
		// unbound here, accept the plain name the way the non-strict
		// fallback does. strict has no effect on binding: both passes
		// revisit every unbound target and use the same fallback.
	}

	g.bindLocation(t, bare)
	g.afterBind(t)
}

// afterBind implements the tail of spec.md §4.6 step 1: header-suffixed
// output targets are added to _gen_headers.Depends.
func (g *Graph) afterBind(t *Target) {
	if t.IsHeader && t.IsOutput {
		g.GenHeaders().Depends[t.ID] = true
	}
}

// SearchForCycles implements spec.md §4.6 step 4: builds a directed
// graph over Depends ∪ Includes and, during a depth-first walk, drops
// every Includes edge that leads back to a node still on the walk's
// stack. A cycle closed by a Depends edge is left in place. Returns the
// names of the include edges it dropped, for
// verbose-only logging (spec.md §7 "Cycle").
func (g *Graph) SearchForCycles() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.targets))
	var stack []ID
	var broken []string

	var visit func(id ID)
	visit = func(id ID) {
		color[id] = gray
		stack = append(stack, id)
		t := g.targets[id]

		for next := range t.Depends {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				// depends-cycles are not broken (only includes edges are,
				// per spec.md §4.6 step 4); nothing to do here.
			}
		}
		for next := range t.Includes {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				delete(t.Includes, next)
				broken = append(broken, t.Name+" -> "+g.targets[next].Name)
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, t := range g.targets {
		if color[t.ID] == white {
			visit(t.ID)
		}
	}
	return broken
}
