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

import "github.com/maruel/jamninja/internal/platform"

// FileProvider is the external collaborator from spec.md §6: the graph
// never touches os directly, it asks a FileProvider.
type FileProvider interface {
	Read(path string) ([]byte, error)
	Exists(path string) bool
	IsDir(path string) bool
	IsFile(path string) bool
}

// genHeadersName is the name of the designated target whose Depends set
// accumulates every header that is also a build output (spec.md §3),
// so the emitter can promote them to order-only edges.
const genHeadersName = "<gen-headers>"

// Graph is the arena-backed container described in DESIGN NOTES §9: a
// flat slice of Targets addressed by a stable ID, plus the bookkeeping
// spec.md §3 hangs off State (target_locations, _gen_headers, the
// ordered build-step list).
type Graph struct {
	targets []*Target
	byName  map[string]ID

	// targetLocations maps a bound filesystem path back to the Target
	// that owns it, for fast "is this path a known target?" checks
	// during §4.6 search.
	targetLocations map[string]ID

	genHeaders ID

	steps []*UpdatingAction

	collections map[ID]CollectionInfo

	Host  platform.Bridge
	Files FileProvider
}

// New creates an empty Graph bound to the given platform bridge and
// file provider.
func New(host platform.Bridge, files FileProvider) *Graph {
	g := &Graph{
		byName:          map[string]ID{},
		targetLocations: map[string]ID{},
		Host:            host,
		Files:           files,
	}
	g.genHeaders = g.GetOrCreate(genHeadersName).ID
	return g
}

// GetOrCreate returns the Target named name, creating it (and
// registering it in the arena) on first mention, matching spec.md §3's
// "created on first name mention (bind(state, name))".
func (g *Graph) GetOrCreate(name string) *Target {
	if id, ok := g.byName[name]; ok {
		return g.targets[id]
	}
	id := ID(len(g.targets))
	t := newTarget(id, name)
	g.targets = append(g.targets, t)
	g.byName[name] = id
	return t
}

// Lookup returns the Target named name if it has already been created.
func (g *Graph) Lookup(name string) (*Target, bool) {
	id, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.targets[id], true
}

// Target dereferences an ID. Panics on an invalid ID, since IDs are
// only ever handed out by GetOrCreate.
func (g *Graph) Target(id ID) *Target { return g.targets[id] }

// Targets returns every target in insertion order (spec.md §5:
// "Iteration over targets for emission must be by insertion order").
func (g *Graph) Targets() []*Target { return g.targets }

// GenHeaders returns the designated header-accumulation target.
func (g *Graph) GenHeaders() *Target { return g.targets[g.genHeaders] }

// Steps returns the build-step list in insertion (rule execution)
// order (spec.md §5).
func (g *Graph) Steps() []*UpdatingAction { return g.steps }

// AddStep appends a new build step, preserving insertion order.
func (g *Graph) AddStep(step *UpdatingAction) {
	g.steps = append(g.steps, step)
}

// BindLocation records that boundname now resolves to target id, for
// target_locations lookups.
func (g *Graph) bindLocation(t *Target, boundname string) {
	t.BoundName = boundname
	t.Bound = true
	g.targetLocations[boundname] = t.ID
}

// BindAt force-binds t to boundname, for callers outside this package
// that discover a target's filesystem location on their own (the header
// scanner, resolving an #include relative to the scanning file's
// directory instead of through LOCATE/SEARCH).
func (g *Graph) BindAt(t *Target, boundname string) {
	g.bindLocation(t, boundname)
	g.afterBind(t)
}

// TargetAt returns the Target whose bound location is path, if any.
func (g *Graph) TargetAt(path string) (*Target, bool) {
	id, ok := g.targetLocations[path]
	if !ok {
		return nil, false
	}
	return g.targets[id], true
}
