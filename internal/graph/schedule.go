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

import "github.com/maruel/jamninja/internal/value"

// Schedule implements spec.md §4.5, rule-action scheduling: when a rule
// sharing an action's name is invoked on targets with sources, one
// UpdatingAction is created for the "building" targets (those without a
// build step yet) and every target that already has a build step
// becomes a "linking" target whose new step is link()-appended onto its
// existing chain.
func (g *Graph) Schedule(action *Action, targets, sources []ID, args value.LoL) *UpdatingAction {
	var building []ID
	var step *UpdatingAction

	for _, id := range targets {
		t := g.targets[id]
		if t.BuildStep != nil {
			linking := &UpdatingAction{Action: action, Targets: []ID{id}, Sources: sources, Args: args}
			t.BuildStep.Link(linking)
			continue
		}
		building = append(building, id)
	}

	if len(building) > 0 {
		step = &UpdatingAction{Action: action, Targets: building, Sources: sources, Args: args}
		g.AddStep(step)
		for _, id := range building {
			t := g.targets[id]
			t.BuildStep = step
			// A force-update target clears Restat on its building step.
			// Restat is false on every new step, so this changes nothing
			// in the output, and steps later Link()-ed onto the chain are
			// not touched.
			if t.Always {
				step.Restat = false
			}
		}
	}
	return step
}
