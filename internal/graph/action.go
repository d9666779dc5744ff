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

// Action is a named template of shell commands plus flags and a bind
// list (spec.md §3). Rules and actions may share a name.
type Action struct {
	Name      string
	Updated   bool
	Together  bool
	Ignore    bool
	Quietly   bool
	Piecemeal bool
	Existing  bool
	BindList  []string
	Commands  string // raw multi-line shell template with $(...) placeholders
}

// UpdatingAction pairs an Action with the target list, source list, and
// parameter LoL at its call site (spec.md §3's "build step").
type UpdatingAction struct {
	Action  *Action
	Targets []ID
	Sources []ID
	Args    value.LoL

	Next *UpdatingAction // chain of additional actions on the same targets
	Base *UpdatingAction // set by link(): next.Base = self

	Restat    bool
	Generator bool
	Depfile   string

	command string // cached expansion, filled in by the emitter
	hasCmd  bool
}

// IsAlone reports whether this step has neither Next nor Base: only
// alone steps are candidates for rule deduplication in the emitter
// (spec.md §3, §4.9).
func (u *UpdatingAction) IsAlone() bool {
	return u.Next == nil && u.Base == nil
}

// Link appends next onto u's action chain and records the back-link,
// matching spec.md §4.5 step 1: "link()-appended to the existing
// step's action chain".
func (u *UpdatingAction) Link(next *UpdatingAction) {
	tail := u
	for tail.Next != nil {
		tail = tail.Next
	}
	tail.Next = next
	next.Base = tail
}

// CachedCommand returns the command string cached by the emitter, and
// whether one has been set yet.
func (u *UpdatingAction) CachedCommand() (string, bool) {
	return u.command, u.hasCmd
}

// SetCachedCommand records the expanded command string so repeated
// emission passes (e.g. tests) don't need to re-expand it.
func (u *UpdatingAction) SetCachedCommand(cmd string) {
	u.command = cmd
	u.hasCmd = true
}
