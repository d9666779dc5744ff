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

package emit

import (
	"strconv"
	"strings"

	"github.com/maruel/jamninja/internal/expand"
	"github.com/maruel/jamninja/internal/graph"
	"github.com/maruel/jamninja/internal/value"
)

// stepEnv resolves $(1)/$(2)/... against the step's bound target and
// source names (jamp's UpdatingAction.bound_params()), falls back to
// the step's own targets' variables (jamp's "current_target" overlay,
// state.vars.current_target = self.targets in prepare_lines), and
// finally the evaluator's global scope for ordinary references like
// $(CC).
type stepEnv struct {
	lol     value.LoL
	targets []*graph.Target
	global  GlobalEnv
}

func (s *stepEnv) Lookup(name string) value.List {
	if n, err := strconv.Atoi(name); err == nil && n >= 1 {
		return s.lol.At(n - 1)
	}
	for _, t := range s.targets {
		if v, ok := t.Vars[name]; ok {
			return v
		}
	}
	if s.global != nil {
		return s.global.Lookup(name)
	}
	return nil
}

// boundParams implements jamp's UpdatingAction.bound_params(): index 0
// is the bound names of the step's targets, index 1 the bound names of
// its sources (skipping unbound ones), index 2+ the step's own
// invocation-time argument columns past the first two.
func boundParams(g *graph.Graph, step *graph.UpdatingAction) value.LoL {
	var lol value.LoL
	var targets value.List
	for _, id := range step.Targets {
		targets = append(targets, g.Target(id).BoundNameOrName())
	}
	lol = append(lol, targets)

	var sources value.List
	for _, id := range step.Sources {
		if t := g.Target(id); t.Bound {
			sources = append(sources, t.BoundName)
		}
	}
	lol = append(lol, sources)

	for i := 2; i < len(step.Args); i++ {
		lol = append(lol, step.Args[i])
	}
	return lol
}

// applyBindlist implements jamp's UpdatingAction.modify_vms_paths: on
// VMS, every variable named in the action's bindlist gets its bare
// (no ':' or '[') filenames prefixed with "[]" before command
// expansion, so they resolve relative to the current default directory.
func applyBindlist(host interface{ IsVMS() bool }, action *graph.Action, targets []*graph.Target) {
	if !host.IsVMS() || len(action.BindList) == 0 {
		return
	}
	for _, t := range targets {
		for _, name := range action.BindList {
			v, ok := t.Vars[name]
			if !ok {
				continue
			}
			modified := make(value.List, len(v))
			for i, item := range v {
				if strings.ContainsAny(item, ":[") {
					modified[i] = item
				} else {
					modified[i] = "[]" + item
				}
			}
			t.Vars[name] = modified
		}
	}
}

// jamshellTemplate returns the JAMSHELL wrapper template (SPEC_FULL.md
// supplemented feature 4): a target or global JAMSHELL variable whose
// single '%' placeholder stands for the command being wrapped; "%"
// itself (identity) when unset, matching undocumented-default behavior.
func (e *Emitter) jamshellTemplate(targets []*graph.Target) string {
	for _, t := range targets {
		if v := t.Vars["JAMSHELL"]; len(v) > 0 {
			return v.Join(" ")
		}
	}
	if e.global != nil {
		if v := e.global.Lookup("JAMSHELL"); len(v) > 0 {
			return v.Join(" ")
		}
	}
	return "%"
}

func applyJamshell(template, line string) string {
	if template == "%" || template == "" {
		return line
	}
	return strings.ReplaceAll(template, "%", line)
}

// preparedLines expands every non-comment, non-blank line of the
// action's command template against env one whitespace-separated word
// at a time (so a list-valued reference yields its items in place, and
// list products stay within one word), joins the results with single
// spaces, applies JAMSHELL, and doubles
// '$' while lowering the <NINJA_SIGIL> sentinel — all per source line,
// matching jamp's prepare_lines doing `line.replace("$", "$$")` before
// the concatenation pass ever sees it (see concat.go).
func preparedLines(action *graph.Action, env expand.Env, jamshell, commentSym string) ([]string, error) {
	var out []string
	for _, raw := range strings.Split(action.Commands, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentSym) {
			continue
		}
		var words []string
		for _, field := range strings.Fields(line) {
			expanded, err := expand.Expand(field, env)
			if err != nil {
				return nil, err
			}
			words = append(words, expanded...)
		}
		text := strings.Join(words, " ")
		text = applyJamshell(jamshell, text)
		text = strings.ReplaceAll(text, "$", "$$")
		text = strings.ReplaceAll(text, expand.Sigil, "$")
		out = append(out, text)
	}
	return out, nil
}

// commandFor implements spec.md §4.9 step 1 for one build step,
// including its linked chain (jamp's get_command recursing into
// self.next): each link's own lines are expanded and concatenated per
// platform, then the links are joined by the same platform's chain
// separator.
func (e *Emitter) commandFor(g *graph.Graph, step *graph.UpdatingAction) (string, error) {
	if cmd, ok := step.CachedCommand(); ok {
		return cmd, nil
	}

	targets := targetsOf(g, step.Targets)
	resolveDepfile(step, targets)
	applyBindlist(e.host, step.Action, targets)

	cmd, err := e.oneCommand(g, step, targets)
	if err != nil {
		return "", err
	}

	for next := step.Next; next != nil; next = next.Next {
		nextTargets := targetsOf(g, next.Targets)
		applyBindlist(e.host, next.Action, nextTargets)
		nc, err := e.oneCommand(g, next, nextTargets)
		if err != nil {
			return "", err
		}
		switch {
		case e.host.IsVMS():
			cmd += "$\n$^" + nc
		case e.host.IsWindows():
			cmd += "$\n$^" + nc
		default:
			cmd += " ; $\n" + nc
		}
	}
	if e.host.IsVMS() {
		cmd += "$\n$^$$"
	}

	step.SetCachedCommand(cmd)
	return cmd, nil
}

func (e *Emitter) oneCommand(g *graph.Graph, step *graph.UpdatingAction, targets []*graph.Target) (string, error) {
	env := &stepEnv{lol: boundParams(g, step), targets: targets, global: e.global}
	jamshell := e.jamshellTemplate(targets)

	switch {
	case e.host.IsVMS():
		lines, err := preparedLines(step.Action, env, jamshell, "!")
		if err != nil {
			return "", err
		}
		return concatVMS(lines), nil
	case e.host.IsWindows():
		lines, err := preparedLines(step.Action, env, jamshell, "REM")
		if err != nil {
			return "", err
		}
		return concatWindows(lines), nil
	default:
		lines, err := preparedLines(step.Action, env, jamshell, "#")
		if err != nil {
			return "", err
		}
		return concatPosix(lines), nil
	}
}

func targetsOf(g *graph.Graph, ids []graph.ID) []*graph.Target {
	out := make([]*graph.Target, len(ids))
	for i, id := range ids {
		out[i] = g.Target(id)
	}
	return out
}

// resolveDepfile implements spec.md §4.9 step 3's "first target's
// DEPFILE wins", done once per step the first time its command is
// expanded.
func resolveDepfile(step *graph.UpdatingAction, targets []*graph.Target) {
	if step.Depfile != "" {
		return
	}
	for _, t := range targets {
		if d := t.Var("DEPFILE"); len(d) > 0 {
			step.Depfile = d[0]
			return
		}
	}
}
